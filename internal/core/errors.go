package core

import (
	"errors"
	"fmt"
)

var (
	ErrRegistryFull = errors.New("registry full")
	ErrUnknownSlot  = errors.New("unknown slot")
	ErrSlotInUse    = errors.New("slot in use")
)

// CloseReason records why a slot was released.
type CloseReason string

const (
	ReasonEOF        CloseReason = "eof"
	ReasonReadError  CloseReason = "read_error"
	ReasonOverflow   CloseReason = "overflow"
	ReasonQuit       CloseReason = "quit"
	ReasonSendFailed CloseReason = "send_failed"
	ReasonShutdown   CloseReason = "shutdown"
	ReasonServerFull CloseReason = "server_full"
)

// SendError reports a failed write to one broadcast recipient.
type SendError struct {
	Identity int
	Session  string
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send to client %d: %v", e.Identity, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
