package core

import (
	"fmt"
	"time"

	"github.com/vovakirdan/wirechat-unix/internal/proto"
)

// SendPolicy decides what a failed write to one broadcast recipient means.
type SendPolicy string

const (
	// SendFailFast aborts the broadcast and reports the failure to the caller.
	SendFailFast SendPolicy = "fail-fast"
	// SendDropRecipient finishes the broadcast and releases failed recipients.
	SendDropRecipient SendPolicy = "drop-recipient"
)

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Broadcast sends ev, formatted with the sender's nickname, to every active
// client in room except the sender. Recipients are visited in slot order.
// Room membership is derived by scanning the registry.
func (h *Hub) Broadcast(room RoomID, sender int, ev Event) error {
	from := h.registry.Slot(sender)
	if from == nil {
		return fmt.Errorf("broadcast from %d: %w", sender, ErrUnknownSlot)
	}
	line := []byte(ev.Line(from.Nickname) + proto.Terminator)

	var failed []int
	for c := range h.registry.Active() {
		if c.Identity == sender || c.Room != room {
			continue
		}
		if err := h.send(c, line); err != nil {
			sendErr := &SendError{Identity: c.Identity, Session: c.Session, Err: err}
			if h.policy != SendDropRecipient {
				return sendErr
			}
			h.log.Warn().Err(err).
				Int("identity", c.Identity).
				Str("session", c.Session).
				Int("room", int(room)).
				Msg("dropping recipient after failed send")
			failed = append(failed, c.Identity)
		}
	}

	for _, identity := range failed {
		if err := h.registry.Release(identity, ReasonSendFailed); err != nil {
			h.log.Debug().Err(err).Int("identity", identity).Msg("release failed recipient")
		}
	}
	return nil
}

func (h *Hub) send(c *Client, line []byte) error {
	if h.writeTimeout > 0 {
		if d, ok := c.conn.(writeDeadliner); ok {
			if err := d.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
				return err
			}
		}
	}
	_, err := c.conn.Write(line)
	return err
}
