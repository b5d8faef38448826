package core

import "github.com/vovakirdan/wirechat-unix/internal/proto"

// EventKind is a room notification produced by a client's action.
type EventKind int

const (
	// EventJoined announces a client entering the room.
	EventJoined EventKind = iota
	// EventLeft announces a client leaving the room.
	EventLeft
	// EventQuit announces a client disconnecting from the room.
	EventQuit
	// EventChat relays a chat message.
	EventChat
)

func (k EventKind) String() string {
	switch k {
	case EventJoined:
		return "joined"
	case EventLeft:
		return "left"
	case EventQuit:
		return "quit"
	case EventChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Event is sent to every member of a room except its originator.
type Event struct {
	Kind EventKind
	Text string
}

// Line formats the event as the wire line peers receive, without terminator.
func (e Event) Line(nick string) string {
	switch e.Kind {
	case EventJoined:
		return proto.JoinLine(nick)
	case EventLeft:
		return proto.LeaveLine(nick)
	case EventQuit:
		return proto.QuitLine(nick)
	default:
		return proto.ChatLine(nick, e.Text)
	}
}
