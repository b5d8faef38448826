package core

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-unix/internal/proto"
)

// Outcome tells the caller whether the client survived an applied action.
type Outcome int

const (
	// OutcomeContinue keeps processing the client's buffered lines.
	OutcomeContinue Outcome = iota
	// OutcomeDisconnected means the slot was released.
	OutcomeDisconnected
)

// HubOptions tune broadcast behaviour.
type HubOptions struct {
	Policy       SendPolicy
	WriteTimeout time.Duration
}

// Hub applies parsed actions to the registry and fans out room events.
type Hub struct {
	registry     *Registry
	policy       SendPolicy
	writeTimeout time.Duration
	log          *zerolog.Logger
}

// NewHub creates a hub over registry. A nil logger disables logging.
func NewHub(registry *Registry, opts HubOptions, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.Policy == "" {
		opts.Policy = SendFailFast
	}
	return &Hub{
		registry:     registry,
		policy:       opts.Policy,
		writeTimeout: opts.WriteTimeout,
		log:          logger,
	}
}

// Registry returns the slot table the hub operates on.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Apply performs the side effects of action on behalf of the client with the
// given identity. A non-nil error is a failed broadcast under the fail-fast
// policy and is fatal for the server.
func (h *Hub) Apply(identity int, action proto.Action) (Outcome, error) {
	c := h.registry.Slot(identity)
	if c == nil || !c.Active() {
		return OutcomeDisconnected, fmt.Errorf("apply %s: %w", action.Kind, ErrUnknownSlot)
	}
	if action.Command != "" {
		c.Mode = c.Mode.freeze()
	}

	switch action.Kind {
	case proto.ActionDisconnect:
		return h.disconnect(c)
	case proto.ActionSetNickname:
		if _, err := h.registry.SetNickname(identity, action.Text); err != nil {
			return OutcomeContinue, err
		}
	case proto.ActionJoinRoom:
		return OutcomeContinue, h.join(c, RoomID(action.Room))
	case proto.ActionLeaveRoom:
		return OutcomeContinue, h.leave(c)
	case proto.ActionChat:
		if !c.InRoom() {
			return OutcomeContinue, nil
		}
		return OutcomeContinue, h.Broadcast(c.Room, identity, Event{Kind: EventChat, Text: action.Text})
	}
	return OutcomeContinue, nil
}

func (h *Hub) disconnect(c *Client) (Outcome, error) {
	var err error
	if c.InRoom() {
		err = h.Broadcast(c.Room, c.Identity, Event{Kind: EventQuit})
	}
	if releaseErr := h.registry.Release(c.Identity, ReasonQuit); releaseErr != nil {
		h.log.Debug().Err(releaseErr).Int("identity", c.Identity).Msg("release on quit")
	}
	return OutcomeDisconnected, err
}

func (h *Hub) join(c *Client, room RoomID) error {
	if c.InRoom() && c.Room != room {
		if err := h.Broadcast(c.Room, c.Identity, Event{Kind: EventLeft}); err != nil {
			return err
		}
	}
	c.Room = room
	return h.Broadcast(room, c.Identity, Event{Kind: EventJoined})
}

func (h *Hub) leave(c *Client) error {
	previous := c.Room
	c.Room = NoRoom
	if previous == NoRoom {
		return nil
	}
	return h.Broadcast(previous, c.Identity, Event{Kind: EventLeft})
}
