package core

import (
	"fmt"
	"iter"
	"time"
	"unicode/utf8"
)

// ReleaseHook observes a slot right before it is reset. The client still
// carries its session, nickname and room.
type ReleaseHook func(c *Client, reason CloseReason)

// Registry is a fixed-capacity table of client slots. It is owned by a single
// goroutine and does no locking.
type Registry struct {
	slots       []*Client
	nicknameMax int
	now         func() time.Time
	hooks       []ReleaseHook
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the time source used for ConnectedAt.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = now
	}
}

// NewRegistry builds capacity free slots, each with a bufferSize inbound
// buffer. nicknameMax bounds nicknames including a terminator byte, so a
// nickname holds at most nicknameMax-1 bytes.
func NewRegistry(capacity, bufferSize, nicknameMax int, opts ...RegistryOption) *Registry {
	r := &Registry{
		slots:       make([]*Client, capacity),
		nicknameMax: nicknameMax,
		now:         time.Now,
	}
	for i := range r.slots {
		r.slots[i] = newClient(i, bufferSize)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddReleaseHook registers h to run on every Release, in registration order.
func (r *Registry) AddReleaseHook(h ReleaseHook) {
	r.hooks = append(r.hooks, h)
}

// Capacity returns the number of slots.
func (r *Registry) Capacity() int {
	return len(r.slots)
}

// Allocate returns the identity of the lowest free slot.
func (r *Registry) Allocate() (int, error) {
	for _, c := range r.slots {
		if !c.Active() {
			return c.Identity, nil
		}
	}
	return -1, ErrRegistryFull
}

// Activate installs conn into a free slot.
func (r *Registry) Activate(identity int, conn Conn, session string) (*Client, error) {
	c := r.Slot(identity)
	if c == nil {
		return nil, fmt.Errorf("activate %d: %w", identity, ErrUnknownSlot)
	}
	if c.Active() {
		return nil, fmt.Errorf("activate %d: %w", identity, ErrSlotInUse)
	}
	c.reset()
	c.conn = conn
	c.Session = session
	c.ConnectedAt = r.now()
	return c, nil
}

// Release closes the slot's connection and returns the slot to its free state.
// Releasing a free slot is a no-op.
func (r *Registry) Release(identity int, reason CloseReason) error {
	c := r.Slot(identity)
	if c == nil {
		return fmt.Errorf("release %d: %w", identity, ErrUnknownSlot)
	}
	if !c.Active() {
		return nil
	}
	for _, h := range r.hooks {
		h(c, reason)
	}
	err := c.conn.Close()
	c.reset()
	if err != nil {
		return fmt.Errorf("close client %d: %w", identity, err)
	}
	return nil
}

// Slot returns the slot with the given identity, or nil when out of range.
func (r *Registry) Slot(identity int) *Client {
	if identity < 0 || identity >= len(r.slots) {
		return nil
	}
	return r.slots[identity]
}

// FindByConn returns the active slot owning conn.
func (r *Registry) FindByConn(conn Conn) (*Client, bool) {
	for c := range r.Active() {
		if c.conn == conn {
			return c, true
		}
	}
	return nil, false
}

// Active yields active slots in ascending identity order.
func (r *Registry) Active() iter.Seq[*Client] {
	return func(yield func(*Client) bool) {
		for _, c := range r.slots {
			if c.Active() && !yield(c) {
				return
			}
		}
	}
}

// ActiveCount returns the number of occupied slots.
func (r *Registry) ActiveCount() int {
	n := 0
	for range r.Active() {
		n++
	}
	return n
}

// SetNickname renames a client, truncating to the nickname bound on a rune
// boundary. An empty name leaves the nickname unchanged. It returns the
// nickname now in effect.
func (r *Registry) SetNickname(identity int, name string) (string, error) {
	c := r.Slot(identity)
	if c == nil || !c.Active() {
		return "", fmt.Errorf("set nickname %d: %w", identity, ErrUnknownSlot)
	}
	if name == "" {
		return c.Nickname, nil
	}
	c.Nickname = truncateNickname(name, r.nicknameMax-1)
	return c.Nickname, nil
}

func truncateNickname(name string, limit int) string {
	if limit < 1 {
		limit = 1
	}
	if len(name) <= limit {
		return name
	}
	i := limit
	for i > 0 && !utf8.RuneStart(name[i]) {
		i--
	}
	return name[:i]
}

// ClientInfo is a read-only copy of one active slot.
type ClientInfo struct {
	Identity    int
	Session     string
	Nickname    string
	Room        RoomID
	Mode        ProtocolMode
	Buffered    int
	ConnectedAt time.Time
}

// Snapshot copies every active slot in identity order.
func (r *Registry) Snapshot() []ClientInfo {
	infos := make([]ClientInfo, 0, len(r.slots))
	for c := range r.Active() {
		infos = append(infos, ClientInfo{
			Identity:    c.Identity,
			Session:     c.Session,
			Nickname:    c.Nickname,
			Room:        c.Room,
			Mode:        c.Mode,
			Buffered:    c.Inbound.Len(),
			ConnectedAt: c.ConnectedAt,
		})
	}
	return infos
}
