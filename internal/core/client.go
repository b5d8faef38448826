package core

import (
	"io"
	"strconv"
	"time"

	"github.com/vovakirdan/wirechat-unix/internal/frame"
)

// Conn is the part of a connection the core needs: writing broadcast lines and
// closing on release.
type Conn interface {
	io.Writer
	io.Closer
}

// RoomID groups clients. A room exists only while some client references it.
type RoomID int

// NoRoom marks a client that is not in any room.
const NoRoom RoomID = -1

// Client is one registry slot. Identity is fixed for the slot's lifetime; every
// other field is reset when the slot is released.
type Client struct {
	Identity    int
	Session     string
	Nickname    string
	Room        RoomID
	Mode        ProtocolMode
	Inbound     *frame.Buffer
	ConnectedAt time.Time

	conn Conn
}

func newClient(identity, bufferSize int) *Client {
	c := &Client{
		Identity: identity,
		Inbound:  frame.NewBuffer(bufferSize),
	}
	c.reset()
	return c
}

// DefaultNickname is the name a client carries until it sends NICK.
func DefaultNickname(identity int) string {
	return "Client " + strconv.Itoa(identity)
}

// Active reports whether the slot currently owns a connection.
func (c *Client) Active() bool {
	return c.conn != nil
}

// InRoom reports whether the client occupies a room.
func (c *Client) InRoom() bool {
	return c.Room != NoRoom
}

func (c *Client) reset() {
	c.conn = nil
	c.Session = ""
	c.Nickname = DefaultNickname(c.Identity)
	c.Room = NoRoom
	c.Mode = ModeUndecided
	c.ConnectedAt = time.Time{}
	c.Inbound.Reset()
}
