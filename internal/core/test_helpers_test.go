package core

import (
	"bytes"
	"errors"
	"testing"
)

var errBrokenPipe = errors.New("broken pipe")

type fakeConn struct {
	out      bytes.Buffer
	closed   bool
	writeErr error
}

func (f *fakeConn) Write(p []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	return f.out.Write(p)
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

// newTestHub builds a hub with n connected clients.
func newTestHub(t *testing.T, n int, policy SendPolicy) (*Hub, []*fakeConn) {
	t.Helper()

	reg := NewRegistry(n, 64, 32)
	hub := NewHub(reg, HubOptions{Policy: policy}, nil)

	conns := make([]*fakeConn, n)
	for i := range conns {
		conns[i] = &fakeConn{}
		id, err := reg.Allocate()
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		if _, err := reg.Activate(id, conns[i], "s"); err != nil {
			t.Fatalf("activate: %v", err)
		}
	}
	return hub, conns
}

func drain(c *fakeConn) string {
	s := c.out.String()
	c.out.Reset()
	return s
}
