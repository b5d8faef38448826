package server

import (
	"io"
	"net"
)

type readyKind int

const (
	readyAccept readyKind = iota
	readyRead
	readyListenerFailed
)

// readiness is one I/O result handed from a pump to the loop goroutine.
type readiness struct {
	kind readyKind
	conn net.Conn
	data []byte
	err  error
}

// readPump performs bounded reads for one connection. It reads only after the
// loop grants it a byte budget, so at most one read result per connection is
// ever in flight.
type readPump struct {
	conn   net.Conn
	grants chan int
}

func (l *Loop) startPump(conn net.Conn, budget int) *readPump {
	p := &readPump{conn: conn, grants: make(chan int, 1)}
	p.grants <- budget
	go l.runPump(p)
	return p
}

func (l *Loop) runPump(p *readPump) {
	for budget := range p.grants {
		buf := make([]byte, budget)
		n, err := p.conn.Read(buf)
		if n > 0 {
			if !l.post(readiness{kind: readyRead, conn: p.conn, data: buf[:n]}) {
				return
			}
		}
		if err == nil && n == 0 {
			err = io.EOF
		}
		if err != nil {
			l.post(readiness{kind: readyRead, conn: p.conn, err: err})
			return
		}
	}
}

func (l *Loop) acceptPump() {
	for {
		conn, err := l.listener.Accept()
		if err != nil {
			l.post(readiness{kind: readyListenerFailed, err: err})
			return
		}
		if !l.post(readiness{kind: readyAccept, conn: conn}) {
			conn.Close()
			return
		}
	}
}

// post hands ev to the loop. It reports false once the loop has stopped.
func (l *Loop) post(ev readiness) bool {
	select {
	case l.events <- ev:
		return true
	case <-l.done:
		return false
	}
}
