// Package server runs the single-owner event loop that multiplexes the
// listening socket and every client connection.
package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-unix/internal/core"
	"github.com/vovakirdan/wirechat-unix/internal/proto"
	"github.com/vovakirdan/wirechat-unix/internal/store"
	"github.com/vovakirdan/wirechat-unix/internal/utils"
)

const journalTimeout = 2 * time.Second

// ErrStopped is returned by Snapshot once the loop has exited.
var ErrStopped = errors.New("event loop stopped")

// Options tune the loop.
type Options struct {
	// LineRateLimit caps lines per connection per minute; 0 disables it.
	LineRateLimit int
	// Clock overrides time.Now.
	Clock func() time.Time
}

// Loop owns the registry, every inbound buffer and every socket. All state is
// mutated from the goroutine running Run; pumps only perform blocking I/O and
// report results over a channel.
type Loop struct {
	listener net.Listener
	hub      *core.Hub
	registry *core.Registry
	store    store.SessionStore
	log      *zerolog.Logger
	now      func() time.Time

	lineRateLimit int

	events  chan readiness
	inspect chan chan []core.ClientInfo
	done    chan struct{}

	pumps    map[int]*readPump
	limiters map[int]*rateLimiter
}

// NewLoop builds a loop serving listener. A nil store disables the session journal.
func NewLoop(listener net.Listener, hub *core.Hub, st store.SessionStore, opts Options, logger *zerolog.Logger) *Loop {
	if st == nil {
		st = store.Nop{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	l := &Loop{
		listener:      listener,
		hub:           hub,
		registry:      hub.Registry(),
		store:         st,
		log:           logger,
		now:           opts.Clock,
		lineRateLimit: opts.LineRateLimit,
		events:        make(chan readiness, hub.Registry().Capacity()+1),
		inspect:       make(chan chan []core.ClientInfo),
		done:          make(chan struct{}),
		pumps:         make(map[int]*readPump),
		limiters:      make(map[int]*rateLimiter),
	}
	l.registry.AddReleaseHook(l.onRelease)
	return l
}

// Run serves until ctx is cancelled (returns nil) or an unrecoverable error
// occurs: the listener fails or a broadcast send fails under the fail-fast
// policy. Every client is released before Run returns. The caller owns the
// listener and closes it afterwards.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer l.releaseAll(core.ReasonShutdown)

	go l.acceptPump()

	for {
		batch, err := l.wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		for _, ev := range batch {
			if err := l.service(ev); err != nil {
				return err
			}
		}
	}
}

// Snapshot returns a copy of every active slot, taken by the loop goroutine.
func (l *Loop) Snapshot(ctx context.Context) ([]core.ClientInfo, error) {
	reply := make(chan []core.ClientInfo, 1)
	select {
	case l.inspect <- reply:
	case <-l.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case infos := <-reply:
		return infos, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// wait blocks for the next readiness event, then drains every event already
// pending and orders the batch: listener events first, then client events in
// ascending slot order.
func (l *Loop) wait(ctx context.Context) ([]readiness, error) {
	var first readiness
	for waiting := true; waiting; {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case reply := <-l.inspect:
			reply <- l.registry.Snapshot()
		case first = <-l.events:
			waiting = false
		}
	}

	batch := []readiness{first}
	for {
		select {
		case ev := <-l.events:
			batch = append(batch, ev)
		default:
			return l.order(batch), nil
		}
	}
}

func (l *Loop) order(batch []readiness) []readiness {
	if len(batch) < 2 {
		return batch
	}

	type ranked struct {
		rank int
		ev   readiness
	}
	items := make([]ranked, len(batch))
	for i, ev := range batch {
		rank := -1
		if ev.kind == readyRead {
			rank = l.registry.Capacity()
			if c, ok := l.registry.FindByConn(ev.conn); ok {
				rank = c.Identity
			}
		}
		items[i] = ranked{rank: rank, ev: ev}
	}
	slices.SortStableFunc(items, func(a, b ranked) int {
		return cmp.Compare(a.rank, b.rank)
	})

	for i := range items {
		batch[i] = items[i].ev
	}
	return batch
}

func (l *Loop) service(ev readiness) error {
	switch ev.kind {
	case readyAccept:
		l.accept(ev.conn)
		return nil
	case readyListenerFailed:
		return fmt.Errorf("accept: %w", ev.err)
	default:
		return l.read(ev)
	}
}

func (l *Loop) accept(conn net.Conn) {
	identity, err := l.registry.Allocate()
	if err != nil {
		l.log.Warn().Int("capacity", l.registry.Capacity()).Str("reason", string(core.ReasonServerFull)).Msg("rejecting connection")
		if closeErr := conn.Close(); closeErr != nil {
			l.log.Debug().Err(closeErr).Msg("close rejected connection")
		}
		return
	}

	c, err := l.registry.Activate(identity, conn, utils.NewID())
	if err != nil {
		l.log.Error().Err(err).Msg("activate slot")
		conn.Close()
		return
	}

	l.limiters[identity] = newRateLimiter(l.lineRateLimit, l.now)
	l.pumps[identity] = l.startPump(conn, c.Inbound.Free())
	l.journalOpen(c)

	l.log.Info().
		Int("identity", identity).
		Str("session", c.Session).
		Int("active", l.registry.ActiveCount()).
		Msg("client connected")
}

func (l *Loop) read(ev readiness) error {
	c, ok := l.registry.FindByConn(ev.conn)
	if !ok {
		// The slot was released after the pump's read was issued.
		return nil
	}

	if ev.err != nil {
		reason := core.ReasonReadError
		if errors.Is(ev.err, io.EOF) {
			reason = core.ReasonEOF
		} else {
			l.log.Warn().Err(ev.err).Int("identity", c.Identity).Msg("read failed")
		}
		l.release(c.Identity, reason)
		return nil
	}

	c.Inbound.Append(ev.data)
	if c.Inbound.Overflowed() {
		l.log.Warn().Int("identity", c.Identity).Int("buffer_size", c.Inbound.Cap()).Msg("client buffer overflow")
		l.release(c.Identity, core.ReasonOverflow)
		return nil
	}

	for line := range c.Inbound.Lines() {
		l.log.Debug().Int("identity", c.Identity).Str("session", c.Session).Str("line", line).Msg("client says")

		if !l.limiters[c.Identity].allow() {
			l.log.Debug().Int("identity", c.Identity).Msg("line dropped by rate limit")
			continue
		}

		outcome, err := l.hub.Apply(c.Identity, proto.Dispatch(line))
		if err != nil {
			return fmt.Errorf("client %d: %w", c.Identity, err)
		}
		if outcome == core.OutcomeDisconnected {
			return nil
		}
	}

	if free := c.Inbound.Free(); free > 0 {
		l.pumps[c.Identity].grants <- free
	} else {
		l.release(c.Identity, core.ReasonOverflow)
	}
	return nil
}

func (l *Loop) release(identity int, reason core.CloseReason) {
	if err := l.registry.Release(identity, reason); err != nil {
		l.log.Debug().Err(err).Int("identity", identity).Msg("release")
	}
}

func (l *Loop) releaseAll(reason core.CloseReason) {
	for c := range l.registry.Active() {
		l.release(c.Identity, reason)
	}
}

// onRelease runs for every released slot, whichever component released it.
func (l *Loop) onRelease(c *core.Client, reason core.CloseReason) {
	if p, ok := l.pumps[c.Identity]; ok {
		close(p.grants)
		delete(l.pumps, c.Identity)
	}
	delete(l.limiters, c.Identity)
	l.journalClose(c, reason)

	l.log.Info().
		Int("identity", c.Identity).
		Str("session", c.Session).
		Str("nickname", c.Nickname).
		Str("reason", string(reason)).
		Msg("client released")
}

func (l *Loop) journalOpen(c *core.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	err := l.store.OpenSession(ctx, store.Session{
		ID:       c.Session,
		Identity: c.Identity,
		Nickname: c.Nickname,
		OpenedAt: c.ConnectedAt,
	})
	if err != nil {
		l.log.Warn().Err(err).Str("session", c.Session).Msg("journal open session")
	}
}

func (l *Loop) journalClose(c *core.Client, reason core.CloseReason) {
	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()

	if err := l.store.CloseSession(ctx, c.Session, c.Nickname, string(reason), l.now()); err != nil {
		l.log.Warn().Err(err).Str("session", c.Session).Msg("journal close session")
	}
}
