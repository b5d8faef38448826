package server

import "time"

const rateWindow = time.Minute

// rateLimiter counts lines per connection in fixed one-minute windows. It is
// only touched by the loop goroutine.
type rateLimiter struct {
	limit   int
	counter int
	start   time.Time
	now     func() time.Time
}

func newRateLimiter(limit int, now func() time.Time) *rateLimiter {
	if limit <= 0 {
		return &rateLimiter{limit: 0}
	}
	return &rateLimiter{
		limit: limit,
		start: now(),
		now:   now,
	}
}

func (r *rateLimiter) allow() bool {
	if r == nil || r.limit <= 0 {
		return true
	}
	if t := r.now(); t.Sub(r.start) >= rateWindow {
		r.start = t
		r.counter = 0
	}
	r.counter++
	return r.counter <= r.limit
}
