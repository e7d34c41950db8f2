// Package ratelimit throttles API requests. The global limiter admits a fixed
// number of permits per window and queues a few excess requests; named
// policies apply a fixed window to selected routes.
package ratelimit

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options configures a limiter.
type Options struct {
	PermitLimit int
	Window      time.Duration
	// QueueLimit is the number of requests allowed to wait for a permit.
	QueueLimit int
}

// Global is a fixed-window counter shared by every request passing through it.
// Windows are anchored at the first request; queued requests are granted
// permits in arrival order when the next window opens.
type Global struct {
	opts   Options
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	start   time.Time
	used    int
	waiters []chan struct{}
}

func NewGlobal(opts Options, logger *zap.Logger) *Global {
	if opts.Window <= 0 {
		opts.Window = time.Minute
	}
	opts.QueueLimit = max(opts.QueueLimit, 0)
	return &Global{
		opts:   opts,
		logger: logger.Named("rate_limiter"),
		now:    time.Now,
	}
}

// Middleware admits requests while permits remain, otherwise queues the request
// until the next window. Requests beyond the queue are rejected.
func (g *Global) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.advance()
		if g.used < g.opts.PermitLimit && len(g.waiters) == 0 {
			g.used++
			g.mu.Unlock()
			next.ServeHTTP(w, r)
			return
		}
		if len(g.waiters) >= g.opts.QueueLimit {
			retryAfter := g.untilNextWindow()
			g.mu.Unlock()
			g.reject(w, r, retryAfter)
			return
		}
		granted := make(chan struct{})
		g.waiters = append(g.waiters, granted)
		g.mu.Unlock()

		if !g.wait(r, granted) {
			g.mu.Lock()
			retryAfter := g.untilNextWindow()
			g.mu.Unlock()
			g.reject(w, r, retryAfter)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// advance opens a new window once the current one has elapsed and hands its
// permits to queued requests first. Callers hold g.mu.
func (g *Global) advance() {
	now := g.now()
	switch {
	case g.start.IsZero():
		g.start = now
	case now.Sub(g.start) >= g.opts.Window:
		g.start = g.start.Add(now.Sub(g.start).Truncate(g.opts.Window))
		g.used = 0
	}
	for len(g.waiters) > 0 && g.used < g.opts.PermitLimit {
		close(g.waiters[0])
		g.waiters = g.waiters[1:]
		g.used++
	}
}

// untilNextWindow is the time left in the current window. Callers hold g.mu.
func (g *Global) untilNextWindow() time.Duration {
	return g.start.Add(g.opts.Window).Sub(g.now())
}

// wait blocks until the request is granted a permit or its context ends.
func (g *Global) wait(r *http.Request, granted chan struct{}) bool {
	for {
		g.mu.Lock()
		delay := g.untilNextWindow()
		g.mu.Unlock()

		timer := time.NewTimer(max(delay, time.Millisecond))
		select {
		case <-granted:
			timer.Stop()
			return true
		case <-timer.C:
			g.mu.Lock()
			g.advance()
			g.mu.Unlock()
		case <-r.Context().Done():
			timer.Stop()
			return !g.dequeue(granted)
		}
	}
}

// dequeue removes a waiter that gave up. It reports false when the waiter had
// already been granted a permit.
func (g *Global) dequeue(granted chan struct{}) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, ch := range g.waiters {
		if ch == granted {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// queued is the number of requests waiting for a permit.
func (g *Global) queued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}

func (g *Global) reject(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	g.logger.Warn("Request rejected by rate limiter",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Duration("retry_after", retryAfter),
	)
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
	}
	OnRejected(w, r)
}

// OnRejected writes the 429 response, quoting Retry-After when it is set.
func OnRejected(w http.ResponseWriter, _ *http.Request) {
	message := "Too many requests. Please try again later."
	if seconds, err := strconv.Atoi(w.Header().Get("Retry-After")); err == nil {
		message = fmt.Sprintf("Too many requests. Please try again after %d second(s).", seconds)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(message))
}
