package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a client exceeds its request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

const (
	limiterIdleTTL       = 30 * time.Minute
	limiterSweepInterval = 10 * time.Minute
)

// clientLimiter stores the token bucket for one client and procedure.
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles selected procedures per peer address. It guards the
// credential endpoints against brute force; other procedures pass through.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	guarded   map[string]bool
	lastSweep time.Time
	now       func() time.Time
}

var _ connect.Interceptor = (*RateLimiter)(nil)

// NewRateLimiter allows perSecond requests with the given burst for each
// peer on every procedure in guarded.
func NewRateLimiter(perSecond float64, burst int, guarded ...string) *RateLimiter {
	g := make(map[string]bool, len(guarded))
	for _, p := range guarded {
		g[p] = true
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(perSecond),
		burst:   burst,
		guarded: g,
		now:     time.Now,
	}
}

// Allow reports whether a call from peer to procedure may proceed.
func (rl *RateLimiter) Allow(peer, procedure string) bool {
	if !rl.guarded[procedure] {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweepLocked(now)

	// Peer addresses carry the client's ephemeral port; limit by host.
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}
	id := peer + "|" + procedure
	cl, ok := rl.clients[id]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[id] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// sweepLocked drops limiters that have been idle for a while.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < limiterSweepInterval {
		return
	}
	rl.lastSweep = now
	removed := 0
	for id, cl := range rl.clients {
		if now.Sub(cl.lastSeen) > limiterIdleTTL {
			delete(rl.clients, id)
			removed++
		}
	}
	if removed > 0 {
		slog.Debug("Rate limiter cleanup", "removed", removed)
	}
}

// WrapUnary implements connect.Interceptor.
func (rl *RateLimiter) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		procedure := req.Spec().Procedure
		if !rl.Allow(req.Peer().Addr, procedure) {
			slog.Warn("Rate limit exceeded", "peer", req.Peer().Addr, "procedure", procedure)
			return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (rl *RateLimiter) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

// WrapStreamingHandler implements connect.Interceptor.
func (rl *RateLimiter) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if !rl.Allow(conn.Peer().Addr, conn.Spec().Procedure) {
			return connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
		}
		return next(ctx, conn)
	}
}
