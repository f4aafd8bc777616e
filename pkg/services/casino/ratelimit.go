package casino

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an unused player limiter is kept
const idleLimiterTTL = 10 * time.Minute

type playerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter allows each player a steady rate of wagers with a burst
type RateLimiter struct {
	mu        sync.Mutex
	players   map[string]*playerLimiter
	limit     rate.Limit
	burst     int
	now       func() time.Time
	lastSwept time.Time
}

// NewRateLimiter creates a limiter. A non-positive perSecond disables it.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		players: make(map[string]*playerLimiter),
		limit:   limit,
		burst:   burst,
		now:     time.Now,
	}
}

// Allow reports whether the player may place a wager now
func (r *RateLimiter) Allow(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	p, ok := r.players[playerID]
	if !ok {
		p = &playerLimiter{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.players[playerID] = p
	}
	p.lastSeen = now
	return p.limiter.AllowN(now, 1)
}

func (r *RateLimiter) sweep(now time.Time) {
	if now.Sub(r.lastSwept) < idleLimiterTTL {
		return
	}
	for id, p := range r.players {
		if now.Sub(p.lastSeen) > idleLimiterTTL {
			delete(r.players, id)
		}
	}
	r.lastSwept = now
}
