package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleClientTTL is how long a client's bucket survives without requests.
const idleClientTTL = 10 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientRateLimiter hands out one token bucket per client IP.
type ClientRateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	clients   map[string]*client
	lastSweep time.Time
}

// NewClientRateLimiter allows each client rps requests per second with bursts
// of up to burst requests.
func NewClientRateLimiter(rps float64, burst int) *ClientRateLimiter {
	return &ClientRateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		now:     time.Now,
		clients: make(map[string]*client),
	}
}

// Reserve takes one token for key. It returns zero when the request may
// proceed, otherwise how long the client should wait before retrying.
func (l *ClientRateLimiter) Reserve(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)
	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if !res.OK() {
		return time.Duration(math.MaxInt64)
	}
	delay := res.DelayFrom(now)
	if delay > 0 {
		// Rejected requests do not consume tokens.
		res.CancelAt(now)
	}
	return delay
}

// sweep drops buckets idle for longer than idleClientTTL, at most once per TTL.
func (l *ClientRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleClientTTL {
		return
	}
	l.lastSweep = now
	for key, c := range l.clients {
		if now.Sub(c.lastSeen) > idleClientTTL {
			delete(l.clients, key)
		}
	}
}

// NewRateLimitHandler returns a middleware that rejects requests over the
// client's budget with 429 and a Retry-After header. Clients are keyed by
// the host part of RemoteAddr; wire chi's RealIP first when running behind
// a proxy.
func NewRateLimitHandler(l *ClientRateLimiter, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if wait := l.Reserve(key); wait > 0 {
				log.WarnContext(r.Context(), "rate limit exceeded", "client", key, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(min(wait, time.Hour).Seconds()))))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests, retry later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// writeError matches the handler package's error envelope.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
