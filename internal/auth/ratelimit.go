package auth

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ngoctanz/party-management/internal/httpx"

	"golang.org/x/time/rate"
)

// IPLimiter applies a token-bucket rate limit per client IP. Stale buckets
// are swept lazily so the map cannot grow without bound.
type IPLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	limit     rate.Limit
	burst     int
	message   string
	lastSweep time.Time
}

type visitor struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewIPLimiter allows burst requests per window per IP, refilling evenly.
func NewIPLimiter(window time.Duration, burst int, message string) *IPLimiter {
	return &IPLimiter{
		visitors:  make(map[string]*visitor),
		limit:     rate.Every(window / time.Duration(burst)),
		burst:     burst,
		message:   message,
		lastSweep: time.Now(),
	}
}

func (l *IPLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if now.Sub(l.lastSweep) > time.Hour {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > time.Hour {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.lim.Allow()
}

func (l *IPLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			httpx.Fail(w, http.StatusTooManyRequests, l.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP honors X-Forwarded-For (deployments behind a proxy), falling back
// to the socket address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
