package middleware

import (
	"net/http"
	"sync"
	"time"
)

type loginAttempts struct {
	count   int
	started time.Time
}

// LoginLimiter throttles admin login attempts per client IP so the
// password cannot be brute-forced through the API. Fixed window: the
// counter resets once the window since the first attempt has passed.
type LoginLimiter struct {
	mu      sync.Mutex
	clients map[string]*loginAttempts
	limit   int
	window  time.Duration
}

func NewLoginLimiter(limit int, window time.Duration) *LoginLimiter {
	l := &LoginLimiter{
		clients: make(map[string]*loginAttempts),
		limit:   limit,
		window:  window,
	}

	go func() {
		ticker := time.NewTicker(window)
		for range ticker.C {
			l.mu.Lock()
			for ip, a := range l.clients {
				if time.Since(a.started) > l.window {
					delete(l.clients, ip)
				}
			}
			l.mu.Unlock()
		}
	}()

	return l
}

func (l *LoginLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(r.RemoteAddr) {
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many login attempts. Please try again later.", r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *LoginLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.clients[ip]
	if !ok || time.Since(a.started) > l.window {
		l.clients[ip] = &loginAttempts{count: 1, started: time.Now()}
		return true
	}

	a.count++
	return a.count <= l.limit
}
