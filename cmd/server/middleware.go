package main

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	passesPerMinute = 30
	passBurst       = 5
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// requestLogger tags each request with an id and logs its outcome.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		slog.Debug("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

// passLimiter throttles pricing passes per actor.
type passLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[int64]*rate.Limiter
}

func newPassLimiter(perMinute, burst int) *passLimiter {
	return &passLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		limiters: make(map[int64]*rate.Limiter),
	}
}

func (p *passLimiter) allow(actorID int64) bool {
	p.mu.Lock()
	l, ok := p.limiters[actorID]
	if !ok {
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[actorID] = l
	}
	p.mu.Unlock()
	return l.Allow()
}

func (s *server) throttlePasses(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.passes.allow(actorFromContext(r.Context())) {
			w.Header().Set("Retry-After", "2")
			http.Error(w, "too many pricing passes, slow down", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
