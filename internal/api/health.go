package api

import (
	"context"
	"net/http"
	"time"
)

const healthTimeout = 2 * time.Second

type clientCounter interface {
	ClientCount() int
}

// HealthCheck reports database reachability, plus the Kafka producer's
// circuit state and the live feed's connection count when those are wired.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok"}

	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := s.deps.Health.Ping(ctx); err != nil {
			s.logger.WithError(err).Warn("Health check failed")
			status = http.StatusServiceUnavailable
			body["status"] = "unavailable"
			body["database"] = "unreachable"
		}
	}

	if s.deps.Breaker != nil {
		body["kafka"] = s.deps.Breaker.BreakerMetrics().State
	}
	if feed, ok := s.deps.Feed.(clientCounter); ok {
		body["feed_clients"] = feed.ClientCount()
	}

	s.respondWithJSON(w, status, body)
}
