package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// HealthCheck pings one dependency
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// RegisterHealthCheck registers GET /health reporting every dependency
func RegisterHealthCheck(router *mux.Router, service string, checks ...HealthCheck) {
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		healthy := true
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				status[c.Name] = "unavailable"
				healthy = false
				continue
			}
			status[c.Name] = "ok"
		}

		if !healthy {
			RespondJSON(w, http.StatusServiceUnavailable, Response{
				Success: false,
				Error:   "Dependency unavailable",
				Data:    status,
			})
			return
		}

		RespondJSON(w, http.StatusOK, Response{
			Success: true,
			Message: service + " is healthy",
			Data:    status,
		})
	}).Methods("GET")
}
