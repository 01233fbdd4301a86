package worker

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// NewOpsRouter builds the operational endpoints of the worker: health,
// readiness and Prometheus metrics.
func NewOpsRouter(pool *pgxpool.Pool, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 5*time.Second)
		defer cancel()

		if err := pool.Ping(ctx); err != nil {
			writeOpsJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy", "postgres": err.Error(),
			})
			return
		}
		if err := redisClient.Ping(ctx).Err(); err != nil {
			writeOpsJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unhealthy", "redis": err.Error(),
			})
			return
		}

		writeOpsJSON(w, http.StatusOK, map[string]string{
			"status":   "ok",
			"postgres": "ok",
			"redis":    "ok",
		})
	})

	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		writeOpsJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

func writeOpsJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
