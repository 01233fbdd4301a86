package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// queuePriorities weights task queues; higher numbers are drained more often.
var queuePriorities = map[string]int{
	"critical": 6,
	"default":  3,
	"low":      1,
}

// Server wraps the asynq consumer with the queue and error handling defaults
// used across the project.
type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
}

// ServerConfig holds dependencies for the task server.
type ServerConfig struct {
	RedisURL    string
	Concurrency int
	Logger      zerolog.Logger
}

// NewServer creates a task server and registers the accrual handler.
func NewServer(cfg ServerConfig, handler *AccrualHandler) (*Server, error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	logger := cfg.Logger
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      queuePriorities,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error().
				Str("task_type", task.Type()).
				Err(err).
				Msg("task processing failed")
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAccrualProcess, handler.ProcessTask)

	return &Server{srv: srv, mux: mux}, nil
}

// Start begins consuming tasks without blocking.
func (s *Server) Start() error {
	return s.srv.Start(s.mux)
}

// Shutdown waits for in-flight tasks and stops the consumer.
func (s *Server) Shutdown() {
	s.srv.Shutdown()
}
