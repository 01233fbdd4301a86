package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgerkeep/ledgerkeep/internal/domain"
	"github.com/ledgerkeep/ledgerkeep/internal/infrastructure/metrics"
	"github.com/ledgerkeep/ledgerkeep/internal/usecase"
)

// Publisher delivers a single outbox event to a downstream system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// EventPublisher drains the transactional outbox. On every tick it fetches a
// batch of unpublished events, hands each one to the configured Publisher and
// marks it published. Published events older than the retention window are
// pruned at the end of each pass.
//
// Delivery is at-least-once: an event whose publish succeeds but whose mark
// fails is re-delivered on the next pass, so consumers must de-duplicate on
// event ID.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	logger     zerolog.Logger
	metrics    *metrics.Metrics
	batchSize  int
	interval   time.Duration
	retention  time.Duration
}

// Config configures an EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics

	// BatchSize is the maximum number of events fetched per pass.
	BatchSize int
	// Interval is the polling interval between passes.
	Interval time.Duration
	// Retention is how long published events are kept before pruning.
	Retention time.Duration
}

// NewEventPublisher creates an EventPublisher, applying defaults for any
// zero-valued tuning fields.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
	}
}

// Start runs the drain loop until ctx is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Dur("retention", ep.retention).
		Msg("outbox publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	// Drain once on startup rather than waiting out the first interval.
	if err := ep.drain(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("outbox drain failed")
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("outbox publisher stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.drain(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("outbox drain failed")
			}
		}
	}
}

// drain performs one pass: publish a batch of pending events, then prune
// events past the retention window.
func (ep *EventPublisher) drain(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	for _, event := range events {
		if err := ep.publishEvent(ctx, event); err != nil {
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			if ep.metrics != nil {
				ep.metrics.OutboxPublishErrors.Inc()
			}
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
			// The event stays unpublished and is re-delivered next pass.
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Msg("failed to mark event published")
			if ep.metrics != nil {
				ep.metrics.OutboxPublishErrors.Inc()
			}
			continue
		}

		if ep.metrics != nil {
			ep.metrics.OutboxPublished.Inc()
		}
	}

	return ep.outboxRepo.DeletePublished(ctx, time.Now().UTC().Add(-ep.retention))
}

func (ep *EventPublisher) publishEvent(ctx context.Context, event *domain.OutboxEvent) error {
	ep.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		Msg("publishing event")

	return ep.publisher.Publish(ctx, event)
}

// LogPublisher writes events to the structured log. It stands in for a real
// broker until a downstream consumer exists.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event with its payload serialized as JSON.
func (p *LogPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}
