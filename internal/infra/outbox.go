package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/quiniela/platform/internal/domain"
	"github.com/quiniela/platform/internal/repository"
)

// Publisher sends one outbox event. KafkaProducer implements it.
type Publisher interface {
	Publish(ctx context.Context, e domain.OutboxDraft) error
}

// OutboxPoller polls the event_outbox table and publishes events.
type OutboxPoller struct {
	db        repository.DBTX
	repo      repository.OutboxRepository
	producer  Publisher
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPoller creates a new outbox poller.
func NewOutboxPoller(db repository.DBTX, repo repository.OutboxRepository, producer Publisher, interval time.Duration, batchSize int, logger *slog.Logger) *OutboxPoller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &OutboxPoller{
		db:        db,
		repo:      repo,
		producer:  producer,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run polls until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) error {
	p.logger.Info("outbox poller started", "interval", p.interval, "batch_size", p.batchSize)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox poller stopped")
			return nil
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				p.logger.Error("outbox poll error", "error", err)
			}
		}
	}
}

// Poll publishes one batch and returns how many events were marked published.
// An event whose publish fails stays unpublished and is retried next poll.
func (p *OutboxPoller) Poll(ctx context.Context) (int, error) {
	events, err := p.repo.FetchUnpublished(ctx, p.db, p.batchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := make([]uuid.UUID, 0, len(events))
	for _, e := range events {
		if err := p.producer.Publish(ctx, e); err != nil {
			p.logger.Error("kafka publish failed", "event_id", e.EventID, "topic", e.Topic(), "error", err)
			continue
		}
		published = append(published, e.EventID)
	}

	if err := p.repo.MarkPublished(ctx, p.db, published); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}

	p.logger.Debug("outbox poll complete", "fetched", len(events), "published", len(published))
	return len(published), nil
}

var _ Publisher = (*KafkaProducer)(nil)
