package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AggregateType names the entity an outbox event is about.
type AggregateType string

const (
	AggregatePicks AggregateType = "picks"
	AggregatePool  AggregateType = "pool"
)

// EventType names what happened.
type EventType string

const (
	EventPicksSubmitted   EventType = "submitted"
	EventPoolMemberJoined EventType = "member_joined"
)

// OutboxDraft is an event_outbox row waiting to be published.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateType AggregateType   `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     EventType       `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// Topic returns the Kafka topic for the event.
func (d OutboxDraft) Topic() string {
	return "quiniela." + string(d.AggregateType) + "." + string(d.EventType)
}

// NewOutboxDraft builds a draft with a fresh event ID and a JSON payload.
func NewOutboxDraft(agg AggregateType, aggID string, evt EventType, payload interface{}) (OutboxDraft, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return OutboxDraft{}, err
	}
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: agg,
		AggregateID:   aggID,
		EventType:     evt,
		Payload:       data,
		OccurredAt:    time.Now().UTC(),
	}, nil
}
