package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types written to the outbox.
const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"

	GroundCreated = "ground.created"
	GroundUpdated = "ground.updated"

	TeamCreated         = "team.created"
	TeamMemberAdded     = "team.member_added"
	MatchCreated        = "match.created"
	MatchResultRecorded = "match.result_recorded"
)

// Header keys carried next to the payload for routing without decoding it.
const (
	HeaderGroundID    = "ground_id"
	HeaderBookingDate = "booking_date"
	HeaderActorID     = "actor_id"
	HeaderRequestKind = "request_kind"
)

// RequestEventType names a request workflow transition, e.g. "match_request.accepted".
func RequestEventType(kind, transition string) string {
	return kind + "." + transition
}

// Event is one row of the outbox.
type Event struct {
	ID          uuid.UUID         `json:"id"`
	AggregateID uuid.UUID         `json:"aggregate_id"`
	EventType   string            `json:"event_type"`
	Payload     json.RawMessage   `json:"payload"`
	Headers     map[string]string `json:"headers,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	SentAt      *time.Time        `json:"sent_at,omitempty"`
}

// EventPublisher delivers an outbox event to a downstream transport.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// envelope is the wire form shared by the broker publishers and the gateway consumer.
type envelope struct {
	EventID     string            `json:"eventId"`
	EventType   string            `json:"eventType"`
	AggregateID string            `json:"aggregateId"`
	Headers     map[string]string `json:"headers"`
	Timestamp   time.Time         `json:"timestamp"`
	Payload     json.RawMessage   `json:"payload"`
}

// MarshalEnvelope encodes event for a broker.
func MarshalEnvelope(event Event) ([]byte, error) {
	return json.Marshal(envelope{
		EventID:     event.ID.String(),
		EventType:   event.EventType,
		AggregateID: event.AggregateID.String(),
		Headers:     event.Headers,
		Timestamp:   event.CreatedAt.UTC(),
		Payload:     event.Payload,
	})
}

// UnmarshalEnvelope decodes a broker message back into an Event. SentAt is not carried.
func UnmarshalEnvelope(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Event{}, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	id, err := uuid.Parse(env.EventID)
	if err != nil {
		return Event{}, fmt.Errorf("parse event id: %w", err)
	}
	aggregateID, err := uuid.Parse(env.AggregateID)
	if err != nil {
		return Event{}, fmt.Errorf("parse aggregate id: %w", err)
	}
	return Event{
		ID:          id,
		AggregateID: aggregateID,
		EventType:   env.EventType,
		Payload:     env.Payload,
		Headers:     env.Headers,
		CreatedAt:   env.Timestamp,
	}, nil
}
