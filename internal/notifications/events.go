package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	SubjectStewardAssigned = "steward.assigned"
	SubjectStewardRevoked  = "steward.revoked"
	SubjectReviewModerated = "review.moderated"
)

type EventPublisher interface {
	Publish(ctx context.Context, subject string, event any) error
}

type StewardEvent struct {
	EventID    string     `json:"event_id"`
	EventType  string     `json:"event_type"`
	GrantID    int64      `json:"grant_id"`
	UserID     int64      `json:"user_id"`
	VenueID    int64      `json:"venue_id"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

type ReviewEvent struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	Action     string    `json:"action"`
	ReviewID   int64     `json:"review_id"`
	VenueID    int64     `json:"venue_id"`
	AuthorID   int64     `json:"author_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newStewardEvent(subject string, c StewardChange, at time.Time) StewardEvent {
	return StewardEvent{
		EventID:    uuid.NewString(),
		EventType:  subject,
		GrantID:    c.Grant.ID,
		UserID:     c.Grant.UserID,
		VenueID:    c.Grant.VenueID,
		StartDate:  c.Grant.StartDate,
		EndDate:    c.Grant.EndDate,
		OccurredAt: at,
	}
}

func newReviewEvent(m ReviewModeration, at time.Time) ReviewEvent {
	return ReviewEvent{
		EventID:    uuid.NewString(),
		EventType:  SubjectReviewModerated,
		Action:     string(m.Action),
		ReviewID:   m.Review.ID,
		VenueID:    m.Review.VenueID,
		AuthorID:   m.Review.UserID,
		OccurredAt: at,
	}
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	nc, err := nats.Connect(natsURL, nats.Name("reviewhub"))
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{conn: nc}, nil
}

func (p *NatsPublisher) Publish(_ context.Context, subject string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages before closing the connection.
func (p *NatsPublisher) Close() error {
	return p.conn.Drain()
}
