package storage

import (
	"context"
	"sync"

	"reviewhub/internal/domain/accesscontrol"
	"reviewhub/internal/domain/pushtokens"
	"reviewhub/internal/domain/stewardship"
	"reviewhub/internal/domain/users"
	venuereviews "reviewhub/internal/domain/venuereview"
	"reviewhub/internal/domain/venues"
)

// Memory backs every store with its in-memory implementation. WithTx
// serializes units of work behind one lock; it does not roll back writes made
// before fn fails.
type Memory struct {
	mu sync.Mutex

	Users         *users.InMemoryStore
	AccessControl *accesscontrol.InMemoryStore
	Venues        *venues.InMemoryStore
	Reviews       *venuereviews.InMemoryStore
	Stewardship   *stewardship.InMemoryStore
	PushTokens    *pushtokens.InMemoryStore
}

func NewMemory() *Memory {
	return &Memory{
		Users:         users.NewInMemoryStore(),
		AccessControl: accesscontrol.NewInMemoryStore(),
		Venues:        venues.NewInMemoryStore(),
		Reviews:       venuereviews.NewInMemoryStore(),
		Stewardship:   stewardship.NewInMemoryStore(),
		PushTokens:    pushtokens.NewInMemoryStore(),
	}
}

func (m *Memory) Read() *Stores {
	return &Stores{
		Users:         m.Users,
		AccessControl: m.AccessControl,
		Venues:        m.Venues,
		Reviews:       m.Reviews,
		Stewardship:   m.Stewardship,
		PushTokens:    m.PushTokens,
	}
}

func (m *Memory) WithTx(ctx context.Context, fn func(s *Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.Read())
}
