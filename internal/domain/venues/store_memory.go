package venues

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reviewhub/internal/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	venues map[int64]Venue
	events map[int64]Event
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		venues: make(map[int64]Venue),
		events: make(map[int64]Event),
	}
}

func (s *InMemoryStore) PutVenue(v Venue) Venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		s.nextID++
		v.ID = s.nextID
	}
	s.venues[v.ID] = v
	return v
}

func (s *InMemoryStore) PutEvent(e Event) Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == 0 {
		s.nextID++
		e.ID = s.nextID
	}
	s.events[e.ID] = e
	return e
}

func (s *InMemoryStore) GetVenueByID(_ context.Context, venueID int64) (*Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[venueID]
	if !ok {
		return nil, fmt.Errorf("venue %d: %w", venueID, sentinel.ErrNotFound)
	}
	return &v, nil
}

func (s *InMemoryStore) GetEventByID(_ context.Context, eventID int64) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[eventID]
	if !ok {
		return nil, fmt.Errorf("event %d: %w", eventID, sentinel.ErrNotFound)
	}
	return &e, nil
}

func (s *InMemoryStore) SetAverageRating(_ context.Context, venueID int64, average float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.venues[venueID]
	if !ok {
		return fmt.Errorf("venue %d: %w", venueID, sentinel.ErrNotFound)
	}
	v.AverageRating = average
	v.UpdatedAt = time.Now()
	s.venues[venueID] = v
	return nil
}

func (s *InMemoryStore) GetAverageRating(_ context.Context, venueID int64) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[venueID]
	if !ok {
		return 0, fmt.Errorf("venue %d: %w", venueID, sentinel.ErrNotFound)
	}
	return v.AverageRating, nil
}
