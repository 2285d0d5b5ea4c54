package stewardship

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"reviewhub/internal/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	grants []Grant
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Insert(_ context.Context, g *Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = int64(len(s.grants) + 1)
	g.CreatedAt = time.Now()
	s.grants = append(s.grants, *g)
	return nil
}

func (s *InMemoryStore) Close(_ context.Context, grantID int64, end time.Time, revokedBy int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.grants {
		if s.grants[i].ID == grantID && s.grants[i].EndDate == nil {
			s.grants[i].EndDate = &end
			s.grants[i].RevokedBy = &revokedBy
			return nil
		}
	}
	return fmt.Errorf("open grant %d: %w", grantID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) ListActiveByVenue(_ context.Context, venueID int64, asOf time.Time) ([]Grant, error) {
	return s.filter(func(g Grant) bool { return g.VenueID == venueID && g.ActiveAt(asOf) }), nil
}

func (s *InMemoryStore) ListActiveByUser(_ context.Context, userID int64, asOf time.Time) ([]Grant, error) {
	return s.filter(func(g Grant) bool { return g.UserID == userID && g.ActiveAt(asOf) }), nil
}

func (s *InMemoryStore) ListByVenue(_ context.Context, venueID int64) ([]Grant, error) {
	out := s.filter(func(g Grant) bool { return g.VenueID == venueID })
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartDate.After(out[j].StartDate)
	})
	return out, nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID int64) ([]Grant, error) {
	out := s.filter(func(g Grant) bool { return g.UserID == userID })
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, nil
}

func (s *InMemoryStore) filter(keep func(Grant) bool) []Grant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Grant
	for _, g := range s.grants {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}
