package venuereviews

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"reviewhub/internal/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	reviews map[int64]Review
	nextID  int64
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{reviews: make(map[int64]Review), now: time.Now}
}

// WithClock makes the store stamp CreatedAt/UpdatedAt from now.
func (s *InMemoryStore) WithClock(now func() time.Time) *InMemoryStore {
	s.now = now
	return s
}

func (s *InMemoryStore) Create(_ context.Context, review *Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	review.ID = s.nextID
	review.Rating = review.Rating.WithAverage()
	review.CreatedAt = s.now()
	review.UpdatedAt = review.CreatedAt
	s.reviews[review.ID] = *review
	return nil
}

func (s *InMemoryStore) GetByID(_ context.Context, reviewID int64) (*Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rv, ok := s.reviews[reviewID]
	if !ok {
		return nil, fmt.Errorf("review %d: %w", reviewID, sentinel.ErrNotFound)
	}
	return &rv, nil
}

func (s *InMemoryStore) UpdateContent(_ context.Context, reviewID int64, rating Rating, comment string) error {
	return s.update(reviewID, func(rv *Review) {
		rv.Rating = rating.WithAverage()
		rv.Comment = comment
	})
}

func (s *InMemoryStore) SetHidden(_ context.Context, reviewID int64, hidden bool) error {
	return s.update(reviewID, func(rv *Review) { rv.HiddenByManager = hidden })
}

func (s *InMemoryStore) MarkDeletedByAuthor(_ context.Context, reviewID int64) error {
	return s.update(reviewID, func(rv *Review) { rv.DeletedByAuthor = true })
}

func (s *InMemoryStore) MarkDeletedByManager(_ context.Context, reviewID int64) error {
	return s.update(reviewID, func(rv *Review) { rv.DeletedByManager = true })
}

func (s *InMemoryStore) update(reviewID int64, fn func(*Review)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[reviewID]
	if !ok {
		return fmt.Errorf("review %d: %w", reviewID, sentinel.ErrNotFound)
	}
	fn(&rv)
	rv.UpdatedAt = s.now()
	s.reviews[reviewID] = rv
	return nil
}

func (s *InMemoryStore) HasActiveReview(_ context.Context, userID, eventID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rv := range s.reviews {
		if rv.UserID == userID && rv.EventID == eventID && !rv.DeletedByAuthor {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ListLiveRatings(_ context.Context, venueID int64) ([]Rating, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Rating
	for _, rv := range s.reviews {
		if rv.VenueID == venueID && rv.IsLive() {
			out = append(out, rv.Rating)
		}
	}
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]Review, error) {
	matched := s.matching(filter)
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if filter.Order == OrderAsc {
			a, b = b, a
		}
		switch {
		case filter.Sort == SortByRating && a.Rating.Average != b.Rating.Average:
			return a.Rating.Average > b.Rating.Average
		case filter.Sort != SortByRating && !a.CreatedAt.Equal(b.CreatedAt):
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	offset := max(filter.Offset, 0)
	if offset >= len(matched) {
		return []Review{}, nil
	}
	matched = matched[offset:]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *InMemoryStore) Count(_ context.Context, filter ListFilter) (int, error) {
	return len(s.matching(filter)), nil
}

func (s *InMemoryStore) matching(filter ListFilter) []Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Review{}
	for _, rv := range s.reviews {
		if filter.Admits(rv) {
			out = append(out, rv)
		}
	}
	return out
}
