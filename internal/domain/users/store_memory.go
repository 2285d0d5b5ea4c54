package users

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reviewhub/internal/sentinel"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	users  map[int64]User
	nextID int64
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{users: make(map[int64]User)}
}

// Put stores u, assigning an ID when it has none.
func (s *InMemoryStore) Put(u User) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		s.nextID++
		u.ID = s.nextID
	} else if u.ID > s.nextID {
		s.nextID = u.ID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	s.users[u.ID] = u
	return u
}

func (s *InMemoryStore) GetByID(_ context.Context, userID int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, sentinel.ErrNotFound)
	}
	return &u, nil
}
