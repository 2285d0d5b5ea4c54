package pushtokens

import (
	"context"
	"sync"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	tokens map[int64][]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tokens: make(map[int64][]string)}
}

func (s *InMemoryStore) Add(userID int64, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = append(s.tokens[userID], token)
}

func (s *InMemoryStore) GetTokensByUserIDs(_ context.Context, userIDs []int64) (map[int64][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[int64][]string)
	for _, id := range userIDs {
		if tokens := s.tokens[id]; len(tokens) > 0 {
			result[id] = append([]string(nil), tokens...)
		}
	}
	return result, nil
}
