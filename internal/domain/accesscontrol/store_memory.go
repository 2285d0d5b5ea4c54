package accesscontrol

import (
	"context"
	"sort"
	"sync"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	roles map[int64]map[RoleName]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{roles: make(map[int64]map[RoleName]struct{})}
}

func (s *InMemoryStore) AssignRole(_ context.Context, userID int64, role RoleName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roles[userID] == nil {
		s.roles[userID] = make(map[RoleName]struct{})
	}
	s.roles[userID][role] = struct{}{}
	return nil
}

func (s *InMemoryStore) RemoveRole(_ context.Context, userID int64, role RoleName) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.roles[userID], role)
	return nil
}

func (s *InMemoryStore) GetUserRoles(_ context.Context, userID int64) ([]Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var roles []Role
	for name := range s.roles[userID] {
		roles = append(roles, Role{Name: string(name)})
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

func (s *InMemoryStore) UserHasRole(_ context.Context, userID int64, role RoleName) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roles[userID][role]
	return ok, nil
}
