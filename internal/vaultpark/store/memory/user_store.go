package memory

import (
	"context"
	"sync"

	"github.com/Kushanz7/VaultPark-sub001/internal/vaultpark/store"
)

type UserStore struct {
	mu    sync.RWMutex
	users map[string]store.User
}

func NewUserStore(users ...store.User) *UserStore {
	m := make(map[string]store.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &UserStore{users: m}
}

func (s *UserStore) FindUser(_ context.Context, userID string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStore) UpsertUser(_ context.Context, u store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}
