package tokenstore

import (
	"context"
	"sync"
)

// MemoryStore — пара в памяти процесса. Живёт, пока жив процесс.
type MemoryStore struct {
	mu   sync.RWMutex
	pair Pair
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Get(_ context.Context) (Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.pair, nil
}

func (s *MemoryStore) Set(_ context.Context, p Pair) error {
	if err := p.validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.pair = p
	s.mu.Unlock()

	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.pair = Pair{}
	s.mu.Unlock()

	return nil
}
