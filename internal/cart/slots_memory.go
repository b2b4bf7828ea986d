package cart

import (
	"context"
	"sync"
)

type MemSlots struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemSlots() *MemSlots {
	return &MemSlots{m: map[string][]byte{}}
}

func (s *MemSlots) Ping(context.Context) error { return nil }

func (s *MemSlots) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *MemSlots) Store(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[key] = append([]byte(nil), data...)
	return nil
}
