package channel

import (
	"context"
	"sync"
)

// MemoryStore keeps slots in process memory. It backs tests and the
// simulator; nothing outlives the process.
type MemoryStore struct {
	mu       sync.Mutex
	slots    map[string][]byte
	onChange []func(name string)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

func (s *MemoryStore) Read(name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.slots[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), data...), true, nil
}

func (s *MemoryStore) Write(name string, data []byte) error {
	s.mu.Lock()
	s.slots[name] = append([]byte(nil), data...)
	watchers := append([]func(string){}, s.onChange...)
	s.mu.Unlock()

	for _, fn := range watchers {
		fn(name)
	}
	return nil
}

func (s *MemoryStore) Watch(ctx context.Context, onChange func(name string)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, onChange)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
