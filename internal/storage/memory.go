package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SmitUplenchwar2687/macrokit/internal/event"
)

// MemoryStore keeps encoded recordings in a map. Recordings go through the
// same codec as the other backends, so a bad log fails here too.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memItem
	now   func() time.Time
}

type memItem struct {
	data     []byte
	modified time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memItem),
		now:   time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, name string, log event.Log) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}
	data, err := event.Marshal(log)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[name] = memItem{data: data, modified: s.now()}
	return nil
}

func (s *MemoryStore) Load(_ context.Context, name string) (event.Log, error) {
	clean, err := CleanName(name)
	if err != nil {
		return nil, &LoadError{Name: name, Err: err}
	}

	s.mu.RLock()
	item, ok := s.items[clean]
	s.mu.RUnlock()
	if !ok {
		return nil, &LoadError{Name: clean, Err: ErrNotFound}
	}

	log, err := event.Unmarshal(item.data)
	if err != nil {
		return nil, &LoadError{Name: clean, Err: err}
	}
	return log, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Info, 0, len(s.items))
	for name, item := range s.items {
		out = append(out, Info{Name: name, Size: int64(len(item.data)), Modified: item.modified})
	}
	sortInfos(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	name, err := CleanName(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[name]; !ok {
		return fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	delete(s.items, name)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
