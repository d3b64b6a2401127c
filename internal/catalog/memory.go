package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Admin used by tests.
type Memory struct {
	mu     sync.RWMutex
	m      map[int64]Product
	nextID int64
}

func NewMemory(products ...Product) *Memory {
	m := &Memory{m: make(map[int64]Product)}
	for _, p := range products {
		m.m[p.ID] = p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (s *Memory) Put(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[p.ID] = p
}

func (s *Memory) FindByID(_ context.Context, id int64) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.m[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (s *Memory) FindByCode(_ context.Context, code string) (Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.m {
		if p.Code == code {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (s *Memory) Search(_ context.Context, term string) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	term = strings.ToLower(term)
	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		if term == "" ||
			strings.Contains(strings.ToLower(p.Code), term) ||
			strings.Contains(strings.ToLower(p.Name), term) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Memory) Create(_ context.Context, p Product) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = s.nextID
	s.m[p.ID] = p
	return p.ID, nil
}

func (s *Memory) Update(_ context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[p.ID]; !ok {
		return ErrNotFound
	}
	s.m[p.ID] = p
	return nil
}

func (s *Memory) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return ErrNotFound
	}
	delete(s.m, id)
	return nil
}

func (s *Memory) ListLowStock(_ context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Product, 0)
	for _, p := range s.m {
		if p.LowStock() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
