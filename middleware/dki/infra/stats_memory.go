package infra

import (
	"context"
	"sync"

	"dki-gateway/middleware/dki/domain"
)

type Counters struct {
	Runs      int64
	Aborted   int64
	TextNodes int64
	Entries   int64
}

// MemoryStatsStore é uma implementação simples em memória.
// Útil para testes e desenvolvimento.
//
// Não faz expiração e não é indicada para produção.
type MemoryStatsStore struct {
	mu       sync.Mutex
	total    Counters
	byReason map[domain.Reason]Counters
	byCity   map[string]Counters

	trackCities bool
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackCities(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackCities = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byReason: make(map[domain.Reason]Counters),
		byCity:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (c *Counters) add(ev domain.RewriteEvent) {
	c.Runs++
	if ev.Aborted {
		c.Aborted++
	}
	c.TextNodes += int64(ev.TextNodes)
	c.Entries += int64(ev.Entries)
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.RewriteEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev)

	c := s.byReason[ev.Reason]
	c.add(ev)
	s.byReason[ev.Reason] = c

	if s.trackCities && ev.City != "" {
		k := s.byCity[ev.City]
		k.add(ev)
		s.byCity[ev.City] = k
	}
	return nil
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) ByReason() map[domain.Reason]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Reason]Counters, len(s.byReason))
	for k, v := range s.byReason {
		out[k] = v
	}
	return out
}

func (s *MemoryStatsStore) ByCity() map[string]Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Counters, len(s.byCity))
	for k, v := range s.byCity {
		out[k] = v
	}
	return out
}
