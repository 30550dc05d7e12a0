package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/falmar/swarmkeeper/internal/model"
)

var _ Store = (*MemoryStore)(nil)

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*model.CatalogEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*model.CatalogEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) List(ctx context.Context) ([]model.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.CatalogEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, clone(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, name string) (*model.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("service %q: %w", name, model.ErrNotFound)
	}

	cp := clone(e)
	return &cp, nil
}

func (s *MemoryStore) Create(ctx context.Context, entry model.CatalogEntry) (*model.CatalogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.Name]; ok {
		return nil, fmt.Errorf("service %q: %w", entry.Name, model.ErrConflict)
	}

	now := s.now()
	entry.Status = model.StatusRegistered
	entry.ClusterID = ""
	entry.CreatedAt = now
	entry.UpdatedAt = now

	stored := clone(&entry)
	s.entries[entry.Name] = &stored

	cp := clone(&entry)
	return &cp, nil
}

func (s *MemoryStore) UpdateDefinition(ctx context.Context, name string, def *model.ServiceDefinition, description *string) (*model.CatalogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("service %q: %w", name, model.ErrNotFound)
	}

	if def != nil {
		e.Definition = def.Clone()
	}
	if description != nil {
		e.Description = *description
	}
	e.UpdatedAt = s.now()

	cp := clone(e)
	return &cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[name]; !ok {
		return fmt.Errorf("service %q: %w", name, model.ErrNotFound)
	}
	delete(s.entries, name)

	return nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, name string, status model.Status, clusterID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("service %q: %w", name, model.ErrNotFound)
	}
	e.Status = status
	e.ClusterID = clusterID

	return nil
}

func clone(e *model.CatalogEntry) model.CatalogEntry {
	cp := *e
	cp.Definition = e.Definition.Clone()
	return cp
}
