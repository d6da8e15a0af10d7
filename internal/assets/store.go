package assets

import "sync"

// Store resolves asset references held by clips.
type Store interface {
	GetAssetByID(id string) (Asset, bool)
}

// MemoryStore is a Store backed by a map. It is safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	assets map[string]Asset
}

// NewMemoryStore returns a store seeded with list.
func NewMemoryStore(list ...Asset) *MemoryStore {
	s := &MemoryStore{assets: make(map[string]Asset, len(list))}
	for _, a := range list {
		s.assets[a.ID] = a
	}
	return s
}

// GetAssetByID implements Store.
func (s *MemoryStore) GetAssetByID(id string) (Asset, bool) {
	if s == nil {
		return Asset{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	return a, ok
}

// Put inserts or replaces an asset.
func (s *MemoryStore) Put(a Asset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID] = a
}

// List returns every asset in insertion-independent order.
func (s *MemoryStore) List() []Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Asset, 0, len(s.assets))
	for _, a := range s.assets {
		out = append(out, a)
	}
	return out
}
