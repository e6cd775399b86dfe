package session

import (
	"context"
	"sync"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// MemStore is the in-process Store implementation. Updates are idempotent
// last-writer-wins assignments, safe under interleaved event handling.
type MemStore struct {
	mu      sync.RWMutex
	tabs    map[types.TabID]map[string]string
	windows map[types.WindowID]map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{
		tabs:    make(map[types.TabID]map[string]string),
		windows: make(map[types.WindowID]map[string]string),
	}
}

func (s *MemStore) TabValue(ctx context.Context, tab types.TabID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.tabs[tab][key]
	return v, ok, nil
}

func (s *MemStore) SetTabValue(ctx context.Context, tab types.TabID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, ok := s.tabs[tab]
	if !ok {
		kv = make(map[string]string)
		s.tabs[tab] = kv
	}
	kv[key] = value
	return nil
}

func (s *MemStore) WindowValue(ctx context.Context, window types.WindowID, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.windows[window][key]
	return v, ok, nil
}

func (s *MemStore) SetWindowValue(ctx context.Context, window types.WindowID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kv, ok := s.windows[window]
	if !ok {
		kv = make(map[string]string)
		s.windows[window] = kv
	}
	kv[key] = value
	return nil
}

func (s *MemStore) RemoveTab(ctx context.Context, tab types.TabID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, tab)
	return nil
}

func (s *MemStore) RemoveWindow(ctx context.Context, window types.WindowID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, window)
	return nil
}
