package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgnsrekt/tabfence/internal/types"
)

// FileStore persists the key/value map as one pretty-printed JSON document.
// Every mutation rewrites the document through a temp file and rename, so a
// crash leaves either the old or the new state, never a torn write.
type FileStore struct {
	path string

	mu        sync.Mutex
	values    map[string]json.RawMessage
	listeners map[int64]Listener
	nextID    int64
}

// OpenFileStore loads the store at path, creating parent directories as
// needed. A missing file is a valid empty store.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, types.NewError(types.CodeValidation, "settings path is required", nil)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, types.NewError(types.CodeStoreIO, "create settings directory", err)
		}
	}

	s := &FileStore{
		path:      path,
		values:    make(map[string]json.RawMessage),
		listeners: make(map[int64]Listener),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Debug("settings file absent, starting empty", "path", path)
		return s, nil
	}
	if err != nil {
		return nil, types.NewError(types.CodeStoreIO, "read settings file", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.values); err != nil {
			return nil, types.NewError(types.CodeStoreIO, fmt.Sprintf("settings file %s is not valid JSON", path), err)
		}
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, keys []string) (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]json.RawMessage)
	if keys == nil {
		for k, v := range s.values {
			out[k] = v
		}
		return out, nil
	}
	for _, k := range keys {
		if v, ok := s.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *FileStore) Set(ctx context.Context, values map[string]json.RawMessage) error {
	if len(values) == 0 {
		return nil
	}

	s.mu.Lock()
	next := make(map[string]json.RawMessage, len(s.values)+len(values))
	for k, v := range s.values {
		next[k] = v
	}
	changes := make([]Change, 0, len(values))
	for k, v := range values {
		changes = append(changes, Change{Key: k, Old: s.values[k], New: v})
		next[k] = v
	}
	if err := s.persistLocked(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.values = next
	fire := s.listenersLocked()
	s.mu.Unlock()

	notify(fire, changes)
	return nil
}

func (s *FileStore) Delete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	s.mu.Lock()
	next := make(map[string]json.RawMessage, len(s.values))
	for k, v := range s.values {
		next[k] = v
	}
	var changes []Change
	for _, k := range keys {
		old, ok := next[k]
		if !ok {
			continue
		}
		changes = append(changes, Change{Key: k, Old: old})
		delete(next, k)
	}
	if len(changes) == 0 {
		s.mu.Unlock()
		return nil
	}
	if err := s.persistLocked(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.values = next
	fire := s.listenersLocked()
	s.mu.Unlock()

	notify(fire, changes)
	return nil
}

func (s *FileStore) OnChange(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *FileStore) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		out = append(out, l)
	}
	return out
}

// notify runs outside the store lock so listeners may read the store.
func notify(listeners []Listener, changes []Change) {
	for _, l := range listeners {
		l(changes)
	}
}

func (s *FileStore) persistLocked(values map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return types.NewError(types.CodeStoreIO, "encode settings", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return types.NewError(types.CodeStoreIO, "create settings temp file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.NewError(types.CodeStoreIO, "write settings", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.NewError(types.CodeStoreIO, "close settings temp file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return types.NewError(types.CodeStoreIO, "replace settings file", err)
	}
	return nil
}
