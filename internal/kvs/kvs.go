package kvs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/probelab/kvsprobe/internal/kvsval"
)

// MaxSnapshots is the number of rotated snapshots kept beside the current data.
const MaxSnapshots = 3

// Options configures Open.
type Options struct {
	// Dir is the storage directory. Empty means ephemeral: the store lives
	// in memory only and Flush is a no-op.
	Dir string

	// InstanceID distinguishes stores sharing one directory.
	InstanceID int

	// NeedDefaults makes a missing defaults file an error instead of an
	// empty default set.
	NeedDefaults bool

	// NeedFile makes a missing current data file an error instead of an
	// empty store.
	NeedFile bool
}

// Store is the persistent key-value store.
type Store struct {
	dir      string
	instance int

	mu       sync.RWMutex
	data     map[string]kvsval.Value
	defaults map[string]kvsval.Value
}

// Open creates or opens a store per opts.
//
// With a storage directory, the current data file is loaded and verified
// against its checksum, and defaults are loaded from the CUE defaults file.
// Ephemeral stores (empty Dir) start empty and reject NeedDefaults/NeedFile.
func Open(opts Options) (*Store, error) {
	s := &Store{
		dir:      opts.Dir,
		instance: opts.InstanceID,
		data:     make(map[string]kvsval.Value),
		defaults: make(map[string]kvsval.Value),
	}

	if opts.Dir == "" {
		if opts.NeedDefaults || opts.NeedFile {
			return nil, &StoreError{
				Code:    ErrCodeFileNotFound,
				Message: "ephemeral store cannot require files",
			}
		}
		return s, nil
	}

	defaults, err := loadDefaults(s.defaultsFilename())
	if err != nil {
		if CodeOf(err) == ErrCodeFileNotFound && !opts.NeedDefaults {
			defaults = make(map[string]kvsval.Value)
		} else {
			return nil, err
		}
	}
	s.defaults = defaults

	data, err := loadSnapshot(s.KvsFilename(0), s.HashFilename(0))
	if err != nil {
		if CodeOf(err) == ErrCodeFileNotFound && !opts.NeedFile {
			data = make(map[string]kvsval.Value)
		} else {
			return nil, err
		}
	}
	s.data = data

	return s, nil
}

// KeyExists reports whether key resolves to a value, written or default.
func (s *Store) KeyExists(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.data[key]; ok {
		return true, nil
	}
	_, ok := s.defaults[key]
	return ok, nil
}

// IsValueDefault reports whether key currently resolves to its default
// (i.e. it was never written, or was removed). Unknown keys are an error.
func (s *Store) IsValueDefault(key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.data[key]; ok {
		return false, nil
	}
	if _, ok := s.defaults[key]; ok {
		return true, nil
	}
	return false, keyNotFound(key)
}

// GetDefaultValue returns the declared default for key.
func (s *Store) GetDefaultValue(key string) (kvsval.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.defaults[key]
	if !ok {
		return nil, defaultNotFound(key)
	}
	return v, nil
}

// GetValue returns the written value for key, falling back to its default.
func (s *Store) GetValue(key string) (kvsval.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.data[key]; ok {
		return v, nil
	}
	if v, ok := s.defaults[key]; ok {
		return v, nil
	}
	return nil, keyNotFound(key)
}

// SetValue writes key -> value.
func (s *Store) SetValue(key string, value kvsval.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// RemoveKey deletes a written value. Removing a key that was never written
// is an error, even if a default exists.
func (s *Store) RemoveKey(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return keyNotFound(key)
	}
	delete(s.data, key)
	return nil
}

// AllKeys returns every resolvable key (written or default), sorted.
func (s *Store) AllKeys() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{}, len(s.data)+len(s.defaults))
	for k := range s.data {
		seen[k] = struct{}{}
	}
	for k := range s.defaults {
		seen[k] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Reset discards all written data; every key resolves to its default again.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]kvsval.Value)
	return nil
}

// KvsFilename returns the data filename for a snapshot identifier.
// Identifier 0 is the current data.
func (s *Store) KvsFilename(id int) string {
	return filepath.Join(s.dir, fmt.Sprintf("kvs_%d_%d.json", s.instance, id))
}

// HashFilename returns the checksum filename for a snapshot identifier.
func (s *Store) HashFilename(id int) string {
	return filepath.Join(s.dir, fmt.Sprintf("kvs_%d_%d.hash", s.instance, id))
}

func (s *Store) defaultsFilename() string {
	return filepath.Join(s.dir, fmt.Sprintf("kvs_%d_default.cue", s.instance))
}

// snapshot returns a copy of the working data for serialization.
func (s *Store) snapshot() map[string]kvsval.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]kvsval.Value, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

func (s *Store) replace(data map[string]kvsval.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
}

// Close flushes the store. Ephemeral stores close without touching disk.
func (s *Store) Close() error {
	return s.Flush()
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return &StoreError{Code: ErrCodePhysicalStorage, Message: "remove file", Err: err}
	}
	return nil
}

func renameIfExists(from, to string) error {
	if err := os.Rename(from, to); err != nil && !os.IsNotExist(err) {
		return &StoreError{Code: ErrCodePhysicalStorage, Message: "rotate file", Err: err}
	}
	return nil
}
