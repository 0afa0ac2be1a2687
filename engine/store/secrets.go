package store

import (
	"errors"
	"io/fs"
	"maps"
	"slices"
	"sync"

	"github.com/chatdeploy/configurator/engine/settings"
)

// SecretsStore holds local convenience secrets keyed by configuration field
// path, e.g. "openaiApiKey". It is loaded and saved explicitly.
type SecretsStore struct {
	store  *Store
	mu     sync.RWMutex
	values map[string]string
}

func NewSecretsStore(s *Store) *SecretsStore {
	return &SecretsStore{store: s, values: map[string]string{}}
}

// Load replaces the in-memory values with the file content. A missing file
// leaves the store empty.
func (ss *SecretsStore) Load() error {
	values := map[string]string{}
	if err := ss.store.readJSON(secretsFile, &values); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	ss.mu.Lock()
	ss.values = values
	ss.mu.Unlock()
	return nil
}

func (ss *SecretsStore) Save() error {
	ss.mu.RLock()
	values := maps.Clone(ss.values)
	ss.mu.RUnlock()
	return ss.store.writeJSON(secretsFile, values)
}

func (ss *SecretsStore) Get(key string) (string, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	v, ok := ss.values[key]
	return v, ok
}

// Set assigns a value; an empty value removes the key.
func (ss *SecretsStore) Set(key, value string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	if value == "" {
		delete(ss.values, key)
		return
	}
	ss.values[key] = value
}

func (ss *SecretsStore) All() map[string]string {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return maps.Clone(ss.values)
}

// Apply writes every value addressing a known string field into cfg and
// returns the keys that matched nothing.
func (ss *SecretsStore) Apply(cfg *settings.Configuration) []string {
	var unknown []string
	values := ss.All()
	for _, key := range slices.Sorted(maps.Keys(values)) {
		f, ok := settings.LookupField(key)
		if !ok || !f.Set(cfg, values[key]) {
			unknown = append(unknown, key)
		}
	}
	return unknown
}
