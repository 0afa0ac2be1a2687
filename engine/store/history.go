package store

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/mohae/deepcopy"
)

const DefaultHistoryLimit = 10

// HistoryEntry records one package generation.
type HistoryEntry struct {
	ID            core.ID                 `json:"id"`
	PackageName   string                  `json:"packageName"`
	Fingerprint   string                  `json:"fingerprint"`
	Configuration *settings.Configuration `json:"configuration"`
	Timestamp     time.Time               `json:"timestamp"`
}

type HistoryStore struct {
	store     *Store
	records   *Collection[HistoryEntry]
	retention atomic.Int64
}

// NewHistoryStore keeps at most retention entries; zero or less keeps all.
func NewHistoryStore(s *Store, retention int) *HistoryStore {
	hs := &HistoryStore{
		store:   s,
		records: NewCollection[HistoryEntry](s, historyDir, ErrHistoryNotFound),
	}
	hs.SetRetention(retention)
	return hs
}

// SetRetention changes the limit applied by the next append.
func (hs *HistoryStore) SetRetention(retention int) {
	hs.retention.Store(int64(retention))
}

// AppendHistory stores a copy of cfg and prunes entries beyond the retention.
func (hs *HistoryStore) AppendHistory(cfg *settings.Configuration, name string) (*HistoryEntry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	snapshot, ok := deepcopy.Copy(cfg).(*settings.Configuration)
	if !ok {
		return nil, fmt.Errorf("failed to copy configuration")
	}
	id, err := core.NewID()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "configuration"
	}
	entry := &HistoryEntry{
		ID:            id,
		PackageName:   name,
		Fingerprint:   core.Fingerprint(snapshot),
		Configuration: snapshot,
		Timestamp:     hs.store.Now(),
	}
	if err := hs.records.Put(id, entry); err != nil {
		return nil, err
	}
	if err := hs.prune(); err != nil {
		return entry, err
	}
	return entry, nil
}

func (hs *HistoryStore) all() ([]*HistoryEntry, error) {
	entries, err := hs.records.List()
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(entries, func(a, b *HistoryEntry) int {
		return cmp.Or(b.Timestamp.Compare(a.Timestamp), cmp.Compare(b.ID, a.ID))
	})
	return entries, nil
}

func (hs *HistoryStore) prune() error {
	retention := int(hs.retention.Load())
	if retention <= 0 {
		return nil
	}
	entries, err := hs.all()
	if err != nil {
		return err
	}
	for _, e := range entries[min(retention, len(entries)):] {
		if _, err := hs.records.Delete(e.ID); err != nil {
			return fmt.Errorf("failed to prune history: %w", err)
		}
	}
	return nil
}

// ListHistory returns up to limit entries, newest first. A non-positive
// limit means DefaultHistoryLimit.
func (hs *HistoryStore) ListHistory(limit int) ([]*HistoryEntry, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	entries, err := hs.all()
	if err != nil {
		return nil, err
	}
	return entries[:min(limit, len(entries))], nil
}

func (hs *HistoryStore) LoadHistory(id core.ID) (*settings.Configuration, error) {
	e, err := hs.records.Get(id)
	if err != nil {
		return nil, err
	}
	if e.Configuration == nil {
		return settings.Default(), nil
	}
	return e.Configuration, nil
}
