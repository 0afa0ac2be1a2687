package deployment

import (
	"fmt"
	"slices"
	"strings"

	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/settings"
	"github.com/chatdeploy/configurator/engine/store"
	"github.com/mohae/deepcopy"
)

// maxLogEntries bounds the log kept on each record; older entries are dropped.
const maxLogEntries = 200

// Store persists deployment records as one JSON file each.
type Store struct {
	base    *store.Store
	records *store.Collection[Deployment]
}

func NewStore(base *store.Store) *Store {
	return &Store{
		base:    base,
		records: store.NewCollection[Deployment](base, store.DeploymentsDir(), ErrNotFound),
	}
}

func (s *Store) Create(in CreateInput) (*Deployment, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	id, err := core.NewID()
	if err != nil {
		return nil, err
	}
	now := s.base.Now()
	d := &Deployment{
		ID:                     id,
		Name:                   name,
		ConfigurationProfileID: in.ConfigurationProfileID,
		Status:                 StatusPending,
		Platform:               in.Platform,
		URLs:                   slices.Clone(in.URLs),
		Logs:                   []LogEntry{},
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	if in.Configuration != nil {
		d.Configuration = deepcopy.Copy(in.Configuration).(*settings.Configuration)
	}
	if d.URLs == nil {
		d.URLs = []string{}
	}
	d.Log(LogInfo, now, "deployment created for platform %s", d.Platform)
	if err := s.records.Put(id, d); err != nil {
		return nil, fmt.Errorf("failed to save deployment: %w", err)
	}
	return d, nil
}

func (s *Store) Get(id core.ID) (*Deployment, error) {
	return s.records.Get(id)
}

// List returns every deployment, newest first.
func (s *Store) List() ([]*Deployment, error) {
	all, err := s.records.List()
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(all, func(a, b *Deployment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return all, nil
}

// Update applies fn to the stored record and bumps UpdatedAt.
func (s *Store) Update(id core.ID, fn func(*Deployment) error) (*Deployment, error) {
	return s.records.Update(id, func(d *Deployment) error {
		if err := fn(d); err != nil {
			return err
		}
		d.UpdatedAt = s.base.Now()
		if over := len(d.Logs) - maxLogEntries; over > 0 {
			d.Logs = slices.Clone(d.Logs[over:])
		}
		return nil
	})
}

// Patch applies caller-supplied changes, enforcing the status machine.
func (s *Store) Patch(id core.ID, in UpdateInput) (*Deployment, error) {
	return s.Update(id, func(d *Deployment) error {
		now := s.base.Now()
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
			}
			d.Name = name
		}
		if in.URLs != nil {
			d.URLs = slices.Clone(*in.URLs)
			if d.URLs == nil {
				d.URLs = []string{}
			}
		}
		if in.Status != nil && *in.Status != d.Status {
			if !in.Status.Valid() {
				return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *in.Status)
			}
			prev := d.Status
			if err := d.SetStatus(*in.Status, now); err != nil {
				return err
			}
			d.Log(LogInfo, now, "status changed from %s to %s", prev, d.Status)
		}
		return nil
	})
}

// AppendLog records one log line on the deployment.
func (s *Store) AppendLog(id core.ID, level LogLevel, format string, args ...any) (*Deployment, error) {
	return s.Update(id, func(d *Deployment) error {
		d.Log(level, s.base.Now(), format, args...)
		return nil
	})
}

func (s *Store) Delete(id core.ID) (bool, error) {
	return s.records.Delete(id)
}
