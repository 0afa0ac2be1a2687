package store

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/chatdeploy/configurator/engine/core"
	"github.com/chatdeploy/configurator/engine/settings"
)

const DefaultProfileName = "default"

// Profile is a named configuration snapshot.
type Profile struct {
	ID            core.ID                 `json:"id"`
	Name          string                  `json:"name"`
	Description   string                  `json:"description,omitempty"`
	IsDefault     bool                    `json:"isDefault,omitempty"`
	Configuration *settings.Configuration `json:"configuration"`
	CreatedAt     time.Time               `json:"createdAt"`
	UpdatedAt     time.Time               `json:"updatedAt"`
}

// ProfilePatch is a partial update. Configuration holds only the fields to
// change; nested objects are merged and lists are replaced.
type ProfilePatch struct {
	Name          *string        `json:"name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	Configuration map[string]any `json:"configuration,omitempty"`
}

type ProfileStore struct {
	store   *Store
	records *Collection[Profile]
	secrets *SecretsStore
}

// NewProfileStore keeps profiles under <data>/profiles. secrets may be nil.
func NewProfileStore(s *Store, secrets *SecretsStore) *ProfileStore {
	return &ProfileStore{
		store:   s,
		records: NewCollection[Profile](s, profilesDir, ErrProfileNotFound),
		secrets: secrets,
	}
}

// Save stores p as a new profile with a fresh id and timestamps.
func (ps *ProfileStore) Save(p *Profile) (*Profile, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: profile is required", ErrInvalidPatch)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPatch)
	}
	id, err := core.NewID()
	if err != nil {
		return nil, err
	}
	now := ps.store.Now()
	out := *p
	out.ID = id
	out.Name = name
	out.CreatedAt = now
	out.UpdatedAt = now
	if out.Configuration == nil {
		out.Configuration = settings.Default()
	}
	if err := ps.records.Put(id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (ps *ProfileStore) Get(id core.ID) (*Profile, error) {
	return ps.records.Get(id)
}

// List returns every profile, oldest first.
func (ps *ProfileStore) List() ([]*Profile, error) {
	all, err := ps.records.List()
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(all, func(a, b *Profile) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})
	return all, nil
}

// Update applies patch. The id and creation time never change. A merged
// configuration that fails validation is rejected with settings.ValidationErrors.
func (ps *ProfileStore) Update(id core.ID, patch ProfilePatch) (*Profile, error) {
	return ps.records.Update(id, func(p *Profile) error {
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return fmt.Errorf("%w: name must not be empty", ErrInvalidPatch)
			}
			p.Name = name
		}
		if patch.Description != nil {
			p.Description = *patch.Description
		}
		if len(patch.Configuration) > 0 {
			cfg, err := mergeConfiguration(p.Configuration, patch.Configuration)
			if err != nil {
				return err
			}
			p.Configuration = cfg
		}
		p.UpdatedAt = ps.store.Now()
		return nil
	})
}

func mergeConfiguration(base *settings.Configuration, patch map[string]any) (*settings.Configuration, error) {
	if base == nil {
		base = settings.Default()
	}
	merged, err := settings.ToMap(base)
	if err != nil {
		return nil, err
	}
	if err := mergo.Merge(&merged, patch, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPatch, err)
	}
	cfg, errs := settings.Parse(merged)
	if len(errs) > 0 {
		return nil, errs
	}
	return cfg, nil
}

// Delete reports whether a profile was removed.
func (ps *ProfileStore) Delete(id core.ID) (bool, error) {
	return ps.records.Delete(id)
}

// EnsureDefault seeds the default profile on first run.
func (ps *ProfileStore) EnsureDefault() (*Profile, error) {
	if p, err := ps.findDefault(); err != nil || p != nil {
		return p, err
	}
	return ps.Save(&Profile{
		Name:          DefaultProfileName,
		Description:   "Documented LibreChat defaults",
		IsDefault:     true,
		Configuration: settings.Default(),
	})
}

func (ps *ProfileStore) findDefault() (*Profile, error) {
	all, err := ps.List()
	if err != nil {
		return nil, err
	}
	for _, p := range all {
		if p.IsDefault {
			return p, nil
		}
	}
	return nil, nil
}

// GetDefault returns the default profile's configuration, or the documented
// defaults when none is stored, with local secrets applied on top.
func (ps *ProfileStore) GetDefault() (*settings.Configuration, error) {
	p, err := ps.findDefault()
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}
	cfg := settings.Default()
	if p != nil && p.Configuration != nil {
		cfg = p.Configuration
	}
	if ps.secrets != nil {
		ps.secrets.Apply(cfg)
	}
	return cfg, nil
}
