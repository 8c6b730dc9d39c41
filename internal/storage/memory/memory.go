package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	profiles        map[string]model.ServiceProfile
	records         []model.LaunchRecord
	selectedProfile string
	mu              sync.RWMutex
	logger          log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		profiles: make(map[string]model.ServiceProfile),
		logger:   cfg.Logger,
	}, nil
}

// CreateProfile stores a new profile.
func (r *Repository) CreateProfile(ctx context.Context, p model.ServiceProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[p.Name]; ok {
		return fmt.Errorf("profile %s: %w", p.Name, model.ErrAlreadyExists)
	}

	r.profiles[p.Name] = copyProfile(p)
	r.logger.Debugf("Created profile in repository: %s", p.Name)

	return nil
}

// GetProfile retrieves a profile by name.
func (r *Repository) GetProfile(ctx context.Context, name string) (*model.ServiceProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", name, model.ErrNotFound)
	}

	c := copyProfile(p)
	return &c, nil
}

// ListProfiles returns all profiles sorted by name.
func (r *Repository) ListProfiles(ctx context.Context) ([]model.ServiceProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	profiles := make([]model.ServiceProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		profiles = append(profiles, copyProfile(p))
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })

	return profiles, nil
}

// DeleteProfile deletes a profile, if it was the selected one the selection is cleared.
func (r *Repository) DeleteProfile(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[name]; !ok {
		return fmt.Errorf("profile %s: %w", name, model.ErrNotFound)
	}

	delete(r.profiles, name)
	if r.selectedProfile == name {
		r.selectedProfile = ""
	}
	r.logger.Debugf("Deleted profile from repository: %s", name)

	return nil
}

// GetSelectedProfile returns the selected profile name.
func (r *Repository) GetSelectedProfile(ctx context.Context) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.selectedProfile == "" {
		return "", fmt.Errorf("selected profile: %w", model.ErrNotFound)
	}
	return r.selectedProfile, nil
}

// SetSelectedProfile selects an existing profile.
func (r *Repository) SetSelectedProfile(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.profiles[name]; !ok {
		return fmt.Errorf("profile %s: %w", name, model.ErrNotFound)
	}
	r.selectedProfile = name

	return nil
}

// CreateLaunchRecord stores a launch attempt.
func (r *Repository) CreateLaunchRecord(ctx context.Context, rec model.LaunchRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.records {
		if existing.ID == rec.ID {
			return fmt.Errorf("launch record %s: %w", rec.ID, model.ErrAlreadyExists)
		}
	}

	rec.Options = rec.Options.Clone()
	r.records = append(r.records, rec)

	return nil
}

// ListLaunchRecords returns the launch records newest first.
func (r *Repository) ListLaunchRecords(ctx context.Context) ([]model.LaunchRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := make([]model.LaunchRecord, 0, len(r.records))
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		rec.Options = rec.Options.Clone()
		records = append(records, rec)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })

	return records, nil
}

func copyProfile(p model.ServiceProfile) model.ServiceProfile {
	if p.SSH != nil {
		ssh := *p.SSH
		p.SSH = &ssh
	}
	return p
}
