package models

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/slok/inferctl/internal/backend"
	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
)

// ServiceConfig is the configuration for the models service.
type ServiceConfig struct {
	Lister backend.ModelLister
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Lister == nil {
		return fmt.Errorf("model lister is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Models"})

	return nil
}

type key struct {
	profile string
	task    model.TaskType
}

type entry struct {
	availability model.ModelAvailability
	models       []model.Model
}

// Service tracks the model availability of every profile and task.
// A pair that never resolved is loading.
type Service struct {
	lister  backend.ModelLister
	logger  log.Logger
	mu      sync.RWMutex
	entries map[key]entry
}

// NewService creates a new models service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		lister:  cfg.Lister,
		logger:  cfg.Logger,
		entries: map[key]entry{},
	}, nil
}

// Availability returns the last known availability and models of a profile and task.
func (s *Service) Availability(profile model.ServiceProfile, task model.TaskType) (model.ModelAvailability, []model.Model) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key{profile: profile.Name, task: task}]
	if !ok {
		return model.ModelsLoading, nil
	}
	return e.availability, slices.Clone(e.models)
}

// Refresh lists the models of a profile and task. An empty list or a failed
// request makes the pair unavailable.
func (s *Service) Refresh(ctx context.Context, profile model.ServiceProfile, task model.TaskType) (model.ModelAvailability, []model.Model, error) {
	k := key{profile: profile.Name, task: task}

	models, err := s.lister.ListModels(ctx, profile, task)
	if err != nil {
		// A canceled refresh says nothing about the backend.
		if ctx.Err() != nil {
			return model.ModelsLoading, nil, ctx.Err()
		}

		s.set(k, entry{availability: model.ModelsUnavailable})
		s.logger.Warningf("could not list %s models on %s: %s", task, profile.Name, err)
		return model.ModelsUnavailable, nil, fmt.Errorf("could not list models: %w", err)
	}

	e := entry{availability: model.ModelsUnavailable, models: models}
	if len(models) > 0 {
		e.availability = model.ModelsReady
	}
	s.set(k, e)
	s.logger.Debugf("%d %s models on %s", len(models), task, profile.Name)

	return e.availability, slices.Clone(models), nil
}

// Invalidate forgets the result of a profile and task so it is loading again.
func (s *Service) Invalidate(profile model.ServiceProfile, task model.TaskType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key{profile: profile.Name, task: task})
}

func (s *Service) set(k key, e entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[k] = e
}
