package services

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/slok/inferctl/internal/backend"
	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/selection"
)

// ServiceConfig is the configuration for the services service.
type ServiceConfig struct {
	Manager backend.ServiceManager
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Manager == nil {
		return fmt.Errorf("service manager is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Services"})

	return nil
}

// Service keeps the service list of a profile and its selection in sync.
type Service struct {
	manager  backend.ServiceManager
	logger   log.Logger
	tracker  *selection.Tracker
	mu       sync.RWMutex
	services []model.Service
}

// NewService creates a new services service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		manager: cfg.Manager,
		logger:  cfg.Logger,
		tracker: selection.NewTracker(),
	}, nil
}

// Refresh lists the services of the profile and reconciles the selection.
// On error the previous list is kept.
func (s *Service) Refresh(ctx context.Context, profile model.ServiceProfile) ([]model.Service, error) {
	svcs, err := s.manager.ListServices(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("could not list services: %w", err)
	}

	// The list and the selection change together.
	s.mu.Lock()
	s.services = slices.Clone(svcs)
	id, ok := s.tracker.Sync(svcs)
	s.mu.Unlock()

	if ok {
		s.logger.Debugf("%d services, selected %s", len(svcs), id)
	}

	return svcs, nil
}

// Services returns the last listed services.
func (s *Service) Services() []model.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.services)
}

// Selected returns the selected service.
func (s *Service) Selected() (*model.Service, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.tracker.Selected()
	if !ok {
		return nil, false
	}
	for _, svc := range s.services {
		if svc.ID == id {
			svc := svc
			return &svc, true
		}
	}
	return nil, false
}

// Select selects one of the listed services.
func (s *Service) Select(id string) error {
	return s.tracker.Select(id)
}

// Stop stops a service and refreshes the list.
func (s *Service) Stop(ctx context.Context, profile model.ServiceProfile, id string) error {
	if err := s.manager.StopService(ctx, profile, id); err != nil {
		return fmt.Errorf("could not stop service %s: %w", id, err)
	}
	s.logger.Infof("stopped service %s", id)

	if _, err := s.Refresh(ctx, profile); err != nil {
		return err
	}
	return nil
}

// Watch refreshes the services every interval until the context is done.
// Refresh errors are logged and the loop continues. onUpdate is called after
// every successful refresh.
func (s *Service) Watch(ctx context.Context, profile model.ServiceProfile, interval time.Duration, onUpdate func([]model.Service)) error {
	refresh := func() {
		svcs, err := s.Refresh(ctx, profile)
		if err != nil {
			if ctx.Err() == nil {
				s.logger.Warningf("could not refresh services: %s", err)
			}
			return
		}
		if onUpdate != nil {
			onUpdate(svcs)
		}
	}

	refresh()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			refresh()
		}
	}
}
