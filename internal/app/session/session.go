package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/slok/inferctl/internal/app/launch"
	"github.com/slok/inferctl/internal/app/models"
	"github.com/slok/inferctl/internal/app/services"
	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/storage"
	"github.com/slok/inferctl/internal/tasks"
)

// StateConfig is the configuration of the session state.
type StateConfig struct {
	Repository storage.Repository
	Services   *services.Service
	Models     *models.Service
	Launcher   *launch.Service
	Task       model.TaskType
	Logger     log.Logger
}

func (c *StateConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Services == nil {
		return fmt.Errorf("services service is required")
	}
	if c.Models == nil {
		return fmt.Errorf("models service is required")
	}
	if c.Launcher == nil {
		return fmt.Errorf("launcher is required")
	}

	if c.Task == "" {
		c.Task = model.TaskTextGeneration
	}
	if _, err := tasks.Get(c.Task); err != nil {
		return err
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Session"})

	return nil
}

// State is the application state shared by the views: the selected profile
// and task, and the services tracking the backend for them.
type State struct {
	repo     storage.Repository
	services *services.Service
	models   *models.Service
	launcher *launch.Service
	logger   log.Logger

	mu      sync.RWMutex
	profile *model.ServiceProfile
	task    model.TaskType
}

// NewState creates a new session state without a selected profile.
func NewState(cfg StateConfig) (*State, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &State{
		repo:     cfg.Repository,
		services: cfg.Services,
		models:   cfg.Models,
		launcher: cfg.Launcher,
		logger:   cfg.Logger,
		task:     cfg.Task,
	}, nil
}

// Load restores the persisted profile selection, no selection is not an error.
func (s *State) Load(ctx context.Context) error {
	name, err := s.repo.GetSelectedProfile(ctx)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("could not get selected profile: %w", err)
	}

	p, err := s.repo.GetProfile(ctx, name)
	if err != nil {
		return fmt.Errorf("could not get profile: %w", err)
	}

	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()

	return nil
}

// SelectProfile selects and persists the profile, the launcher is closed.
func (s *State) SelectProfile(ctx context.Context, name string) error {
	p, err := s.repo.GetProfile(ctx, name)
	if err != nil {
		return fmt.Errorf("could not get profile: %w", err)
	}

	if err := s.repo.SetSelectedProfile(ctx, name); err != nil {
		return fmt.Errorf("could not store selected profile: %w", err)
	}

	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	s.launcher.Close()

	s.logger.Infof("selected profile %s", name)
	return nil
}

// UseProfile selects a profile for this session only, the persisted selection is kept.
func (s *State) UseProfile(p model.ServiceProfile) {
	s.mu.Lock()
	s.profile = &p
	s.mu.Unlock()
	s.launcher.Close()
}

// Profile returns the selected profile.
func (s *State) Profile() (*model.ServiceProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return nil, false
	}
	p := *s.profile
	return &p, true
}

// Task returns the selected task.
func (s *State) Task() model.TaskType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.task
}

// SetTask selects the task of the launcher.
func (s *State) SetTask(t model.TaskType) error {
	if _, err := tasks.Get(t); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.task = t
	return nil
}

// Services returns the services service of the session.
func (s *State) Services() *services.Service { return s.services }

// Launcher returns the launch orchestrator of the session.
func (s *State) Launcher() *launch.Service { return s.launcher }

// Availability returns the model availability of the selected profile and task.
func (s *State) Availability() (model.ModelAvailability, []model.Model) {
	p, ok := s.Profile()
	if !ok {
		return model.ModelsLoading, nil
	}
	return s.models.Availability(*p, s.Task())
}

// Refresh refreshes the services and models of the selected profile.
func (s *State) Refresh(ctx context.Context) error {
	p, ok := s.Profile()
	if !ok {
		return nil
	}

	_, svcErr := s.services.Refresh(ctx, *p)
	mErr := s.RefreshModels(ctx)

	return errors.Join(svcErr, mErr)
}

// RefreshModels refreshes only the model availability of the selected profile and task.
func (s *State) RefreshModels(ctx context.Context) error {
	p, ok := s.Profile()
	if !ok {
		return nil
	}

	_, _, err := s.models.Refresh(ctx, *p, s.Task())
	return err
}

// CanOpenLauncher returns true when the launch affordance is enabled.
func (s *State) CanOpenLauncher() bool {
	p, _ := s.Profile()
	av, _ := s.Availability()
	return launch.CanOpen(p, av)
}

// OpenLauncher opens the launcher for the selected profile and task.
func (s *State) OpenLauncher(ctx context.Context) error {
	p, _ := s.Profile()
	av, ms := s.Availability()

	return s.launcher.Open(ctx, launch.OpenRequest{
		Profile:      p,
		Task:         s.Task(),
		Availability: av,
		Models:       ms,
	})
}
