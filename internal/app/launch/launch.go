package launch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/inferctl/internal/backend"
	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/storage"
	"github.com/slok/inferctl/internal/tasks"
	"github.com/slok/inferctl/internal/validation"
)

// CanOpen returns true when the launcher can be opened: a profile is selected
// and the model list is ready or still loading.
func CanOpen(profile *model.ServiceProfile, availability model.ModelAvailability) bool {
	if profile == nil {
		return false
	}

	switch availability {
	case model.ModelsReady, model.ModelsLoading:
		return true
	case model.ModelsUnavailable:
		return false
	}

	return false
}

// ServiceConfig is the configuration for the launch orchestrator.
type ServiceConfig struct {
	Launcher backend.Launcher
	// History is optional, when set every finished attempt is recorded.
	History storage.LaunchHistoryRepository
	Logger  log.Logger
	TimeNow func() time.Time
}

func (c *ServiceConfig) defaults() error {
	if c.Launcher == nil {
		return fmt.Errorf("launcher is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Launch"})

	if c.TimeNow == nil {
		c.TimeNow = func() time.Time { return time.Now().UTC() }
	}

	return nil
}

// Service orchestrates the launch of a single service: the launcher form,
// its validation, the in-flight request and the reconciliation of its result.
//
// It is safe for concurrent use. The backend call is made outside the lock, a
// generation counter bumped on every close makes late results no-ops.
type Service struct {
	launcher backend.Launcher
	history  storage.LaunchHistoryRepository
	logger   log.Logger
	timeNow  func() time.Time

	mu         sync.Mutex
	phase      model.LaunchPhase
	state      model.LaunchState
	generation uint64
	// inFlight outlives Close, only the return of the backend call clears it.
	inFlight   bool
	profile    model.ServiceProfile
	task       tasks.Definition
	opts       model.ContainerOptions
	registry   *validation.Registry
	handle     *model.ServiceHandle
}

// NewService creates a new launch orchestrator in the idle phase.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		launcher: cfg.Launcher,
		history:  cfg.History,
		logger:   cfg.Logger,
		timeNow:  cfg.TimeNow,
		phase:    model.LaunchPhaseIdle,
	}, nil
}

// OpenRequest represents the open launcher request parameters.
type OpenRequest struct {
	// Profile is the selected profile, nil when none is selected.
	Profile      *model.ServiceProfile
	Task         model.TaskType
	Availability model.ModelAvailability
	// Models are used to preselect the model field.
	Models []model.Model
}

// Open opens the launcher form seeded with the task defaults.
func (s *Service) Open(ctx context.Context, req OpenRequest) error {
	if !CanOpen(req.Profile, req.Availability) {
		return fmt.Errorf("launcher can't be opened (profile selected: %t, models: %s): %w", req.Profile != nil, req.Availability, model.ErrNotValid)
	}

	def, err := tasks.Get(req.Task)
	if err != nil {
		return fmt.Errorf("could not get task: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.LaunchPhaseIdle {
		return fmt.Errorf("launcher is already open (phase: %s): %w", s.phase, model.ErrNotValid)
	}

	opts := def.Defaults()
	if _, ok := def.Field(tasks.FieldModel); ok && len(req.Models) > 0 {
		opts[tasks.FieldModel] = req.Models[0].ID
	}

	s.profile = *req.Profile
	s.task = def
	s.opts = opts
	s.registry = def.NewRegistry()
	s.state = model.LaunchState{}
	s.handle = nil
	s.phase = model.LaunchPhaseModalOpen

	s.logger.Debugf("launcher opened for task %s on profile %s", def.Type, s.profile.Name)
	return nil
}

// SetOption sets a form field and validates it immediately.
func (s *Service) SetOption(field, value string) (model.ValidationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditable(); err != nil {
		return model.ValidationResult{}, err
	}

	if _, ok := s.task.Field(field); !ok {
		return model.ValidationResult{}, fmt.Errorf("unknown field %q for task %s: %w", field, s.task.Type, model.ErrNotValid)
	}

	s.opts[field] = value
	return s.registry.Validate(field, value), nil
}

// Submit validates the whole form and launches the service. It blocks until
// the backend answers.
//
// Invalid forms never reach the backend. While a launch is in flight any other
// submit is refused with model.ErrLaunchInProgress, even from a launcher
// reopened after a close. If the launcher was closed while the request was in
// flight the result is discarded with model.ErrStale.
func (s *Service) Submit(ctx context.Context) (*model.ServiceHandle, error) {
	s.mu.Lock()
	switch s.phase {
	case model.LaunchPhaseIdle:
		s.mu.Unlock()
		return nil, model.ErrModalClosed
	case model.LaunchPhaseLaunching:
		s.mu.Unlock()
		return nil, model.ErrLaunchInProgress
	case model.LaunchPhaseSuccess:
		s.mu.Unlock()
		return nil, fmt.Errorf("service already launched: %w", model.ErrNotValid)
	}

	if s.inFlight {
		s.mu.Unlock()
		return nil, fmt.Errorf("a closed launcher request has not finished: %w", model.ErrLaunchInProgress)
	}

	if !s.registry.ValidateAll(s.opts) {
		failed := s.registry.Errors().Failed()
		s.mu.Unlock()
		return nil, fmt.Errorf("invalid options %v: %w", failed, model.ErrNotValid)
	}

	gen := s.generation
	profile := s.profile
	task := s.task.Type
	opts := s.opts.Clone()
	s.phase = model.LaunchPhaseLaunching
	s.state = model.LaunchState{IsLaunching: true}
	s.inFlight = true
	s.mu.Unlock()

	s.logger.Infof("launching %s service on profile %s", task, profile.Name)
	handle, launchErr := s.launcher.Launch(ctx, profile, task, opts)
	if launchErr == nil && handle == nil {
		launchErr = fmt.Errorf("backend returned an empty service")
	}
	s.record(ctx, profile, task, opts, handle, launchErr)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false

	if gen != s.generation {
		s.logger.Warningf("launch result discarded, launcher was closed while launching")
		return nil, fmt.Errorf("launch result discarded: %w", model.ErrStale)
	}

	if launchErr != nil {
		s.phase = model.LaunchPhaseFailed
		s.state = model.LaunchState{LaunchError: launchErr}
		return nil, fmt.Errorf("could not launch service: %w", launchErr)
	}

	s.phase = model.LaunchPhaseSuccess
	s.state = model.LaunchState{LaunchSuccess: true}
	s.handle = handle

	s.logger.Infof("service launched: %s", handle.ID)
	return handle, nil
}

// DismissError clears the error of a failed attempt, the form is kept as it was.
func (s *Service) DismissError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.LaunchPhaseFailed {
		return
	}
	s.state.LaunchError = nil
	s.phase = model.LaunchPhaseModalOpen
}

// Acknowledge closes the launcher after a successful launch.
func (s *Service) Acknowledge() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != model.LaunchPhaseSuccess {
		return
	}
	s.reset()
}

// Close closes the launcher from any phase, an in-flight launch result will be ignored.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == model.LaunchPhaseLaunching {
		s.logger.Debugf("launcher closed with a launch in flight")
	}
	s.reset()
}

// State returns the launch state.
func (s *Service) State() model.LaunchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Phase returns the launch phase.
func (s *Service) Phase() model.LaunchPhase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Options returns a copy of the form values.
func (s *Service) Options() model.ContainerOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opts.Clone()
}

// Errors returns the current validation errors.
func (s *Service) Errors() model.ValidationErrors {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.registry == nil {
		return model.ValidationErrors{}
	}
	return s.registry.Errors()
}

// IsValid returns true when no field of the form has a failed validation.
func (s *Service) IsValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry != nil && s.registry.IsValid()
}

// FormEditable returns true when the form fields accept edits.
func (s *Service) FormEditable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkEditable() == nil
}

// Task returns the definition of the open task form.
func (s *Service) Task() (tasks.Definition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task, s.phase != model.LaunchPhaseIdle
}

// Handle returns the launched service after a success.
func (s *Service) Handle() (*model.ServiceHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handle == nil {
		return nil, false
	}
	h := *s.handle
	return &h, true
}

func (s *Service) checkEditable() error {
	switch s.phase {
	case model.LaunchPhaseModalOpen, model.LaunchPhaseFailed:
		return nil
	case model.LaunchPhaseLaunching:
		return model.ErrLaunchInProgress
	case model.LaunchPhaseSuccess:
		return fmt.Errorf("service already launched: %w", model.ErrNotValid)
	}
	return model.ErrModalClosed
}

func (s *Service) reset() {
	s.generation++
	s.phase = model.LaunchPhaseIdle
	s.state = model.LaunchState{}
	s.profile = model.ServiceProfile{}
	s.task = tasks.Definition{}
	s.opts = nil
	s.registry = nil
	s.handle = nil
}

// record stores the attempt in the launch history, failures are only logged.
func (s *Service) record(ctx context.Context, profile model.ServiceProfile, task model.TaskType, opts model.ContainerOptions, handle *model.ServiceHandle, launchErr error) {
	if s.history == nil {
		return
	}

	rec := model.LaunchRecord{
		ID:        ulid.Make().String(),
		Profile:   profile.Name,
		Task:      task,
		Options:   opts,
		CreatedAt: s.timeNow(),
	}
	if launchErr != nil {
		rec.Error = launchErr.Error()
	} else if handle != nil {
		rec.ServiceID = handle.ID
	}

	if err := s.history.CreateLaunchRecord(context.WithoutCancel(ctx), rec); err != nil {
		s.logger.Warningf("could not record launch attempt: %s", err)
	}
}
