package history

import (
	"context"
	"fmt"

	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/storage"
)

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	Repository storage.LaunchHistoryRepository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.History"})

	return nil
}

// Service lists past launch attempts.
type Service struct {
	repo   storage.LaunchHistoryRepository
	logger log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{repo: cfg.Repository, logger: cfg.Logger}, nil
}

// Request represents the history list request parameters.
type Request struct {
	// Profile filters by profile name, empty lists all.
	Profile string
	// FailedOnly lists only the attempts that did not create a service.
	FailedOnly bool
	// Limit is the maximum number of records, zero is unlimited.
	Limit int
}

// Run returns the launch records newest first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.LaunchRecord, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}

	all, err := s.repo.ListLaunchRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not list launch records: %w", err)
	}

	records := []model.LaunchRecord{}
	for _, r := range all {
		if req.Profile != "" && r.Profile != req.Profile {
			continue
		}
		if req.FailedOnly && r.Succeeded() {
			continue
		}
		records = append(records, r)
		if req.Limit > 0 && len(records) == req.Limit {
			break
		}
	}

	s.logger.Debugf("listed %d of %d launch records", len(records), len(all))
	return records, nil
}
