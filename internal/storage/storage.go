package storage

import (
	"context"

	"github.com/slok/inferctl/internal/model"
)

// ProfileRepository persists service profiles.
type ProfileRepository interface {
	CreateProfile(ctx context.Context, p model.ServiceProfile) error
	GetProfile(ctx context.Context, name string) (*model.ServiceProfile, error)
	ListProfiles(ctx context.Context) ([]model.ServiceProfile, error)
	DeleteProfile(ctx context.Context, name string) error
}

// SettingsRepository persists the user selections that survive sessions.
type SettingsRepository interface {
	// GetSelectedProfile returns model.ErrNotFound when no profile has been selected.
	GetSelectedProfile(ctx context.Context) (string, error)
	SetSelectedProfile(ctx context.Context, name string) error
}

// LaunchHistoryRepository persists launch attempts.
type LaunchHistoryRepository interface {
	CreateLaunchRecord(ctx context.Context, r model.LaunchRecord) error
	// ListLaunchRecords returns the records newest first.
	ListLaunchRecords(ctx context.Context) ([]model.LaunchRecord, error)
}

// Repository is the interface for the local state persistence.
type Repository interface {
	ProfileRepository
	SettingsRepository
	LaunchHistoryRepository
}
