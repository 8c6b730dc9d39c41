package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/storage/memory"
)

func profileFixture(name string) model.ServiceProfile {
	return model.ServiceProfile{
		Name:    name,
		Type:    model.ProfileTypeRemote,
		Host:    "gpu-1.lab",
		HomeDir: "/home/ml",
		SSH:     &model.SSHConfig{User: "ml", Port: 22},
	}
}

func TestRepositoryProfiles(t *testing.T) {
	tests := map[string]struct {
		actions func(ctx context.Context, t *testing.T, repo *memory.Repository) error
		expErr  error
	}{
		"Creating a profile should work": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateProfile(ctx, profileFixture("gpu")))

				got, err := repo.GetProfile(ctx, "gpu")
				require.NoError(t, err)
				assert.Equal(t, profileFixture("gpu"), *got)
				return nil
			},
		},

		"Creating a duplicated profile should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateProfile(ctx, profileFixture("gpu")))
				return repo.CreateProfile(ctx, profileFixture("gpu"))
			},
			expErr: model.ErrAlreadyExists,
		},

		"Getting a missing profile should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				_, err := repo.GetProfile(ctx, "missing")
				return err
			},
			expErr: model.ErrNotFound,
		},

		"Returned profiles should be copies": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateProfile(ctx, profileFixture("gpu")))

				got, err := repo.GetProfile(ctx, "gpu")
				require.NoError(t, err)
				got.SSH.User = "changed"
				got.Host = "changed"

				got2, err := repo.GetProfile(ctx, "gpu")
				require.NoError(t, err)
				assert.Equal(t, "ml", got2.SSH.User)
				assert.Equal(t, "gpu-1.lab", got2.Host)
				return nil
			},
		},

		"Listing profiles should return them sorted by name": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateProfile(ctx, profileFixture("zeta")))
				require.NoError(t, repo.CreateProfile(ctx, profileFixture("alpha")))

				got, err := repo.ListProfiles(ctx)
				require.NoError(t, err)
				require.Len(t, got, 2)
				assert.Equal(t, "alpha", got[0].Name)
				assert.Equal(t, "zeta", got[1].Name)
				return nil
			},
		},

		"Deleting the selected profile should clear the selection": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateProfile(ctx, profileFixture("gpu")))
				require.NoError(t, repo.SetSelectedProfile(ctx, "gpu"))
				require.NoError(t, repo.DeleteProfile(ctx, "gpu"))

				_, err := repo.GetSelectedProfile(ctx)
				return err
			},
			expErr: model.ErrNotFound,
		},

		"Selecting a missing profile should fail": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				return repo.SetSelectedProfile(ctx, "missing")
			},
			expErr: model.ErrNotFound,
		},

		"Selecting a profile should persist the selection": {
			actions: func(ctx context.Context, t *testing.T, repo *memory.Repository) error {
				require.NoError(t, repo.CreateProfile(ctx, profileFixture("gpu")))
				require.NoError(t, repo.SetSelectedProfile(ctx, "gpu"))

				got, err := repo.GetSelectedProfile(ctx)
				require.NoError(t, err)
				assert.Equal(t, "gpu", got)
				return nil
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: log.Noop})
			require.NoError(t, err)

			err = test.actions(context.Background(), t, repo)
			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepositoryLaunchRecords(t *testing.T) {
	ctx := context.Background()
	repo, err := memory.NewRepository(memory.RepositoryConfig{})
	require.NoError(t, err)

	now := time.Now().UTC()
	opts := model.ContainerOptions{"model": "llama-3-8b"}
	require.NoError(t, repo.CreateLaunchRecord(ctx, model.LaunchRecord{ID: "r1", Profile: "gpu", Task: model.TaskTextGeneration, Options: opts, ServiceID: "svc-1", CreatedAt: now.Add(-time.Minute)}))
	require.NoError(t, repo.CreateLaunchRecord(ctx, model.LaunchRecord{ID: "r2", Profile: "gpu", Task: model.TaskEmbeddings, Error: "no capacity", CreatedAt: now}))

	err = repo.CreateLaunchRecord(ctx, model.LaunchRecord{ID: "r1"})
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	// Mutating the input should not affect the stored record.
	opts["model"] = "changed"

	got, err := repo.ListLaunchRecords(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "r2", got[0].ID)
	assert.False(t, got[0].Succeeded())
	assert.Equal(t, "r1", got[1].ID)
	assert.True(t, got[1].Succeeded())
	assert.Equal(t, "llama-3-8b", got[1].Options["model"])
}
