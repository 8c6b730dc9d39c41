package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/slok/inferctl/internal/app/launch"
	"github.com/slok/inferctl/internal/app/models"
	"github.com/slok/inferctl/internal/app/services"
	"github.com/slok/inferctl/internal/app/session"
	"github.com/slok/inferctl/internal/backend"
	"github.com/slok/inferctl/internal/backend/apiclient"
	"github.com/slok/inferctl/internal/backend/fake"
	"github.com/slok/inferctl/internal/conventions"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/printer"
	storageio "github.com/slok/inferctl/internal/storage/io"
	"github.com/slok/inferctl/internal/storage/sqlite"
)

// loadConfig loads the configuration file, a missing default file is an empty configuration.
func (r *RootCommand) loadConfig(ctx context.Context) (model.ClientConfig, error) {
	path, err := filepath.Abs(r.ConfigPath)
	if err != nil {
		return model.ClientConfig{}, fmt.Errorf("invalid config path: %w", err)
	}

	repo := storageio.NewConfigYAMLRepository(os.DirFS(filepath.Dir(path)))
	cfg, err := repo.GetConfig(ctx, filepath.Base(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && r.ConfigPath == conventions.ConfigPath() {
			r.Logger.Debugf("no configuration file at %s", path)
			return model.ClientConfig{}, nil
		}
		return model.ClientConfig{}, fmt.Errorf("could not load configuration: %w", err)
	}

	return cfg, nil
}

// newRepository opens the database and seeds it with the configured profiles.
// Profiles already stored are kept as they are.
func (r *RootCommand) newRepository(ctx context.Context, cfg model.ClientConfig) (*sqlite.Repository, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: r.DBPath,
		Logger: r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	for _, p := range cfg.Profiles {
		err := repo.CreateProfile(ctx, p)
		if err != nil && !errors.Is(err, model.ErrAlreadyExists) {
			return nil, fmt.Errorf("could not store configured profile %s: %w", p.Name, err)
		}
	}

	if cfg.DefaultProfile != "" {
		_, err := repo.GetSelectedProfile(ctx)
		switch {
		case errors.Is(err, model.ErrNotFound):
			if err := repo.SetSelectedProfile(ctx, cfg.DefaultProfile); err != nil {
				return nil, fmt.Errorf("could not select default profile: %w", err)
			}
		case err != nil:
			return nil, fmt.Errorf("could not get selected profile: %w", err)
		}
	}

	return repo, nil
}

func (r *RootCommand) newBackend(cfg model.ClientConfig) (backend.Backend, error) {
	if r.BackendType == BackendTypeFake {
		return fake.NewBackend(fake.BackendConfig{Logger: r.Logger})
	}

	url := conventions.DefaultBackendURL
	switch {
	case r.BackendURL != "":
		url = r.BackendURL
	case cfg.BackendURL != "":
		url = cfg.BackendURL
	}

	timeout := cfg.BackendTimeout
	if r.BackendTimeout > 0 {
		timeout = r.BackendTimeout
	}

	var httpCli *http.Client
	if timeout > 0 {
		httpCli = &http.Client{Timeout: timeout}
	}

	return apiclient.NewClient(apiclient.ClientConfig{
		BaseURL:    url,
		HTTPClient: httpCli,
		Logger:     r.Logger,
	})
}

// profile returns the profile of the command, the --profile flag or the selected one.
func (r *RootCommand) profile(ctx context.Context, repo *sqlite.Repository) (*model.ServiceProfile, error) {
	name := r.Profile
	if name == "" {
		selected, err := repo.GetSelectedProfile(ctx)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, fmt.Errorf("no profile selected, use 'profiles use <name>' or --profile")
			}
			return nil, fmt.Errorf("could not get selected profile: %w", err)
		}
		name = selected
	}

	p, err := repo.GetProfile(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("could not get profile %q: %w", name, err)
	}
	return p, nil
}

// env is the wired dependency graph shared by the commands.
type env struct {
	repo    *sqlite.Repository
	backend backend.Backend
	session *session.State
}

func (r *RootCommand) newEnv(ctx context.Context) (*env, error) {
	cfg, err := r.loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	repo, err := r.newRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	be, err := r.newBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create backend: %w", err)
	}

	svcs, err := services.NewService(services.ServiceConfig{Manager: be, Logger: r.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create services service: %w", err)
	}

	ms, err := models.NewService(models.ServiceConfig{Lister: be, Logger: r.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create models service: %w", err)
	}

	launcher, err := launch.NewService(launch.ServiceConfig{Launcher: be, History: repo, Logger: r.Logger})
	if err != nil {
		return nil, fmt.Errorf("could not create launcher: %w", err)
	}

	st, err := session.NewState(session.StateConfig{
		Repository: repo,
		Services:   svcs,
		Models:     ms,
		Launcher:   launcher,
		Logger:     r.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}

	if err := st.Load(ctx); err != nil {
		return nil, err
	}
	if r.Profile != "" {
		p, err := r.profile(ctx, repo)
		if err != nil {
			return nil, err
		}
		st.UseProfile(*p)
	}

	return &env{repo: repo, backend: be, session: st}, nil
}

func (e *env) close() { _ = e.repo.Close() }

func newPrinter(format string, r *RootCommand) printer.Printer {
	if format == "json" {
		return printer.NewJSONPrinter(r.Stdout)
	}
	return printer.NewTablePrinter(r.Stdout)
}
