package inferctl

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/slok/inferctl/internal/backend/fake"
	"github.com/slok/inferctl/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "inferctl"
	}

	// go test changes the CWD to the package directory, relative paths would break.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("INFERCTL_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("inferctl binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "INFERCTL_INTEGRATION"
		envBinary     = "INFERCTL_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{Binary: os.Getenv(envBinary)}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// Env is an isolated inferctl environment talking to an in-process fake orchestration API.
type Env struct {
	Config     Config
	Backend    *fake.Backend
	DBPath     string
	ConfigPath string
	URL        string
}

// NewEnv starts a fake orchestration API and writes a configuration file pointing to it.
func NewEnv(t *testing.T, config Config, configYAML string) Env {
	t.Helper()

	be, err := fake.NewBackend(fake.BackendConfig{})
	if err != nil {
		t.Fatalf("could not create fake backend: %s", err)
	}
	h, err := fake.NewHandler(fake.HandlerConfig{Backend: be})
	if err != nil {
		t.Fatalf("could not create fake handler: %s", err)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("could not write config: %s", err)
	}

	return Env{
		Config:     config,
		Backend:    be,
		DBPath:     filepath.Join(dir, "inferctl.db"),
		ConfigPath: configPath,
		URL:        srv.URL,
	}
}

// Run runs an inferctl command against the environment with logging disabled.
func (e Env) Run(ctx context.Context, cmdArgs string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--db-path %s --config %s --backend-url %s %s", e.DBPath, e.ConfigPath, e.URL, cmdArgs)
	return testutils.RunInferctl(ctx, nil, e.Config.Binary, args, true)
}

// RunLaunch launches a service with the given option specs.
func (e Env) RunLaunch(ctx context.Context, task string, opts ...string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("launch --format json --task %s", task)
	for _, o := range opts {
		args += " -o " + o
	}
	return e.Run(ctx, args)
}

// RunServicesList lists the services in JSON format.
func (e Env) RunServicesList(ctx context.Context) (stdout, stderr []byte, err error) {
	return e.Run(ctx, "services list --format json")
}

// RunFilesList lists a directory in JSON format.
func (e Env) RunFilesList(ctx context.Context, dir string) (stdout, stderr []byte, err error) {
	return e.Run(ctx, fmt.Sprintf("files ls %s --format json", dir))
}
