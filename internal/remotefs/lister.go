package remotefs

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/pathutil"
)

// ListerConfig is the configuration of the SFTP lister.
type ListerConfig struct {
	// DefaultKnownHostsPath is used by profiles without a known hosts file.
	DefaultKnownHostsPath string
	ConnectTimeout        time.Duration
	Logger                log.Logger
}

func (c *ListerConfig) defaults() error {
	if c.DefaultKnownHostsPath == "" {
		return fmt.Errorf("default known hosts path is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "remotefs.Lister"})

	return nil
}

// Lister lists the directories of remote profiles with an ssh block directly
// over SFTP, without going through the orchestration API.
type Lister struct {
	knownHostsPath string
	connectTimeout time.Duration
	logger         log.Logger
}

// NewLister creates a new SFTP lister.
func NewLister(cfg ListerConfig) (*Lister, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Lister{
		knownHostsPath: cfg.DefaultKnownHostsPath,
		connectTimeout: cfg.ConnectTimeout,
		logger:         cfg.Logger,
	}, nil
}

// ListFiles lists dir, relative to the profile home ("/" is the home).
func (l *Lister) ListFiles(ctx context.Context, profile model.ServiceProfile, dir string) ([]model.FileEntry, error) {
	if profile.IsLocal() || profile.SSH == nil {
		return nil, fmt.Errorf("profile %s has no ssh access: %w", profile.Name, model.ErrNotValid)
	}

	key, err := os.ReadFile(profile.SSH.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("could not read private key: %w", err)
	}

	hostKeyCallback, err := l.hostKeyCallback(profile.SSH)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(ctx, ClientConfig{
		Host:            profile.Host,
		Port:            profile.SSH.Port,
		User:            profile.SSH.User,
		PrivateKey:      key,
		HostKeyCallback: hostKeyCallback,
		ConnectTimeout:  l.connectTimeout,
		Logger:          l.logger,
	})
	if err != nil {
		return nil, err
	}
	defer client.Close()

	abs := pathutil.JoinPath(profile.HomeDir, dir)
	l.logger.Debugf("listing %s on %s", abs, profile.Host)

	return client.ListDir(ctx, abs)
}

func (l *Lister) hostKeyCallback(cfg *model.SSHConfig) (ssh.HostKeyCallback, error) {
	path := cfg.KnownHostsPath
	if path == "" {
		path = l.knownHostsPath
	}

	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("could not load known hosts %s: %w", path, err)
	}
	return cb, nil
}
