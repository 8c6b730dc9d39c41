package model

import (
	"fmt"
	"strings"
)

// ProfileType is the kind of connection a profile uses.
type ProfileType string

const (
	// ProfileTypeLocal is a profile for the local machine, paths are OS-absolute.
	ProfileTypeLocal ProfileType = "local"
	// ProfileTypeRemote is a profile for a remote host, paths are relative to the profile home ("/" is home).
	ProfileTypeRemote ProfileType = "remote"
)

// ServiceProfile identifies a compute backend.
// Profiles are immutable for the duration of a session.
type ServiceProfile struct {
	Name     string
	Type     ProfileType
	Host     string
	HomeDir  string
	CacheDir string

	// SSH is optional, when set remote file listing can go directly through SFTP.
	SSH *SSHConfig
}

// SSHConfig is the direct SSH access configuration of a remote profile.
type SSHConfig struct {
	User           string
	Port           int
	PrivateKeyPath string
	KnownHostsPath string
}

// IsLocal returns true when the profile targets the local machine.
func (p ServiceProfile) IsLocal() bool { return p.Type == ProfileTypeLocal }

// Validate validates the profile.
func (p *ServiceProfile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required: %w", ErrNotValid)
	}

	switch p.Type {
	case ProfileTypeLocal:
	case ProfileTypeRemote:
		if p.Host == "" {
			return fmt.Errorf("host is required for remote profiles: %w", ErrNotValid)
		}
	default:
		return fmt.Errorf("unknown profile type %q: %w", p.Type, ErrNotValid)
	}

	if p.HomeDir == "" {
		return fmt.Errorf("home directory is required: %w", ErrNotValid)
	}
	if !strings.HasPrefix(p.HomeDir, "/") {
		return fmt.Errorf("home directory must be absolute: %w", ErrNotValid)
	}

	if p.SSH != nil && p.Type != ProfileTypeRemote {
		return fmt.Errorf("ssh access is only supported on remote profiles: %w", ErrNotValid)
	}

	return nil
}
