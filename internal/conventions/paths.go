package conventions

import (
	"path/filepath"

	"k8s.io/client-go/util/homedir"
)

const (
	// DefaultDataDir is the default inferctl data directory name (relative to home).
	DefaultDataDir = ".inferctl"
	// DBFile is the SQLite database filename.
	DBFile = "inferctl.db"
	// ConfigFile is the client configuration filename.
	ConfigFile = "config.yaml"

	// KnownHostsFile is the known hosts file used by remote profiles without their own.
	KnownHostsFile = "known_hosts"

	// DefaultBackendURL is the orchestration API address used when none is configured.
	DefaultBackendURL = "http://127.0.0.1:8642"
	// DefaultFakeListenAddr is the listen address of the fake API server.
	DefaultFakeListenAddr = "127.0.0.1:8642"
)

// DataDir returns the inferctl data directory of the current user.
func DataDir() string {
	return filepath.Join(homedir.HomeDir(), DefaultDataDir)
}

// DBPath returns the default database path.
func DBPath() string {
	return filepath.Join(DataDir(), DBFile)
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), ConfigFile)
}

// KnownHostsPath returns the known hosts file of the user SSH setup.
func KnownHostsPath() string {
	return filepath.Join(homedir.HomeDir(), ".ssh", KnownHostsFile)
}
