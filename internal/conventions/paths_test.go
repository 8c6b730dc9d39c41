package conventions_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/inferctl/internal/conventions"
)

func TestPaths(t *testing.T) {
	t.Setenv("HOME", "/home/test")

	assert.Equal(t, filepath.Join("/home/test", ".inferctl"), conventions.DataDir())
	assert.Equal(t, filepath.Join("/home/test", ".inferctl", "inferctl.db"), conventions.DBPath())
	assert.Equal(t, filepath.Join("/home/test", ".inferctl", "config.yaml"), conventions.ConfigPath())
	assert.Equal(t, filepath.Join("/home/test", ".ssh", "known_hosts"), conventions.KnownHostsPath())
}
