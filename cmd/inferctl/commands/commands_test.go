package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kingpin/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/inferctl/internal/app/filemanager"
	"github.com/slok/inferctl/internal/backend/fake"
	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
)

const testConfig = `
default_profile: gpu
profiles:
  - name: gpu
    type: remote
    host: gpu-1
    home_dir: /home/ml
  - name: laptop
    type: local
    home_dir: /home/me
`

type testEnv struct {
	dbPath     string
	configPath string
}

func newTestEnv(t *testing.T, config string) testEnv {
	t.Helper()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o600))

	return testEnv{
		dbPath:     filepath.Join(dir, "inferctl.db"),
		configPath: configPath,
	}
}

// run parses the args against a single command and runs it with the fake backend.
func (e testEnv) run(t *testing.T, register func(root *RootCommand, app *kingpin.Application) Command, args ...string) (string, error) {
	t.Helper()

	app := kingpin.New("inferctl-test", "")
	root := NewRootCommand(app)
	cmd := register(root, app)

	args = append(args, "--backend", BackendTypeFake, "--db-path", e.dbPath, "--config", e.configPath)
	_, err := app.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	root.Stdout = &out
	root.Stderr = &bytes.Buffer{}
	root.Logger = log.Noop

	err = cmd.Run(context.Background())
	return out.String(), err
}

func launchCmd(root *RootCommand, app *kingpin.Application) Command {
	return NewLaunchCommand(root, app)
}

func historyCmd(root *RootCommand, app *kingpin.Application) Command {
	return NewHistoryCommand(root, app)
}

func profilesCmd(register func(*RootCommand, *kingpin.CmdClause) Command) func(*RootCommand, *kingpin.Application) Command {
	return func(root *RootCommand, app *kingpin.Application) Command {
		return register(root, app.Command("profiles", ""))
	}
}

func TestLaunchCommand(t *testing.T) {
	tests := map[string]struct {
		args        []string
		expEndpoint string
		expErr      error
		expErrMsg   string
	}{
		"Launching with the task defaults should use the selected profile host.": {
			args:        []string{"launch", "--format", "json"},
			expEndpoint: "http://gpu-1:8000",
		},
		"Options should override the task defaults.": {
			args:        []string{"launch", "--format", "json", "-o", "port=9000", "-o", "temperature=1.2"},
			expEndpoint: "http://gpu-1:9000",
		},
		"The profile flag should override the selected profile.": {
			args:        []string{"launch", "--format", "json", "-p", "laptop"},
			expEndpoint: "http://localhost:8000",
		},
		"Invalid options should fail before launching.": {
			args:      []string{"launch", "-o", "port=80", "-o", "quantization=fp64"},
			expErr:    model.ErrNotValid,
			expErrMsg: "Port must be between 1024 and 65535",
		},
		"Malformed option specs should fail.": {
			args:      []string{"launch", "-o", "port"},
			expErrMsg: "invalid options",
		},
		"Unknown tasks should fail.": {
			args:      []string{"launch", "-t", "painting"},
			expErrMsg: "invalid task",
		},
		"Missing profiles should fail.": {
			args:      []string{"launch", "-p", "nope"},
			expErr:    model.ErrNotFound,
			expErrMsg: `could not get profile "nope"`,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			env := newTestEnv(t, testConfig)
			out, err := env.run(t, launchCmd, test.args...)

			if test.expErr != nil || test.expErrMsg != "" {
				require.Error(err)
				if test.expErr != nil {
					assert.ErrorIs(err, test.expErr)
				}
				assert.Contains(err.Error(), test.expErrMsg)
				return
			}
			require.NoError(err)

			var got struct {
				ID       string `json:"id"`
				Name     string `json:"name"`
				Endpoint string `json:"endpoint"`
			}
			require.NoError(json.Unmarshal([]byte(out), &got))
			assert.NotEmpty(got.ID)
			assert.Equal("text-generation-1", got.Name)
			assert.Equal(test.expEndpoint, got.Endpoint)
		})
	}
}

func TestLaunchWithoutProfile(t *testing.T) {
	env := newTestEnv(t, "profiles: []\n")

	_, err := env.run(t, launchCmd, "launch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not open launcher")
}

func TestLaunchIsRecordedInHistory(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	env := newTestEnv(t, testConfig)
	_, err := env.run(t, launchCmd, "launch", "-o", "port=9000")
	require.NoError(err)

	out, err := env.run(t, historyCmd, "history", "--format", "json")
	require.NoError(err)

	var got []struct {
		Profile   string            `json:"profile"`
		Task      string            `json:"task"`
		Options   map[string]string `json:"options"`
		ServiceID string            `json:"service_id"`
		Error     string            `json:"error"`
	}
	require.NoError(json.Unmarshal([]byte(out), &got))
	require.Len(got, 1)
	assert.Equal("gpu", got[0].Profile)
	assert.Equal("text-generation", got[0].Task)
	assert.Equal("9000", got[0].Options["port"])
	assert.NotEmpty(got[0].ServiceID)
	assert.Empty(got[0].Error)
}

func TestProfilesAddAndUse(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	env := newTestEnv(t, testConfig)

	add := profilesCmd(func(r *RootCommand, p *kingpin.CmdClause) Command { return NewProfilesAddCommand(r, p) })
	out, err := env.run(t, add, "profiles", "add", "edge", "--host", "edge-1", "--home", "/srv/ml")
	require.NoError(err)
	assert.Equal("Added profile edge\n", out)

	_, err = env.run(t, add, "profiles", "add", "edge", "--host", "edge-1", "--home", "/srv/ml")
	assert.ErrorIs(err, model.ErrAlreadyExists)

	_, err = env.run(t, add, "profiles", "add", "broken", "--home", "/srv/ml")
	assert.ErrorIs(err, model.ErrNotValid)

	use := profilesCmd(func(r *RootCommand, p *kingpin.CmdClause) Command { return NewProfilesUseCommand(r, p) })
	out, err = env.run(t, use, "profiles", "use", "edge")
	require.NoError(err)
	assert.Equal("Using profile edge\n", out)

	list := profilesCmd(func(r *RootCommand, p *kingpin.CmdClause) Command { return NewProfilesListCommand(r, p) })
	out, err = env.run(t, list, "profiles", "list", "--format", "json")
	require.NoError(err)

	var got []struct {
		Name     string `json:"name"`
		Selected bool   `json:"selected"`
	}
	require.NoError(json.Unmarshal([]byte(out), &got))
	selected := map[string]bool{}
	for _, p := range got {
		selected[p.Name] = p.Selected
	}
	assert.Equal(map[string]bool{"edge": true, "gpu": false, "laptop": false}, selected)
}

func TestEnterParent(t *testing.T) {
	tests := map[string]struct {
		profile model.ServiceProfile
		path    string
		expName string
		expCwd  string
		expErr  error
	}{
		"A plain name should stay in the working directory.": {
			profile: model.ServiceProfile{Name: "gpu", Type: model.ProfileTypeRemote, Host: "gpu-1", HomeDir: "/home/ml"},
			path:    "cat.png",
			expName: "cat.png",
			expCwd:  "/",
		},
		"A remote path should move to its home relative parent.": {
			profile: model.ServiceProfile{Name: "gpu", Type: model.ProfileTypeRemote, Host: "gpu-1", HomeDir: "/home/ml"},
			path:    "/data/images/cat.png",
			expName: "cat.png",
			expCwd:  "/data/images",
		},
		"A local path inside the home should move to its parent.": {
			profile: model.ServiceProfile{Name: "laptop", Type: model.ProfileTypeLocal, HomeDir: "/home/me"},
			path:    "/home/me/notes/a.txt",
			expName: "a.txt",
			expCwd:  "/notes",
		},
		"A local path outside the home should fail.": {
			profile: model.ServiceProfile{Name: "laptop", Type: model.ProfileTypeLocal, HomeDir: "/home/me"},
			path:    "/etc/passwd.txt",
			expErr:  model.ErrOutsideHome,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			be, err := fake.NewBackend(fake.BackendConfig{})
			require.NoError(err)
			m, err := filemanager.NewManager(filemanager.ServiceConfig{Profile: test.profile, Store: be})
			require.NoError(err)

			gotName, err := enterParent(m, test.path)

			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)
			assert.Equal(test.expName, gotName)
			assert.Equal(test.expCwd, m.Cwd())
		})
	}
}
