package filemanager_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/inferctl/internal/app/filemanager"
	"github.com/slok/inferctl/internal/backend"
	"github.com/slok/inferctl/internal/backend/backendmock"
	"github.com/slok/inferctl/internal/model"
)

var (
	localProfile  = model.ServiceProfile{Name: "local", Type: model.ProfileTypeLocal, HomeDir: "/home/me"}
	remoteProfile = model.ServiceProfile{Name: "gpu", Type: model.ProfileTypeRemote, Host: "gpu-1", HomeDir: "/home/ml"}
)

func newManager(t *testing.T, p model.ServiceProfile, mb *backendmock.MockBackend) *filemanager.Manager {
	t.Helper()
	m, err := filemanager.NewManager(filemanager.ServiceConfig{Profile: p, Store: mb})
	require.NoError(t, err)
	return m
}

func TestManagerNavigate(t *testing.T) {
	tests := map[string]struct {
		profile    model.ServiceProfile
		steps      func(m *filemanager.Manager) error
		expCwd     string
		expBackend string
		expErr     error
	}{
		"A new manager should start at the root": {
			profile:    remoteProfile,
			steps:      func(m *filemanager.Manager) error { return nil },
			expCwd:     "/",
			expBackend: "/",
		},

		"Local absolute targets inside home should be converted": {
			profile:    localProfile,
			steps:      func(m *filemanager.Manager) error { return m.Navigate("/home/me/data/audio/") },
			expCwd:     "/data/audio",
			expBackend: "/home/me/data/audio",
		},

		"Local home should be the root": {
			profile:    localProfile,
			steps:      func(m *filemanager.Manager) error { return m.Navigate("/home/me/") },
			expCwd:     "/",
			expBackend: "/home/me",
		},

		"Local absolute targets outside home should be refused": {
			profile: localProfile,
			steps: func(m *filemanager.Manager) error {
				if err := m.Navigate("/home/me/data"); err != nil {
					return err
				}
				return m.Navigate("/etc")
			},
			expCwd:     "/data",
			expBackend: "/home/me/data",
			expErr:     model.ErrOutsideHome,
		},

		"Local sibling prefixes of home should be refused": {
			profile: localProfile,
			steps:   func(m *filemanager.Manager) error { return m.Navigate("/home/meme") },
			expCwd:  "/",
			expErr:  model.ErrOutsideHome,
		},

		"Remote absolute targets should be relative to home": {
			profile:    remoteProfile,
			steps:      func(m *filemanager.Manager) error { return m.Navigate("//datasets//images/") },
			expCwd:     "/datasets/images",
			expBackend: "/datasets/images",
		},

		"Relative targets should be relative to the working directory": {
			profile: remoteProfile,
			steps: func(m *filemanager.Manager) error {
				if err := m.Navigate("/datasets"); err != nil {
					return err
				}
				return m.Enter("images")
			},
			expCwd:     "/datasets/images",
			expBackend: "/datasets/images",
		},

		"Parent segments should be refused": {
			profile: remoteProfile,
			steps:   func(m *filemanager.Manager) error { return m.Navigate("a/../../etc") },
			expCwd:  "/",
			expErr:  model.ErrNotValid,
		},

		"Entering a nested path should be refused": {
			profile: remoteProfile,
			steps:   func(m *filemanager.Manager) error { return m.Enter("a/b") },
			expCwd:  "/",
			expErr:  model.ErrNotValid,
		},

		"Up should go to the parent and stop at the root": {
			profile: localProfile,
			steps: func(m *filemanager.Manager) error {
				if err := m.Navigate("/home/me/a/b"); err != nil {
					return err
				}
				m.Up()
				m.Up()
				m.Up()
				return nil
			},
			expCwd:     "/",
			expBackend: "/home/me",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := newManager(t, test.profile, backendmock.NewMockBackend(t))

			err := test.steps(m)
			if test.expErr != nil {
				assert.ErrorIs(t, err, test.expErr)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, test.expCwd, m.Cwd())
			if test.expBackend != "" {
				assert.Equal(t, test.expBackend, m.BackendCwd())
			}
		})
	}
}

func TestManagerList(t *testing.T) {
	now := time.Now()
	mb := backendmock.NewMockBackend(t)
	mb.On("ListFiles", mock.Anything, localProfile, "/home/me/data").Once().Return([]model.FileEntry{
		{Name: "b.txt", SizeBytes: 10, ModifiedAt: now},
		{Name: "z", IsDir: true},
		{Name: "a.png", SizeBytes: 20},
		{Name: "c", IsDir: true},
	}, nil)

	m := newManager(t, localProfile, mb)
	require.NoError(t, m.Navigate("/home/me/data"))

	got, err := m.List(context.Background())
	require.NoError(t, err)

	var names, paths []string
	for _, e := range got {
		names = append(names, e.Name)
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"c", "z", "a.png", "b.txt"}, names)
	assert.Equal(t, []string{"/data/c", "/data/z", "/data/a.png", "/data/b.txt"}, paths)
}

func TestManagerListRemoteUsesLister(t *testing.T) {
	store := backendmock.NewMockBackend(t)
	lister := backendmock.NewMockBackend(t)
	lister.On("ListFiles", mock.Anything, remoteProfile, "/datasets").Once().Return([]model.FileEntry{{Name: "x.wav"}}, nil)

	m, err := filemanager.NewManager(filemanager.ServiceConfig{Profile: remoteProfile, Store: store, Lister: lister})
	require.NoError(t, err)
	require.NoError(t, m.Navigate("/datasets"))

	got, err := m.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "/datasets/x.wav", got[0].Path)
}

func TestManagerValidateUpload(t *testing.T) {
	tests := map[string]struct {
		req     filemanager.UploadRequest
		expMsgs []string
	}{
		"No file should only report the missing file": {
			req:     filemanager.UploadRequest{Size: filemanager.MaxUploadSize + 1, Destination: ""},
			expMsgs: []string{"No file selected"},
		},

		"A valid file should pass": {
			req:     filemanager.UploadRequest{FileName: "clip.WAV", Size: 1024, Destination: "/"},
			expMsgs: nil,
		},

		"A file at the limit should pass": {
			req:     filemanager.UploadRequest{FileName: "a.png", Size: filemanager.MaxUploadSize, Destination: "/"},
			expMsgs: nil,
		},

		"Every violation should be collected": {
			req:     filemanager.UploadRequest{FileName: "run.exe", Size: filemanager.MaxUploadSize + 1, Destination: "  "},
			expMsgs: []string{"File type .exe is not allowed", "File is larger than 100 MiB", "Destination is required"},
		},

		"A file without extension should be refused": {
			req:     filemanager.UploadRequest{FileName: "README", Size: 1, Destination: "/"},
			expMsgs: []string{"File has no extension"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			m := newManager(t, remoteProfile, backendmock.NewMockBackend(t))
			assert.Equal(t, test.expMsgs, m.ValidateUpload(test.req))
		})
	}
}

func TestManagerUpload(t *testing.T) {
	tests := map[string]struct {
		profile model.ServiceProfile
		req     filemanager.UploadRequest
		mock    func(m *backendmock.MockBackend)
		expErr  error
	}{
		"Invalid uploads should not reach the backend": {
			profile: remoteProfile,
			req:     filemanager.UploadRequest{FileName: "x.exe", Destination: "/"},
			mock:    func(m *backendmock.MockBackend) {},
			expErr:  model.ErrNotValid,
		},

		"Remote uploads should use root relative destinations": {
			profile: remoteProfile,
			req:     filemanager.UploadRequest{FileName: "clip.wav", Size: 4, Content: strings.NewReader("data"), Destination: "datasets/audio/"},
			mock: func(m *backendmock.MockBackend) {
				m.On("UploadFile", mock.Anything, remoteProfile, mock.MatchedBy(func(u backend.FileUpload) bool {
					return u.Kind == model.FileKindAudio && u.Path == "/datasets/audio" && u.Name == "clip.wav" && u.Size == 4
				})).Once().Return(nil)
			},
		},

		"Local uploads should use absolute destinations": {
			profile: localProfile,
			req:     filemanager.UploadRequest{FileName: "cat.png", Size: 4, Content: strings.NewReader("data"), Destination: "/home/me/images"},
			mock: func(m *backendmock.MockBackend) {
				m.On("UploadFile", mock.Anything, localProfile, mock.MatchedBy(func(u backend.FileUpload) bool {
					return u.Kind == model.FileKindImage && u.Path == "/home/me/images"
				})).Once().Return(nil)
			},
		},

		"Local uploads outside home should be refused": {
			profile: localProfile,
			req:     filemanager.UploadRequest{FileName: "cat.png", Size: 4, Destination: "/tmp"},
			mock:    func(m *backendmock.MockBackend) {},
			expErr:  model.ErrOutsideHome,
		},

		"Backend errors should be returned": {
			profile: remoteProfile,
			req:     filemanager.UploadRequest{FileName: "notes.txt", Size: 4, Destination: "/"},
			mock: func(m *backendmock.MockBackend) {
				m.On("UploadFile", mock.Anything, remoteProfile, mock.Anything).Once().Return(errors.New("disk full"))
			},
			expErr: errors.New("disk full"),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			mb := backendmock.NewMockBackend(t)
			test.mock(mb)
			m := newManager(t, test.profile, mb)

			err := m.Upload(context.Background(), test.req)
			switch {
			case test.expErr == nil:
				assert.NoError(t, err)
			case errors.Is(test.expErr, model.ErrNotValid) || errors.Is(test.expErr, model.ErrOutsideHome):
				assert.ErrorIs(t, err, test.expErr)
			default:
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.expErr.Error())
			}
		})
	}
}

func TestManagerReplace(t *testing.T) {
	t.Run("Mismatched extensions should be refused before the backend", func(t *testing.T) {
		m := newManager(t, remoteProfile, backendmock.NewMockBackend(t))

		err := m.Replace(context.Background(), "cat.png", filemanager.UploadRequest{FileName: "cat.jpg", Size: 1})
		var verr *filemanager.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.ErrorIs(t, err, model.ErrNotValid)
		assert.Equal(t, []string{"File extension .jpg does not match the replaced file extension .png"}, verr.Messages)
	})

	t.Run("Missing file should only report the missing file", func(t *testing.T) {
		m := newManager(t, remoteProfile, backendmock.NewMockBackend(t))

		err := m.Replace(context.Background(), "cat.png", filemanager.UploadRequest{})
		var verr *filemanager.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"No file selected"}, verr.Messages)
	})

	t.Run("Matching extensions should replace the file", func(t *testing.T) {
		mb := backendmock.NewMockBackend(t)
		mb.On("ReplaceFile", mock.Anything, localProfile, mock.MatchedBy(func(u backend.FileUpload) bool {
			return u.Kind == model.FileKindImage && u.Path == "/home/me/pics/cat.png" && u.Name == "new-cat.PNG"
		})).Once().Return(nil)

		m := newManager(t, localProfile, mb)
		require.NoError(t, m.Navigate("/home/me/pics"))
		require.NoError(t, m.Replace(context.Background(), "cat.png", filemanager.UploadRequest{FileName: "new-cat.PNG", Size: 3}))
	})
}

func TestManagerPreviewAndDelete(t *testing.T) {
	ctx := context.Background()
	mb := backendmock.NewMockBackend(t)
	mb.On("ReadFile", mock.Anything, remoteProfile, model.FileKindText, "/docs/notes.md").Once().Return([]byte("# hi"), nil)
	mb.On("DeleteFile", mock.Anything, remoteProfile, model.FileKindText, "/docs/notes.md").Once().Return(nil)

	m := newManager(t, remoteProfile, mb)
	require.NoError(t, m.Navigate("/docs"))

	p, err := m.Preview(ctx, "notes.md")
	require.NoError(t, err)
	assert.Equal(t, model.FileKindText, p.Kind)
	assert.Equal(t, "# hi", string(p.Content))

	require.NoError(t, m.Delete(ctx, "notes.md"))

	_, err = m.Preview(ctx, "binary.exe")
	assert.ErrorIs(t, err, model.ErrNotValid)
	assert.ErrorIs(t, m.Delete(ctx, "../x.txt"), model.ErrNotValid)
}

func TestNewManagerInvalidProfile(t *testing.T) {
	_, err := filemanager.NewManager(filemanager.ServiceConfig{
		Profile: model.ServiceProfile{Name: "x", Type: model.ProfileTypeRemote, HomeDir: "/h"},
		Store:   backendmock.NewMockBackend(t),
	})
	assert.ErrorIs(t, err, model.ErrNotValid)
}
