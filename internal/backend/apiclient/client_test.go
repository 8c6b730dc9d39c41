package apiclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/inferctl/internal/backend"
	"github.com/slok/inferctl/internal/backend/apiclient"
	"github.com/slok/inferctl/internal/model"
)

var (
	remote = model.ServiceProfile{Name: "gpu", Type: model.ProfileTypeRemote, Host: "gpu-1", HomeDir: "/home/ml"}
	local  = model.ServiceProfile{Name: "local", Type: model.ProfileTypeLocal, HomeDir: "/home/me"}
)

func newClient(t *testing.T, h http.HandlerFunc) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := apiclient.NewClient(apiclient.ClientConfig{BaseURL: srv.URL, RetryBaseDelay: time.Millisecond})
	require.NoError(t, err)
	return c
}

func TestClientListModels(t *testing.T) {
	tests := map[string]struct {
		profile  model.ServiceProfile
		expQuery string
	}{
		"Remote profiles should send the profile": {
			profile:  remote,
			expQuery: "profile=gpu&task=text-generation",
		},
		"Local profiles should not send the profile": {
			profile:  local,
			expQuery: "task=text-generation",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/models", r.URL.Path)
				assert.Equal(t, test.expQuery, r.URL.RawQuery)
				_, _ = w.Write([]byte(`{"models":[{"id":"llama-3-8b","name":"Llama 3 8B","task":"text-generation","size_bytes":16000}]}`))
			})

			got, err := c.ListModels(context.Background(), test.profile, model.TaskTextGeneration)
			require.NoError(t, err)
			assert.Equal(t, []model.Model{{ID: "llama-3-8b", Name: "Llama 3 8B", Task: model.TaskTextGeneration, SizeBytes: 16000}}, got)
		})
	}
}

func TestClientLaunch(t *testing.T) {
	tests := map[string]struct {
		handler   http.HandlerFunc
		expHandle *model.ServiceHandle
		expErrMsg string
		expErrIs  error
	}{
		"A successful launch should return the handle": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/services", r.URL.Path)
				assert.Equal(t, "profile=gpu", r.URL.RawQuery)

				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "embeddings", body["task"])
				assert.Equal(t, map[string]any{"model": "bge", "port": "8000"}, body["options"])

				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte(`{"id":"svc-1","name":"embeddings-1","endpoint":"http://gpu-1:8000"}`))
			},
			expHandle: &model.ServiceHandle{ID: "svc-1", Name: "embeddings-1", Endpoint: "http://gpu-1:8000"},
		},

		"A JSON error body should be the error message": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"port already in use"}`))
			},
			expErrMsg: "port already in use",
			expErrIs:  model.ErrNotValid,
		},

		"A text error body should be the error message": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "no GPU capacity", http.StatusServiceUnavailable)
			},
			expErrMsg: "no GPU capacity",
		},

		"A response without id should fail": {
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
			expErrMsg: "without service id",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newClient(t, test.handler)

			got, err := c.Launch(context.Background(), remote, model.TaskEmbeddings, model.ContainerOptions{"model": "bge", "port": "8000"})
			if test.expErrMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), test.expErrMsg)
				if test.expErrIs != nil {
					assert.ErrorIs(t, err, test.expErrIs)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expHandle, got)
		})
	}
}

func TestClientLaunchIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Launch(context.Background(), remote, model.TaskEmbeddings, nil)
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientGetRetries(t *testing.T) {
	tests := map[string]struct {
		failures int32
		status   int
		expErr   bool
		expCalls int32
	}{
		"Server errors should be retried until success": {
			failures: 2,
			status:   http.StatusBadGateway,
			expCalls: 3,
		},
		"Throttling should be retried": {
			failures: 1,
			status:   http.StatusTooManyRequests,
			expCalls: 2,
		},
		"Retries should stop after the limit": {
			failures: 100,
			status:   http.StatusInternalServerError,
			expErr:   true,
			expCalls: 4,
		},
		"Client errors should not be retried": {
			failures: 100,
			status:   http.StatusNotFound,
			expErr:   true,
			expCalls: 1,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var calls atomic.Int32
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= test.failures {
					w.WriteHeader(test.status)
					return
				}
				_, _ = w.Write([]byte(`{"services":[]}`))
			})

			_, err := c.ListServices(context.Background(), remote)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, test.expCalls, calls.Load())
		})
	}
}

func TestClientListServices(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/services", r.URL.Path)
		_, _ = w.Write([]byte(`{"services":[{"id":"s1","name":"tts","task":"text-to-speech","model":"piper","status":"running","endpoint":"http://h:1","created_at":"2026-05-01T12:00:00Z"}]}`))
	})

	got, err := c.ListServices(context.Background(), local)
	require.NoError(t, err)
	assert.Equal(t, []model.Service{{
		ID: "s1", Name: "tts", Task: model.TaskTextToSpeech, Model: "piper",
		Status: model.ServiceStatusRunning, Endpoint: "http://h:1", CreatedAt: created,
	}}, got)
}

func TestClientStopService(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/services/s1", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("service s1 not found"))
	})

	err := c.StopService(context.Background(), remote, "s1")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, "service s1 not found", err.Error())
}

func TestClientFiles(t *testing.T) {
	t.Run("Listing should send the path", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/files", r.URL.Path)
			assert.Equal(t, "/home/me/data", r.URL.Query().Get("path"))
			assert.Empty(t, r.URL.Query().Get("profile"))
			_, _ = w.Write([]byte(`{"entries":[{"name":"a.png","path":"/home/me/data/a.png","size_bytes":3}]}`))
		})

		got, err := c.ListFiles(context.Background(), local, "/home/me/data")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "a.png", got[0].Name)
		assert.Equal(t, int64(3), got[0].SizeBytes)
	})

	t.Run("Reading should use the kind endpoint", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/text", r.URL.Path)
			assert.Equal(t, "/notes.md", r.URL.Query().Get("path"))
			assert.Equal(t, "gpu", r.URL.Query().Get("profile"))
			_, _ = w.Write([]byte("# notes"))
		})

		got, err := c.ReadFile(context.Background(), remote, model.FileKindText, "/notes.md")
		require.NoError(t, err)
		assert.Equal(t, "# notes", string(got))
	})

	t.Run("Uploading should send a multipart form", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/audio", r.URL.Path)
			assert.Equal(t, "gpu", r.URL.Query().Get("profile"))

			require.NoError(t, r.ParseMultipartForm(1<<20))
			assert.Equal(t, "/datasets", r.FormValue("path"))
			f, hdr, err := r.FormFile("file")
			require.NoError(t, err)
			defer f.Close()
			data, _ := io.ReadAll(f)
			assert.Equal(t, "clip.wav", hdr.Filename)
			assert.Equal(t, "RIFF", string(data))
			w.WriteHeader(http.StatusCreated)
		})

		err := c.UploadFile(context.Background(), remote, backend.FileUpload{
			Kind: model.FileKindAudio, Path: "/datasets", Name: "clip.wav", Size: 4, Content: strings.NewReader("RIFF"),
		})
		require.NoError(t, err)
	})

	t.Run("Replacing should use PUT and return the body on error", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPut, r.Method)
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("disk full"))
		})

		err := c.ReplaceFile(context.Background(), remote, backend.FileUpload{Kind: model.FileKindImage, Path: "/a.png", Name: "a.png"})
		require.Error(t, err)
		assert.Equal(t, "disk full", err.Error())
	})

	t.Run("Deleting should send the path", func(t *testing.T) {
		c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			assert.Equal(t, "/api/image", r.URL.Path)
			assert.Equal(t, "/home/me/a.png", r.URL.Query().Get("path"))
			w.WriteHeader(http.StatusNoContent)
		})

		require.NoError(t, c.DeleteFile(context.Background(), local, model.FileKindImage, "/home/me/a.png"))
	})
}

func TestNewClientConfig(t *testing.T) {
	tests := map[string]struct {
		cfg    apiclient.ClientConfig
		expErr bool
	}{
		"Missing URL should fail": {cfg: apiclient.ClientConfig{}, expErr: true},
		"Invalid URL should fail": {cfg: apiclient.ClientConfig{BaseURL: "localhost"}, expErr: true},
		"A valid URL should work": {cfg: apiclient.ClientConfig{BaseURL: "http://localhost:8080/"}},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := apiclient.NewClient(test.cfg)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
