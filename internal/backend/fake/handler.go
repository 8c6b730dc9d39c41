package fake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slok/inferctl/internal/backend"
	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
)

// maxMemory is the multipart memory limit, bigger files are buffered on disk.
const maxMemory = 32 << 20

// HandlerConfig is the configuration of the HTTP handler.
type HandlerConfig struct {
	Backend backend.Backend
	Logger  log.Logger
}

func (c *HandlerConfig) defaults() error {
	if c.Backend == nil {
		return fmt.Errorf("backend is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.FakeHandler"})
	return nil
}

type handler struct {
	backend backend.Backend
	logger  log.Logger
}

// NewHandler returns an HTTP handler serving the orchestration API over a backend.
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	h := handler{backend: cfg.Backend, logger: cfg.Logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", h.listModels)
		r.Get("/services", h.listServices)
		r.Post("/services", h.launch)
		r.Delete("/services/{id}", h.stopService)
		r.Get("/files", h.listFiles)

		r.Get("/{kind}", h.readFile)
		r.Post("/{kind}", h.uploadFile)
		r.Put("/{kind}", h.replaceFile)
		r.Delete("/{kind}", h.deleteFile)
	})

	return r, nil
}

type modelJSON struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Task      string `json:"task"`
	SizeBytes int64  `json:"size_bytes"`
}

type serviceJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Task      string    `json:"task"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"created_at"`
}

type fileEntryJSON struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	IsDir      bool      `json:"is_dir"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

func (h handler) listModels(w http.ResponseWriter, r *http.Request) {
	ms, err := h.backend.ListModels(r.Context(), requestProfile(r), model.TaskType(r.URL.Query().Get("task")))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := struct {
		Models []modelJSON `json:"models"`
	}{Models: []modelJSON{}}
	for _, m := range ms {
		resp.Models = append(resp.Models, modelJSON{ID: m.ID, Name: m.Name, Task: string(m.Task), SizeBytes: m.SizeBytes})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h handler) launch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Task    string            `json:"task"`
		Options map[string]string `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, fmt.Errorf("invalid body: %w: %w", err, model.ErrNotValid))
		return
	}

	sh, err := h.backend.Launch(r.Context(), requestProfile(r), model.TaskType(req.Task), req.Options)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{"id": sh.ID, "name": sh.Name, "endpoint": sh.Endpoint})
}

func (h handler) listServices(w http.ResponseWriter, r *http.Request) {
	svcs, err := h.backend.ListServices(r.Context(), requestProfile(r))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := struct {
		Services []serviceJSON `json:"services"`
	}{Services: []serviceJSON{}}
	for _, s := range svcs {
		resp.Services = append(resp.Services, serviceJSON{
			ID:        s.ID,
			Name:      s.Name,
			Task:      string(s.Task),
			Model:     s.Model,
			Status:    string(s.Status),
			Endpoint:  s.Endpoint,
			CreatedAt: s.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h handler) stopService(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.StopService(r.Context(), requestProfile(r), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h handler) listFiles(w http.ResponseWriter, r *http.Request) {
	entries, err := h.backend.ListFiles(r.Context(), requestProfile(r), r.URL.Query().Get("path"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := struct {
		Entries []fileEntryJSON `json:"entries"`
	}{Entries: []fileEntryJSON{}}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, fileEntryJSON{
			Name:       e.Name,
			Path:       e.Path,
			IsDir:      e.IsDir,
			SizeBytes:  e.SizeBytes,
			ModifiedAt: e.ModifiedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h handler) readFile(w http.ResponseWriter, r *http.Request) {
	data, err := h.backend.ReadFile(r.Context(), requestProfile(r), model.FileKind(chi.URLParam(r, "kind")), r.URL.Query().Get("path"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (h handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	h.receiveFile(w, r, h.backend.UploadFile, http.StatusCreated)
}

func (h handler) replaceFile(w http.ResponseWriter, r *http.Request) {
	h.receiveFile(w, r, h.backend.ReplaceFile, http.StatusOK)
}

func (h handler) deleteFile(w http.ResponseWriter, r *http.Request) {
	err := h.backend.DeleteFile(r.Context(), requestProfile(r), model.FileKind(chi.URLParam(r, "kind")), r.URL.Query().Get("path"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type storeFunc func(ctx context.Context, profile model.ServiceProfile, upload backend.FileUpload) error

func (h handler) receiveFile(w http.ResponseWriter, r *http.Request, store storeFunc, okStatus int) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		h.writeError(w, fmt.Errorf("invalid multipart body: %w: %w", err, model.ErrNotValid))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, fh, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, fmt.Errorf("file part is required: %w", model.ErrNotValid))
		return
	}
	defer f.Close()

	upload := backend.FileUpload{
		Kind:    model.FileKind(chi.URLParam(r, "kind")),
		Path:    r.FormValue("path"),
		Name:    fh.Filename,
		Size:    fh.Size,
		Content: f,
	}
	if err := store(r.Context(), requestProfile(r), upload); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(okStatus)
}

// requestProfile maps the profile query param, local profiles are not sent by clients.
func requestProfile(r *http.Request) model.ServiceProfile {
	name := r.URL.Query().Get("profile")
	if name == "" {
		return model.ServiceProfile{Name: "local", Type: model.ProfileTypeLocal}
	}
	return model.ServiceProfile{Name: name, Type: model.ProfileTypeRemote}
}

func (h handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warningf("could not write response: %s", err)
	}
}

func (h handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, model.ErrNotValid):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		status = 499
	}
	h.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (h handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.WithValues(log.Kv{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
			"req-id":   middleware.GetReqID(r.Context()),
		}).Debugf("request served")
	})
}
