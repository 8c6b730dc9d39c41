package fake

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/inferctl/internal/backend"
	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/pathutil"
	"github.com/slok/inferctl/internal/tasks"
)

// DefaultModels is the model catalog of the fake backend.
var DefaultModels = map[model.TaskType][]model.Model{
	model.TaskTextGeneration: {
		{ID: "llama-3-8b-instruct", Name: "Llama 3 8B Instruct", SizeBytes: 16 << 30},
		{ID: "mistral-7b-instruct", Name: "Mistral 7B Instruct", SizeBytes: 14 << 30},
	},
	model.TaskSpeechRecognition: {
		{ID: "whisper-large-v3", Name: "Whisper Large v3", SizeBytes: 3 << 30},
	},
	model.TaskTextToSpeech: {
		{ID: "piper-en-us", Name: "Piper en-US", SizeBytes: 60 << 20},
	},
	model.TaskImageClassification: {
		{ID: "vit-base-patch16", Name: "ViT Base", SizeBytes: 340 << 20},
	},
	model.TaskEmbeddings: {
		{ID: "bge-small-en", Name: "BGE Small EN", SizeBytes: 130 << 20},
	},
}

// BackendConfig is the configuration for the fake backend.
type BackendConfig struct {
	// Models is the model catalog, DefaultModels when nil.
	Models map[model.TaskType][]model.Model
	// LaunchDelay simulates the time a launch takes.
	LaunchDelay time.Duration
	TimeNow     func() time.Time
	Logger      log.Logger
}

func (c *BackendConfig) defaults() error {
	if c.Models == nil {
		c.Models = DefaultModels
	}
	if c.LaunchDelay < 0 {
		return fmt.Errorf("launch delay can't be negative")
	}
	if c.TimeNow == nil {
		c.TimeNow = func() time.Time { return time.Now().UTC() }
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "backend.Fake"})
	return nil
}

type file struct {
	data       []byte
	modifiedAt time.Time
}

// Backend is an in-memory implementation of backend.Backend.
// It simulates the orchestration API without running any container.
//
// State is kept per profile: local profiles share the same state, remote ones
// are keyed by name, the same way the API distinguishes them.
type Backend struct {
	models      map[model.TaskType][]model.Model
	launchDelay time.Duration
	timeNow     func() time.Time
	logger      log.Logger

	mu       sync.RWMutex
	services map[string][]model.Service
	files    map[string]map[string]file
}

var _ backend.Backend = &Backend{}

// NewBackend creates a new fake backend.
func NewBackend(cfg BackendConfig) (*Backend, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Backend{
		models:      cfg.Models,
		launchDelay: cfg.LaunchDelay,
		timeNow:     cfg.TimeNow,
		logger:      cfg.Logger,
		services:    map[string][]model.Service{},
		files:       map[string]map[string]file{},
	}, nil
}

func profileKey(p model.ServiceProfile) string {
	if p.IsLocal() {
		return ""
	}
	return p.Name
}

func (b *Backend) ListModels(ctx context.Context, profile model.ServiceProfile, task model.TaskType) ([]model.Model, error) {
	if _, err := tasks.Get(task); err != nil {
		return nil, err
	}

	models := make([]model.Model, 0, len(b.models[task]))
	for _, m := range b.models[task] {
		m.Task = task
		models = append(models, m)
	}
	return models, nil
}

func (b *Backend) Launch(ctx context.Context, profile model.ServiceProfile, task model.TaskType, opts model.ContainerOptions) (*model.ServiceHandle, error) {
	def, err := tasks.Get(task)
	if err != nil {
		return nil, err
	}

	// Same validation the launcher form runs, the API never trusts the client.
	reg := def.NewRegistry()
	if !reg.ValidateAll(opts) {
		var msgs []string
		for f, m := range reg.Errors().Failed() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", f, m))
		}
		sort.Strings(msgs)
		return nil, fmt.Errorf("%s: %w", strings.Join(msgs, ", "), model.ErrNotValid)
	}

	modelID := opts[tasks.FieldModel]
	if !b.hasModel(task, modelID) {
		return nil, fmt.Errorf("model %q is not available for %s: %w", modelID, task, model.ErrNotValid)
	}

	if b.launchDelay > 0 {
		t := time.NewTimer(b.launchDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := profileKey(profile)
	port := opts[tasks.FieldPort]
	for _, s := range b.services[key] {
		if s.Status == model.ServiceStatusRunning && strings.HasSuffix(s.Endpoint, ":"+port) {
			return nil, fmt.Errorf("port %s already in use by %s: %w", port, s.Name, model.ErrAlreadyExists)
		}
	}

	host := profile.Host
	if host == "" {
		host = "localhost"
	}

	svc := model.Service{
		ID:        ulid.Make().String(),
		Name:      fmt.Sprintf("%s-%d", task, len(b.services[key])+1),
		Task:      task,
		Model:     modelID,
		Status:    model.ServiceStatusRunning,
		Endpoint:  fmt.Sprintf("http://%s:%s", host, port),
		CreatedAt: b.timeNow(),
	}
	b.services[key] = append(b.services[key], svc)
	b.logger.Infof("launched fake service %s (%s)", svc.Name, svc.ID)

	return &model.ServiceHandle{ID: svc.ID, Name: svc.Name, Endpoint: svc.Endpoint}, nil
}

func (b *Backend) ListServices(ctx context.Context, profile model.ServiceProfile) ([]model.Service, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	svcs := b.services[profileKey(profile)]
	out := make([]model.Service, len(svcs))
	copy(out, svcs)
	return out, nil
}

func (b *Backend) StopService(ctx context.Context, profile model.ServiceProfile, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := profileKey(profile)
	for i, s := range b.services[key] {
		if s.ID == id {
			b.services[key] = append(b.services[key][:i:i], b.services[key][i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("service %s: %w", id, model.ErrNotFound)
}

func (b *Backend) ListFiles(ctx context.Context, profile model.ServiceProfile, dir string) ([]model.FileEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	dir = pathutil.JoinPath(dir)
	prefix := strings.TrimSuffix(dir, "/") + "/"

	dirs := map[string]bool{}
	entries := []model.FileEntry{}
	for p, f := range b.files[profileKey(profile)] {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		if name, _, nested := strings.Cut(rest, "/"); nested {
			dirs[name] = true
			continue
		}
		entries = append(entries, model.FileEntry{
			Name:       rest,
			Path:       p,
			SizeBytes:  int64(len(f.data)),
			ModifiedAt: f.modifiedAt,
		})
	}

	for name := range dirs {
		entries = append(entries, model.FileEntry{Name: name, Path: prefix + name, IsDir: true})
	}

	if len(entries) == 0 && !pathutil.IsRootPath(dir) && !b.isDir(profile, dir) {
		return nil, fmt.Errorf("directory %s: %w", dir, model.ErrNotFound)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (b *Backend) ReadFile(ctx context.Context, profile model.ServiceProfile, kind model.FileKind, path string) ([]byte, error) {
	if err := checkKind(kind, path); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	f, ok := b.files[profileKey(profile)][pathutil.JoinPath(path)]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", path, model.ErrNotFound)
	}
	return bytes.Clone(f.data), nil
}

func (b *Backend) UploadFile(ctx context.Context, profile model.ServiceProfile, upload backend.FileUpload) error {
	p := pathutil.JoinPath(upload.Path, upload.Name)
	if err := checkKind(upload.Kind, p); err != nil {
		return err
	}

	data, err := readAll(upload.Content)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := profileKey(profile)
	if _, ok := b.files[key][p]; ok {
		return fmt.Errorf("file %s: %w", p, model.ErrAlreadyExists)
	}
	b.put(key, p, data)

	return nil
}

func (b *Backend) ReplaceFile(ctx context.Context, profile model.ServiceProfile, upload backend.FileUpload) error {
	p := pathutil.JoinPath(upload.Path)
	if err := checkKind(upload.Kind, p); err != nil {
		return err
	}
	if pathutil.Extension(p) != pathutil.Extension(upload.Name) {
		return fmt.Errorf("replacement %s must keep the extension of %s: %w", upload.Name, p, model.ErrNotValid)
	}

	data, err := readAll(upload.Content)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := profileKey(profile)
	if _, ok := b.files[key][p]; !ok {
		return fmt.Errorf("file %s: %w", p, model.ErrNotFound)
	}
	b.put(key, p, data)

	return nil
}

func (b *Backend) DeleteFile(ctx context.Context, profile model.ServiceProfile, kind model.FileKind, path string) error {
	p := pathutil.JoinPath(path)
	if err := checkKind(kind, p); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	key := profileKey(profile)
	if _, ok := b.files[key][p]; !ok {
		return fmt.Errorf("file %s: %w", p, model.ErrNotFound)
	}
	delete(b.files[key], p)

	return nil
}

// SeedFile stores a file without any check, used to prepare fixtures.
func (b *Backend) SeedFile(profile model.ServiceProfile, path string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.put(profileKey(profile), pathutil.JoinPath(path), data)
}

func (b *Backend) put(key, path string, data []byte) {
	if b.files[key] == nil {
		b.files[key] = map[string]file{}
	}
	b.files[key][path] = file{data: data, modifiedAt: b.timeNow()}
}

func (b *Backend) isDir(profile model.ServiceProfile, dir string) bool {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	for p := range b.files[profileKey(profile)] {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

func (b *Backend) hasModel(task model.TaskType, id string) bool {
	for _, m := range b.models[task] {
		if m.ID == id {
			return true
		}
	}
	return false
}

func checkKind(kind model.FileKind, path string) error {
	k, ok := model.FileKindForExtension(pathutil.Extension(path))
	if !ok || k != kind {
		return fmt.Errorf("%s is not a %s file: %w", path, kind, model.ErrNotValid)
	}
	return nil
}

func readAll(r io.Reader) ([]byte, error) {
	if r == nil {
		return []byte{}, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read file content: %w", err)
	}
	return data, nil
}
