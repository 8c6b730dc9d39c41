package filemanager

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/slok/inferctl/internal/backend"
	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/pathutil"
)

// MaxUploadSize is the biggest file the file API accepts.
const MaxUploadSize int64 = 100 << 20

// Upload validation messages.
const (
	MsgNoFileSelected      = "No file selected"
	MsgFileTooLarge        = "File is larger than 100 MiB"
	MsgDestinationRequired = "Destination is required"
)

// ValidationError is returned when an upload is refused before reaching the backend.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid upload: %s", strings.Join(e.Messages, "; "))
}

func (e *ValidationError) Unwrap() error { return model.ErrNotValid }

// ServiceConfig is the configuration for the file manager.
type ServiceConfig struct {
	Profile model.ServiceProfile
	Store   backend.FileStore
	// Lister is optional, when set it lists remote profiles instead of Store.
	Lister backend.FileLister
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if err := c.Profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	if c.Store == nil {
		return fmt.Errorf("file store is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.FileManager", "profile": c.Profile.Name})

	return nil
}

// Manager browses and edits the files of a profile.
//
// The working directory is always kept relative to the profile home with "/"
// as the home itself. Paths are converted to the profile regime only when
// talking to the backend: remote profiles take root relative paths, local
// profiles take absolute paths.
type Manager struct {
	profile model.ServiceProfile
	store   backend.FileStore
	lister  backend.FileLister
	logger  log.Logger

	mu  sync.RWMutex
	cwd string
}

// NewManager creates a new file manager at the profile home.
func NewManager(cfg ServiceConfig) (*Manager, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Manager{
		profile: cfg.Profile,
		store:   cfg.Store,
		lister:  cfg.Lister,
		logger:  cfg.Logger,
		cwd:     pathutil.Root,
	}, nil
}

// Cwd returns the working directory relative to the profile home.
func (m *Manager) Cwd() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cwd
}

// BackendCwd returns the working directory as the backend expects it.
func (m *Manager) BackendCwd() string {
	return m.backendPath(m.Cwd())
}

// Navigate changes the working directory.
//
// On local profiles an absolute target is an OS path and must be inside the
// home. On remote profiles an absolute target is relative to the home. Non
// absolute targets are relative to the working directory.
func (m *Manager) Navigate(target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next, err := m.resolve(target)
	if err != nil {
		return err
	}

	m.cwd = next
	return nil
}

// Enter moves into a child directory of the working directory.
func (m *Manager) Enter(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid directory name %q: %w", name, model.ErrNotValid)
	}
	return m.Navigate(name)
}

// Up moves to the parent directory, at the home it stays.
func (m *Manager) Up() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cwd = pathutil.ParentPath(m.cwd)
}

// List lists the working directory, directories first.
func (m *Manager) List(ctx context.Context) ([]model.FileEntry, error) {
	cwd := m.Cwd()

	var entries []model.FileEntry
	var err error
	if m.lister != nil && !m.profile.IsLocal() {
		entries, err = m.lister.ListFiles(ctx, m.profile, cwd)
	} else {
		entries, err = m.store.ListFiles(ctx, m.profile, m.backendPath(cwd))
	}
	if err != nil {
		return nil, fmt.Errorf("could not list %s: %w", cwd, err)
	}

	for i := range entries {
		entries[i].Path = pathutil.JoinPath(cwd, entries[i].Name)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return entries[i].Name < entries[j].Name
	})

	return entries, nil
}

// Preview is the content of a file of a known kind.
type Preview struct {
	Kind    model.FileKind
	Path    string
	Content []byte
}

// Preview reads a file of the working directory.
func (m *Manager) Preview(ctx context.Context, name string) (*Preview, error) {
	p, kind, err := m.fileTarget(name)
	if err != nil {
		return nil, err
	}

	data, err := m.store.ReadFile(ctx, m.profile, kind, m.backendPath(p))
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", p, err)
	}

	return &Preview{Kind: kind, Path: p, Content: data}, nil
}

// UploadRequest represents a file upload.
type UploadRequest struct {
	// FileName is the name of the selected local file, empty when none is selected.
	FileName string
	Size     int64
	Content  io.Reader
	// Destination is the destination directory relative to the profile home.
	Destination string
}

// ValidateUpload returns every reason an upload would be refused. When no file
// is selected that is the only reason returned.
func (m *Manager) ValidateUpload(req UploadRequest) []string {
	if req.FileName == "" {
		return []string{MsgNoFileSelected}
	}

	var msgs []string
	ext := pathutil.Extension(req.FileName)
	if _, ok := model.FileKindForExtension(ext); !ok {
		if ext == "" {
			msgs = append(msgs, "File has no extension")
		} else {
			msgs = append(msgs, fmt.Sprintf("File type .%s is not allowed", ext))
		}
	}

	if req.Size > MaxUploadSize {
		msgs = append(msgs, MsgFileTooLarge)
	}

	if strings.TrimSpace(req.Destination) == "" {
		msgs = append(msgs, MsgDestinationRequired)
	}

	return msgs
}

// Upload uploads a new file into the destination directory.
func (m *Manager) Upload(ctx context.Context, req UploadRequest) error {
	if msgs := m.ValidateUpload(req); len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}

	dest, err := m.resolveLocked(strings.TrimSpace(req.Destination))
	if err != nil {
		return err
	}

	kind, _ := model.FileKindForExtension(pathutil.Extension(req.FileName))
	err = m.store.UploadFile(ctx, m.profile, backend.FileUpload{
		Kind:    kind,
		Path:    m.backendPath(dest),
		Name:    pathutil.BaseName(req.FileName),
		Size:    req.Size,
		Content: req.Content,
	})
	if err != nil {
		return fmt.Errorf("could not upload %s: %w", req.FileName, err)
	}

	m.logger.Infof("uploaded %s to %s", req.FileName, dest)
	return nil
}

// Replace replaces a file of the working directory with new content. The new
// file must have the same extension as the replaced one.
func (m *Manager) Replace(ctx context.Context, target string, req UploadRequest) error {
	if req.Destination == "" {
		req.Destination = m.Cwd()
	}

	msgs := m.ValidateUpload(req)
	if req.FileName != "" {
		oldExt, newExt := pathutil.Extension(target), pathutil.Extension(req.FileName)
		if oldExt != newExt {
			msgs = append(msgs, fmt.Sprintf("File extension .%s does not match the replaced file extension .%s", newExt, oldExt))
		}
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}

	p, kind, err := m.fileTarget(target)
	if err != nil {
		return err
	}

	err = m.store.ReplaceFile(ctx, m.profile, backend.FileUpload{
		Kind:    kind,
		Path:    m.backendPath(p),
		Name:    pathutil.BaseName(req.FileName),
		Size:    req.Size,
		Content: req.Content,
	})
	if err != nil {
		return fmt.Errorf("could not replace %s: %w", p, err)
	}

	m.logger.Infof("replaced %s", p)
	return nil
}

// Delete deletes a file of the working directory.
func (m *Manager) Delete(ctx context.Context, name string) error {
	p, kind, err := m.fileTarget(name)
	if err != nil {
		return err
	}

	if err := m.store.DeleteFile(ctx, m.profile, kind, m.backendPath(p)); err != nil {
		return fmt.Errorf("could not delete %s: %w", p, err)
	}

	m.logger.Infof("deleted %s", p)
	return nil
}

func (m *Manager) resolveLocked(target string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolve(target)
}

// resolve returns target as a home relative rooted path. Must be called with the lock held.
func (m *Manager) resolve(target string) (string, error) {
	for _, seg := range strings.Split(target, "/") {
		if seg == ".." {
			return "", fmt.Errorf("parent segments are not allowed in %q: %w", target, model.ErrNotValid)
		}
	}

	switch {
	case pathutil.IsRootPath(target):
		return pathutil.Root, nil
	case strings.HasPrefix(target, "/") && m.profile.IsLocal():
		rel, ok := pathutil.ToRelativePath(target, m.profile.HomeDir)
		if !ok {
			return "", fmt.Errorf("%s is not under %s: %w", target, m.profile.HomeDir, model.ErrOutsideHome)
		}
		return pathutil.JoinPath(pathutil.Root, rel), nil
	case strings.HasPrefix(target, "/"):
		return pathutil.JoinPath(pathutil.Root, pathutil.NormalizeRelativePath(target)), nil
	}

	return pathutil.JoinPath(m.cwd, pathutil.NormalizeRelativePath(target)), nil
}

// fileTarget resolves a file name of the working directory and its kind.
func (m *Manager) fileTarget(name string) (string, model.FileKind, error) {
	if name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("invalid file name %q: %w", name, model.ErrNotValid)
	}

	kind, ok := model.FileKindForExtension(pathutil.Extension(name))
	if !ok {
		return "", "", fmt.Errorf("unsupported file type %q: %w", name, model.ErrNotValid)
	}

	return pathutil.JoinPath(m.Cwd(), name), kind, nil
}

// backendPath converts a home relative path to the profile regime.
func (m *Manager) backendPath(rel string) string {
	if m.profile.IsLocal() {
		return pathutil.JoinPath(m.profile.HomeDir, rel)
	}
	return pathutil.JoinPath(pathutil.Root, rel)
}
