package backend

import (
	"context"
	"io"

	"github.com/slok/inferctl/internal/model"
)

// ModelLister lists the models available for a task on a profile.
type ModelLister interface {
	ListModels(ctx context.Context, profile model.ServiceProfile, task model.TaskType) ([]model.Model, error)
}

// Launcher requests the backend to start a new compute service.
type Launcher interface {
	Launch(ctx context.Context, profile model.ServiceProfile, task model.TaskType, opts model.ContainerOptions) (*model.ServiceHandle, error)
}

// ServiceManager lists and stops the services of a profile.
type ServiceManager interface {
	ListServices(ctx context.Context, profile model.ServiceProfile) ([]model.Service, error)
	StopService(ctx context.Context, profile model.ServiceProfile, id string) error
}

// FileLister lists a directory of a profile.
// Directories are passed in the path regime of the profile.
type FileLister interface {
	ListFiles(ctx context.Context, profile model.ServiceProfile, dir string) ([]model.FileEntry, error)
}

// FileStore is the file API of a profile.
type FileStore interface {
	FileLister
	ReadFile(ctx context.Context, profile model.ServiceProfile, kind model.FileKind, path string) ([]byte, error)
	UploadFile(ctx context.Context, profile model.ServiceProfile, upload FileUpload) error
	ReplaceFile(ctx context.Context, profile model.ServiceProfile, upload FileUpload) error
	DeleteFile(ctx context.Context, profile model.ServiceProfile, kind model.FileKind, path string) error
}

// Backend is the full orchestration API.
type Backend interface {
	ModelLister
	Launcher
	ServiceManager
	FileStore
}

// FileUpload is a file sent to the file API.
type FileUpload struct {
	Kind model.FileKind
	// Path is the destination directory on upload and the replaced file on replace.
	Path    string
	Name    string
	Size    int64
	Content io.Reader
}
