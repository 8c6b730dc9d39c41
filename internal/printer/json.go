package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/inferctl/internal/model"
)

// JSONPrinter prints control panel information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type serviceOutput struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Task      string    `json:"task"`
	Model     string    `json:"model"`
	Status    string    `json:"status"`
	Endpoint  string    `json:"endpoint"`
	Selected  bool      `json:"selected"`
	CreatedAt time.Time `json:"created_at"`
}

type launchOutput struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
}

type modelOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Task      string `json:"task"`
	SizeBytes int64  `json:"size_bytes"`
}

type fileOutput struct {
	Name       string     `json:"name"`
	Path       string     `json:"path"`
	Dir        bool       `json:"dir"`
	SizeBytes  int64      `json:"size_bytes"`
	ModifiedAt *time.Time `json:"modified_at"`
}

type profileOutput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Host     string `json:"host,omitempty"`
	HomeDir  string `json:"home_dir"`
	CacheDir string `json:"cache_dir,omitempty"`
	SSH      bool   `json:"ssh"`
	Selected bool   `json:"selected"`
}

type historyOutput struct {
	ID        string            `json:"id"`
	Profile   string            `json:"profile"`
	Task      string            `json:"task"`
	Options   map[string]string `json:"options"`
	ServiceID string            `json:"service_id,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintServices prints services in JSON format.
func (j *JSONPrinter) PrintServices(services []model.Service, selectedID string) error {
	items := make([]serviceOutput, len(services))
	for i, s := range services {
		items[i] = serviceOutput{
			ID:        s.ID,
			Name:      s.Name,
			Task:      string(s.Task),
			Model:     s.Model,
			Status:    string(s.Status),
			Endpoint:  s.Endpoint,
			Selected:  s.ID == selectedID,
			CreatedAt: s.CreatedAt.UTC(),
		}
	}
	return j.encode(items)
}

// PrintLaunch prints the launched service handle in JSON format.
func (j *JSONPrinter) PrintLaunch(h model.ServiceHandle) error {
	return j.encode(launchOutput{ID: h.ID, Name: h.Name, Endpoint: h.Endpoint})
}

// PrintModels prints models in JSON format.
func (j *JSONPrinter) PrintModels(models []model.Model) error {
	items := make([]modelOutput, len(models))
	for i, m := range models {
		items[i] = modelOutput{ID: m.ID, Name: m.Name, Task: string(m.Task), SizeBytes: m.SizeBytes}
	}
	return j.encode(items)
}

// PrintFiles prints directory entries in JSON format.
func (j *JSONPrinter) PrintFiles(entries []model.FileEntry) error {
	items := make([]fileOutput, len(entries))
	for i, e := range entries {
		items[i] = fileOutput{Name: e.Name, Path: e.Path, Dir: e.IsDir, SizeBytes: e.SizeBytes}
		if !e.ModifiedAt.IsZero() {
			utcTime := e.ModifiedAt.UTC()
			items[i].ModifiedAt = &utcTime
		}
	}
	return j.encode(items)
}

// PrintProfiles prints profiles in JSON format.
func (j *JSONPrinter) PrintProfiles(profiles []model.ServiceProfile, selected string) error {
	items := make([]profileOutput, len(profiles))
	for i, p := range profiles {
		items[i] = profileOutput{
			Name:     p.Name,
			Type:     string(p.Type),
			Host:     p.Host,
			HomeDir:  p.HomeDir,
			CacheDir: p.CacheDir,
			SSH:      p.SSH != nil,
			Selected: p.Name == selected,
		}
	}
	return j.encode(items)
}

// PrintHistory prints launch records in JSON format.
func (j *JSONPrinter) PrintHistory(records []model.LaunchRecord) error {
	items := make([]historyOutput, len(records))
	for i, r := range records {
		items[i] = historyOutput{
			ID:        r.ID,
			Profile:   r.Profile,
			Task:      string(r.Task),
			Options:   r.Options,
			ServiceID: r.ServiceID,
			Error:     r.Error,
			CreatedAt: r.CreatedAt.UTC(),
		}
	}
	return j.encode(items)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
