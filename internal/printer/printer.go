package printer

import "github.com/slok/inferctl/internal/model"

// Printer knows how to print control panel information in different formats.
type Printer interface {
	PrintServices(services []model.Service, selectedID string) error
	PrintLaunch(handle model.ServiceHandle) error
	PrintModels(models []model.Model) error
	PrintFiles(entries []model.FileEntry) error
	PrintProfiles(profiles []model.ServiceProfile, selected string) error
	PrintHistory(records []model.LaunchRecord) error
	PrintMessage(msg string) error
}
