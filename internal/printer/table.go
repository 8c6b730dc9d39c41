package printer

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/slok/inferctl/internal/model"
)

// TablePrinter prints control panel information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintServices prints services in a table format, the selected one is marked.
func (t *TablePrinter) PrintServices(services []model.Service, selectedID string) error {
	if len(services) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	now := time.Now()
	fmt.Fprintln(tw, "\tNAME\tTASK\tMODEL\tSTATUS\tENDPOINT\tAGE")
	for _, s := range services {
		mark := ""
		if s.ID == selectedID {
			mark = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", mark, s.Name, s.Task, s.Model, s.Status, s.Endpoint, FormatAge(s.CreatedAt, now))
	}

	return nil
}

// PrintLaunch prints the launched service handle.
func (t *TablePrinter) PrintLaunch(h model.ServiceHandle) error {
	fmt.Fprintf(t.writer, "Name:      %s\n", h.Name)
	fmt.Fprintf(t.writer, "ID:        %s\n", h.ID)
	fmt.Fprintf(t.writer, "Endpoint:  %s\n", h.Endpoint)
	return nil
}

// PrintModels prints models in a table format.
func (t *TablePrinter) PrintModels(models []model.Model) error {
	if len(models) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tNAME\tSIZE")
	for _, m := range models {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Name, FormatBytes(m.SizeBytes))
	}

	return nil
}

// PrintFiles prints directory entries in a table format.
func (t *TablePrinter) PrintFiles(entries []model.FileEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
	for _, e := range entries {
		if e.IsDir {
			fmt.Fprintf(tw, "%s/\t-\t-\n", e.Name)
			continue
		}
		modified := "-"
		if !e.ModifiedAt.IsZero() {
			modified = FormatAge(e.ModifiedAt, time.Now())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, FormatBytes(e.SizeBytes), modified)
	}

	return nil
}

// PrintProfiles prints profiles in a table format.
func (t *TablePrinter) PrintProfiles(profiles []model.ServiceProfile, selected string) error {
	if len(profiles) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "\tNAME\tTYPE\tHOST\tHOME")
	for _, p := range profiles {
		mark := ""
		if p.Name == selected {
			mark = "*"
		}
		host := p.Host
		if host == "" {
			host = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", mark, p.Name, p.Type, host, p.HomeDir)
	}

	return nil
}

// PrintHistory prints launch records in a table format.
func (t *TablePrinter) PrintHistory(records []model.LaunchRecord) error {
	if len(records) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "PROFILE\tTASK\tMODEL\tRESULT\tWHEN")
	for _, r := range records {
		result := r.ServiceID
		if !r.Succeeded() {
			result = "failed: " + r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Profile, r.Task, r.Options["model"], result, FormatTimestamp(r.CreatedAt))
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}
