package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/utils/opts"
)

// LaunchCommand launches a new inference service.
type LaunchCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	task    string
	options []string
	format  string
}

// NewLaunchCommand returns the launch command.
func NewLaunchCommand(rootCmd *RootCommand, app *kingpin.Application) *LaunchCommand {
	c := &LaunchCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("launch", "Launch a new inference service on the selected profile.")
	c.Cmd.Flag("task", "Task of the service.").Short('t').Default(string(model.TaskTextGeneration)).StringVar(&c.task)
	c.Cmd.Flag("opt", "Launch option as key=value, overrides the task defaults (repeatable).").Short('o').StringsVar(&c.options)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c LaunchCommand) Name() string { return c.Cmd.FullCommand() }

func (c LaunchCommand) Run(ctx context.Context) error {
	overrides, err := opts.ParseSpecs(c.options)
	if err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	e, err := c.rootCmd.newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	st := e.session
	if err := st.SetTask(model.TaskType(c.task)); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	// Models resolve before opening so the model field gets preselected.
	if err := st.Refresh(ctx); err != nil {
		c.rootCmd.Logger.Warningf("could not refresh profile state: %s", err)
	}
	if err := st.OpenLauncher(ctx); err != nil {
		return fmt.Errorf("could not open launcher: %w", err)
	}
	defer st.Launcher().Close()

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var invalid []string
	for _, k := range keys {
		res, err := st.Launcher().SetOption(k, overrides[k])
		if err != nil {
			return err
		}
		if !res.OK {
			invalid = append(invalid, fmt.Sprintf("%s: %s", k, res.Message))
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid options: %s: %w", strings.Join(invalid, ", "), model.ErrNotValid)
	}

	h, err := st.Launcher().Submit(ctx)
	if err != nil {
		return err
	}

	return newPrinter(c.format, c.rootCmd).PrintLaunch(*h)
}
