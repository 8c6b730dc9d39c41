package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/inferctl/internal/model"
)

// ModelsListCommand lists the models available for a task.
type ModelsListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	task   string
	format string
}

// NewModelsListCommand returns the models list command.
func NewModelsListCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *ModelsListCommand {
	c := &ModelsListCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("list", "List the models of a task on the profile.").Alias("ls")
	c.Cmd.Flag("task", "Task of the models.").Short('t').Default(string(model.TaskTextGeneration)).StringVar(&c.task)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c ModelsListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ModelsListCommand) Run(ctx context.Context) error {
	e, err := c.rootCmd.newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.session.SetTask(model.TaskType(c.task)); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	if _, ok := e.session.Profile(); !ok {
		return fmt.Errorf("no profile selected, use 'profiles use <name>' or --profile")
	}

	if err := e.session.RefreshModels(ctx); err != nil {
		return fmt.Errorf("could not list models: %w", err)
	}

	av, ms := e.session.Availability()
	if av != model.ModelsReady {
		c.rootCmd.Logger.Warningf("no models available for %s", c.task)
	}

	return newPrinter(c.format, c.rootCmd).PrintModels(ms)
}
