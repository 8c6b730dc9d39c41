package commands

import (
	"context"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/inferctl/internal/tui"
)

// TUICommand runs the interactive control panel.
type TUICommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	interval time.Duration
}

// NewTUICommand returns the tui command.
func NewTUICommand(rootCmd *RootCommand, app *kingpin.Application) *TUICommand {
	c := &TUICommand{rootCmd: rootCmd}

	c.Cmd = app.Command("tui", "Interactive control panel to launch and monitor services.").Default()
	c.Cmd.Flag("interval", "Services and models polling interval.").Default("3s").DurationVar(&c.interval)

	return c
}

func (c TUICommand) Name() string { return c.Cmd.FullCommand() }

func (c TUICommand) Run(ctx context.Context) error {
	e, err := c.rootCmd.newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	return tui.Run(ctx, tui.ModelConfig{
		State:        e.session,
		PollInterval: c.interval,
		Logger:       c.rootCmd.Logger,
	})
}
