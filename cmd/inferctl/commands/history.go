package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/inferctl/internal/app/history"
)

// HistoryCommand lists the past launch attempts.
type HistoryCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	profile string
	failed  bool
	limit   int
	format  string
}

// NewHistoryCommand returns the history command.
func NewHistoryCommand(rootCmd *RootCommand, app *kingpin.Application) *HistoryCommand {
	c := &HistoryCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("history", "List the launch attempts, newest first.")
	c.Cmd.Flag("of", "Only list the attempts of this profile.").StringVar(&c.profile)
	c.Cmd.Flag("failed", "Only list the failed attempts.").BoolVar(&c.failed)
	c.Cmd.Flag("limit", "Maximum number of attempts listed, 0 is unlimited.").Default("20").IntVar(&c.limit)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c HistoryCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}

	repo, err := c.rootCmd.newRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := history.NewService(history.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	records, err := svc.Run(ctx, history.Request{
		Profile:    c.profile,
		FailedOnly: c.failed,
		Limit:      c.limit,
	})
	if err != nil {
		return fmt.Errorf("could not list history: %w", err)
	}

	return newPrinter(c.format, c.rootCmd).PrintHistory(records)
}
