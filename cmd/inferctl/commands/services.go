package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/slok/inferctl/internal/model"
)

// ServicesListCommand lists the services of the profile.
type ServicesListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format   string
	watch    bool
	interval time.Duration
}

// NewServicesListCommand returns the services list command.
func NewServicesListCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *ServicesListCommand {
	c := &ServicesListCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("list", "List the services of the profile.").Alias("ls")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")
	c.Cmd.Flag("watch", "Keep refreshing the list.").Short('w').BoolVar(&c.watch)
	c.Cmd.Flag("interval", "Refresh interval in watch mode.").Default("3s").DurationVar(&c.interval)

	return c
}

func (c ServicesListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServicesListCommand) Run(ctx context.Context) error {
	e, err := c.rootCmd.newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	p, ok := e.session.Profile()
	if !ok {
		return fmt.Errorf("no profile selected, use 'profiles use <name>' or --profile")
	}
	svc := e.session.Services()
	pr := newPrinter(c.format, c.rootCmd)

	printServices := func(svcs []model.Service) {
		sel := ""
		if s, ok := svc.Selected(); ok {
			sel = s.ID
		}
		if err := pr.PrintServices(svcs, sel); err != nil {
			c.rootCmd.Logger.Errorf("could not print services: %s", err)
		}
	}

	if !c.watch {
		svcs, err := svc.Refresh(ctx, *p)
		if err != nil {
			return fmt.Errorf("could not list services: %w", err)
		}
		printServices(svcs)
		return nil
	}

	// Services and models are watched together so availability changes are logged.
	var g run.Group
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				return svc.Watch(ctx, *p, c.interval, func(svcs []model.Service) {
					fmt.Fprintf(c.rootCmd.Stdout, "--- %s\n", time.Now().UTC().Format(time.RFC3339))
					printServices(svcs)
				})
			},
			func(_ error) { cancel() },
		)
	}
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				t := time.NewTicker(c.interval)
				defer t.Stop()
				last := model.ModelsLoading
				for {
					if err := e.session.RefreshModels(ctx); err != nil && ctx.Err() == nil {
						c.rootCmd.Logger.Warningf("refresh failed: %s", err)
					}
					if av, _ := e.session.Availability(); av != last {
						c.rootCmd.Logger.Infof("models for %s are %s", e.session.Task(), av)
						last = av
					}
					select {
					case <-ctx.Done():
						return nil
					case <-t.C:
					}
				}
			},
			func(_ error) { cancel() },
		)
	}

	err = g.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// ServicesRmCommand stops a service.
type ServicesRmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	id string
}

// NewServicesRmCommand returns the services rm command.
func NewServicesRmCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *ServicesRmCommand {
	c := &ServicesRmCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("rm", "Stop a service.").Alias("stop")
	c.Cmd.Arg("id", "Service ID.").Required().StringVar(&c.id)

	return c
}

func (c ServicesRmCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServicesRmCommand) Run(ctx context.Context) error {
	e, err := c.rootCmd.newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	p, ok := e.session.Profile()
	if !ok {
		return fmt.Errorf("no profile selected, use 'profiles use <name>' or --profile")
	}

	if err := e.session.Services().Stop(ctx, *p, c.id); err != nil {
		return fmt.Errorf("could not stop service: %w", err)
	}

	return newPrinter("table", c.rootCmd).PrintMessage(fmt.Sprintf("Stopped service %s", c.id))
}
