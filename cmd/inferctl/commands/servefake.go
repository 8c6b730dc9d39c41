package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"

	"github.com/slok/inferctl/internal/backend/fake"
	"github.com/slok/inferctl/internal/conventions"
)

// ServeFakeCommand serves the orchestration API backed by the in-memory fake.
type ServeFakeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddr  string
	launchDelay time.Duration
}

// NewServeFakeCommand returns the serve-fake command.
func NewServeFakeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeFakeCommand {
	c := &ServeFakeCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("serve-fake", "Serve a fake orchestration API for development.")
	c.Cmd.Flag("listen", "Listen address.").Default(conventions.DefaultFakeListenAddr).StringVar(&c.listenAddr)
	c.Cmd.Flag("launch-delay", "Simulated launch duration.").Default("2s").DurationVar(&c.launchDelay)

	return c
}

func (c ServeFakeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeFakeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	b, err := fake.NewBackend(fake.BackendConfig{
		LaunchDelay: c.launchDelay,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("could not create fake backend: %w", err)
	}

	h, err := fake.NewHandler(fake.HandlerConfig{Backend: b, Logger: logger})
	if err != nil {
		return fmt.Errorf("could not create handler: %w", err)
	}

	srv := &http.Server{
		Addr:              c.listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var g run.Group

	// HTTP server.
	g.Add(
		func() error {
			logger.Infof("fake API listening on http://%s", c.listenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		func(_ error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Errorf("could not shut down server: %s", err)
			}
		},
	)

	// Stop on context end.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				<-ctx.Done()
				return nil
			},
			func(_ error) { cancel() },
		)
	}

	return g.Run()
}
