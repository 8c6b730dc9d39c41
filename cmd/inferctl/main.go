package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/inferctl/cmd/inferctl/commands"
	"github.com/slok/inferctl/internal/log"
	loglogrus "github.com/slok/inferctl/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("inferctl", "Control panel for containerized inference services.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	launchCmd := commands.NewLaunchCommand(rootCmd, app)
	historyCmd := commands.NewHistoryCommand(rootCmd, app)
	tuiCmd := commands.NewTUICommand(rootCmd, app)
	serveFakeCmd := commands.NewServeFakeCommand(rootCmd, app)

	servicesCmd := app.Command("services", "Manage the services of the profile.")
	servicesListCmd := commands.NewServicesListCommand(rootCmd, servicesCmd)
	servicesRmCmd := commands.NewServicesRmCommand(rootCmd, servicesCmd)

	modelsCmd := app.Command("models", "Inspect the models of the profile.")
	modelsListCmd := commands.NewModelsListCommand(rootCmd, modelsCmd)

	filesCmd := app.Command("files", "Manage the files of the profile.")
	filesLsCmd := commands.NewFilesLsCommand(rootCmd, filesCmd)
	filesCatCmd := commands.NewFilesCatCommand(rootCmd, filesCmd)
	filesUploadCmd := commands.NewFilesUploadCommand(rootCmd, filesCmd)
	filesReplaceCmd := commands.NewFilesReplaceCommand(rootCmd, filesCmd)
	filesRmCmd := commands.NewFilesRmCommand(rootCmd, filesCmd)

	profilesCmd := app.Command("profiles", "Manage the compute profiles.")
	profilesListCmd := commands.NewProfilesListCommand(rootCmd, profilesCmd)
	profilesAddCmd := commands.NewProfilesAddCommand(rootCmd, profilesCmd)
	profilesRmCmd := commands.NewProfilesRmCommand(rootCmd, profilesCmd)
	profilesUseCmd := commands.NewProfilesUseCommand(rootCmd, profilesCmd)

	cmds := map[string]commands.Command{
		launchCmd.Name():       launchCmd,
		historyCmd.Name():      historyCmd,
		tuiCmd.Name():          tuiCmd,
		serveFakeCmd.Name():    serveFakeCmd,
		servicesListCmd.Name(): servicesListCmd,
		servicesRmCmd.Name():   servicesRmCmd,
		modelsListCmd.Name():   modelsListCmd,
		filesLsCmd.Name():      filesLsCmd,
		filesCatCmd.Name():     filesCatCmd,
		filesUploadCmd.Name():  filesUploadCmd,
		filesReplaceCmd.Name(): filesReplaceCmd,
		filesRmCmd.Name():      filesRmCmd,
		profilesListCmd.Name(): profilesListCmd,
		profilesAddCmd.Name():  profilesAddCmd,
		profilesRmCmd.Name():   profilesRmCmd,
		profilesUseCmd.Name():  profilesUseCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Commands that own the terminal output don't log unless --debug is set.
	quietCommands := map[string]bool{
		"services list": true,
		"models list":   true,
		"files ls":      true,
		"files cat":     true,
		"profiles list": true,
		"history":       true,
		"tui":           true,
	}
	if quietCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	// Set logger.
	rootCmd.Logger = getLogger(*rootCmd)

	var g run.Group

	// OS signals.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger.
func getLogger(config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // Logs go to stderr so stdout stays for prints.
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled")

	return logger
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
