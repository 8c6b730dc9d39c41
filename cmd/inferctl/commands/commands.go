package commands

import (
	"context"
	"io"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/inferctl/internal/conventions"
	"github.com/slok/inferctl/internal/log"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"

	// BackendTypeAPI talks to the orchestration HTTP API.
	BackendTypeAPI = "api"
	// BackendTypeFake uses an in-process fake backend.
	BackendTypeFake = "fake"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug          bool
	NoLog          bool
	NoColor        bool
	LoggerType     string
	DBPath         string
	ConfigPath     string
	BackendType    string
	BackendURL     string
	BackendTimeout time.Duration
	Profile        string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("db-path", "Path to the SQLite database file.").Default(conventions.DBPath()).StringVar(&c.DBPath)
	app.Flag("config", "Path to the YAML configuration file.").Default(conventions.ConfigPath()).StringVar(&c.ConfigPath)
	app.Flag("backend", "Backend implementation.").Default(BackendTypeAPI).EnumVar(&c.BackendType, BackendTypeAPI, BackendTypeFake)
	app.Flag("backend-url", "Orchestration API address, overrides the configuration file.").StringVar(&c.BackendURL)
	app.Flag("backend-timeout", "Orchestration API request timeout, overrides the configuration file.").DurationVar(&c.BackendTimeout)
	app.Flag("profile", "Profile to use instead of the selected one.").Short('p').StringVar(&c.Profile)

	return c
}
