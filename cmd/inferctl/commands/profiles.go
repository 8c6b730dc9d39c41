package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/inferctl/internal/model"
)

// ProfilesListCommand lists the stored profiles.
type ProfilesListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	format string
}

// NewProfilesListCommand returns the profiles list command.
func NewProfilesListCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *ProfilesListCommand {
	c := &ProfilesListCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("list", "List the profiles, the selected one is marked.").Alias("ls")
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c ProfilesListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProfilesListCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}
	repo, err := c.rootCmd.newRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	ps, err := repo.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("could not list profiles: %w", err)
	}

	selected, err := repo.GetSelectedProfile(ctx)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("could not get selected profile: %w", err)
	}

	return newPrinter(c.format, c.rootCmd).PrintProfiles(ps, selected)
}

// ProfilesAddCommand stores a new profile.
type ProfilesAddCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	name           string
	profileType    string
	host           string
	homeDir        string
	cacheDir       string
	sshUser        string
	sshPort        int
	sshKey         string
	sshKnownHosts  string
	selectAfterAdd bool
}

// NewProfilesAddCommand returns the profiles add command.
func NewProfilesAddCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *ProfilesAddCommand {
	c := &ProfilesAddCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("add", "Add a profile.")
	c.Cmd.Arg("name", "Profile name.").Required().StringVar(&c.name)
	c.Cmd.Flag("type", "Profile type.").Default(string(model.ProfileTypeRemote)).EnumVar(&c.profileType, string(model.ProfileTypeLocal), string(model.ProfileTypeRemote))
	c.Cmd.Flag("host", "Remote host of the profile.").StringVar(&c.host)
	c.Cmd.Flag("home", "Home directory of the profile on its host.").Required().StringVar(&c.homeDir)
	c.Cmd.Flag("cache", "Model cache directory of the profile on its host.").StringVar(&c.cacheDir)
	c.Cmd.Flag("ssh-user", "SSH user, enables direct SFTP file listing.").StringVar(&c.sshUser)
	c.Cmd.Flag("ssh-port", "SSH port.").Default("22").IntVar(&c.sshPort)
	c.Cmd.Flag("ssh-key", "SSH private key path.").StringVar(&c.sshKey)
	c.Cmd.Flag("ssh-known-hosts", "SSH known hosts file, the user one when empty.").StringVar(&c.sshKnownHosts)
	c.Cmd.Flag("use", "Select the profile after adding it.").BoolVar(&c.selectAfterAdd)

	return c
}

func (c ProfilesAddCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProfilesAddCommand) Run(ctx context.Context) error {
	p := model.ServiceProfile{
		Name:     c.name,
		Type:     model.ProfileType(c.profileType),
		Host:     c.host,
		HomeDir:  c.homeDir,
		CacheDir: c.cacheDir,
	}
	if c.sshUser != "" {
		p.SSH = &model.SSHConfig{
			User:           c.sshUser,
			Port:           c.sshPort,
			PrivateKeyPath: c.sshKey,
			KnownHostsPath: c.sshKnownHosts,
		}
	}
	if err := p.Validate(); err != nil {
		return err
	}

	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}
	repo, err := c.rootCmd.newRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.CreateProfile(ctx, p); err != nil {
		return fmt.Errorf("could not add profile: %w", err)
	}
	if c.selectAfterAdd {
		if err := repo.SetSelectedProfile(ctx, p.Name); err != nil {
			return fmt.Errorf("could not select profile: %w", err)
		}
	}

	return newPrinter("table", c.rootCmd).PrintMessage(fmt.Sprintf("Added profile %s", p.Name))
}

// ProfilesRmCommand deletes a profile.
type ProfilesRmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	name string
}

// NewProfilesRmCommand returns the profiles rm command.
func NewProfilesRmCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *ProfilesRmCommand {
	c := &ProfilesRmCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("rm", "Remove a profile.")
	c.Cmd.Arg("name", "Profile name.").Required().StringVar(&c.name)

	return c
}

func (c ProfilesRmCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProfilesRmCommand) Run(ctx context.Context) error {
	cfg, err := c.rootCmd.loadConfig(ctx)
	if err != nil {
		return err
	}
	repo, err := c.rootCmd.newRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := repo.DeleteProfile(ctx, c.name); err != nil {
		return fmt.Errorf("could not remove profile: %w", err)
	}

	return newPrinter("table", c.rootCmd).PrintMessage(fmt.Sprintf("Removed profile %s", c.name))
}

// ProfilesUseCommand selects the profile used by the other commands.
type ProfilesUseCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	name string
}

// NewProfilesUseCommand returns the profiles use command.
func NewProfilesUseCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *ProfilesUseCommand {
	c := &ProfilesUseCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("use", "Select a profile.")
	c.Cmd.Arg("name", "Profile name.").Required().StringVar(&c.name)

	return c
}

func (c ProfilesUseCommand) Name() string { return c.Cmd.FullCommand() }

func (c ProfilesUseCommand) Run(ctx context.Context) error {
	e, err := c.rootCmd.newEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.session.SelectProfile(ctx, c.name); err != nil {
		return err
	}

	return newPrinter("table", c.rootCmd).PrintMessage(fmt.Sprintf("Using profile %s", c.name))
}
