package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/inferctl/internal/app/filemanager"
	"github.com/slok/inferctl/internal/conventions"
	"github.com/slok/inferctl/internal/pathutil"
	"github.com/slok/inferctl/internal/progress"
	"github.com/slok/inferctl/internal/remotefs"
)

// newFileManager returns a file manager for the command profile, remote
// profiles with SSH access list their files over SFTP.
func (r *RootCommand) newFileManager(ctx context.Context) (*filemanager.Manager, func(), error) {
	e, err := r.newEnv(ctx)
	if err != nil {
		return nil, nil, err
	}

	p, ok := e.session.Profile()
	if !ok {
		e.close()
		return nil, nil, fmt.Errorf("no profile selected, use 'profiles use <name>' or --profile")
	}

	cfg := filemanager.ServiceConfig{
		Profile: *p,
		Store:   e.backend,
		Logger:  r.Logger,
	}
	if p.SSH != nil {
		lister, err := remotefs.NewLister(remotefs.ListerConfig{
			DefaultKnownHostsPath: conventions.KnownHostsPath(),
			Logger:                r.Logger,
		})
		if err != nil {
			e.close()
			return nil, nil, fmt.Errorf("could not create sftp lister: %w", err)
		}
		cfg.Lister = lister
	}

	m, err := filemanager.NewManager(cfg)
	if err != nil {
		e.close()
		return nil, nil, fmt.Errorf("could not create file manager: %w", err)
	}

	return m, e.close, nil
}

// enterParent moves the manager to the directory of a file path and returns the file name.
func enterParent(m *filemanager.Manager, path string) (string, error) {
	if !strings.Contains(path, "/") {
		return path, nil
	}
	if err := m.Navigate(pathutil.ParentPath(path)); err != nil {
		return "", err
	}
	return pathutil.BaseName(path), nil
}

// FilesLsCommand lists a directory of the profile.
type FilesLsCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	dir    string
	format string
}

// NewFilesLsCommand returns the files ls command.
func NewFilesLsCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *FilesLsCommand {
	c := &FilesLsCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("ls", "List a directory, relative to the profile home.")
	c.Cmd.Arg("dir", "Directory, local profiles also accept absolute paths inside the home.").Default("/").StringVar(&c.dir)
	c.Cmd.Flag("format", "Output format (table, json).").Default("table").EnumVar(&c.format, "table", "json")

	return c
}

func (c FilesLsCommand) Name() string { return c.Cmd.FullCommand() }

func (c FilesLsCommand) Run(ctx context.Context) error {
	m, closeFn, err := c.rootCmd.newFileManager(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := m.Navigate(c.dir); err != nil {
		return fmt.Errorf("could not open %s: %w", c.dir, err)
	}

	entries, err := m.List(ctx)
	if err != nil {
		return err
	}

	return newPrinter(c.format, c.rootCmd).PrintFiles(entries)
}

// FilesCatCommand prints the content of a file.
type FilesCatCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	path string
}

// NewFilesCatCommand returns the files cat command.
func NewFilesCatCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *FilesCatCommand {
	c := &FilesCatCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("cat", "Print a file of the profile.")
	c.Cmd.Arg("path", "File path.").Required().StringVar(&c.path)

	return c
}

func (c FilesCatCommand) Name() string { return c.Cmd.FullCommand() }

func (c FilesCatCommand) Run(ctx context.Context) error {
	m, closeFn, err := c.rootCmd.newFileManager(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	name, err := enterParent(m, c.path)
	if err != nil {
		return err
	}

	p, err := m.Preview(ctx, name)
	if err != nil {
		return err
	}

	_, err = c.rootCmd.Stdout.Write(p.Content)
	return err
}

// FilesUploadCommand uploads a local file.
type FilesUploadCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	file string
	dest string
}

// NewFilesUploadCommand returns the files upload command.
func NewFilesUploadCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *FilesUploadCommand {
	c := &FilesUploadCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("upload", "Upload a local file (image, text or audio, up to 100 MiB).")
	c.Cmd.Arg("file", "Local file.").Required().StringVar(&c.file)
	c.Cmd.Flag("dest", "Destination directory, relative to the profile home.").Default("/").StringVar(&c.dest)

	return c
}

func (c FilesUploadCommand) Name() string { return c.Cmd.FullCommand() }

func (c FilesUploadCommand) Run(ctx context.Context) error {
	m, closeFn, err := c.rootCmd.newFileManager(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	req, done, err := c.rootCmd.localUpload(c.file, "Uploading")
	if err != nil {
		return err
	}
	defer done()
	req.Destination = c.dest

	if err := m.Upload(ctx, req); err != nil {
		return err
	}

	return newPrinter("table", c.rootCmd).PrintMessage(fmt.Sprintf("Uploaded %s to %s", filepath.Base(c.file), c.dest))
}

// FilesReplaceCommand replaces a file with a local one of the same type.
type FilesReplaceCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	target string
	file   string
}

// NewFilesReplaceCommand returns the files replace command.
func NewFilesReplaceCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *FilesReplaceCommand {
	c := &FilesReplaceCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("replace", "Replace a file of the profile with a local file with the same extension.")
	c.Cmd.Arg("target", "File to replace.").Required().StringVar(&c.target)
	c.Cmd.Arg("file", "Local file.").Required().StringVar(&c.file)

	return c
}

func (c FilesReplaceCommand) Name() string { return c.Cmd.FullCommand() }

func (c FilesReplaceCommand) Run(ctx context.Context) error {
	m, closeFn, err := c.rootCmd.newFileManager(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	name, err := enterParent(m, c.target)
	if err != nil {
		return err
	}

	req, done, err := c.rootCmd.localUpload(c.file, "Replacing")
	if err != nil {
		return err
	}
	defer done()

	if err := m.Replace(ctx, name, req); err != nil {
		return err
	}

	return newPrinter("table", c.rootCmd).PrintMessage(fmt.Sprintf("Replaced %s", c.target))
}

// FilesRmCommand deletes a file.
type FilesRmCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	path string
}

// NewFilesRmCommand returns the files rm command.
func NewFilesRmCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *FilesRmCommand {
	c := &FilesRmCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("rm", "Delete a file of the profile.")
	c.Cmd.Arg("path", "File path.").Required().StringVar(&c.path)

	return c
}

func (c FilesRmCommand) Name() string { return c.Cmd.FullCommand() }

func (c FilesRmCommand) Run(ctx context.Context) error {
	m, closeFn, err := c.rootCmd.newFileManager(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	name, err := enterParent(m, c.path)
	if err != nil {
		return err
	}

	if err := m.Delete(ctx, name); err != nil {
		return err
	}

	return newPrinter("table", c.rootCmd).PrintMessage(fmt.Sprintf("Deleted %s", c.path))
}

// localUpload opens a local file as an upload request reporting progress on stderr.
func (r *RootCommand) localUpload(path, label string) (filemanager.UploadRequest, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return filemanager.UploadRequest{}, nil, fmt.Errorf("could not open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return filemanager.UploadRequest{}, nil, fmt.Errorf("could not stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return filemanager.UploadRequest{}, nil, fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	pr := progress.NewReader(f, r.Stderr, label+" "+name, info.Size())
	done := func() {
		if pr.Transferred() > 0 {
			pr.Finish()
		}
		f.Close()
	}

	return filemanager.UploadRequest{
		FileName: name,
		Size:     info.Size(),
		Content:  pr,
	}, done, nil
}
