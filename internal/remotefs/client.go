package remotefs

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
)

const (
	// DefaultConnectTimeout is the default SSH connection timeout.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultSSHPort is the default SSH port.
	DefaultSSHPort = 22
)

// ClientConfig holds the configuration for creating an SFTP session.
type ClientConfig struct {
	// Host is the IP address or hostname of the target.
	Host string
	// Port is the SSH port (default: 22).
	Port int
	User string
	// PrivateKey is the PEM-encoded private key bytes.
	PrivateKey []byte
	// HostKeyCallback verifies the server host key.
	HostKeyCallback ssh.HostKeyCallback
	// ConnectTimeout is the SSH connection timeout (default: 10s).
	ConnectTimeout time.Duration
	Logger         log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required")
	}
	if len(c.PrivateKey) == 0 {
		return fmt.Errorf("private key is required")
	}
	if c.HostKeyCallback == nil {
		return fmt.Errorf("host key callback is required")
	}
	if c.Port == 0 {
		c.Port = DefaultSSHPort
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	return nil
}

// Client is an SFTP session over an SSH connection.
type Client struct {
	conn   *ssh.Client
	sftp   *sftp.Client
	logger log.Logger
}

// NewClient dials the SSH server and opens the SFTP subsystem.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid sftp client config: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("could not parse private key: %w", err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: cfg.HostKeyCallback,
		Timeout:         cfg.ConnectTimeout,
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	d := net.Dialer{Timeout: cfg.ConnectTimeout}
	netConn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, sshCfg)
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("ssh handshake failed with %s: %w", addr, err)
	}
	conn := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not create sftp client: %w", err)
	}

	cfg.Logger.Debugf("sftp session opened with %s", addr)

	return &Client{conn: conn, sftp: sftpClient, logger: cfg.Logger}, nil
}

// Close closes the SFTP session and the SSH connection.
func (c *Client) Close() error {
	sftpErr := c.sftp.Close()
	if err := c.conn.Close(); err != nil {
		return err
	}
	return sftpErr
}

// ListDir lists an absolute remote directory.
func (c *Client) ListDir(ctx context.Context, dir string) ([]model.FileEntry, error) {
	type result struct {
		entries []model.FileEntry
		err     error
	}

	// SFTP calls don't take a context, closing the session unblocks them.
	done := make(chan result, 1)
	go func() {
		infos, err := c.sftp.ReadDir(dir)
		if err != nil {
			done <- result{err: err}
			return
		}

		entries := make([]model.FileEntry, 0, len(infos))
		for _, info := range infos {
			entries = append(entries, model.FileEntry{
				Name:       info.Name(),
				Path:       c.sftp.Join(dir, info.Name()),
				IsDir:      info.IsDir(),
				SizeBytes:  info.Size(),
				ModifiedAt: info.ModTime().UTC(),
			})
		}
		done <- result{entries: entries}
	}()

	select {
	case <-ctx.Done():
		_ = c.Close()
		return nil, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("could not read remote directory %s: %w", dir, res.err)
		}
		return res.entries, nil
	}
}
