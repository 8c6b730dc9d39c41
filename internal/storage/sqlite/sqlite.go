package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/inferctl/internal/log"
	"github.com/slok/inferctl/internal/model"
	"github.com/slok/inferctl/internal/storage/sqlite/migrations"
)

const settingSelectedProfile = "selected_profile"

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository, the schema is migrated on creation.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateProfile stores a new profile.
func (r *Repository) CreateProfile(ctx context.Context, p model.ServiceProfile) error {
	var sshUser, sshKey, sshKnownHosts *string
	var sshPort *int
	if p.SSH != nil {
		sshUser, sshKey, sshKnownHosts = &p.SSH.User, &p.SSH.PrivateKeyPath, &p.SSH.KnownHostsPath
		sshPort = &p.SSH.Port
	}

	query := `
		INSERT INTO profiles (
			name, type, host, home_dir, cache_dir,
			ssh_user, ssh_port, ssh_private_key_path, ssh_known_hosts_path,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.Name, p.Type, p.Host, p.HomeDir, p.CacheDir,
		sshUser, sshPort, sshKey, sshKnownHosts,
		time.Now().UTC().Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: profiles.") {
			return fmt.Errorf("profile %s: %w", p.Name, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert profile: %w", err)
	}

	r.logger.Debugf("Created profile in repository: %s", p.Name)
	return nil
}

const profileColumns = `
	name, type, host, home_dir, cache_dir,
	ssh_user, ssh_port, ssh_private_key_path, ssh_known_hosts_path
`

// GetProfile retrieves a profile by name.
func (r *Repository) GetProfile(ctx context.Context, name string) (*model.ServiceProfile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE name = ?`, name)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", name, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query profile: %w", err)
	}

	return &p, nil
}

// ListProfiles returns all profiles sorted by name.
func (r *Repository) ListProfiles(ctx context.Context) ([]model.ServiceProfile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("could not query profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.ServiceProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return profiles, nil
}

// DeleteProfile deletes a profile, if it was the selected one the selection is cleared.
func (r *Repository) DeleteProfile(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("could not delete profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("profile %s: %w", name, model.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM settings WHERE key = ? AND value = ?`, settingSelectedProfile, name)
	if err != nil {
		return fmt.Errorf("could not clear selected profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Deleted profile from repository: %s", name)
	return nil
}

// GetSelectedProfile returns the selected profile name.
func (r *Repository) GetSelectedProfile(ctx context.Context) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingSelectedProfile).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("selected profile: %w", model.ErrNotFound)
		}
		return "", fmt.Errorf("could not query selected profile: %w", err)
	}

	return name, nil
}

// SetSelectedProfile selects an existing profile.
func (r *Repository) SetSelectedProfile(ctx context.Context, name string) error {
	if _, err := r.GetProfile(ctx, name); err != nil {
		return err
	}

	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := r.db.ExecContext(ctx, query, settingSelectedProfile, name); err != nil {
		return fmt.Errorf("could not store selected profile: %w", err)
	}

	return nil
}

// CreateLaunchRecord stores a launch attempt.
func (r *Repository) CreateLaunchRecord(ctx context.Context, rec model.LaunchRecord) error {
	opts, err := json.Marshal(rec.Options)
	if err != nil {
		return fmt.Errorf("could not marshal options: %w", err)
	}

	query := `
		INSERT INTO launch_records (id, profile, task, options, service_id, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, rec.ID, rec.Profile, rec.Task, string(opts), rec.ServiceID, rec.Error, rec.CreatedAt.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: launch_records.") {
			return fmt.Errorf("launch record %s: %w", rec.ID, model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert launch record: %w", err)
	}

	return nil
}

// ListLaunchRecords returns the launch records newest first.
func (r *Repository) ListLaunchRecords(ctx context.Context) ([]model.LaunchRecord, error) {
	query := `
		SELECT id, profile, task, options, service_id, error, created_at
		FROM launch_records
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("could not query launch records: %w", err)
	}
	defer rows.Close()

	var records []model.LaunchRecord
	for rows.Next() {
		var rec model.LaunchRecord
		var opts string
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.Profile, &rec.Task, &opts, &rec.ServiceID, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &rec.Options); err != nil {
			return nil, fmt.Errorf("could not unmarshal options of %s: %w", rec.ID, err)
		}
		rec.CreatedAt = timeFromUnix(createdAt)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (model.ServiceProfile, error) {
	var p model.ServiceProfile
	var sshUser, sshKey, sshKnownHosts sql.NullString
	var sshPort sql.NullInt64

	err := s.Scan(
		&p.Name, &p.Type, &p.Host, &p.HomeDir, &p.CacheDir,
		&sshUser, &sshPort, &sshKey, &sshKnownHosts,
	)
	if err != nil {
		return model.ServiceProfile{}, err
	}

	if sshUser.Valid {
		p.SSH = &model.SSHConfig{
			User:           sshUser.String,
			Port:           int(sshPort.Int64),
			PrivateKeyPath: sshKey.String,
			KnownHostsPath: sshKnownHosts.String,
		}
	}

	return p, nil
}

func timeFromUnix(unix int64) time.Time { return time.Unix(unix, 0).UTC() }
