package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStore is wrapped by every error returned from the repository
var ErrStore = errors.New("store error")

// Repository handles all database operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository with SQLite
func NewRepository(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection serializes every statement, which makes each permission
	// mutation atomic with respect to the others and gives a caller
	// read-your-writes on its next query.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// NewRepositoryWithDB wraps an already opened, already migrated database
func NewRepositoryWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Ping checks that the database is reachable
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return wrap("ping", err)
	}
	return nil
}

// migrate creates the database schema
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS permissions (
			guild_id VARCHAR(20) NOT NULL,
			command_name VARCHAR(32) NOT NULL,
			role_id VARCHAR(20) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (guild_id, command_name, role_id)
		)`,
		`CREATE TABLE IF NOT EXISTS warnings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			guild_id VARCHAR(20) NOT NULL,
			user_id VARCHAR(20) NOT NULL,
			reason TEXT NOT NULL,
			moderator_id VARCHAR(20) NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS monitor_bindings (
			guild_id VARCHAR(20) PRIMARY KEY,
			channel_id VARCHAR(20) NOT NULL,
			enabled INTEGER NOT NULL DEFAULT 1,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_warnings_guild_user ON warnings(guild_id, user_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func wrap(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// Permission operations

// GrantPermission allows roleID to use command in guildID. Granting an
// existing rule is a no-op.
func (r *Repository) GrantPermission(ctx context.Context, guildID, command, roleID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO permissions (guild_id, command_name, role_id) VALUES (?, ?, ?)`,
		guildID, command, roleID,
	)
	if err != nil {
		return wrap("grant permission", err)
	}
	return nil
}

// RevokePermission removes a rule. Revoking a missing rule is a no-op.
func (r *Repository) RevokePermission(ctx context.Context, guildID, command, roleID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM permissions WHERE guild_id = ? AND command_name = ? AND role_id = ?`,
		guildID, command, roleID,
	)
	if err != nil {
		return wrap("revoke permission", err)
	}
	return nil
}

// ResetPermissions removes every rule for a guild in a single statement
func (r *Repository) ResetPermissions(ctx context.Context, guildID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM permissions WHERE guild_id = ?`, guildID)
	if err != nil {
		return 0, wrap("reset permissions", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, wrap("reset permissions", err)
	}
	return removed, nil
}

// ListPermissions returns a guild's rules ordered by command, then role
func (r *Repository) ListPermissions(ctx context.Context, guildID string) ([]*PermissionRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT guild_id, command_name, role_id, created_at FROM permissions
		 WHERE guild_id = ? ORDER BY command_name, role_id`,
		guildID,
	)
	if err != nil {
		return nil, wrap("list permissions", err)
	}
	defer rows.Close()

	var rules []*PermissionRule
	for rows.Next() {
		rule := &PermissionRule{}
		if err := rows.Scan(&rule.GuildID, &rule.CommandName, &rule.RoleID, &rule.CreatedAt); err != nil {
			return nil, wrap("list permissions", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap("list permissions", err)
	}
	return rules, nil
}

// CommandRoles returns the role IDs allowed to use command in guildID
func (r *Repository) CommandRoles(ctx context.Context, guildID, command string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT role_id FROM permissions WHERE guild_id = ? AND command_name = ?`,
		guildID, command,
	)
	if err != nil {
		return nil, wrap("load command roles", err)
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var roleID string
		if err := rows.Scan(&roleID); err != nil {
			return nil, wrap("load command roles", err)
		}
		roles = append(roles, roleID)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap("load command roles", err)
	}
	return roles, nil
}

// Warning operations

// CreateWarning appends a warning and sets its ID
func (r *Repository) CreateWarning(ctx context.Context, w *Warning) error {
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO warnings (guild_id, user_id, reason, moderator_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		w.GuildID, w.UserID, w.Reason, w.ModeratorID, w.CreatedAt.Unix(),
	)
	if err != nil {
		return wrap("create warning", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return wrap("create warning", err)
	}
	w.ID = id
	return nil
}

// GetWarnings returns a user's warnings in a guild, newest first
func (r *Repository) GetWarnings(ctx context.Context, guildID, userID string) ([]*Warning, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, guild_id, user_id, reason, moderator_id, created_at FROM warnings
		 WHERE guild_id = ? AND user_id = ? ORDER BY id DESC`,
		guildID, userID,
	)
	if err != nil {
		return nil, wrap("get warnings", err)
	}
	defer rows.Close()

	var warnings []*Warning
	for rows.Next() {
		w := &Warning{}
		var createdAt int64
		if err := rows.Scan(&w.ID, &w.GuildID, &w.UserID, &w.Reason, &w.ModeratorID, &createdAt); err != nil {
			return nil, wrap("get warnings", err)
		}
		w.CreatedAt = time.Unix(createdAt, 0)
		warnings = append(warnings, w)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap("get warnings", err)
	}
	return warnings, nil
}

// Monitor binding operations

// UpsertBinding creates or updates a guild's status channel binding
func (r *Repository) UpsertBinding(ctx context.Context, b *MonitorBinding) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO monitor_bindings (guild_id, channel_id, enabled, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(guild_id) DO UPDATE SET
			channel_id = excluded.channel_id,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		b.GuildID, b.ChannelID, b.Enabled, time.Now(),
	)
	if err != nil {
		return wrap("upsert binding", err)
	}
	return nil
}

// ListBindings returns every persisted binding
func (r *Repository) ListBindings(ctx context.Context) ([]*MonitorBinding, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT guild_id, channel_id, enabled, updated_at FROM monitor_bindings ORDER BY guild_id`,
	)
	if err != nil {
		return nil, wrap("list bindings", err)
	}
	defer rows.Close()

	var bindings []*MonitorBinding
	for rows.Next() {
		b := &MonitorBinding{}
		if err := rows.Scan(&b.GuildID, &b.ChannelID, &b.Enabled, &b.UpdatedAt); err != nil {
			return nil, wrap("list bindings", err)
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, wrap("list bindings", err)
	}
	return bindings, nil
}
