package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps an embedded SQLite database holding the audit trail of
// nickname changes made through the bot. Discord stays the source of truth
// for members, nicknames and roles; nothing here is read back into the
// mutation flow.
// It uses modernc.org/sqlite for CGO-less builds.
type Store struct {
	dbPath string
	db     *sql.DB
}

// NewStore creates a new Store pointing to dbPath. Call Init() before using it.
func NewStore(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

// Init opens the SQLite database, configures pragmas, and ensures the schema exists.
func (s *Store) Init() error {
	if s.db != nil {
		return nil
	}
	if s.dbPath == "" {
		return fmt.Errorf("db path is empty")
	}
	if dir := filepath.Dir(s.dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	// Pragmas for durability and concurrency
	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`PRAGMA synchronous=NORMAL;`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return fmt.Errorf("apply %s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// NicknameChange is one audited invocation of the nickname flow.
type NicknameChange struct {
	ID              int64
	GuildID         string
	ActorID         string
	TargetID        string
	Nickname        string
	NicknameOutcome string
	RoleOutcome     string
	CreatedAt       time.Time
}

// RecordNicknameChange appends an audit row and returns its ID.
func (s *Store) RecordNicknameChange(ctx context.Context, c NicknameChange) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store not initialized")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO nickname_changes (guild_id, actor_id, target_id, nickname, nickname_outcome, role_outcome, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.GuildID, c.ActorID, c.TargetID, c.Nickname, c.NicknameOutcome, c.RoleOutcome, c.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert nickname change: %w", err)
	}
	return res.LastInsertId()
}

// ListFilter narrows ListNicknameChanges. Zero values mean "any".
type ListFilter struct {
	GuildID  string
	TargetID string
	Limit    int
}

// ListNicknameChanges returns audit rows, newest first.
func (s *Store) ListNicknameChanges(ctx context.Context, f ListFilter) ([]NicknameChange, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	query := `SELECT id, guild_id, actor_id, target_id, nickname, nickname_outcome, role_outcome, created_at
              FROM nickname_changes WHERE 1=1`
	var args []any
	if f.GuildID != "" {
		query += ` AND guild_id = ?`
		args = append(args, f.GuildID)
	}
	if f.TargetID != "" {
		query += ` AND target_id = ?`
		args = append(args, f.TargetID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query nickname changes: %w", err)
	}
	defer rows.Close()

	var out []NicknameChange
	for rows.Next() {
		var c NicknameChange
		if err := rows.Scan(&c.ID, &c.GuildID, &c.ActorID, &c.TargetID, &c.Nickname, &c.NicknameOutcome, &c.RoleOutcome, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan nickname change: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// PruneNicknameChanges deletes rows created before cutoff.
func (s *Store) PruneNicknameChanges(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("store not initialized")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM nickname_changes WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune nickname changes: %w", err)
	}
	return res.RowsAffected()
}

func ensureSchema(db *sql.DB) error {
	const createNicknameChanges = `
CREATE TABLE IF NOT EXISTS nickname_changes (
  id               INTEGER PRIMARY KEY AUTOINCREMENT,
  guild_id         TEXT NOT NULL,
  actor_id         TEXT NOT NULL,
  target_id        TEXT NOT NULL,
  nickname         TEXT NOT NULL,
  nickname_outcome TEXT NOT NULL,
  role_outcome     TEXT NOT NULL,
  created_at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nickname_changes_target ON nickname_changes(guild_id, target_id);
CREATE INDEX IF NOT EXISTS idx_nickname_changes_created ON nickname_changes(created_at);`

	if _, err := db.Exec(createNicknameChanges); err != nil {
		return fmt.Errorf("create nickname_changes: %w", err)
	}
	return nil
}
