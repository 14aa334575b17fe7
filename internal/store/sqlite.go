// Package store persists channels in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"smsrelay/internal/domain"
)

// SQLiteStore implements domain.Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS channels (
		id             TEXT PRIMARY KEY,
		head           TEXT NOT NULL,
		rcpt           TEXT NOT NULL,
		alias_all      TEXT NOT NULL,
		alias_ops      TEXT NOT NULL,
		backend_module TEXT NOT NULL,
		backend_args   TEXT NOT NULL DEFAULT '{}',
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS users (
		channel_id TEXT NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
		position   INTEGER NOT NULL,
		nick       TEXT NOT NULL,
		op         INTEGER NOT NULL DEFAULT 0,
		voice      INTEGER NOT NULL DEFAULT 1,
		PRIMARY KEY (channel_id, nick)
	);

	CREATE TABLE IF NOT EXISTS phones (
		channel_id TEXT NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
		position   INTEGER NOT NULL,
		number     TEXT NOT NULL,
		nick       TEXT NOT NULL,
		mute       INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (channel_id, number)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, ch *domain.Channel) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM channels WHERE id = ?`, ch.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check channel %s: %w", ch.ID, err)
	}
	if exists > 0 {
		return fmt.Errorf("channel %s: %w", ch.ID, domain.ErrConflict)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	args, err := json.Marshal(ch.Backend.Args)
	if err != nil {
		return fmt.Errorf("marshal backend args: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO channels (id, head, rcpt, alias_all, alias_ops, backend_module, backend_args)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ch.ID, ch.Head, ch.Rcpt, ch.Aliases.All, ch.Aliases.Ops, ch.Backend.Module, string(args))
	if err != nil {
		return fmt.Errorf("insert channel %s: %w", ch.ID, err)
	}
	if err := insertMembers(ctx, tx, ch); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Read(ctx context.Context, id string) (*domain.Channel, error) {
	ch := &domain.Channel{ID: id}
	var args string
	err := s.db.QueryRowContext(ctx, `
		SELECT head, rcpt, alias_all, alias_ops, backend_module, backend_args
		FROM channels WHERE id = ?`, id).
		Scan(&ch.Head, &ch.Rcpt, &ch.Aliases.All, &ch.Aliases.Ops, &ch.Backend.Module, &args)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("channel %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read channel %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(args), &ch.Backend.Args); err != nil {
		return nil, fmt.Errorf("unmarshal backend args: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT nick, op, voice FROM users WHERE channel_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		u := &domain.User{}
		if err := rows.Scan(&u.Nick, &u.Op, &u.Voice); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		ch.Users = append(ch.Users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT number, nick, mute FROM phones WHERE channel_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("read phones: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		p := &domain.Phone{}
		if err := rows.Scan(&p.Number, &p.Nick, &p.Mute); err != nil {
			return nil, fmt.Errorf("scan phone: %w", err)
		}
		ch.Phones = append(ch.Phones, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read phones: %w", err)
	}
	return ch, nil
}

// Update rewrites the channel and its members in one transaction, so a
// partially written channel is never visible.
func (s *SQLiteStore) Update(ctx context.Context, ch *domain.Channel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	args, err := json.Marshal(ch.Backend.Args)
	if err != nil {
		return fmt.Errorf("marshal backend args: %w", err)
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE channels
		SET head = ?, rcpt = ?, alias_all = ?, alias_ops = ?,
		    backend_module = ?, backend_args = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		ch.Head, ch.Rcpt, ch.Aliases.All, ch.Aliases.Ops, ch.Backend.Module, string(args), ch.ID)
	if err != nil {
		return fmt.Errorf("update channel %s: %w", ch.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("channel %s: %w", ch.ID, domain.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE channel_id = ?`, ch.ID); err != nil {
		return fmt.Errorf("clear users: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM phones WHERE channel_id = ?`, ch.ID); err != nil {
		return fmt.Errorf("clear phones: %w", err)
	}
	if err := insertMembers(ctx, tx, ch); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM channels WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete channel %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("channel %s: %w", id, domain.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE channel_id = ?`, id); err != nil {
		return fmt.Errorf("delete users: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM phones WHERE channel_id = ?`, id); err != nil {
		return fmt.Errorf("delete phones: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func insertMembers(ctx context.Context, tx *sql.Tx, ch *domain.Channel) error {
	for i, u := range ch.Users {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (channel_id, position, nick, op, voice)
			VALUES (?, ?, ?, ?, ?)`, ch.ID, i, u.Nick, u.Op, u.Voice)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.Nick, err)
		}
	}
	for i, p := range ch.Phones {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO phones (channel_id, position, number, nick, mute)
			VALUES (?, ?, ?, ?, ?)`, ch.ID, i, p.Number, p.Nick, p.Mute)
		if err != nil {
			return fmt.Errorf("insert phone %s: %w", p.Number, err)
		}
	}
	return nil
}
