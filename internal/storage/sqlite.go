package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"what_bot/internal/model"
	"what_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05.000Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// SaveSummaries inserts all summaries in one transaction and populates their
// IDs and CreatedAt.
func (s *SQLite) SaveSummaries(ctx context.Context, summaries []model.Summary) error {
	if len(summaries) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timeLayout)
	for i := range summaries {
		sm := &summaries[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO summaries (guild_id, request_channel_id, channel, requester, request, summary, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sm.GuildID, sm.RequestChannelID, sm.Channel, sm.Requester, sm.Request, sm.Text, now,
		)
		if err != nil {
			return fmt.Errorf("insert summary: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		sm.ID = id
		sm.CreatedAt, _ = time.Parse(timeLayout, now)
	}
	return tx.Commit()
}

// ListSummaries returns the most recent summaries requested from a channel,
// newest first.
func (s *SQLite) ListSummaries(ctx context.Context, requestChannelID string, limit int) ([]model.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, guild_id, request_channel_id, channel, requester, request, summary, created_at
		 FROM summaries WHERE request_channel_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		requestChannelID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.Summary
	for rows.Next() {
		sm, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

// PruneSummaries deletes summaries created before the given instant and
// returns how many were removed.
func (s *SQLite) PruneSummaries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM summaries WHERE created_at < ?`, before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune summaries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSummary(row scannable) (model.Summary, error) {
	var sm model.Summary
	var created string
	err := row.Scan(&sm.ID, &sm.GuildID, &sm.RequestChannelID, &sm.Channel, &sm.Requester, &sm.Request, &sm.Text, &created)
	if err != nil {
		return sm, fmt.Errorf("scan summary: %w", err)
	}
	sm.CreatedAt, _ = time.Parse(timeLayout, created)
	return sm, nil
}
