package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"laune/reader/internal/database"
)

const sqliteTimeFormat = "2006-01-02 15:04:05"

// Selection is the last bulk fetch form a browser session submitted.
type Selection struct {
	SessionID string
	FeedIDs   []string
	StartDate *string
	EndDate   *string
	PageSize  int
	UpdatedAt time.Time
}

// SelectionRepository persists bulk fetch selections per session.
type SelectionRepository interface {
	SaveSelection(ctx context.Context, sel Selection) error
	LoadSelection(ctx context.Context, sessionID string) (Selection, bool, error)
	PruneSelections(ctx context.Context, olderThan time.Time) (int64, error)
}

type selectionRow struct {
	SessionID string         `db:"session_id"`
	FeedIDs   string         `db:"feed_ids"`
	StartDate sql.NullString `db:"start_date"`
	EndDate   sql.NullString `db:"end_date"`
	PageSize  int            `db:"page_size"`
	UpdatedAt time.Time      `db:"updated_at"`
}

// sqlxRepository implements SelectionRepository using sqlx.
type sqlxRepository struct {
	db *database.DB
}

// NewRepository creates a new repository instance.
func NewRepository(db *database.DB) SelectionRepository {
	return &sqlxRepository{db: db}
}

// SaveSelection inserts or replaces the selection of sel.SessionID.
func (r *sqlxRepository) SaveSelection(ctx context.Context, sel Selection) error {
	if sel.SessionID == "" {
		return fmt.Errorf("session id is required")
	}
	feedIDs, err := json.Marshal(sel.FeedIDs)
	if err != nil {
		return fmt.Errorf("failed to encode feed ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO bulk_selections (session_id, feed_ids, start_date, end_date, page_size, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			feed_ids = excluded.feed_ids,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			page_size = excluded.page_size,
			updated_at = CURRENT_TIMESTAMP`,
		sel.SessionID, string(feedIDs), nullString(sel.StartDate), nullString(sel.EndDate), sel.PageSize)
	if err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	return nil
}

// LoadSelection returns the saved selection of a session. ok is false when
// the session never submitted one.
func (r *sqlxRepository) LoadSelection(ctx context.Context, sessionID string) (Selection, bool, error) {
	var row selectionRow
	err := r.db.GetContext(ctx, &row, `
		SELECT session_id, feed_ids, start_date, end_date, page_size, updated_at
		FROM bulk_selections
		WHERE session_id = ?`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Selection{}, false, nil
		}
		return Selection{}, false, fmt.Errorf("database query failed: %w", err)
	}

	sel := Selection{
		SessionID: row.SessionID,
		StartDate: stringPtr(row.StartDate),
		EndDate:   stringPtr(row.EndDate),
		PageSize:  row.PageSize,
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal([]byte(row.FeedIDs), &sel.FeedIDs); err != nil {
		return Selection{}, false, fmt.Errorf("failed to decode feed ids of session %s: %w", sessionID, err)
	}
	return sel, true, nil
}

// PruneSelections deletes selections not updated since olderThan.
func (r *sqlxRepository) PruneSelections(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bulk_selections WHERE updated_at < ?`,
		olderThan.UTC().Format(sqliteTimeFormat))
	if err != nil {
		return 0, fmt.Errorf("failed to prune selections: %w", err)
	}
	return res.RowsAffected()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
