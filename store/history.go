package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// HistoryRecord is an immutable record of one generation event and its
// exported artifact. Records are only ever inserted.
type HistoryRecord struct {
	ID        int64
	Email     string
	Topic     string
	MCQText   string
	PDFPath   string
	CreatedAt time.Time
}

// HistoryEntry is the listing projection shown in the sidebar.
type HistoryEntry struct {
	ID        int64
	Topic     string
	CreatedAt time.Time
}

// AppendHistory inserts a new history record for email and returns the
// store-assigned id. The creation timestamp comes from the store's clock.
func (s *Store) AppendHistory(ctx context.Context, email, topic, mcqText, pdfPath string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO history (email, topic, mcq_text, pdf_path, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		email, topic, mcqText, pdfPath, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("store: append history: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: append history: %w", err)
	}
	return id, nil
}

// ListHistory returns all records for email, newest first. Ties on the
// creation timestamp are broken by id so the order stays deterministic.
func (s *Store) ListHistory(ctx context.Context, email string) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, topic, created_at FROM history
		 WHERE email = ?
		 ORDER BY created_at DESC, id DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("store: list history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Topic, &ts); err != nil {
			return nil, fmt.Errorf("store: list history: %w", err)
		}
		e.CreatedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list history: %w", err)
	}
	return entries, nil
}

// GetSession returns the full record for id, or ErrNotFound. No ownership
// filter is applied here; the record carries the owner email so callers
// can scope access themselves.
func (s *Store) GetSession(ctx context.Context, id int64) (*HistoryRecord, error) {
	r := &HistoryRecord{}
	var ts int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, topic, mcq_text, pdf_path, created_at
		 FROM history WHERE id = ?`, id).
		Scan(&r.ID, &r.Email, &r.Topic, &r.MCQText, &r.PDFPath, &ts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get session: %w", err)
	}
	r.CreatedAt = time.Unix(ts, 0)
	return r, nil
}
