// Package store persists quotes and monitor snapshots in a sqlite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/etnz/depot"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a snapshot does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot migrate %q: %w", path, err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS quotes (
  instrument TEXT NOT NULL,
  date TEXT NOT NULL,
  price TEXT,
  updated_at INTEGER NOT NULL,
  PRIMARY KEY(instrument, date)
);
CREATE INDEX IF NOT EXISTS idx_quotes_date ON quotes(date);

CREATE TABLE IF NOT EXISTS snapshots (
  id TEXT PRIMARY KEY,
  taken_at INTEGER NOT NULL,
  reference_date TEXT NOT NULL,
  payload TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_taken ON snapshots(taken_at);
`)
	return err
}

// LoadQuotes reads every stored quote, nulls included.
func (s *Store) LoadQuotes(ctx context.Context) (*depot.Quotes, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT instrument, date, price FROM quotes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	q := depot.NewQuotes()
	for rows.Next() {
		var (
			instrument, day string
			price           decimal.NullDecimal
		)
		if err := rows.Scan(&instrument, &day, &price); err != nil {
			return nil, err
		}
		on, err := depot.ParseDate(day)
		if err != nil {
			return nil, fmt.Errorf("quote of %s: %w", instrument, err)
		}
		q.Set(instrument, on, price)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Debug().Int("quotes", q.Len()).Msg("quotes loaded")
	return q, nil
}

// SaveQuotes upserts every quote of q in a single transaction.
func (s *Store) SaveQuotes(ctx context.Context, q *depot.Quotes) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO quotes(instrument, date, price, updated_at)
		VALUES(?, ?, ?, ?)
		ON CONFLICT(instrument, date) DO UPDATE SET
		price=excluded.price, updated_at=excluded.updated_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	n := 0
	for quote := range q.All() {
		if _, err := stmt.ExecContext(ctx, quote.Instrument, quote.Date.String(), quote.Price, now); err != nil {
			return fmt.Errorf("cannot save quote %s on %v: %w", quote.Instrument, quote.Date, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Debug().Int("quotes", n).Msg("quotes saved")
	return nil
}

// Snapshot is a stored monitor report.
type Snapshot struct {
	ID            string
	TakenAt       time.Time
	ReferenceDate depot.Date
	Payload       json.RawMessage // the report document
}

// SaveSnapshot stores the report document and returns its id. A report without
// id gets a new one.
func (s *Store) SaveSnapshot(ctx context.Context, r *depot.Report) (string, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Time.IsZero() {
		r.Time = time.Now()
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO snapshots(id, taken_at, reference_date, payload) VALUES(?, ?, ?, ?)`,
		r.ID, r.Time.UnixMilli(), r.ReferenceDate.String(), string(payload))
	if err != nil {
		return "", fmt.Errorf("cannot save snapshot %s: %w", r.ID, err)
	}
	return r.ID, nil
}

func scanSnapshot(row *sql.Row) (*Snapshot, error) {
	var (
		snap    Snapshot
		takenAt int64
		day     string
		payload string
	)
	if err := row.Scan(&snap.ID, &takenAt, &day, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	on, err := depot.ParseDate(day)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", snap.ID, err)
	}
	snap.TakenAt = time.UnixMilli(takenAt)
	snap.ReferenceDate = on
	snap.Payload = json.RawMessage(payload)
	return &snap, nil
}

// LatestSnapshot returns the most recent snapshot, ErrNotFound when there is none.
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	return scanSnapshot(s.db.QueryRowContext(ctx, `SELECT id, taken_at, reference_date, payload FROM snapshots ORDER BY taken_at DESC LIMIT 1`))
}

// Snapshot returns the snapshot with id, ErrNotFound when there is none.
func (s *Store) Snapshot(ctx context.Context, id string) (*Snapshot, error) {
	return scanSnapshot(s.db.QueryRowContext(ctx, `SELECT id, taken_at, reference_date, payload FROM snapshots WHERE id=?`, id))
}

// PruneSnapshots deletes snapshots taken before a time and returns how many were deleted.
func (s *Store) PruneSnapshots(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE taken_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
