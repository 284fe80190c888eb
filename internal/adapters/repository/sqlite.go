package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okian/handbeat/internal/domain/model"
	"github.com/okian/handbeat/pkg/metrics"

	_ "modernc.org/sqlite"
)

const defaultBusyTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id   TEXT PRIMARY KEY,
	chart_id     TEXT NOT NULL,
	outcome      TEXT NOT NULL,
	score        INTEGER NOT NULL,
	max_combo    INTEGER NOT NULL,
	good         INTEGER NOT NULL,
	weak         INTEGER NOT NULL,
	misses       INTEGER NOT NULL,
	accuracy     REAL NOT NULL,
	mean_offset  REAL NOT NULL,
	stdev_offset REAL NOT NULL,
	started_at   INTEGER NOT NULL,
	ended_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_chart_score ON sessions (chart_id, score DESC, ended_at);
`

const summaryColumns = `session_id, chart_id, outcome, score, max_combo, good, weak, misses,
	accuracy, mean_offset, stdev_offset, started_at, ended_at`

// SQLiteStore implements Store on a SQLite file.
type SQLiteStore struct {
	db          *sql.DB
	busyTimeout time.Duration
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
func NewSQLiteStore(ctx context.Context, path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// one writer; sqlite serialises writes anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d;", s.busyTimeout.Milliseconds())); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s.db = db
	return s, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, sum model.Summary) error { //nolint:gocritic // hugeParam
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (`+summaryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.SessionID, sum.ChartID, sum.Outcome.String(), sum.Score, sum.MaxCombo,
		sum.Good, sum.Weak, sum.Misses, sum.Accuracy, sum.MeanOffset, sum.StdevOffset,
		sum.StartedAt.UnixNano(), sum.EndedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save session %s: %w", sum.SessionID, err)
	}
	metrics.RecordSessionStored()
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (model.Summary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM sessions WHERE session_id = ?`, sessionID)

	var (
		sum            model.Summary
		outcome        string
		started, ended int64
	)
	err := row.Scan(&sum.SessionID, &sum.ChartID, &outcome, &sum.Score, &sum.MaxCombo,
		&sum.Good, &sum.Weak, &sum.Misses, &sum.Accuracy, &sum.MeanOffset, &sum.StdevOffset,
		&started, &ended)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Summary{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return model.Summary{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	if sum.Outcome, err = model.ParsePhase(outcome); err != nil {
		return model.Summary{}, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	sum.StartedAt = time.Unix(0, started).UTC()
	sum.EndedAt = time.Unix(0, ended).UTC()
	return sum, nil
}

// Rank implements Store.
func (s *SQLiteStore) Rank(ctx context.Context, sessionID string) (Entry, error) {
	start := time.Now()
	defer observe(start)

	row := s.db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM sessions o
	 WHERE o.chart_id = s.chart_id
	   AND (o.score > s.score
	    OR (o.score = s.score AND o.ended_at < s.ended_at)
	    OR (o.score = s.score AND o.ended_at = s.ended_at AND o.session_id < s.session_id))) + 1,
	s.session_id, s.chart_id, s.outcome, s.score, s.max_combo, s.accuracy, s.ended_at
FROM sessions s WHERE s.session_id = ?`, sessionID)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("rank session %s: %w", sessionID, err)
	}
	return e, nil
}

// TopN implements Store.
func (s *SQLiteStore) TopN(ctx context.Context, chartID string, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	start := time.Now()
	defer observe(start)

	rows, err := s.db.QueryContext(ctx, `
SELECT ROW_NUMBER() OVER (ORDER BY score DESC, ended_at, session_id),
	session_id, chart_id, outcome, score, max_combo, accuracy, ended_at
FROM sessions
WHERE ? = '' OR chart_id = ?
ORDER BY score DESC, ended_at, session_id
LIMIT ?`, chartID, chartID, n)
	if err != nil {
		return nil, fmt.Errorf("top %d for %q: %w", n, chartID, err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]Entry, 0, n)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("top %d for %q: %w", n, chartID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top %d for %q: %w", n, chartID, err)
	}
	return entries, nil
}

// Count implements Store.
func (s *SQLiteStore) Count(ctx context.Context, chartID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE ? = '' OR chart_id = ?`, chartID, chartID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", chartID, err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e     Entry
		ended int64
	)
	if err := row.Scan(&e.Rank, &e.SessionID, &e.ChartID, &e.Outcome, &e.Score, &e.MaxCombo, &e.Accuracy, &ended); err != nil {
		return Entry{}, err
	}
	e.EndedAt = time.Unix(0, ended).UTC()
	return e, nil
}

func observe(start time.Time) {
	metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
}
