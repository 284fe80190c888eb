// Package repository stores finished sessions and ranks them per chart.
package repository

import (
	"context"
	"time"

	"github.com/okian/handbeat/internal/domain/model"
)

// Entry represents a leaderboard row.
type Entry struct {
	Rank      int       `json:"rank"`
	SessionID string    `json:"session_id"`
	ChartID   string    `json:"chart_id"`
	Outcome   string    `json:"outcome"`
	Score     int       `json:"score"`
	MaxCombo  int       `json:"max_combo"`
	Accuracy  float64   `json:"accuracy"`
	EndedAt   time.Time `json:"ended_at"`
}

// Store provides read/write access to session history.
type Store interface {
	// Save records a finished session. Saving the same session id again
	// replaces the earlier record.
	Save(ctx context.Context, s model.Summary) error

	// Get returns a stored session. Returns ErrNotFound if it is unknown.
	Get(ctx context.Context, sessionID string) (model.Summary, error)

	// Rank returns the leaderboard position of a session within its chart.
	// Returns ErrNotFound if the session is unknown.
	Rank(ctx context.Context, sessionID string) (Entry, error)

	// TopN returns the top-N sessions of a chart ordered by score desc; ties
	// go to the earlier finish. An empty chart id ranks across all charts.
	TopN(ctx context.Context, chartID string, n int) ([]Entry, error)

	// Count returns the number of sessions stored for a chart, or for all
	// charts when chartID is empty.
	Count(ctx context.Context, chartID string) (int, error)

	Close() error
}
