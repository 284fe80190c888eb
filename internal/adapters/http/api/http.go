// Package api serves the live session, the leaderboard and metrics over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/handbeat/internal/adapters/repository"
	"github.com/okian/handbeat/internal/domain/model"
)

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = repository.Entry

// SessionSource exposes the live game.
type SessionSource interface {
	Status() model.Status
}

// Leaderboard exposes stored sessions.
type Leaderboard interface {
	TopN(ctx context.Context, chartID string, n int) ([]Entry, error)
	Rank(ctx context.Context, sessionID string) (Entry, error)
}

// Server wires HTTP routes.
type Server struct {
	healthHandler      *HealthHandler
	sessionHandler     *SessionHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(session SessionSource, board Leaderboard, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		sessionHandler:     NewSessionHandler(session),
		leaderboardHandler: NewLeaderboardHandler(board, maxLimit),
		rankHandler:        NewRankHandler(board),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/session", MetricsMiddleware(s.sessionHandler.HandleGetSession, "session"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/rank/", MetricsMiddleware(s.rankHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
