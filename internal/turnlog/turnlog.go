// Package turnlog keeps an append-only record of every resolved turn,
// used for replay, debugging, and corpus building.
package turnlog

import (
	"context"
	"fmt"
	"time"

	"github.com/ziadkadry99/queryflow/internal/db"
	"github.com/ziadkadry99/queryflow/internal/resolver"
)

// Entry is one logged turn.
type Entry struct {
	ID             int64
	SessionID      string
	Timestamp      time.Time
	StatusIn       int
	StatusOut      int
	UserInput      string
	PrimaryScene   string
	SecondaryScene string
	ThirdScene     string
	Question       string
	AnalysisResult string
}

// Store appends and queries turn records.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log records one request/reply pair.
func (s *Store) Log(ctx context.Context, req *resolver.TurnRequest, resp *resolver.TurnResponse) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turn_log (
			session_id, status_in, status_out, user_input,
			primary_scene, secondary_scene, third_scene, question, analysis_result
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.SessionID,
		req.StatusCode,
		resp.StatusCode,
		req.UserInput,
		resp.PrimaryScene,
		resp.SecondaryScene,
		resp.Intermediate.ThirdScene,
		resp.Question,
		resp.AnalysisResult,
	)
	if err != nil {
		return fmt.Errorf("inserting turn log entry: %w", err)
	}
	return nil
}

// BySession returns a session's turns oldest first.
func (s *Store) BySession(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, timestamp, status_in, status_out, user_input,
		       primary_scene, secondary_scene, third_scene, question, analysis_result
		FROM turn_log WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turn log: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Recent returns the newest n turns across all sessions.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, timestamp, status_in, status_out, user_input,
		       primary_scene, secondary_scene, third_scene, question, analysis_result
		FROM turn_log ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("querying turn log: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEntries(rows rowScanner) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &e.StatusIn, &e.StatusOut,
			&e.UserInput, &e.PrimaryScene, &e.SecondaryScene, &e.ThirdScene,
			&e.Question, &e.AnalysisResult); err != nil {
			return nil, fmt.Errorf("scanning turn log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
