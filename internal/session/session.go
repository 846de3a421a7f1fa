// Package session persists conversation state between turns so that
// stateless HTTP callers can resume with only a session id.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/queryflow/internal/db"
	"github.com/ziadkadry99/queryflow/internal/resolver"
)

// ErrNotFound is returned when a session id does not exist or has
// already been pruned.
var ErrNotFound = errors.New("session not found")

// Session is one conversation's persisted state.
type Session struct {
	ID             string                      `json:"id"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
	StatusCode     int                         `json:"status_code"`
	PrimaryScene   string                      `json:"primary_scene"`
	SecondaryScene string                      `json:"secondary_scene"`
	History        []string                    `json:"history"`
	Intermediate   resolver.IntermediateResult `json:"intermediate"`
}

// Store reads and writes sessions. Expired rows are pruned lazily on
// access rather than by a background sweeper.
type Store struct {
	db  *db.DB
	ttl time.Duration
}

// NewStore creates a session store. A non-positive ttl disables
// expiry.
func NewStore(database *db.DB, ttl time.Duration) *Store {
	return &Store{db: database, ttl: ttl}
}

// Create mints a new session with a fresh uuid.
func (s *Store) Create(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		UpdatedAt:  now,
		StatusCode: resolver.StatusNewSession,
		History:    []string{},
	}
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a session by id, pruning expired rows first.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	if err := s.pruneExpired(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, status_code, primary_scene, secondary_scene, history, intermediate
		FROM sessions WHERE id = ?`, id)

	var sess Session
	var history, intermediate string
	err := row.Scan(&sess.ID, &sess.CreatedAt, &sess.UpdatedAt, &sess.StatusCode,
		&sess.PrimaryScene, &sess.SecondaryScene, &history, &intermediate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(history), &sess.History); err != nil {
		return nil, fmt.Errorf("decoding session history: %w", err)
	}
	if err := json.Unmarshal([]byte(intermediate), &sess.Intermediate); err != nil {
		return nil, fmt.Errorf("decoding intermediate result: %w", err)
	}
	return &sess, nil
}

// Save upserts a session and bumps its updated_at.
func (s *Store) Save(ctx context.Context, sess *Session) error {
	history, err := json.Marshal(sess.History)
	if err != nil {
		return fmt.Errorf("encoding session history: %w", err)
	}
	intermediate, err := json.Marshal(sess.Intermediate)
	if err != nil {
		return fmt.Errorf("encoding intermediate result: %w", err)
	}

	sess.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, updated_at, status_code, primary_scene, secondary_scene, history, intermediate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			status_code = excluded.status_code,
			primary_scene = excluded.primary_scene,
			secondary_scene = excluded.secondary_scene,
			history = excluded.history,
			intermediate = excluded.intermediate`,
		sess.ID, sess.CreatedAt, sess.UpdatedAt, sess.StatusCode,
		sess.PrimaryScene, sess.SecondaryScene, string(history), string(intermediate))
	if err != nil {
		return fmt.Errorf("saving session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// Apply folds one resolved turn into the session: the exchange joins
// the history, and the reply's scene fields and intermediate bag become
// the new resume point.
func (s *Store) Apply(ctx context.Context, sess *Session, req *resolver.TurnRequest, resp *resolver.TurnResponse) error {
	sess.History = append(sess.History, req.UserInput)
	if resp.AnalysisResult != "" {
		sess.History = append(sess.History, resp.AnalysisResult)
	}
	sess.StatusCode = resp.StatusCode
	sess.PrimaryScene = resp.PrimaryScene
	sess.SecondaryScene = resp.SecondaryScene
	sess.Intermediate = resp.Intermediate
	sess.Intermediate.AnalysisResult = resp.AnalysisResult
	return s.Save(ctx, sess)
}

func (s *Store) pruneExpired(ctx context.Context) error {
	if s.ttl <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-s.ttl)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff); err != nil {
		return fmt.Errorf("pruning expired sessions: %w", err)
	}
	return nil
}
