// Package session keeps CoachDesk's client-side state in a local
// SQLite database: the logged-in identity (backend token, user record,
// user type) and the in-progress workout draft. The backend owns all
// real data; this store only makes the session and an unsaved workout
// survive restarts.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/claude/coachdesk/internal/api"
)

// ErrNotFound is returned when no session or draft exists for the key.
var ErrNotFound = errors.New("not found")

// Store persists sessions and workout drafts at dir/state.db.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the state database in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "state.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		token      TEXT NOT NULL,
		user_json  TEXT NOT NULL,
		user_type  TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sessions table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS workout_drafts (
		session_id TEXT PRIMARY KEY,
		draft_json TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating drafts table: %w", err)
	}

	return &Store{db: db}, nil
}

// Session is one logged-in browser session. UserType mirrors the
// backend's role split: "coach" or "client".
type Session struct {
	ID       string
	Token    string
	User     api.User
	UserType string
}

// Create stores a new session and returns it with a fresh ID.
func (s *Store) Create(user api.User, token, userType string) (*Session, error) {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encoding user: %w", err)
	}

	sess := &Session{
		ID:       uuid.NewString(),
		Token:    token,
		User:     user,
		UserType: userType,
	}
	_, err = s.db.Exec(
		`INSERT INTO sessions (id, token, user_json, user_type) VALUES (?, ?, ?, ?)`,
		sess.ID, token, string(userJSON), userType,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return sess, nil
}

// Get looks up a session by ID.
func (s *Store) Get(id string) (*Session, error) {
	var token, userJSON, userType string
	err := s.db.QueryRow(
		`SELECT token, user_json, user_type FROM sessions WHERE id = ?`, id,
	).Scan(&token, &userJSON, &userType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}

	sess := &Session{ID: id, Token: token, UserType: userType}
	if err := json.Unmarshal([]byte(userJSON), &sess.User); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	return sess, nil
}

// Delete removes a session and its draft.
func (s *Store) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM workout_drafts WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("deleting draft: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// PurgeOlderThan drops sessions (and their drafts) created before the
// cutoff. Called on startup so the state file doesn't grow forever.
// The cutoff is computed in SQL so it compares in the same text format
// CURRENT_TIMESTAMP writes.
func (s *Store) PurgeOlderThan(age time.Duration) error {
	cutoff := fmt.Sprintf("-%d seconds", int64(age.Seconds()))
	_, err := s.db.Exec(
		`DELETE FROM workout_drafts WHERE session_id IN
			(SELECT id FROM sessions WHERE created_at < datetime('now', ?))`, cutoff)
	if err != nil {
		return fmt.Errorf("purging drafts: %w", err)
	}
	_, err = s.db.Exec(`DELETE FROM sessions WHERE created_at < datetime('now', ?)`, cutoff)
	if err != nil {
		return fmt.Errorf("purging sessions: %w", err)
	}
	return nil
}

// Draft is the in-progress workout being edited in the logger. It is
// an ephemeral local copy: mutated through form posts until a save
// round-trip hands it to the backend.
type Draft struct {
	RoutineID   string                `json:"routine_id,omitempty"`
	RoutineName string                `json:"routine_name,omitempty"`
	FromRoutine bool                  `json:"from_routine"`
	Exercises   []api.WorkoutExercise `json:"exercises"`
	// TargetReps maps exercise_id to the routine's rep range string,
	// used for first-set defaults.
	TargetReps      map[string]string `json:"target_reps,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
}

// TargetRepsFor returns the rep range for an exercise, or "" for
// ad-hoc exercises outside the routine.
func (d *Draft) TargetRepsFor(exerciseID string) string {
	if d.TargetReps == nil {
		return ""
	}
	return d.TargetReps[exerciseID]
}

// SaveDraft upserts the draft for a session.
func (s *Store) SaveDraft(sessionID string, d *Draft) error {
	draftJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding draft: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO workout_drafts (session_id, draft_json, updated_at)
		 VALUES (?, ?, CURRENT_TIMESTAMP)`,
		sessionID, string(draftJSON),
	)
	if err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

// LoadDraft returns the session's draft, or ErrNotFound when the
// session has no workout in progress.
func (s *Store) LoadDraft(sessionID string) (*Draft, error) {
	var draftJSON string
	err := s.db.QueryRow(
		`SELECT draft_json FROM workout_drafts WHERE session_id = ?`, sessionID,
	).Scan(&draftJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying draft: %w", err)
	}

	d := &Draft{}
	if err := json.Unmarshal([]byte(draftJSON), d); err != nil {
		return nil, fmt.Errorf("decoding draft: %w", err)
	}
	return d, nil
}

// ClearDraft removes the session's draft after a successful save.
func (s *Store) ClearDraft(sessionID string) error {
	if _, err := s.db.Exec(`DELETE FROM workout_drafts WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clearing draft: %w", err)
	}
	return nil
}

// Close closes the state database.
func (s *Store) Close() error {
	return s.db.Close()
}
