// Package storage provides the persistence layer for the simulation server:
// a write-through activity journal and session snapshots. Simulation state is
// NOT restored across restarts; the journal exists for history and auditing.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/MTorner/GemeloVital/server/internal/events"
)

// ActivityRow is one journaled event.
type ActivityRow struct {
	EventID   string    `db:"event_id" json:"event_id"`
	SessionID string    `db:"session_id" json:"session_id"`
	EventType string    `db:"event_type" json:"event_type"`
	GameTime  float64   `db:"game_time" json:"game_time"`
	Payload   string    `db:"payload" json:"payload"`
	LoggedAt  time.Time `db:"logged_at" json:"logged_at"`
}

// SessionSnapshot is the periodically upserted view of a session.
type SessionSnapshot struct {
	SessionID string    `db:"session_id" json:"session_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	GameTime  float64   `db:"game_time" json:"game_time"`
	StateJSON string    `db:"state_json" json:"state_json"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Open initializes the local SQLite database and creates the schemas.
func Open(dbPath string, maxOpen, maxIdle int) (*sqlx.DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := createSchemas(db); err != nil {
		return nil, fmt.Errorf("failed to create schemas: %w", err)
	}
	return db, nil
}

func createSchemas(db *sqlx.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS activities (
			event_id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			game_time REAL NOT NULL,
			payload TEXT NOT NULL,
			logged_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			game_time REAL NOT NULL,
			state_json TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_activities_session ON activities(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_activities_type ON activities(event_type);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// ActivityJournal implements sim.Journal on SQLite.
type ActivityJournal struct {
	db *sqlx.DB
}

// NewActivityJournal creates a journal over an open database.
func NewActivityJournal(db *sqlx.DB) *ActivityJournal {
	return &ActivityJournal{db: db}
}

// AppendActivity journals one dispatched event. Duplicate event ids are
// ignored; dispatch is at-most-once upstream, this is belt only.
func (j *ActivityJournal) AppendActivity(ctx context.Context, sessionID string, ev events.ScheduledEvent, gameTime float64) error {
	payloadBytes, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	query := `
		INSERT OR IGNORE INTO activities (event_id, session_id, event_type, game_time, payload, logged_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = j.db.ExecContext(ctx, query,
		ev.ID, sessionID, string(ev.Type), gameTime, string(payloadBytes), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to append activity: %w", err)
	}
	return nil
}

// GetBySession returns a session's journal in game-time order.
func (j *ActivityJournal) GetBySession(ctx context.Context, sessionID string) ([]ActivityRow, error) {
	var rows []ActivityRow
	query := `SELECT event_id, session_id, event_type, game_time, payload, logged_at
		FROM activities WHERE session_id = ? ORDER BY game_time ASC`
	if err := j.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	return rows, nil
}

// GetByType returns a session's journal filtered by event type.
func (j *ActivityJournal) GetByType(ctx context.Context, sessionID string, eventType events.EventType) ([]ActivityRow, error) {
	var rows []ActivityRow
	query := `SELECT event_id, session_id, event_type, game_time, payload, logged_at
		FROM activities WHERE session_id = ? AND event_type = ? ORDER BY game_time ASC`
	if err := j.db.SelectContext(ctx, &rows, query, sessionID, string(eventType)); err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	return rows, nil
}

// SnapshotRepository upserts periodic session snapshots.
type SnapshotRepository struct {
	db *sqlx.DB
}

// NewSnapshotRepository creates a snapshot repository.
func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Upsert writes the latest view of a session.
func (r *SnapshotRepository) Upsert(ctx context.Context, snap SessionSnapshot) error {
	query := `
		INSERT INTO sessions (session_id, user_id, game_time, state_json, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			user_id=excluded.user_id,
			game_time=excluded.game_time,
			state_json=excluded.state_json,
			updated_at=excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		snap.SessionID, snap.UserID, snap.GameTime, snap.StateJSON, time.Now(),
	)
	return err
}

// GetBySessionID returns the last snapshot for a session, nil when absent.
func (r *SnapshotRepository) GetBySessionID(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	var snap SessionSnapshot
	query := `SELECT session_id, user_id, game_time, state_json, updated_at FROM sessions WHERE session_id = ?`
	err := r.db.GetContext(ctx, &snap, query, sessionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}
