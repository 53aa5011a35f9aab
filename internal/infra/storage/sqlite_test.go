package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/MTorner/GemeloVital/server/internal/events"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"), 1, 1)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestJournalAppendAndQuery(t *testing.T) {
	journal := NewActivityJournal(openTestDB(t))
	ctx := context.Background()

	evs := []events.ScheduledEvent{
		{ID: "E2", Type: events.EventTypeExercise, Payload: events.ExercisePayload{PerceivedExertion: 7}},
		{ID: "E1", Type: events.EventTypeMeal, Payload: events.MealPayload{GlycemicLoad: 30}},
	}
	if err := journal.AppendActivity(ctx, "S1", evs[0], 7200); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := journal.AppendActivity(ctx, "S1", evs[1], 3600); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rows, err := journal.GetBySession(ctx, "S1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	// Game-time order, not insertion order.
	if rows[0].EventID != "E1" || rows[1].EventID != "E2" {
		t.Errorf("Expected game-time order E1,E2, got %s,%s", rows[0].EventID, rows[1].EventID)
	}
}

func TestJournalIgnoresDuplicateIDs(t *testing.T) {
	journal := NewActivityJournal(openTestDB(t))
	ctx := context.Background()

	ev := events.ScheduledEvent{ID: "DUP", Type: events.EventTypeSleep, Payload: events.SleepPayload{Hours: 8}}
	if err := journal.AppendActivity(ctx, "S1", ev, 100); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := journal.AppendActivity(ctx, "S1", ev, 200); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rows, err := journal.GetBySession(ctx, "S1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("Expected duplicate ignored, got %d rows", len(rows))
	}
}

func TestJournalFiltersByType(t *testing.T) {
	journal := NewActivityJournal(openTestDB(t))
	ctx := context.Background()

	journal.AppendActivity(ctx, "S1", events.ScheduledEvent{ID: "M1", Type: events.EventTypeMeal, Payload: events.MealPayload{}}, 100)
	journal.AppendActivity(ctx, "S1", events.ScheduledEvent{ID: "X1", Type: events.EventTypeExercise, Payload: events.ExercisePayload{}}, 200)
	journal.AppendActivity(ctx, "S2", events.ScheduledEvent{ID: "M2", Type: events.EventTypeMeal, Payload: events.MealPayload{}}, 300)

	rows, err := journal.GetByType(ctx, "S1", events.EventTypeMeal)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].EventID != "M1" {
		t.Errorf("Expected only M1, got %v", rows)
	}
}

func TestSnapshotUpsert(t *testing.T) {
	repo := NewSnapshotRepository(openTestDB(t))
	ctx := context.Background()

	err := repo.Upsert(ctx, SessionSnapshot{SessionID: "S1", UserID: "U1", GameTime: 100, StateJSON: `{"v":1}`})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	err = repo.Upsert(ctx, SessionSnapshot{SessionID: "S1", UserID: "U1", GameTime: 200, StateJSON: `{"v":2}`})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	snap, err := repo.GetBySessionID(ctx, "S1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if snap == nil {
		t.Fatalf("Expected a snapshot")
	}
	if snap.GameTime != 200 || snap.StateJSON != `{"v":2}` {
		t.Errorf("Expected latest snapshot kept, got %+v", snap)
	}
}

func TestSnapshotAbsentIsNil(t *testing.T) {
	repo := NewSnapshotRepository(openTestDB(t))

	snap, err := repo.GetBySessionID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if snap != nil {
		t.Errorf("Expected nil for unknown session, got %+v", snap)
	}
}
