package sim

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MTorner/GemeloVital/server/internal/events"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
	"github.com/MTorner/GemeloVital/server/internal/platform/tuning"
)

type countingBroadcaster struct {
	mu    sync.Mutex
	calls int
}

func (b *countingBroadcaster) BroadcastState(sessionID string, payload []byte) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
}

func (b *countingBroadcaster) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type channelJournal struct {
	appended chan events.ScheduledEvent
}

func (j *channelJournal) AppendActivity(ctx context.Context, sessionID string, ev events.ScheduledEvent, gameTime float64) error {
	j.appended <- ev
	return nil
}

func mealMacros() events.MealMacros {
	return events.MealMacros{Carbohydrates: 60, Proteins: 30, Fats: 10}
}

func newTestLoop(journal Journal, broadcaster Broadcaster) *Loop {
	return NewLoop(newTestState(), tuning.DefaultConfig(), journal, broadcaster, logger.NewLogger())
}

func TestTickAdvancesGameTime(t *testing.T) {
	loop := newTestLoop(nil, nil)

	loop.Tick(2.5) // default scale 60
	if got := loop.State().GameTime; got != 150 {
		t.Errorf("Expected game time 150, got %v", got)
	}
}

func TestPausedTickIsNoOp(t *testing.T) {
	loop := newTestLoop(nil, nil)
	loop.ScheduleEvent(events.ScheduledEvent{
		ID:            "EV1",
		Type:          events.EventTypeMeal,
		ScheduledTime: 0,
		Payload:       events.MealPayload{GlycemicLoad: 30},
	})

	loop.SetPaused(true)
	loop.Tick(10)

	if got := loop.State().GameTime; got != 0 {
		t.Errorf("Expected game time frozen at 0, got %v", got)
	}
	if loop.PendingEvents() != 1 {
		t.Errorf("Expected queued event retained while paused")
	}
}

func TestDirectCommandsWorkWhilePaused(t *testing.T) {
	loop := newTestLoop(nil, nil)
	loop.SetPaused(true)

	loop.ApplyStress(0.5)
	if got := loop.State().Muscle.CentralFatigue; got != 0.05 {
		t.Errorf("Expected central fatigue 0.05 after stress, got %v", got)
	}

	loop.State().Muscle.SleepDebt = 6
	loop.ApplySleep(4, 0.9)
	if got := loop.State().Muscle.SleepDebt; got != 2 {
		t.Errorf("Expected sleep debt reduced to 2, got %v", got)
	}
	if len(loop.State().RecentSleep) != 1 {
		t.Errorf("Expected direct sleep logged to activity history")
	}
}

func TestDueEventDispatchedToModules(t *testing.T) {
	loop := newTestLoop(nil, nil)
	loop.ScheduleEvent(events.ScheduledEvent{
		ID:            "MEAL1",
		Type:          events.EventTypeMeal,
		ScheduledTime: 60,
		Payload: events.MealPayload{
			GlycemicLoad: 30,
			TotalMacros:  mealMacros(),
		},
	})

	loop.Tick(2) // 120 game seconds at scale 60, past the event
	state := loop.State()

	if state.Energy.CaloriesIn == 0 {
		t.Errorf("Expected meal calories registered after dispatch")
	}
	if len(state.RecentMeals) != 1 {
		t.Errorf("Expected one meal record, got %d", len(state.RecentMeals))
	}
	if loop.PendingEvents() != 0 {
		t.Errorf("Expected queue drained")
	}
}

func TestDuplicateEventDispatchedOnce(t *testing.T) {
	loop := newTestLoop(nil, nil)
	ev := events.ScheduledEvent{
		ID:            "DUP",
		Type:          events.EventTypeMeal,
		ScheduledTime: 30,
		Payload:       events.MealPayload{GlycemicLoad: 20, TotalMacros: mealMacros()},
	}

	if !loop.ScheduleEvent(ev) {
		t.Fatalf("First schedule rejected")
	}
	if loop.ScheduleEvent(ev) {
		t.Errorf("Duplicate id accepted")
	}

	loop.Tick(1)
	if got := len(loop.State().RecentMeals); got != 1 {
		t.Errorf("Expected exactly one dispatch, got %d meal records", got)
	}
}

func TestBroadcastRateLimited(t *testing.T) {
	cfg := tuning.DefaultConfig()
	cfg.BroadcastInterval = time.Hour
	bc := &countingBroadcaster{}
	loop := NewLoop(newTestState(), cfg, nil, bc, logger.NewLogger())

	for i := 0; i < 10; i++ {
		loop.Tick(0.1)
	}
	if got := bc.Calls(); got != 1 {
		t.Errorf("Expected a single broadcast inside the interval, got %d", got)
	}
}

func TestBroadcastResumesAfterInterval(t *testing.T) {
	cfg := tuning.DefaultConfig()
	cfg.BroadcastInterval = 10 * time.Millisecond
	bc := &countingBroadcaster{}
	loop := NewLoop(newTestState(), cfg, nil, bc, logger.NewLogger())

	loop.Tick(0.1)
	time.Sleep(15 * time.Millisecond)
	loop.Tick(0.1)

	if got := bc.Calls(); got != 2 {
		t.Errorf("Expected two broadcasts across intervals, got %d", got)
	}
}

func TestJournalReceivesDispatchedEvent(t *testing.T) {
	journal := &channelJournal{appended: make(chan events.ScheduledEvent, 1)}
	loop := newTestLoop(journal, nil)
	loop.ScheduleEvent(events.ScheduledEvent{
		ID:            "J1",
		Type:          events.EventTypeStress,
		ScheduledTime: 0,
		Payload:       events.StressPayload{Intensity: 0.6},
	})

	loop.Tick(1)

	select {
	case ev := <-journal.appended:
		if ev.ID != "J1" {
			t.Errorf("Expected journaled event J1, got %s", ev.ID)
		}
	case <-time.After(time.Second):
		t.Errorf("Journal write never arrived")
	}
}

func TestScheduleEventAssignsID(t *testing.T) {
	loop := newTestLoop(nil, nil)
	if !loop.ScheduleEvent(events.ScheduledEvent{
		Type:          events.EventTypeSleep,
		ScheduledTime: 100,
		Payload:       events.SleepPayload{Hours: 8, Quality: 0.9},
	}) {
		t.Errorf("Event without id rejected")
	}
	if loop.PendingEvents() != 1 {
		t.Errorf("Expected event queued")
	}
}

func TestRunStops(t *testing.T) {
	cfg := tuning.DefaultConfig()
	cfg.TickInterval = time.Millisecond
	loop := NewLoop(newTestState(), cfg, nil, nil, logger.NewLogger())

	done := make(chan struct{})
	go func() {
		loop.Run(context.Background())
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	loop.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Loop did not stop")
	}
	if loop.State().GameTime == 0 {
		t.Errorf("Expected game time to advance while running")
	}
}
