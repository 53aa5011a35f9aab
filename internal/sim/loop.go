package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/events"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
	"github.com/MTorner/GemeloVital/server/internal/platform/metrics"
	"github.com/MTorner/GemeloVital/server/internal/platform/tuning"
)

// Journal receives dispatched activities write-through. Implementations must
// tolerate being called from a background goroutine.
type Journal interface {
	AppendActivity(ctx context.Context, sessionID string, ev events.ScheduledEvent, gameTime float64) error
}

// Broadcaster fans a state notification out to subscribers. Sends to slow or
// closed subscribers are best-effort; failures never reach the loop.
type Broadcaster interface {
	BroadcastState(sessionID string, payload []byte)
}

// Loop is the per-session orchestrator. Each tick advances the clock, drains
// due events, dispatches them, runs module updates in the fixed order
// Energy -> Hormone -> Muscle, and emits a rate-limited change notification.
// One Loop exists per active session; tick execution is strictly sequential.
type Loop struct {
	mu sync.Mutex

	state     *body.SimulationState
	clock     *TimeController
	scheduler *EventScheduler

	energy   *EnergyModule
	hormones *HormoneModule
	muscle   *MuscleModule
	food     *FoodModule
	exercise *ExerciseModule

	journal     Journal     // optional
	broadcaster Broadcaster // optional

	logger *logger.Logger
	cfg    *tuning.Config

	lastBroadcast time.Time
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewLoop wires the modules for one session. journal and broadcaster may be
// nil (tests, dayrunner).
func NewLoop(state *body.SimulationState, cfg *tuning.Config, journal Journal, broadcaster Broadcaster, log *logger.Logger) *Loop {
	energy := NewEnergyModule(log)
	hormones := NewHormoneModule(log)
	muscle := NewMuscleModule(log)

	return &Loop{
		state:       state,
		clock:       NewTimeController(state.Settings.TimeScale),
		scheduler:   NewEventScheduler(),
		energy:      energy,
		hormones:    hormones,
		muscle:      muscle,
		food:        NewFoodModule(FoodDeps{Energy: energy, Hormones: hormones, Muscle: muscle}, log),
		exercise:    NewExerciseModule(ExerciseDeps{Energy: energy, Hormones: hormones, Muscle: muscle}, log),
		journal:     journal,
		broadcaster: broadcaster,
		logger:      log,
		cfg:         cfg,
		stopChan:    make(chan struct{}),
	}
}

// Run drives the loop off a real-time ticker. Call in a goroutine.
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("Simulation loop started for session %s", l.state.SessionID)

	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Simulation loop stopped by context (session %s)", l.state.SessionID)
			return
		case <-l.stopChan:
			l.logger.Info("Simulation loop stopped manually (session %s)", l.state.SessionID)
			return
		case now := <-ticker.C:
			realDt := now.Sub(last).Seconds()
			last = now
			l.Tick(realDt)
		}
	}
}

// Stop halts the loop goroutine.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stopChan) })
}

// Tick processes a single tick; exported so tests and the dayrunner can
// drive the loop without real time.
func (l *Loop) Tick(realDtSeconds float64) {
	started := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.WallClock = time.Now()

	if l.clock.Paused() {
		// No time passes and the queue is not drained while paused.
		return
	}

	before := l.clock.GameTime()
	l.clock.Advance(realDtSeconds)
	l.state.GameTime = l.clock.GameTime()
	dtGame := l.state.GameTime - before

	for _, ev := range l.scheduler.DrainDue(l.state.GameTime) {
		l.dispatch(ev)
	}

	l.updateModules(dtGame)
	l.maybeBroadcast()

	metrics.Get().RecordTick(time.Since(started))
}

// dispatch routes a due event to the owning module. Payloads may arrive as
// typed structs (in-process) or json.RawMessage (transport); the round-trip
// through JSON normalizes both.
func (l *Loop) dispatch(ev events.ScheduledEvent) {
	now := l.state.GameTime
	metrics.Get().RecordEventDispatch()

	switch ev.Type {
	case events.EventTypeMeal:
		var meal events.MealPayload
		if err := decodePayload(ev.Payload, &meal); err != nil {
			l.logger.Error("Failed to decode meal payload for event %s: %v", ev.ID, err)
			return
		}
		l.food.ApplyMeal(l.state, meal, now)
		l.state.LogMeal(activityRecord(ev, now, fmt.Sprintf("GL=%.1f", meal.GlycemicLoad)))

	case events.EventTypeExercise:
		var session events.ExercisePayload
		if err := decodePayload(ev.Payload, &session); err != nil {
			l.logger.Error("Failed to decode exercise payload for event %s: %v", ev.ID, err)
			return
		}
		l.exercise.ApplyExercise(l.state, session, now)
		l.state.LogExercise(activityRecord(ev, now, fmt.Sprintf("%s rpe=%.0f", session.Category, session.PerceivedExertion)))

	case events.EventTypeSleep:
		var sleep events.SleepPayload
		if err := decodePayload(ev.Payload, &sleep); err != nil {
			l.logger.Error("Failed to decode sleep payload for event %s: %v", ev.ID, err)
			return
		}
		l.exercise.ApplySleep(l.state, sleep, now)
		l.state.LogSleep(activityRecord(ev, now, fmt.Sprintf("%.1fh q=%.2f", sleep.Hours, sleep.Quality)))

	case events.EventTypeStress:
		var stress events.StressPayload
		if err := decodePayload(ev.Payload, &stress); err != nil {
			l.logger.Error("Failed to decode stress payload for event %s: %v", ev.ID, err)
			return
		}
		l.exercise.ApplyStress(l.state, stress, now)

	default:
		l.logger.Warn("Unknown event type %q dropped (event %s)", ev.Type, ev.ID)
		return
	}

	if l.journal != nil {
		// Write through to the activity journal without blocking the tick.
		go func(ev events.ScheduledEvent, gameTime float64) {
			wStart := time.Now()
			err := l.journal.AppendActivity(context.Background(), l.state.SessionID, ev, gameTime)
			metrics.Get().RecordJournalWrite(time.Since(wStart), err)
			if err != nil {
				l.logger.Error("Journal write failed for event %s: %v", ev.ID, err)
			}
		}(ev, now)
	}
}

// updateModules runs the fixed Energy -> Hormone -> Muscle order. A panic in
// any module is recovered, logged, and that module's pre-update state is
// restored; the loop keeps ticking (availability over per-tick correctness).
func (l *Loop) updateModules(dtGame float64) {
	energyBefore := l.state.Energy
	l.runGuarded("energy", func() { l.energy.Update(l.state, dtGame) }, func() {
		l.state.Energy = energyBefore
	})

	hormonesBefore := cloneHormones(l.state.Hormones)
	l.runGuarded("hormones", func() { l.hormones.Update(l.state, dtGame) }, func() {
		restoreHormones(l.state.Hormones, hormonesBefore)
	})

	muscleBefore := l.state.Muscle
	l.runGuarded("muscle", func() { l.muscle.Update(l.state, dtGame) }, func() {
		l.state.Muscle = muscleBefore
	})
}

func (l *Loop) runGuarded(name string, update func(), restore func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Module %s panicked mid-tick, pre-update state retained: %v", name, r)
			restore()
		}
	}()
	update()
}

// maybeBroadcast emits a state notification if enough wall-clock time has
// passed since the previous one. High tick rates must not flood subscribers.
func (l *Loop) maybeBroadcast() {
	if l.broadcaster == nil {
		return
	}
	now := time.Now()
	if now.Sub(l.lastBroadcast) < l.cfg.BroadcastInterval {
		metrics.Get().RecordBroadcast(false)
		return
	}
	payload, err := json.Marshal(l.state)
	if err != nil {
		l.logger.Error("Failed to serialize state for broadcast: %v", err)
		return
	}
	l.lastBroadcast = now
	metrics.Get().RecordBroadcast(true)
	l.broadcaster.BroadcastState(l.state.SessionID, payload)
}

// ScheduleEvent queues an external stimulus. Duplicate ids are a silent
// no-op; the return value reports acceptance.
func (l *Loop) ScheduleEvent(ev events.ScheduledEvent) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ev.ID == "" {
		ev.ID = events.GenerateEventID()
	}
	accepted := l.scheduler.Schedule(ev)
	if !accepted {
		l.logger.Warn("Duplicate event id %s ignored (session %s)", ev.ID, l.state.SessionID)
	}
	return accepted
}

// SetTimeScale changes the clock multiplier for subsequent ticks.
func (l *Loop) SetTimeScale(scale float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.clock.SetTimeScale(scale); err != nil {
		return err
	}
	l.state.Settings.TimeScale = scale
	return nil
}

// SetPaused freezes or resumes the session clock.
func (l *Loop) SetPaused(paused bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.clock.SetPaused(paused)
	l.state.Settings.Paused = paused
}

// ApplyStress mutates state directly, bypassing the event queue. Allowed
// even while paused.
func (l *Loop) ApplyStress(intensity float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.exercise.ApplyStress(l.state, events.StressPayload{Intensity: intensity}, l.state.GameTime)
}

// ApplySleep mutates state directly, bypassing the event queue. Allowed even
// while paused.
func (l *Loop) ApplySleep(hours, quality float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.exercise.ApplySleep(l.state, events.SleepPayload{Hours: hours, Quality: quality}, l.state.GameTime)
	l.state.LogSleep(body.ActivityRecord{
		EventID:  events.GenerateEventID(),
		Kind:     string(events.EventTypeSleep),
		GameTime: l.state.GameTime,
		LoggedAt: time.Now(),
		Summary:  fmt.Sprintf("%.1fh q=%.2f (direct)", hours, quality),
	})
}

// Snapshot returns the state serialized to JSON under the loop lock.
func (l *Loop) Snapshot() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return json.Marshal(l.state)
}

// State exposes the aggregate root for in-process callers (dayrunner,
// tests). Callers must not mutate it concurrently with a running loop.
func (l *Loop) State() *body.SimulationState {
	return l.state
}

// PendingEvents returns the number of queued events.
func (l *Loop) PendingEvents() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scheduler.Len()
}

func activityRecord(ev events.ScheduledEvent, gameTime float64, summary string) body.ActivityRecord {
	return body.ActivityRecord{
		EventID:  ev.ID,
		Kind:     string(ev.Type),
		GameTime: gameTime,
		LoggedAt: time.Now(),
		Summary:  summary,
	}
}

func decodePayload(payload interface{}, out interface{}) error {
	raw, ok := payload.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = b
	}
	return json.Unmarshal(raw, out)
}

func cloneHormones(src map[body.HormoneID]*body.HormoneState) map[body.HormoneID]body.HormoneState {
	out := make(map[body.HormoneID]body.HormoneState, len(src))
	for id, hs := range src {
		out[id] = *hs
	}
	return out
}

func restoreHormones(dst map[body.HormoneID]*body.HormoneState, snapshot map[body.HormoneID]body.HormoneState) {
	for id, hs := range snapshot {
		if cur, ok := dst[id]; ok {
			*cur = hs
		}
	}
}
