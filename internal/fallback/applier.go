package fallback

import (
	"errors"

	"github.com/MTorner/GemeloVital/server/internal/events"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
	"github.com/MTorner/GemeloVital/server/internal/sim"
)

// ErrDisconnected signals that the authoritative loop is unreachable.
var ErrDisconnected = errors.New("authoritative loop unreachable")

// Applier applies a domain event, either against the authoritative loop or
// against the local approximation. Calling code is agnostic to which ran.
type Applier interface {
	ApplyMeal(nowMin float64, meal events.MealPayload) error
	ApplyExercise(nowMin float64, session events.ExercisePayload) error
	ApplySleep(nowMin float64, sleep events.SleepPayload) error
	ApplyStress(nowMin float64, stress events.StressPayload) error
}

// AuthoritativeClient is the thin surface the remote applier needs.
type AuthoritativeClient interface {
	// Connected reports whether the loop is currently reachable.
	Connected() bool
	// ScheduleEvent forwards an event to the loop's scheduler.
	ScheduleEvent(ev events.ScheduledEvent) error
}

// RemoteApplier forwards events to the authoritative loop.
type RemoteApplier struct {
	client AuthoritativeClient
}

// NewRemoteApplier wraps an authoritative client.
func NewRemoteApplier(client AuthoritativeClient) *RemoteApplier {
	return &RemoteApplier{client: client}
}

func (r *RemoteApplier) schedule(t events.EventType, nowMin float64, payload interface{}) error {
	if !r.client.Connected() {
		return ErrDisconnected
	}
	return r.client.ScheduleEvent(events.ScheduledEvent{
		ID:            events.GenerateEventID(),
		Type:          t,
		ScheduledTime: nowMin * 60,
		Payload:       payload,
	})
}

func (r *RemoteApplier) ApplyMeal(nowMin float64, meal events.MealPayload) error {
	return r.schedule(events.EventTypeMeal, nowMin, meal)
}

func (r *RemoteApplier) ApplyExercise(nowMin float64, session events.ExercisePayload) error {
	return r.schedule(events.EventTypeExercise, nowMin, session)
}

func (r *RemoteApplier) ApplySleep(nowMin float64, sleep events.SleepPayload) error {
	return r.schedule(events.EventTypeSleep, nowMin, sleep)
}

func (r *RemoteApplier) ApplyStress(nowMin float64, stress events.StressPayload) error {
	return r.schedule(events.EventTypeStress, nowMin, stress)
}

// LocalApplier computes effects against an EffectStore using the same
// stimulus tables as the authoritative modules, but with the fallback decay
// law. Effects store the deviation from baseline so expiry lands back on
// baseline rather than zero.
type LocalApplier struct {
	store *EffectStore
}

// NewLocalApplier wraps an effect store.
func NewLocalApplier(store *EffectStore) *LocalApplier {
	return &LocalApplier{store: store}
}

func (l *LocalApplier) addStimuli(nowMin float64, stimuli []sim.Stimulus) {
	ranges := l.store.Ranges()
	for _, st := range stimuli {
		l.store.Add(ActiveHormoneEffect{
			Hormone:     st.Hormone,
			TargetValue: st.TargetPeak - ranges.Baseline(st.Hormone),
			StartTime:   nowMin,
			Duration:    st.DurationMin,
		})
	}
}

func (l *LocalApplier) ApplyMeal(nowMin float64, meal events.MealPayload) error {
	l.addStimuli(nowMin, sim.MealStimuli(l.store.Ranges(), meal.GlycemicLoad, meal.TotalMacros.Proteins))
	l.store.SetGlucoseEffect(sim.GlucosePeakDelta(meal.GlycemicLoad), nowMin)
	return nil
}

func (l *LocalApplier) ApplyExercise(nowMin float64, session events.ExercisePayload) error {
	intensity := session.PerceivedExertion / 10
	durMin := session.TotalDurationSeconds() / 60
	resistance := session.Category == events.CategoryResistance
	l.addStimuli(nowMin, sim.ExerciseStimuli(l.store.Ranges(), resistance, intensity, durMin))
	return nil
}

func (l *LocalApplier) ApplySleep(nowMin float64, sleep events.SleepPayload) error {
	l.addStimuli(nowMin, sim.SleepStimuli(l.store.Ranges(), sleep.Hours, sleep.Quality))
	return nil
}

func (l *LocalApplier) ApplyStress(nowMin float64, stress events.StressPayload) error {
	l.addStimuli(nowMin, sim.StressStimuli(l.store.Ranges(), stress.Intensity))
	return nil
}

// Dispatcher tries the authoritative path first and falls back to the local
// approximation when it is unreachable. Never a fatal error for the caller.
type Dispatcher struct {
	remote      Applier
	local       Applier
	reconnector *Reconnector
	logger      *logger.Logger
}

// NewDispatcher builds the dual-path applier.
func NewDispatcher(remote, local Applier, rec *Reconnector, log *logger.Logger) *Dispatcher {
	return &Dispatcher{remote: remote, local: local, reconnector: rec, logger: log}
}

func (d *Dispatcher) apply(nowMin float64, viaRemote func(Applier) error) error {
	if d.reconnector == nil || !d.reconnector.Permanent() {
		if err := viaRemote(d.remote); err == nil {
			return nil
		} else if !errors.Is(err, ErrDisconnected) {
			return err
		}
		d.logger.Warn("Authoritative loop unreachable, applying locally")
		if d.reconnector != nil {
			d.reconnector.ScheduleRetry()
		}
	}
	return viaRemote(d.local)
}

func (d *Dispatcher) ApplyMeal(nowMin float64, meal events.MealPayload) error {
	return d.apply(nowMin, func(a Applier) error { return a.ApplyMeal(nowMin, meal) })
}

func (d *Dispatcher) ApplyExercise(nowMin float64, session events.ExercisePayload) error {
	return d.apply(nowMin, func(a Applier) error { return a.ApplyExercise(nowMin, session) })
}

func (d *Dispatcher) ApplySleep(nowMin float64, sleep events.SleepPayload) error {
	return d.apply(nowMin, func(a Applier) error { return a.ApplySleep(nowMin, sleep) })
}

func (d *Dispatcher) ApplyStress(nowMin float64, stress events.StressPayload) error {
	return d.apply(nowMin, func(a Applier) error { return a.ApplyStress(nowMin, stress) })
}
