package sim

import (
	"fmt"

	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/events"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
)

// ExerciseDeps is the capability record handed to the ExerciseModule.
type ExerciseDeps struct {
	Energy   *EnergyModule
	Hormones *HormoneModule
	Muscle   *MuscleModule
}

// ExerciseModule translates workout, sleep and stress events into calls
// against Energy/Hormone/Muscle.
type ExerciseModule struct {
	deps   ExerciseDeps
	logger *logger.Logger
}

// NewExerciseModule creates the workout/sleep/stress orchestrator.
func NewExerciseModule(deps ExerciseDeps, log *logger.Logger) *ExerciseModule {
	return &ExerciseModule{deps: deps, logger: log}
}

// ApplyExercise dispatches a workout session.
func (xm *ExerciseModule) ApplyExercise(state *body.SimulationState, session events.ExercisePayload, now float64) {
	intensity := clamp(session.PerceivedExertion/10, 0, 1)
	durMin := session.TotalDurationSeconds() / 60
	resistance := session.Category == events.CategoryResistance

	xm.deps.Energy.ApplyExercise(state, durMin, intensity)
	xm.deps.Hormones.AddStimuli(state, ExerciseStimuli(StateRanges(state.Hormones), resistance, intensity, durMin), now)
	if resistance {
		xm.deps.Muscle.OnResistanceExercise(state, intensity)
	}

	xm.logger.Event("EXERCISE", state.SessionID,
		fmt.Sprintf("category=%s rpe=%.0f dur=%.0fmin", session.Category, session.PerceivedExertion, durMin))
}

// ApplySleep dispatches a sleep block. Also reachable directly while the
// loop is paused.
func (xm *ExerciseModule) ApplySleep(state *body.SimulationState, sleep events.SleepPayload, now float64) {
	quality := clamp(sleep.Quality, 0, 1)

	xm.deps.Hormones.AddStimuli(state, SleepStimuli(StateRanges(state.Hormones), sleep.Hours, quality), now)
	xm.deps.Muscle.OnSleep(state, sleep.Hours, quality)

	xm.logger.Event("SLEEP", state.SessionID,
		fmt.Sprintf("hours=%.1f quality=%.2f", sleep.Hours, quality))
}

// ApplyStress dispatches an acute stressor. Also reachable directly while
// the loop is paused.
func (xm *ExerciseModule) ApplyStress(state *body.SimulationState, stress events.StressPayload, now float64) {
	intensity := clamp(stress.Intensity, 0, 1)

	xm.deps.Hormones.AddStimuli(state, StressStimuli(StateRanges(state.Hormones), intensity), now)
	state.Muscle.CentralFatigue = clamp(state.Muscle.CentralFatigue+0.1*intensity, 0, 1)

	xm.logger.Event("STRESS", state.SessionID, fmt.Sprintf("intensity=%.2f", intensity))
}
