package sim

import (
	"math"

	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
)

// glucoseRiseMinutes is the fixed time-to-peak of a meal's glucose response;
// the fall phase mirrors it, so the whole excursion lasts twice this.
const glucoseRiseMinutes = 30.0

// glucoseEffect is one meal's triangular excursion above baseline.
type glucoseEffect struct {
	peakDelta     float64 // mg/dL above baseline at the peak
	startGameTime float64 // game seconds
}

// deltaAt returns the excursion at elapsed minutes t: linear rise to the peak
// over the rise window, linear fall back over an equal window, exactly zero
// after that.
func (g glucoseEffect) deltaAt(t float64) float64 {
	switch {
	case t < 0:
		return 0
	case t <= glucoseRiseMinutes:
		return g.peakDelta * (t / glucoseRiseMinutes)
	case t <= 2*glucoseRiseMinutes:
		return g.peakDelta * (1 - (t-glucoseRiseMinutes)/glucoseRiseMinutes)
	default:
		return 0
	}
}

func (g glucoseEffect) expired(t float64) bool {
	return t >= 2*glucoseRiseMinutes
}

// phaseTrend implements the documented trend: 1 while rising, -1 in the first
// half of the fall phase, 0 otherwise.
func (g glucoseEffect) phaseTrend(t float64) int {
	switch {
	case t >= 0 && t < glucoseRiseMinutes:
		return 1
	case t >= glucoseRiseMinutes && t < glucoseRiseMinutes*1.5:
		return -1
	default:
		return 0
	}
}

// GlucosePeakDelta is the meal response magnitude for a glycemic load:
// round(20 + L*2.5) mg/dL above baseline.
func GlucosePeakDelta(glycemicLoad float64) float64 {
	return math.Round(20 + glycemicLoad*2.5)
}

// EnergyModule tracks glucose, glycogen and the calorie ledger. It runs first
// in the tick order; HormoneModule and MuscleModule read its outputs.
type EnergyModule struct {
	logger  *logger.Logger
	effects []glucoseEffect
}

// NewEnergyModule creates the energy manager.
func NewEnergyModule(log *logger.Logger) *EnergyModule {
	return &EnergyModule{logger: log}
}

// ApplyMeal records the glucose excursion, calorie intake and glycogen
// refill for a meal.
func (em *EnergyModule) ApplyMeal(state *body.SimulationState, glycemicLoad float64, macros body.Macros, now float64) {
	em.effects = append(em.effects, glucoseEffect{
		peakDelta:     GlucosePeakDelta(glycemicLoad),
		startGameTime: now,
	})

	state.Energy.CaloriesIn += macros.Calories()

	// Roughly 40% of dietary carbs reach the glycogen stores.
	state.Energy.GlycogenGrams = clamp(
		state.Energy.GlycogenGrams+macros.Carbohydrates*0.4,
		0, state.Energy.GlycogenCapacity,
	)
}

// ApplyExercise charges the calorie ledger and drains glycogen. Draw shifts
// toward carbohydrate as intensity rises.
func (em *EnergyModule) ApplyExercise(state *body.SimulationState, durMin, intensity float64) {
	kcal := durMin * (3 + 8*intensity) * (state.Profile.WeightKg / 70)
	state.Energy.CaloriesOut += kcal

	carbShare := clamp(0.3+0.6*intensity, 0, 0.9)
	state.Energy.GlycogenGrams = clamp(
		state.Energy.GlycogenGrams-kcal*carbShare/4,
		0, state.Energy.GlycogenCapacity,
	)
}

// Update advances the calorie drip, recomputes glucose from active meal
// effects and derives substrate utilization from the insulin level.
func (em *EnergyModule) Update(state *body.SimulationState, dtGameSeconds float64) {
	now := state.GameTime
	dtMin := dtGameSeconds / 60

	// Resting expenditure drip.
	restingPerMin := state.Profile.BasalMetabolicRate() * state.Profile.ActivityLevel / 1440
	state.Energy.CaloriesOut += restingPerMin * dtMin

	// Resting glycogen draw covers the carbohydrate share of the drip.
	carbShare := 1 - state.Energy.FatUtilization
	state.Energy.GlycogenGrams = clamp(
		state.Energy.GlycogenGrams-restingPerMin*dtMin*carbShare/4,
		0, state.Energy.GlycogenCapacity,
	)

	// Glucose: baseline plus every active meal excursion; trend follows the
	// most recent effect's phase so the documented rise/fall semantics hold.
	var delta float64
	trend := 0
	active := em.effects[:0]
	for _, eff := range em.effects {
		t := (now - eff.startGameTime) / 60
		if eff.expired(t) {
			continue
		}
		active = append(active, eff)
		delta += eff.deltaAt(t)
		trend = eff.phaseTrend(t)
	}
	em.effects = active
	state.Energy.Glucose = body.GlucoseBaseline + delta
	state.Energy.GlucoseTrend = trend

	// High insulin suppresses fat oxidation.
	if ins, ok := state.Hormones[body.HormoneInsulin]; ok {
		state.Energy.FatUtilization = clamp(0.85-0.012*ins.CurrentValue, 0.1, 0.9)
	}
}

// ActiveGlucoseEffects returns how many meal excursions are in flight.
func (em *EnergyModule) ActiveGlucoseEffects() int {
	return len(em.effects)
}
