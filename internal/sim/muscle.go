package sim

import (
	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
)

// MuscleModule tracks protein turnover, mTOR signaling and recovery. It runs
// last in the tick order because it reads both hormonal and energy state.
type MuscleModule struct {
	logger *logger.Logger

	// leucineWindow marks game time until which a recent protein feeding
	// keeps the leucine threshold satisfied.
	leucineWindowEnd float64
}

// NewMuscleModule creates the muscle manager.
func NewMuscleModule(log *logger.Logger) *MuscleModule {
	return &MuscleModule{logger: log}
}

// OnResistanceExercise raises muscle damage and mTOR proportionally to
// intensity (rpe/10).
func (mm *MuscleModule) OnResistanceExercise(state *body.SimulationState, intensity float64) {
	state.Muscle.MuscleDamage = clamp(state.Muscle.MuscleDamage+30*intensity, 0, 100)
	state.Muscle.MTORActivity = clamp(state.Muscle.MTORActivity+0.5*intensity, 0, 1)
	state.Muscle.CentralFatigue = clamp(state.Muscle.CentralFatigue+0.2*intensity, 0, 1)
}

// OnProteinIntake opens the leucine window when a feeding carries enough
// protein to plausibly cross the threshold.
func (mm *MuscleModule) OnProteinIntake(state *body.SimulationState, proteinGrams float64, now float64) {
	if proteinGrams >= 20 {
		// ~3 hours of anabolic signaling per substantial feeding.
		mm.leucineWindowEnd = now + 180*60
		state.Muscle.MTORActivity = clamp(state.Muscle.MTORActivity+0.15, 0, 1)
	}
}

// OnSleep applies the restorative deltas, all floored at zero.
func (mm *MuscleModule) OnSleep(state *body.SimulationState, hours, quality float64) {
	state.Muscle.SleepDebt = clamp(state.Muscle.SleepDebt-hours, 0, 100)
	state.Muscle.CentralFatigue = clamp(state.Muscle.CentralFatigue-0.3*quality, 0, 1)
	state.Muscle.MuscleDamage = clamp(state.Muscle.MuscleDamage-0.2*quality*state.Muscle.MuscleDamage, 0, 100)
}

// Update advances turnover rates and recovery from the current hormonal and
// energy picture.
func (mm *MuscleModule) Update(state *body.SimulationState, dtGameSeconds float64) {
	dtMin := dtGameSeconds / 60
	m := &state.Muscle

	// Awake time accrues sleep debt: one hour of debt per 16 awake.
	m.SleepDebt = clamp(m.SleepDebt+dtMin/60/16, 0, 100)

	// mTOR decays toward its resting tone unless the leucine window and
	// insulin sufficiency keep it propped up.
	insulin := state.Hormones[body.HormoneInsulin]
	insulinSufficient := insulin != nil && insulin.CurrentValue > insulin.Baseline*1.2
	leucineOK := state.GameTime < mm.leucineWindowEnd

	restingTone := 0.2
	if leucineOK && insulinSufficient {
		restingTone = 0.5
	}
	m.MTORActivity += (restingTone - m.MTORActivity) * minf(dtMin*0.02, 1)
	m.MTORActivity = clamp(m.MTORActivity, 0, 1)

	// Synthesis scales with mTOR plus the anabolic hormones; breakdown with
	// cortisol and an energy deficit.
	testo := hormoneValue(state, body.HormoneTestosterone)
	gh := hormoneValue(state, body.HormoneGrowthHormone)
	cortisol := hormoneValue(state, body.HormoneCortisol)

	m.ProteinSynthesisRate = clamp(20+60*m.MTORActivity+testo*0.5+gh*0.5, 0, 100)

	deficitPenalty := 0.0
	if state.Energy.CaloriesOut > state.Energy.CaloriesIn {
		deficitPenalty = 5
	}
	m.ProteinBreakdownRate = clamp(15+cortisol*1.2+m.MuscleDamage*0.2+deficitPenalty, 0, 100)

	// Damage repairs slowly on its own; repair stalls when sleep debt piles up.
	repairPerMin := 0.02
	if m.SleepDebt > 8 {
		repairPerMin = 0.005
	}
	m.MuscleDamage = clamp(m.MuscleDamage-repairPerMin*dtMin, 0, 100)

	m.RecoveryStatus = clamp(100-m.MuscleDamage*0.6-m.SleepDebt*3-m.CentralFatigue*20, 0, 100)
}

func hormoneValue(state *body.SimulationState, id body.HormoneID) float64 {
	if hs, ok := state.Hormones[id]; ok {
		return hs.CurrentValue
	}
	return 0
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
