package sim

import (
	"github.com/MTorner/GemeloVital/server/internal/domain/body"
)

// Stimulus is one hormone response demanded by a domain event: drive the
// hormone toward TargetPeak over DurationMin minutes.
type Stimulus struct {
	Hormone     body.HormoneID
	TargetPeak  float64
	DurationMin float64
}

// Ranges exposes the baseline/trough a stimulus table needs per hormone.
// Both the authoritative modules and the client fallback derive their
// stimuli from the same tables; only the decay law differs between them.
type Ranges interface {
	Baseline(h body.HormoneID) float64
	Trough(h body.HormoneID) float64
}

// StateRanges adapts a live hormonal state map to the Ranges interface.
type StateRanges map[body.HormoneID]*body.HormoneState

func (r StateRanges) Baseline(h body.HormoneID) float64 { return r[h].Baseline }
func (r StateRanges) Trough(h body.HormoneID) float64   { return r[h].Trough }

// MealStimuli returns the hormone responses to a meal with the given glycemic
// load and protein grams.
func MealStimuli(r Ranges, glycemicLoad, proteinGrams float64) []Stimulus {
	stimuli := []Stimulus{
		{body.HormoneInsulin, r.Baseline(body.HormoneInsulin) + glycemicLoad*0.3, 120},
		{body.HormoneGlucagon, r.Baseline(body.HormoneGlucagon) * 0.7, 90},
		{body.HormoneCortisol, r.Baseline(body.HormoneCortisol) * 0.8, 60},
	}
	if proteinGrams > 20 {
		stimuli = append(stimuli,
			Stimulus{body.HormoneTestosterone, r.Baseline(body.HormoneTestosterone) * 1.2, 180},
		)
	}
	stimuli = append(stimuli,
		Stimulus{body.HormoneGhrelin, r.Trough(body.HormoneGhrelin), 180},
	)
	return stimuli
}

// ExerciseStimuli returns the hormone responses to a workout. intensity is
// rpe/10, durMin the session length in minutes.
func ExerciseStimuli(r Ranges, resistance bool, intensity, durMin float64) []Stimulus {
	stimuli := []Stimulus{
		{body.HormoneCortisol, r.Baseline(body.HormoneCortisol) + 15*intensity, 60 + durMin*2},
		{body.HormoneEpinephrine, r.Baseline(body.HormoneEpinephrine) + 70*intensity, 30 + durMin},
	}
	if intensity > 0.6 {
		stimuli = append(stimuli,
			Stimulus{body.HormoneGrowthHormone, r.Baseline(body.HormoneGrowthHormone) + 10*intensity, 120},
		)
	}
	if resistance {
		stimuli = append(stimuli,
			Stimulus{body.HormoneTestosterone, r.Baseline(body.HormoneTestosterone) + 10*intensity, 90},
		)
	}
	stimuli = append(stimuli,
		Stimulus{body.HormoneGlucagon, r.Baseline(body.HormoneGlucagon) + 20*intensity, 60 + durMin},
		Stimulus{body.HormoneInsulin, r.Baseline(body.HormoneInsulin) * 0.5, 60 + durMin},
	)
	if intensity > 0.7 { // strictly greater: rpe 7 does not trigger ghrelin
		stimuli = append(stimuli,
			Stimulus{body.HormoneGhrelin, r.Baseline(body.HormoneGhrelin) + 50*intensity, 120},
		)
	}
	return stimuli
}

// SleepStimuli returns the hormone responses to a sleep block.
func SleepStimuli(r Ranges, hours, quality float64) []Stimulus {
	return []Stimulus{
		{body.HormoneCortisol, r.Baseline(body.HormoneCortisol) * (1 - 0.3*quality), 240},
		{body.HormoneGrowthHormone, r.Baseline(body.HormoneGrowthHormone) + 5*hours*quality, 180},
		{body.HormoneTestosterone, r.Baseline(body.HormoneTestosterone) * (1 + 0.3*hours*quality), 360},
		{body.HormoneInsulin, r.Baseline(body.HormoneInsulin) * 0.8, 180},
		{body.HormoneGhrelin, r.Baseline(body.HormoneGhrelin), 120},
		{body.HormoneLeptin, r.Baseline(body.HormoneLeptin) * (1 + 0.2*hours*quality), 240},
	}
}

// StressStimuli returns the hormone responses to an acute stressor.
func StressStimuli(r Ranges, intensity float64) []Stimulus {
	return []Stimulus{
		{body.HormoneCortisol, r.Baseline(body.HormoneCortisol) + 15*intensity, 180},
		{body.HormoneEpinephrine, r.Baseline(body.HormoneEpinephrine) + 50*intensity, 60},
		{body.HormoneInsulin, r.Baseline(body.HormoneInsulin) * (1 + 0.3*intensity), 120},
		{body.HormoneTestosterone, r.Baseline(body.HormoneTestosterone) * (1 - 0.2*intensity), 240},
		{body.HormoneGhrelin, r.Baseline(body.HormoneGhrelin) + 40*intensity, 120},
	}
}
