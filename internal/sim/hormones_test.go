package sim

import (
	"math"
	"testing"

	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
)

func TestStimulusReachesTargetAtPeak(t *testing.T) {
	log := logger.NewLogger()
	hm := NewHormoneModule(log)
	state := newTestState()

	// Insulin toward 14 over 120 minutes; Gaussian peak at minute 30.
	hm.AddStimulus(state, Stimulus{body.HormoneInsulin, 14, 120}, 0)

	state.GameTime = 30 * 60
	hm.Update(state, 0)

	got := state.Hormones[body.HormoneInsulin].CurrentValue
	if math.Abs(got-14) > 1e-6 {
		t.Errorf("Expected insulin 14 at stimulus peak, got %v", got)
	}
}

func TestClampToPeakCeiling(t *testing.T) {
	log := logger.NewLogger()
	hm := NewHormoneModule(log)
	state := newTestState()

	// Sleep 8h quality 0.9 drives growthHormone toward 37, far above its
	// ceiling of 20: the clamp must hold.
	hm.AddStimuli(state, SleepStimuli(StateRanges(state.Hormones), 8, 0.9), 0)

	gh := state.Hormones[body.HormoneGrowthHormone]
	for minutes := 0.0; minutes <= 200; minutes += 5 {
		state.GameTime = minutes * 60
		hm.Update(state, 5*60)
		if gh.CurrentValue > gh.Peak || gh.CurrentValue < gh.Trough {
			t.Fatalf("growthHormone %v outside [%v, %v] at %vmin", gh.CurrentValue, gh.Trough, gh.Peak, minutes)
		}
	}

	// And the ceiling is actually reached at the stimulus peak.
	state.GameTime = 45 * 60 // duration 180 -> peak at 45
	hm.Update(state, 0)
	if math.Abs(gh.CurrentValue-gh.Peak) > 1e-6 {
		t.Errorf("Expected growthHormone pinned at ceiling %v, got %v", gh.Peak, gh.CurrentValue)
	}
}

func TestClampInvariantUnderStackedStimuli(t *testing.T) {
	log := logger.NewLogger()
	hm := NewHormoneModule(log)
	state := newTestState()
	ranges := StateRanges(state.Hormones)

	// Pile everything on at once.
	hm.AddStimuli(state, StressStimuli(ranges, 1.0), 0)
	hm.AddStimuli(state, ExerciseStimuli(ranges, true, 1.0, 90), 10*60)
	hm.AddStimuli(state, MealStimuli(ranges, 80, 50), 20*60)
	hm.AddStimuli(state, SleepStimuli(ranges, 10, 1.0), 30*60)

	for minutes := 0.0; minutes <= 400; minutes += 7 {
		state.GameTime = minutes * 60
		hm.Update(state, 7*60)
		for _, id := range body.AllHormones {
			hs := state.Hormones[id]
			if hs.CurrentValue < hs.Trough || hs.CurrentValue > hs.Peak {
				t.Fatalf("%s = %v outside [%v, %v] at %vmin", id, hs.CurrentValue, hs.Trough, hs.Peak, minutes)
			}
		}
	}
}

func TestTrendFollowsValueChange(t *testing.T) {
	log := logger.NewLogger()
	hm := NewHormoneModule(log)
	state := newTestState()

	hm.AddStimulus(state, Stimulus{body.HormoneCortisol, 20, 120}, 0)
	cort := state.Hormones[body.HormoneCortisol]

	// Climbing toward the peak at minute 30.
	state.GameTime = 10 * 60
	hm.Update(state, 10*60)
	state.GameTime = 20 * 60
	hm.Update(state, 10*60)
	if cort.Trend != 1 {
		t.Errorf("Expected rising trend on the way up, got %d", cort.Trend)
	}

	// Past the peak the value falls.
	state.GameTime = 60 * 60
	hm.Update(state, 40*60)
	if cort.Trend != -1 {
		t.Errorf("Expected falling trend past the peak, got %d", cort.Trend)
	}
}

func TestExpiredStimuliPruned(t *testing.T) {
	log := logger.NewLogger()
	hm := NewHormoneModule(log)
	state := newTestState()

	hm.AddStimulus(state, Stimulus{body.HormoneInsulin, 14, 60}, 0)
	if hm.ActiveStimuli(body.HormoneInsulin) != 1 {
		t.Fatalf("Expected one active stimulus")
	}

	state.GameTime = 61 * 60
	hm.Update(state, 61*60)
	if hm.ActiveStimuli(body.HormoneInsulin) != 0 {
		t.Errorf("Expected expired stimulus pruned")
	}
	got := state.Hormones[body.HormoneInsulin].CurrentValue
	if math.Abs(got-5) > 1e-6 {
		t.Errorf("Expected insulin back at baseline 5, got %v", got)
	}
}

func TestSensitivityScalesResponse(t *testing.T) {
	log := logger.NewLogger()
	hm := NewHormoneModule(log)
	state := newTestState()
	state.Hormones[body.HormoneInsulin].Sensitivity = 0.5

	hm.AddStimulus(state, Stimulus{body.HormoneInsulin, 15, 120}, 0)
	state.GameTime = 30 * 60
	hm.Update(state, 0)

	// Half sensitivity: baseline 5 + 0.5*(15-5) = 10.
	got := state.Hormones[body.HormoneInsulin].CurrentValue
	if math.Abs(got-10) > 1e-6 {
		t.Errorf("Expected damped response 10, got %v", got)
	}
}
