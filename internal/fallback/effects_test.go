package fallback

import (
	"math"
	"testing"

	"github.com/MTorner/GemeloVital/server/internal/domain/body"
)

func TestHormoneValueDecaysToBaseline(t *testing.T) {
	store := NewEffectStore()
	store.Add(ActiveHormoneEffect{
		Hormone:     body.HormoneCortisol,
		TargetValue: 10, // deviation from baseline 10
		StartTime:   0,
		Duration:    60,
	})

	at0 := store.HormoneValue(body.HormoneCortisol, 0)
	if math.Abs(at0-20) > 1e-6 {
		t.Errorf("Expected full deviation 20 at start, got %v", at0)
	}

	at30 := store.HormoneValue(body.HormoneCortisol, 30)
	if at30 <= 10 || at30 >= at0 {
		t.Errorf("Expected partial decay between baseline and start, got %v", at30)
	}

	at61 := store.HormoneValue(body.HormoneCortisol, 61)
	if math.Abs(at61-10) > 1e-6 {
		t.Errorf("Expected baseline 10 after expiry, got %v", at61)
	}
}

func TestExpiredEffectsPrunedOnRead(t *testing.T) {
	store := NewEffectStore()
	store.Add(ActiveHormoneEffect{Hormone: body.HormoneInsulin, TargetValue: 9, StartTime: 0, Duration: 30})
	store.Add(ActiveHormoneEffect{Hormone: body.HormoneInsulin, TargetValue: 5, StartTime: 10, Duration: 120})

	if got := store.ActiveCount(body.HormoneInsulin, 15); got != 2 {
		t.Errorf("Expected 2 active effects, got %d", got)
	}

	store.HormoneValue(body.HormoneInsulin, 40) // first effect expired at 30
	if got := store.ActiveCount(body.HormoneInsulin, 40); got != 1 {
		t.Errorf("Expected expired effect pruned, got %d active", got)
	}
}

func TestLastWriteVisibility(t *testing.T) {
	store := NewEffectStore()
	store.Add(ActiveHormoneEffect{Hormone: body.HormoneCortisol, TargetValue: 5, StartTime: 0, Duration: 120})
	store.Add(ActiveHormoneEffect{Hormone: body.HormoneCortisol, TargetValue: 12, StartTime: 0, Duration: 120})

	// Only the most recently added effect is visible, not the sum.
	got := store.HormoneValue(body.HormoneCortisol, 0)
	if math.Abs(got-22) > 1e-6 {
		t.Errorf("Expected latest effect only (baseline 10 + 12), got %v", got)
	}
}

func TestHormoneValueClamped(t *testing.T) {
	store := NewEffectStore()
	store.Add(ActiveHormoneEffect{Hormone: body.HormoneGrowthHormone, TargetValue: 500, StartTime: 0, Duration: 60})

	got := store.HormoneValue(body.HormoneGrowthHormone, 0)
	if got != 20 {
		t.Errorf("Expected clamp at peak 20, got %v", got)
	}

	store.Add(ActiveHormoneEffect{Hormone: body.HormoneGhrelin, TargetValue: -500, StartTime: 0, Duration: 60})
	got = store.HormoneValue(body.HormoneGhrelin, 0)
	if got != 50 {
		t.Errorf("Expected clamp at trough 50, got %v", got)
	}
}

func TestGlucoseSingleSlot(t *testing.T) {
	store := NewEffectStore()
	if got := store.GlucoseValue(0); got != body.GlucoseBaseline {
		t.Errorf("Expected baseline with no effect, got %v", got)
	}

	store.SetGlucoseEffect(40, 0)
	if got := store.GlucoseValue(15); math.Abs(got-105) > 1e-6 {
		t.Errorf("Expected mid-rise 105, got %v", got)
	}
	if got := store.GlucoseValue(30); math.Abs(got-125) > 1e-6 {
		t.Errorf("Expected peak 125, got %v", got)
	}
	if got := store.GlucoseValue(45); math.Abs(got-105) > 1e-6 {
		t.Errorf("Expected mid-fall 105, got %v", got)
	}

	// A second meal replaces the slot outright.
	store.SetGlucoseEffect(20, 45)
	if got := store.GlucoseValue(75); math.Abs(got-105) > 1e-6 {
		t.Errorf("Expected replacement effect peak 105, got %v", got)
	}

	if got := store.GlucoseValue(200); got != body.GlucoseBaseline {
		t.Errorf("Expected baseline after expiry, got %v", got)
	}
}
