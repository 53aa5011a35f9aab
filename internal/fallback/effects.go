// Package fallback is the disconnected-client approximation of the engine.
// It is pull-based: nothing ticks, values are computed on read from decaying
// active effects. It intentionally uses a different decay law than the
// authoritative loop (ease-out cubic vs. Gaussian); the two are documented,
// divergent approximations and must not be unified silently.
package fallback

import (
	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/sim"
)

// ActiveHormoneEffect is a time-bounded decaying deviation applied to one
// hormone. TargetValue is the deviation from baseline at effect start; it
// eases out to zero over Duration.
type ActiveHormoneEffect struct {
	Hormone     body.HormoneID `json:"hormone"`
	TargetValue float64        `json:"target_value"`
	StartTime   float64        `json:"start_time"` // minutes
	Duration    float64        `json:"duration"`   // minutes
}

// Expired reports whether the effect should be garbage-collected.
func (e ActiveHormoneEffect) Expired(nowMin float64) bool {
	return nowMin-e.StartTime >= e.Duration
}

// ContributionAt evaluates the ease-out decay at nowMin.
func (e ActiveHormoneEffect) ContributionAt(nowMin float64) float64 {
	return sim.DecayEffect{TargetValue: e.TargetValue, DurationMin: e.Duration}.
		ValueAt(nowMin - e.StartTime)
}

// glucoseSlot is the single current glucose excursion; a new meal replaces it.
type glucoseSlot struct {
	peakDelta float64
	startMin  float64
}

// EffectStore holds the fallback engine's active effects. One store exists
// per client instance and is passed by reference, never shared globally, so
// multiple simulated sessions can coexist in one process.
type EffectStore struct {
	effects map[body.HormoneID][]ActiveHormoneEffect
	glucose *glucoseSlot
	ranges  map[body.HormoneID]*body.HormoneState
}

// NewEffectStore creates an empty store seeded with the default hormone ranges.
func NewEffectStore() *EffectStore {
	return &EffectStore{
		effects: make(map[body.HormoneID][]ActiveHormoneEffect),
		ranges:  body.NewHormonalState(),
	}
}

// Add registers an effect. Multiple effects per hormone coexist and are
// evaluated independently.
func (s *EffectStore) Add(effect ActiveHormoneEffect) {
	s.effects[effect.Hormone] = append(s.effects[effect.Hormone], effect)
}

// SetGlucoseEffect replaces the current glucose excursion.
func (s *EffectStore) SetGlucoseEffect(peakDelta, startMin float64) {
	s.glucose = &glucoseSlot{peakDelta: peakDelta, startMin: startMin}
}

// HormoneValue returns the hormone's approximate value at nowMin: baseline
// plus the MOST RECENTLY ADDED still-active effect's contribution (last-write
// visibility, not a sum), clamped to the hormone's range. Expired effects are
// pruned on the way.
func (s *EffectStore) HormoneValue(h body.HormoneID, nowMin float64) float64 {
	hs, ok := s.ranges[h]
	if !ok {
		return 0
	}

	kept := s.effects[h][:0]
	var latest *ActiveHormoneEffect
	for i := range s.effects[h] {
		e := s.effects[h][i]
		if e.Expired(nowMin) {
			continue
		}
		kept = append(kept, e)
		latest = &kept[len(kept)-1]
	}
	s.effects[h] = kept

	value := hs.Baseline
	if latest != nil {
		value += latest.ContributionAt(nowMin)
	}
	if value < hs.Trough {
		value = hs.Trough
	}
	if value > hs.Peak {
		value = hs.Peak
	}
	return value
}

// GlucoseValue returns the approximate glucose at nowMin from the single
// current effect slot, mirroring the authoritative rise/fall windows.
func (s *EffectStore) GlucoseValue(nowMin float64) float64 {
	if s.glucose == nil {
		return body.GlucoseBaseline
	}
	t := nowMin - s.glucose.startMin
	const rise = 30.0
	switch {
	case t < 0 || t >= 2*rise:
		if t >= 2*rise {
			s.glucose = nil
		}
		return body.GlucoseBaseline
	case t <= rise:
		return body.GlucoseBaseline + s.glucose.peakDelta*(t/rise)
	default:
		return body.GlucoseBaseline + s.glucose.peakDelta*(1-(t-rise)/rise)
	}
}

// ActiveCount returns how many non-expired effects exist for a hormone.
func (s *EffectStore) ActiveCount(h body.HormoneID, nowMin float64) int {
	n := 0
	for _, e := range s.effects[h] {
		if !e.Expired(nowMin) {
			n++
		}
	}
	return n
}

// Ranges exposes the store's hormone ranges for the stimulus tables.
func (s *EffectStore) Ranges() sim.Ranges {
	return sim.StateRanges(s.ranges)
}
