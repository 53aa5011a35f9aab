package sim

import (
	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
)

// activeStimulus is one Gaussian response in flight for a hormone.
type activeStimulus struct {
	curve         StimulusCurve
	startGameTime float64 // game seconds
}

// HormoneModule maintains the nine tracked hormones. It runs after the
// EnergyModule each tick so glucose/substrate state is already current.
type HormoneModule struct {
	logger  *logger.Logger
	stimuli map[body.HormoneID][]activeStimulus
}

// NewHormoneModule creates the hormone manager.
func NewHormoneModule(log *logger.Logger) *HormoneModule {
	return &HormoneModule{
		logger:  log,
		stimuli: make(map[body.HormoneID][]activeStimulus),
	}
}

// AddStimulus registers a Gaussian response for a hormone starting now.
// The target is recorded as-is; clamping to [trough, peak] happens at
// evaluation so an out-of-range target simply saturates.
func (hm *HormoneModule) AddStimulus(state *body.SimulationState, stim Stimulus, now float64) {
	hs, ok := state.Hormones[stim.Hormone]
	if !ok {
		hm.logger.Warn("stimulus for unknown hormone %q dropped", stim.Hormone)
		return
	}
	hm.stimuli[stim.Hormone] = append(hm.stimuli[stim.Hormone], activeStimulus{
		curve: StimulusCurve{
			Baseline:    hs.Baseline,
			TargetPeak:  stim.TargetPeak,
			DurationMin: stim.DurationMin,
		},
		startGameTime: now,
	})
}

// AddStimuli registers a batch of responses.
func (hm *HormoneModule) AddStimuli(state *body.SimulationState, stimuli []Stimulus, now float64) {
	for _, s := range stimuli {
		hm.AddStimulus(state, s, now)
	}
}

// Update recomputes every hormone's current value, trend and prunes expired
// stimuli. dt is unused today but kept for symmetry with the other modules.
func (hm *HormoneModule) Update(state *body.SimulationState, dtGameSeconds float64) {
	now := state.GameTime

	for _, id := range body.AllHormones {
		hs := state.Hormones[id]
		active := hm.stimuli[id][:0]

		// Sum sensitivity-scaled deviations from baseline across every
		// still-active stimulus, then clamp to the hormone's range.
		var deviation float64
		for _, st := range hm.stimuli[id] {
			elapsedMin := (now - st.startGameTime) / 60
			if st.curve.Expired(elapsedMin) {
				continue
			}
			active = append(active, st)
			deviation += st.curve.ValueAt(elapsedMin) - hs.Baseline
		}
		hm.stimuli[id] = active

		previous := hs.CurrentValue
		hs.CurrentValue = clamp(hs.Baseline+hs.Sensitivity*deviation, hs.Trough, hs.Peak)
		hs.Trend = trendOf(hs.CurrentValue - previous)
	}
}

// ActiveStimuli returns how many responses are in flight for a hormone.
func (hm *HormoneModule) ActiveStimuli(id body.HormoneID) int {
	return len(hm.stimuli[id])
}
