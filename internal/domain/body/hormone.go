package body

// HormoneID identifies one of the nine tracked hormones.
type HormoneID string

const (
	HormoneInsulin       HormoneID = "insulin"
	HormoneGlucagon      HormoneID = "glucagon"
	HormoneCortisol      HormoneID = "cortisol"
	HormoneEpinephrine   HormoneID = "epinephrine"
	HormoneGrowthHormone HormoneID = "growthHormone"
	HormoneTestosterone  HormoneID = "testosterone"
	HormoneGhrelin       HormoneID = "ghrelin"
	HormoneLeptin        HormoneID = "leptin"
	HormoneEstrogen      HormoneID = "estrogen"
)

// AllHormones lists every tracked hormone in a stable order.
var AllHormones = []HormoneID{
	HormoneInsulin,
	HormoneGlucagon,
	HormoneCortisol,
	HormoneEpinephrine,
	HormoneGrowthHormone,
	HormoneTestosterone,
	HormoneGhrelin,
	HormoneLeptin,
	HormoneEstrogen,
}

// HormoneState is the per-hormone slice of the simulation state.
// Invariant: Trough <= CurrentValue <= Peak at all times. Trend reflects the
// sign of the value change over the last update.
type HormoneState struct {
	CurrentValue float64 `json:"current_value"`
	Baseline     float64 `json:"baseline"`
	Peak         float64 `json:"peak"`
	Trough       float64 `json:"trough"`
	Trend        int     `json:"trend"` // -1 falling, 0 flat, 1 rising
	Sensitivity  float64 `json:"sensitivity"`
}

// hormoneDefault carries the reference range for one hormone.
type hormoneDefault struct {
	Baseline float64
	Trough   float64
	Peak     float64
}

// Reference ranges. Units are the customary clinical units per hormone
// (uIU/mL, pg/mL, ug/dL, ng/mL, nmol/L) but the engine only ever compares a
// hormone against its own range, so the mix is harmless.
var hormoneDefaults = map[HormoneID]hormoneDefault{
	HormoneInsulin:       {Baseline: 5, Trough: 2, Peak: 60},
	HormoneGlucagon:      {Baseline: 80, Trough: 40, Peak: 150},
	HormoneCortisol:      {Baseline: 10, Trough: 3, Peak: 25},
	HormoneEpinephrine:   {Baseline: 50, Trough: 20, Peak: 300},
	HormoneGrowthHormone: {Baseline: 1, Trough: 0.1, Peak: 20},
	HormoneTestosterone:  {Baseline: 20, Trough: 10, Peak: 35},
	HormoneGhrelin:       {Baseline: 150, Trough: 50, Peak: 300},
	HormoneLeptin:        {Baseline: 8, Trough: 2, Peak: 20},
	HormoneEstrogen:      {Baseline: 30, Trough: 15, Peak: 60},
}

// NewHormonalState builds the nine hormones at their baselines.
func NewHormonalState() map[HormoneID]*HormoneState {
	states := make(map[HormoneID]*HormoneState, len(AllHormones))
	for _, id := range AllHormones {
		def := hormoneDefaults[id]
		states[id] = &HormoneState{
			CurrentValue: def.Baseline,
			Baseline:     def.Baseline,
			Peak:         def.Peak,
			Trough:       def.Trough,
			Trend:        0,
			Sensitivity:  1.0,
		}
	}
	return states
}
