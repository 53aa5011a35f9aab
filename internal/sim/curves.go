package sim

import "math"

// Effect maps elapsed minutes since a stimulus to an instantaneous value.
// Two decay laws live behind this interface and are intentionally divergent:
// the Gaussian stimulus-response curve drives the authoritative loop, the
// ease-out decay drives the disconnected client fallback. They are never
// required to agree bit-for-bit.
type Effect interface {
	// ValueAt returns the effect's value at elapsedMinutes since its start.
	ValueAt(elapsedMinutes float64) float64
	// Expired reports whether the effect has fully run out.
	Expired(elapsedMinutes float64) bool
}

// StimulusCurve is the authoritative analytical response: a Gaussian bump
// from baseline toward a target peak, with the peak at a quarter of the
// stimulus duration.
type StimulusCurve struct {
	Baseline    float64
	TargetPeak  float64
	DurationMin float64
}

// ValueAt evaluates the Gaussian at elapsed minutes t:
// timeToPeak = duration*0.25, sigma = duration*0.2.
func (c StimulusCurve) ValueAt(t float64) float64 {
	timeToPeak := c.DurationMin * 0.25
	sigma := c.DurationMin * 0.2
	if sigma <= 0 {
		return c.Baseline
	}
	d := t - timeToPeak
	return c.Baseline + (c.TargetPeak-c.Baseline)*math.Exp(-(d*d)/(2*sigma*sigma))
}

// Expired reports whether the stimulus window has passed.
func (c StimulusCurve) Expired(t float64) bool {
	return t >= c.DurationMin
}

// DecayEffect is the fallback law: an additive contribution that eases out
// cubically from the target value to zero over the duration.
type DecayEffect struct {
	TargetValue float64
	DurationMin float64
}

// ValueAt returns targetValue * (1 - easeOutCubic(t/duration)).
func (e DecayEffect) ValueAt(t float64) float64 {
	if e.DurationMin <= 0 || t >= e.DurationMin {
		return 0
	}
	if t < 0 {
		t = 0
	}
	return e.TargetValue * (1 - EaseOutCubic(t/e.DurationMin))
}

// Expired reports whether the effect should be pruned.
func (e DecayEffect) Expired(t float64) bool {
	return t >= e.DurationMin
}

// EaseOutCubic is the standard easing function 1-(1-p)^3 for p in [0,1].
func EaseOutCubic(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	inv := 1 - p
	return 1 - inv*inv*inv
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// trendOf derives a -1/0/1 trend from a value delta, with a small dead-band
// so float noise does not flicker the sign.
func trendOf(delta float64) int {
	const epsilon = 1e-6
	switch {
	case delta > epsilon:
		return 1
	case delta < -epsilon:
		return -1
	default:
		return 0
	}
}
