// Package sim contains the tick-driven physiological simulation engine.
//
// ARCHITECTURAL RULE: modules never reach for global state. Every module is
// constructed with an explicit dependency record and mutates only the
// SimulationState handed to it.
package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidTimeScale is returned when a non-positive scale is requested.
var ErrInvalidTimeScale = errors.New("time scale must be positive")

// TimeController converts wall-clock deltas into game time.
// It does NOT know about hormones or events - only time progression.
type TimeController struct {
	gameTime  float64 // simulated seconds since session start
	timeScale float64 // simulated seconds per real second
	paused    bool
}

// NewTimeController creates a clock with the given scale.
func NewTimeController(timeScale float64) *TimeController {
	if timeScale <= 0 {
		timeScale = 1
	}
	return &TimeController{timeScale: timeScale}
}

// Advance moves game time forward by realDt (seconds) scaled by the current
// time scale. While paused this is a no-op.
func (tc *TimeController) Advance(realDtSeconds float64) {
	if tc.paused {
		return
	}
	tc.gameTime += realDtSeconds * tc.timeScale
}

// SetTimeScale changes the multiplier, taking effect on the next Advance.
// A scale <= 0 is rejected and the previous value retained.
func (tc *TimeController) SetTimeScale(scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidTimeScale, scale)
	}
	tc.timeScale = scale
	return nil
}

// SetPaused freezes or unfreezes game time.
func (tc *TimeController) SetPaused(paused bool) {
	tc.paused = paused
}

// GameTime returns the current game time in simulated seconds.
func (tc *TimeController) GameTime() float64 {
	return tc.gameTime
}

// GameMinutes returns the current game time in simulated minutes.
func (tc *TimeController) GameMinutes() float64 {
	return tc.gameTime / 60
}

// TimeScale returns the current multiplier.
func (tc *TimeController) TimeScale() float64 {
	return tc.timeScale
}

// Paused reports whether the clock is frozen.
func (tc *TimeController) Paused() bool {
	return tc.paused
}
