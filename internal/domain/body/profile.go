// Package body defines the core domain entities for the physiological twin.
// This package is PURE and must NOT import any infrastructure packages (network, events, platform).
package body

// Sex is the biological sex used for metabolic rate estimation.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// UserProfile holds the anthropometric data the simulation is seeded with.
// Validation (age/weight/height ranges) happens upstream; the engine assumes
// a valid profile.
type UserProfile struct {
	UserID        string  `json:"user_id"`
	Name          string  `json:"name"`
	Age           int     `json:"age"`
	Sex           Sex     `json:"sex"`
	WeightKg      float64 `json:"weight_kg"`
	HeightCm      float64 `json:"height_cm"`
	ActivityLevel float64 `json:"activity_level"` // 1.2 sedentary .. 1.9 athlete
}

// BasalMetabolicRate estimates daily resting expenditure (kcal/day) using
// Mifflin-St Jeor.
func (p UserProfile) BasalMetabolicRate() float64 {
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Sex == SexFemale {
		return bmr - 161
	}
	return bmr + 5
}
