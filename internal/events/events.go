// Package events defines the external stimuli the simulation reacts to.
// Events are scheduled against game time and dispatched at most once.
package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a scheduled event.
type EventType string

const (
	EventTypeMeal     EventType = "MEAL"
	EventTypeExercise EventType = "EXERCISE"
	EventTypeSleep    EventType = "SLEEP"
	EventTypeStress   EventType = "STRESS"
)

// ExerciseCategory distinguishes resistance work from everything else.
type ExerciseCategory string

const (
	CategoryResistance ExerciseCategory = "resistance"
	CategoryEndurance  ExerciseCategory = "endurance"
	CategoryMobility   ExerciseCategory = "mobility"
)

// MealItem is a single food entry inside a meal.
type MealItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// MealMacros is the macronutrient breakdown of a logged meal in grams.
type MealMacros struct {
	Carbohydrates float64 `json:"carbohydrates"`
	Proteins      float64 `json:"proteins"`
	Fats          float64 `json:"fats"`
	Fiber         float64 `json:"fiber"`
}

// MealPayload describes a meal event.
type MealPayload struct {
	Time         time.Time  `json:"time"`
	Items        []MealItem `json:"items"`
	TotalMacros  MealMacros `json:"total_macros"`
	GlycemicLoad float64    `json:"glycemic_load"`
}

// ExerciseSet is one set within an exercise.
type ExerciseSet struct {
	Reps            int     `json:"reps"`
	DurationSeconds float64 `json:"duration"` // seconds
}

// ExerciseEntry is one movement within a session.
type ExerciseEntry struct {
	Name string        `json:"name"`
	Sets []ExerciseSet `json:"sets"`
}

// ExercisePayload describes a workout session event.
type ExercisePayload struct {
	StartTime         time.Time        `json:"start_time"`
	Category          ExerciseCategory `json:"category"`
	PerceivedExertion float64          `json:"perceived_exertion"` // RPE 1-10
	Exercises         []ExerciseEntry  `json:"exercises"`
}

// TotalDurationSeconds sums every set's duration.
func (p ExercisePayload) TotalDurationSeconds() float64 {
	var total float64
	for _, ex := range p.Exercises {
		for _, set := range ex.Sets {
			total += set.DurationSeconds
		}
	}
	return total
}

// SleepPayload describes a sleep event.
type SleepPayload struct {
	Hours   float64 `json:"hours"`
	Quality float64 `json:"quality"` // 0-1
}

// StressPayload describes an acute stress event.
type StressPayload struct {
	Intensity float64 `json:"intensity"` // 0-1
}

// ScheduledEvent is an external stimulus queued against game time.
// Once dispatched it is removed from the scheduler exactly once; duplicate
// ids are rejected at scheduling time.
type ScheduledEvent struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	ScheduledTime float64     `json:"scheduled_time"` // game seconds
	Payload       interface{} `json:"payload"`
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
