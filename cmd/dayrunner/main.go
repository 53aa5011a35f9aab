// Package main is a scenario driver: it runs one simulated day (meals, a
// workout, a night of sleep) against an in-process session at high time
// scale and prints the resulting physiological state.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/events"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
	"github.com/MTorner/GemeloVital/server/internal/platform/tuning"
	"github.com/MTorner/GemeloVital/server/internal/sim"
)

func gameHours(h float64) float64 { return h * 3600 }

func main() {
	timeScale := flag.Float64("scale", 3600, "simulated seconds per driven real second")
	flag.Parse()

	appLogger := logger.NewLogger()
	cfg := tuning.LowResourceConfig()

	profile := body.UserProfile{
		UserID:        "dayrunner",
		Name:          "Dayrunner",
		Age:           32,
		Sex:           body.SexMale,
		WeightKg:      75,
		HeightCm:      178,
		ActivityLevel: 1.5,
	}

	state := body.NewInitialState("dayrunner-session", profile)
	state.Settings.TimeScale = *timeScale
	loop := sim.NewLoop(state, cfg, nil, nil, appLogger)
	if err := loop.SetTimeScale(*timeScale); err != nil {
		appLogger.Error("bad time scale: %v", err)
		return
	}

	// One plausible day, scheduled in game time.
	schedule := []events.ScheduledEvent{
		{ID: "breakfast", Type: events.EventTypeMeal, ScheduledTime: gameHours(1), Payload: events.MealPayload{
			TotalMacros:  events.MealMacros{Carbohydrates: 60, Proteins: 25, Fats: 15, Fiber: 6},
			GlycemicLoad: 30,
		}},
		{ID: "lunch", Type: events.EventTypeMeal, ScheduledTime: gameHours(6), Payload: events.MealPayload{
			TotalMacros:  events.MealMacros{Carbohydrates: 80, Proteins: 35, Fats: 20, Fiber: 8},
			GlycemicLoad: 40,
		}},
		{ID: "workout", Type: events.EventTypeExercise, ScheduledTime: gameHours(10), Payload: events.ExercisePayload{
			Category:          events.CategoryResistance,
			PerceivedExertion: 7,
			Exercises: []events.ExerciseEntry{
				{Name: "squat", Sets: []events.ExerciseSet{{Reps: 5, DurationSeconds: 600}, {Reps: 5, DurationSeconds: 600}, {Reps: 5, DurationSeconds: 600}}},
			},
		}},
		{ID: "dinner", Type: events.EventTypeMeal, ScheduledTime: gameHours(12), Payload: events.MealPayload{
			TotalMacros:  events.MealMacros{Carbohydrates: 70, Proteins: 40, Fats: 25, Fiber: 10},
			GlycemicLoad: 35,
		}},
		{ID: "commute-stress", Type: events.EventTypeStress, ScheduledTime: gameHours(9), Payload: events.StressPayload{Intensity: 0.6}},
		{ID: "night", Type: events.EventTypeSleep, ScheduledTime: gameHours(15.5), Payload: events.SleepPayload{Hours: 8, Quality: 0.9}},
	}
	for _, ev := range schedule {
		loop.ScheduleEvent(ev)
	}

	// Drive 24 simulated hours tick by tick.
	started := time.Now()
	realDtPerTick := 0.1
	totalTicks := int(gameHours(24) / (*timeScale * realDtPerTick))
	for i := 0; i < totalTicks; i++ {
		loop.Tick(realDtPerTick)
	}

	st := loop.State()
	fmt.Printf("\n=== Day complete: %s game time in %s wall time (%s ticks) ===\n",
		time.Duration(st.GameTime)*time.Second,
		humanize.RelTime(started, time.Now(), "", ""),
		humanize.Comma(int64(totalTicks)))

	fmt.Printf("\nEnergy:  glucose %.1f mg/dL  glycogen %.0fg  in/out %s / %s kcal  fat-util %.2f\n",
		st.Energy.Glucose, st.Energy.GlycogenGrams,
		humanize.Commaf(st.Energy.CaloriesIn), humanize.Commaf(st.Energy.CaloriesOut),
		st.Energy.FatUtilization)

	fmt.Println("\nHormones:")
	for _, id := range body.AllHormones {
		hs := st.Hormones[id]
		fmt.Printf("  %-14s %7.2f  (baseline %.2f, trend %+d)\n", id, hs.CurrentValue, hs.Baseline, hs.Trend)
	}

	fmt.Printf("\nMuscle:  synthesis %.1f  breakdown %.1f  mTOR %.2f  damage %.1f  sleep-debt %.1fh  recovery %.0f%%\n",
		st.Muscle.ProteinSynthesisRate, st.Muscle.ProteinBreakdownRate,
		st.Muscle.MTORActivity, st.Muscle.MuscleDamage, st.Muscle.SleepDebt, st.Muscle.RecoveryStatus)

	fmt.Printf("\nActivity log: %d meals, %d workouts, %d sleep blocks\n",
		len(st.RecentMeals), len(st.RecentExercise), len(st.RecentSleep))
}
