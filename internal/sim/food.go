package sim

import (
	"fmt"

	"github.com/MTorner/GemeloVital/server/internal/domain/body"
	"github.com/MTorner/GemeloVital/server/internal/events"
	"github.com/MTorner/GemeloVital/server/internal/platform/logger"
)

// FoodDeps is the capability record handed to the FoodModule. Explicit
// injection keeps the module testable against stub collaborators and avoids
// the circular-reference trap of modules reaching for each other globally.
type FoodDeps struct {
	Energy   *EnergyModule
	Hormones *HormoneModule
	Muscle   *MuscleModule
}

// FoodModule translates meal events into calls against Energy/Hormone/Muscle.
type FoodModule struct {
	deps   FoodDeps
	logger *logger.Logger
}

// NewFoodModule creates the meal orchestrator.
func NewFoodModule(deps FoodDeps, log *logger.Logger) *FoodModule {
	return &FoodModule{deps: deps, logger: log}
}

// ApplyMeal dispatches a meal: glucose/calorie effects, the hormone stimulus
// table, and the muscle leucine window.
func (fm *FoodModule) ApplyMeal(state *body.SimulationState, meal events.MealPayload, now float64) {
	macros := body.Macros{
		Carbohydrates: meal.TotalMacros.Carbohydrates,
		Proteins:      meal.TotalMacros.Proteins,
		Fats:          meal.TotalMacros.Fats,
		Fiber:         meal.TotalMacros.Fiber,
	}

	fm.deps.Energy.ApplyMeal(state, meal.GlycemicLoad, macros, now)
	fm.deps.Hormones.AddStimuli(state, MealStimuli(StateRanges(state.Hormones), meal.GlycemicLoad, macros.Proteins), now)
	fm.deps.Muscle.OnProteinIntake(state, macros.Proteins, now)

	fm.logger.Event("MEAL", state.SessionID,
		fmt.Sprintf("GL=%.1f carbs=%.0fg protein=%.0fg kcal=%.0f",
			meal.GlycemicLoad, macros.Carbohydrates, macros.Proteins, macros.Calories()))
}
