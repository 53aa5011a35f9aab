package body

import "time"

// Glucose baseline and activity-log bounds.
const (
	GlucoseBaseline = 85.0 // mg/dL

	// Recent-activity logs are bounded; older entries roll off.
	MaxRecentActivities = 50
)

// EnergyState tracks glucose, glycogen and the running calorie balance.
type EnergyState struct {
	Glucose          float64 `json:"glucose"`       // mg/dL
	GlucoseTrend     int     `json:"glucose_trend"` // -1 falling, 0 flat, 1 rising
	GlycogenGrams    float64 `json:"glycogen_grams"`
	GlycogenCapacity float64 `json:"glycogen_capacity"`
	CaloriesIn       float64 `json:"calories_in"`
	CaloriesOut      float64 `json:"calories_out"`
	FatUtilization   float64 `json:"fat_utilization"` // 0..1 share of fuel from fat
}

// MuscleState tracks protein turnover, mTOR signaling and recovery.
type MuscleState struct {
	ProteinSynthesisRate float64 `json:"protein_synthesis_rate"` // 0..100
	ProteinBreakdownRate float64 `json:"protein_breakdown_rate"` // 0..100
	MTORActivity         float64 `json:"mtor_activity"`          // 0..1
	MuscleDamage         float64 `json:"muscle_damage"`          // 0..100
	SleepDebt            float64 `json:"sleep_debt"`             // hours
	CentralFatigue       float64 `json:"central_fatigue"`        // 0..1
	RecoveryStatus       float64 `json:"recovery_status"`        // 0..100
}

// Macros is the macronutrient breakdown of a meal in grams.
type Macros struct {
	Carbohydrates float64 `json:"carbohydrates"`
	Proteins      float64 `json:"proteins"`
	Fats          float64 `json:"fats"`
	Fiber         float64 `json:"fiber"`
}

// Calories converts the macro grams to kcal.
func (m Macros) Calories() float64 {
	return m.Carbohydrates*4 + m.Proteins*4 + m.Fats*9 + m.Fiber*2
}

// ActivityRecord is one bounded-log entry (meal, exercise, sleep or stress).
type ActivityRecord struct {
	EventID  string    `json:"event_id"`
	Kind     string    `json:"kind"`
	GameTime float64   `json:"game_time"` // simulated seconds
	LoggedAt time.Time `json:"logged_at"`
	Summary  string    `json:"summary"`
}

// Settings controls how the session's clock runs.
type Settings struct {
	TimeScale float64 `json:"time_scale"` // simulated seconds per real second
	Paused    bool    `json:"paused"`
}

// SimulationState is the aggregate root for one session. It is created once
// per session, mutated in place by module updates every tick, and lives only
// in process memory.
type SimulationState struct {
	SessionID string      `json:"session_id"`
	UserID    string      `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
	WallClock time.Time   `json:"wall_clock"`
	GameTime  float64     `json:"game_time"` // simulated seconds since session start
	Profile   UserProfile `json:"profile"`

	Energy   EnergyState                 `json:"energy"`
	Hormones map[HormoneID]*HormoneState `json:"hormones"`
	Muscle   MuscleState                 `json:"muscle"`

	RecentMeals    []ActivityRecord `json:"recent_meals"`
	RecentExercise []ActivityRecord `json:"recent_exercise"`
	RecentSleep    []ActivityRecord `json:"recent_sleep"`

	Settings Settings `json:"settings"`
}

// NewInitialState builds a fresh session state from a validated profile.
func NewInitialState(sessionID string, profile UserProfile) *SimulationState {
	now := time.Now()
	return &SimulationState{
		SessionID: sessionID,
		UserID:    profile.UserID,
		CreatedAt: now,
		WallClock: now,
		GameTime:  0,
		Profile:   profile,
		Energy: EnergyState{
			Glucose:          GlucoseBaseline,
			GlycogenGrams:    350,
			GlycogenCapacity: 500,
			FatUtilization:   0.6, // resting mixed fuel, leaning on fat
		},
		Hormones: NewHormonalState(),
		Muscle: MuscleState{
			ProteinSynthesisRate: 30,
			ProteinBreakdownRate: 30,
			MTORActivity:         0.2,
			RecoveryStatus:       100,
		},
		Settings: Settings{TimeScale: 60, Paused: false}, // 1 real second = 1 simulated minute
	}
}

// LogMeal appends to the bounded meal log.
func (s *SimulationState) LogMeal(rec ActivityRecord) {
	s.RecentMeals = appendBounded(s.RecentMeals, rec)
}

// LogExercise appends to the bounded exercise log.
func (s *SimulationState) LogExercise(rec ActivityRecord) {
	s.RecentExercise = appendBounded(s.RecentExercise, rec)
}

// LogSleep appends to the bounded sleep log.
func (s *SimulationState) LogSleep(rec ActivityRecord) {
	s.RecentSleep = appendBounded(s.RecentSleep, rec)
}

func appendBounded(log []ActivityRecord, rec ActivityRecord) []ActivityRecord {
	log = append(log, rec)
	if len(log) > MaxRecentActivities {
		log = log[len(log)-MaxRecentActivities:]
	}
	return log
}
