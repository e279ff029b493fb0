package api

import "time"

// User is the authenticated identity returned by the backend on login.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"` // "coach" or "client"
}

// AuthResponse is the backend's login response.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// ClientAccount is a coached client as seen on the coach's roster.
type ClientAccount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Exercise is a catalog entry. Tips is coach-authored markdown.
type Exercise struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MuscleGroup string `json:"muscle_group"`
	Tips        string `json:"tips,omitempty"`
}

// RoutineExercise is an exercise prescription within a routine.
// TargetReps is a free-form range string like "8-12".
type RoutineExercise struct {
	ExerciseID   string  `json:"exercise_id"`
	ExerciseName string  `json:"exercise_name"`
	TargetSets   int     `json:"target_sets"`
	TargetReps   string  `json:"target_reps"`
	TargetWeight float64 `json:"target_weight"`
	RestSeconds  int     `json:"rest_seconds"`
	Tips         string  `json:"tips,omitempty"`
}

// Routine is a coach-authored workout template assigned to clients.
type Routine struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Exercises       []RoutineExercise `json:"exercises"`
	AssignedClients []string          `json:"assigned_clients"`
}

// Set is one logged set of an exercise. SetNumber is 1-based and
// contiguous within the exercise's set list.
type Set struct {
	SetNumber int     `json:"set_number"`
	WeightKg  float64 `json:"weight_kg"`
	Reps      int     `json:"reps"`
	RIR       int     `json:"rir"`
}

// WorkoutExercise is an exercise with its logged sets.
type WorkoutExercise struct {
	ExerciseID   string `json:"exercise_id"`
	ExerciseName string `json:"exercise_name"`
	Sets         []Set  `json:"sets"`
}

// Workout is a completed training session.
type Workout struct {
	ID              string            `json:"id"`
	Date            time.Time         `json:"date"`
	RoutineID       string            `json:"routine_id,omitempty"`
	RoutineName     string            `json:"routine_name,omitempty"`
	Exercises       []WorkoutExercise `json:"exercises"`
	Notes           string            `json:"notes,omitempty"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
}

// BodyMeasurements are circumference measurements in centimeters.
type BodyMeasurements struct {
	Chest     float64 `json:"chest"`
	Waist     float64 `json:"waist"`
	Arms      float64 `json:"arms"`
	Thighs    float64 `json:"thighs"`
	Shoulders float64 `json:"shoulders"`
}

// Measurement is a timestamped body-composition snapshot.
type Measurement struct {
	Date              time.Time        `json:"date"`
	WeightKg          float64          `json:"weight_kg"`
	BodyFatPercentage float64          `json:"body_fat_percentage"`
	Measurements      BodyMeasurements `json:"measurements"`
}

// NewMeasurement is the payload for recording a measurement.
type NewMeasurement struct {
	WeightKg          float64          `json:"weight_kg"`
	BodyFatPercentage float64          `json:"body_fat_percentage"`
	Measurements      BodyMeasurements `json:"measurements"`
}

// Dashboard is the coach's landing summary.
type Dashboard struct {
	Coach                 User            `json:"coach"`
	TotalClients          int             `json:"total_clients"`
	TotalWorkoutsThisWeek int             `json:"total_workouts_this_week"`
	ActiveRoutines        int             `json:"active_routines"`
	Clients               []ClientAccount `json:"clients"`
}

// ExerciseStats are per-exercise aggregates computed by the backend.
type ExerciseStats struct {
	Name          string  `json:"name"`
	TotalSets     int     `json:"total_sets"`
	TotalReps     int     `json:"total_reps"`
	TotalVolumeKg float64 `json:"total_volume_kg"`
	MaxWeightKg   float64 `json:"max_weight_kg"`
	AvgWeightKg   float64 `json:"avg_weight_kg"`
	AvgReps       float64 `json:"avg_reps"`
	Sessions      int     `json:"sessions"`
}

// Stats is the aggregate workout summary for one client.
type Stats struct {
	TotalWorkouts int                      `json:"total_workouts"`
	ExerciseStats map[string]ExerciseStats `json:"exercise_stats"`
}

// ClientProgress bundles everything the coach sees for one client.
type ClientProgress struct {
	Client        ClientAccount            `json:"client"`
	Workouts      []Workout                `json:"workouts"`
	Measurements  []Measurement            `json:"measurements"`
	ExerciseStats map[string]ExerciseStats `json:"exercise_stats"`
}

// ClientComparison is one row of the coach's progress-comparison view.
type ClientComparison struct {
	Client               ClientAccount `json:"client"`
	LatestMeasurement    *Measurement  `json:"latest_measurement"`
	WorkoutsThisMonth    int           `json:"workouts_this_month"`
	TotalVolumeThisMonth float64       `json:"total_volume_this_month"`
}

// AssignedRoutine wraps the client's routine; Routine is nil when the
// coach has not assigned one yet.
type AssignedRoutine struct {
	Routine *Routine `json:"routine"`
}

// NewWorkout is the payload for logging a completed workout.
type NewWorkout struct {
	RoutineID       string            `json:"routine_id,omitempty"`
	RoutineName     string            `json:"routine_name,omitempty"`
	Exercises       []WorkoutExercise `json:"exercises"`
	Notes           string            `json:"notes,omitempty"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
}

// NewRoutine is the payload for creating or replacing a routine.
type NewRoutine struct {
	Name            string            `json:"name"`
	Exercises       []RoutineExercise `json:"exercises"`
	AssignedClients []string          `json:"assigned_clients"`
}
