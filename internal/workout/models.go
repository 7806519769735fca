// Package workout implements the training session engine: workout lifecycle,
// set logging with personal record detection, completion aggregates, superset
// traversal, the exercise history ledger, and template materialization.
package workout

import "time"

// Status is the workout state machine: planned -> in_progress -> completed,
// with skipped reachable from planned and in_progress.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusSkipped    Status = "skipped"
)

// Type classifies a workout. Unlike templates, a workout is never full-body;
// templates of that type materialize as custom.
type Type string

const (
	TypePush   Type = "push"
	TypePull   Type = "pull"
	TypeLegs   Type = "legs"
	TypeCustom Type = "custom"
)

// SetType distinguishes working sets from warmups and intensity techniques.
type SetType string

const (
	SetTypeWorking SetType = "working"
	SetTypeWarmup  SetType = "warmup"
	SetTypeDropset SetType = "dropset"
	SetTypeFailure SetType = "failure"
)

// Workout is one training session. TotalVolume and DurationMinutes are
// populated only once the status is completed.
type Workout struct {
	ID              string
	Date            time.Time
	Type            Type
	Status          Status
	TotalVolume     float64
	DurationMinutes int
	AIGenerated     bool
	TemplateID      string
	Notes           string
	StartedAt       *time.Time
	CompletedAt     *time.Time
}

// Exercise is one slot within a workout. Position is append-only: removing a
// sibling leaves a gap, and consumers sort by position rather than assuming
// contiguity. Exercises sharing a non-nil SupersetGroup are performed
// back-to-back with a single rest after the last member.
type Exercise struct {
	ID              string
	WorkoutID       string
	ExerciseID      string
	ExerciseName    string
	Position        int
	SupersetGroup   *int
	TargetSets      int
	TargetReps      int
	SuggestedWeight float64
	RestSeconds     int
	Completed       bool
}

// Set is one set within a workout exercise. ActualReps and ActualWeight stay
// nil until the set is logged.
type Set struct {
	ID                string
	WorkoutExerciseID string
	SetNumber         int
	TargetReps        int
	TargetWeight      float64
	ActualReps        *int
	ActualWeight      *float64
	SetType           SetType
	Completed         bool
	PR                bool
	CompletedAt       *time.Time
}

// ExerciseDetail is an exercise slot with its sets loaded, ordered by set
// number.
type ExerciseDetail struct {
	Exercise
	Sets []Set
}

// Detail is a fully loaded workout: the session row plus its exercises in
// position order.
type Detail struct {
	Workout
	Exercises []ExerciseDetail
}

// HistoryEntry is one immutable snapshot per (exercise, session date),
// appended when a workout completes with at least one completed set for the
// exercise. It is the durable ledger behind PR detection and progressive load.
type HistoryEntry struct {
	ID           string
	ExerciseID   string
	ExerciseName string
	Date         time.Time
	BestWeight   float64
	BestReps     int
	TotalVolume  float64
	TotalSets    int
	OneRepMax    float64
}

// Summary is the aggregate returned by completing a workout.
type Summary struct {
	TotalVolume     float64
	DurationMinutes int
	ExerciseCount   int
	SetCount        int
	PRCount         int
}

// CatalogExercise is an entry in the exercise catalog. AI-synthesized
// exercises get Custom=true and a stable lowercase_underscore id.
type CatalogExercise struct {
	ID             string
	Name           string
	PrimaryMuscles []string
	Equipment      []string
	Description    string
	Custom         bool
}

// TemplateType allows full-body in addition to the workout types.
type TemplateType string

const (
	TemplatePush     TemplateType = "push"
	TemplatePull     TemplateType = "pull"
	TemplateLegs     TemplateType = "legs"
	TemplateFullBody TemplateType = "full-body"
	TemplateCustom   TemplateType = "custom"
)

// Template is a reusable workout blueprint, either seeded or saved by the
// user from a past workout.
type Template struct {
	ID              string
	Name            string
	Description     string
	Type            TemplateType
	DurationMinutes int
	UserCreated     bool
	Exercises       []TemplateExercise
}

// TemplateExercise is one slot in a template.
type TemplateExercise struct {
	ID              string
	TemplateID      string
	ExerciseID      string
	ExerciseName    string
	Position        int
	TargetSets      int
	TargetReps      int
	SuggestedWeight float64
	RestSeconds     int
}

// WorkoutType maps a template type onto a workout type. Full-body has no
// workout equivalent and materializes as custom.
func (t TemplateType) WorkoutType() Type {
	switch t {
	case TemplatePush:
		return TypePush
	case TemplatePull:
		return TypePull
	case TemplateLegs:
		return TypeLegs
	case TemplateFullBody, TemplateCustom:
		return TypeCustom
	}
	return TypeCustom
}
