// Package chat implements the AI surface: the LLM client, workout
// generation and exercise substitution, and the action executor translating
// model tool calls into workout engine operations with safety checks.
package chat

import "encoding/json"

// Message is one turn of the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is an incoming chat message with its context.
type Request struct {
	Message             string    `json:"message"`
	Context             string    `json:"context,omitempty"`
	ConversationHistory []Message `json:"conversationHistory,omitempty"`
	TodayWorkoutContext string    `json:"todayWorkoutContext,omitempty"`
}

// ToolCall is a structured intent extracted from the model's reply.
type ToolCall struct {
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// Reply is the assistant's answer, optionally carrying a tool call.
type Reply struct {
	Reply    string    `json:"reply"`
	ToolCall *ToolCall `json:"toolCall,omitempty"`
}

// Result is a chat turn after any tool call has been executed.
type Result struct {
	Reply     string `json:"reply"`
	WorkoutID string `json:"workoutId,omitempty"`
	Action    string `json:"action,omitempty"`
}

// PlannedExercise is one exercise slot inside a create_workout tool call.
type PlannedExercise struct {
	Name         string  `json:"name"`
	Sets         int     `json:"sets"`
	TargetReps   int     `json:"targetReps"`
	TargetWeight float64 `json:"targetWeight"`
	RestSeconds  int     `json:"restSeconds"`
}

// CreateWorkoutInput is the payload of a create_workout tool call.
type CreateWorkoutInput struct {
	Type      string            `json:"type"`
	Exercises []PlannedExercise `json:"exercises"`
	Notes     string            `json:"notes,omitempty"`
}

// Operation is one entry of a modify_workout batch. Action is remove,
// update, or add. Remove and update reference an existing workout exercise;
// add carries a free-text exercise name resolved against the catalog.
type Operation struct {
	Action            string   `json:"action"`
	WorkoutExerciseID string   `json:"workout_exercise_id,omitempty"`
	ExerciseName      string   `json:"exercise_name,omitempty"`
	TargetSets        *int     `json:"targetSets,omitempty"`
	TargetReps        *int     `json:"targetReps,omitempty"`
	TargetWeight      *float64 `json:"targetWeight,omitempty"`
	RestSeconds       *int     `json:"restSeconds,omitempty"`
}

// ModifyWorkoutInput is the payload of a modify_workout tool call.
type ModifyWorkoutInput struct {
	WorkoutID  string      `json:"workout_id"`
	Operations []Operation `json:"operations"`
}

// GenerationRequest asks the model for a full workout plan.
type GenerationRequest struct {
	TodayType         string   `json:"todayType"`
	Equipment         []string `json:"equipment,omitempty"`
	ExperienceLevel   string   `json:"experienceLevel,omitempty"`
	RecentWorkouts    []string `json:"recentWorkouts,omitempty"`
	ExerciseHistory   []string `json:"exerciseHistory,omitempty"`
	ExcludedExercises []string `json:"excludedExercises,omitempty"`
	UserNotes         string   `json:"userNotes,omitempty"`
}

// GeneratedExercise is one exercise of a generated plan. SupersetWith names
// another exercise of the same plan to pair with.
type GeneratedExercise struct {
	Name         string  `json:"name"`
	Sets         int     `json:"sets"`
	TargetReps   int     `json:"targetReps"`
	TargetWeight float64 `json:"targetWeight"`
	RestSeconds  int     `json:"restSeconds"`
	SupersetWith string  `json:"supersetWith,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

// GeneratedPlan is the model's answer to a generation request.
type GeneratedPlan struct {
	Exercises         []GeneratedExercise `json:"exercises"`
	Reasoning         string              `json:"reasoning"`
	EstimatedDuration int                 `json:"estimatedDuration"`
}

// SubstituteRequest asks the model for alternatives to an exercise.
type SubstituteRequest struct {
	ExerciseName    string   `json:"exerciseName"`
	PrimaryMuscles  []string `json:"primaryMuscles,omitempty"`
	Equipment       []string `json:"equipment,omitempty"`
	ExperienceLevel string   `json:"experienceLevel,omitempty"`
	Reason          string   `json:"reason,omitempty"`
}

// Alternative is one suggested substitute exercise.
type Alternative struct {
	Name      string `json:"name"`
	Equipment string `json:"equipment"`
	Reasoning string `json:"reasoning"`
}

// Substitutions is the model's answer to a substitute request.
type Substitutions struct {
	Alternatives []Alternative `json:"alternatives"`
}
