package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	liftlogerrors "github.com/liftlog/liftlog/internal/errors"
	"github.com/liftlog/liftlog/internal/workout"
)

// ErrValidation marks a tool call rejected before any mutation happened.
var ErrValidation = liftlogerrors.NewSentinel("invalid tool call")

// Executor translates model tool calls into workout engine operations,
// adding the safety checks the engine itself does not perform.
type Executor struct {
	workouts *workout.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewExecutor creates a tool call executor over the workout engine.
func NewExecutor(workouts *workout.Service, logger *slog.Logger) *Executor {
	return &Executor{
		workouts: workouts,
		logger:   logger,
		now:      time.Now,
	}
}

// ExecuteCreate creates today's workout from a create_workout tool call. A
// planned or in-progress workout already dated today rejects the call so the
// model modifies the existing workout instead of duplicating it.
func (e *Executor) ExecuteCreate(ctx context.Context, input CreateWorkoutInput) (string, error) {
	workoutType := workout.Type(input.Type)
	switch workoutType {
	case workout.TypePush, workout.TypePull, workout.TypeLegs, workout.TypeCustom:
	default:
		return "", fmt.Errorf("unknown workout type %q: %w", input.Type, ErrValidation)
	}
	if len(input.Exercises) == 0 {
		return "", fmt.Errorf("create_workout needs at least one exercise: %w", ErrValidation)
	}

	today := e.now()
	existing, err := e.workouts.ActiveForDate(ctx, today)
	if err == nil {
		return "", fmt.Errorf(
			"a %s workout (%s) already exists for today, modify it instead: %w",
			existing.Status, existing.ID, workout.ErrWorkoutExists)
	}
	if !errors.Is(err, workout.ErrNotFound) {
		return "", fmt.Errorf("check today's workouts: %w", err)
	}

	w, err := e.workouts.Create(ctx, today, workoutType)
	if err != nil {
		return "", fmt.Errorf("create workout: %w", err)
	}

	for _, planned := range input.Exercises {
		catalogEx, resolveErr := e.workouts.ResolveExercise(ctx, planned.Name)
		if resolveErr != nil {
			return "", fmt.Errorf("resolve exercise %q: %w", planned.Name, resolveErr)
		}
		_, addErr := e.workouts.AddExercise(ctx, w.ID, catalogEx.ID, catalogEx.Name, workout.ExercisePlan{
			TargetSets:      planned.Sets,
			TargetReps:      planned.TargetReps,
			SuggestedWeight: planned.TargetWeight,
			RestSeconds:     planned.RestSeconds,
		})
		if addErr != nil {
			return "", fmt.Errorf("add exercise %q: %w", planned.Name, addErr)
		}
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "chat created workout",
		slog.String("workoutID", w.ID),
		slog.Int("exercises", len(input.Exercises)))
	return w.ID, nil
}

// ExecuteModify applies a modify_workout batch. The whole batch is validated
// against the workout before anything mutates: every remove and update must
// reference an exercise that exists and belongs to the stated workout, every
// add must carry a name. Validation failure rejects the batch with no
// partial application.
func (e *Executor) ExecuteModify(ctx context.Context, input ModifyWorkoutInput) error {
	if input.WorkoutID == "" {
		return fmt.Errorf("modify_workout needs a workout_id: %w", ErrValidation)
	}
	if len(input.Operations) == 0 {
		return fmt.Errorf("modify_workout needs at least one operation: %w", ErrValidation)
	}

	detail, err := e.workouts.Get(ctx, input.WorkoutID)
	if err != nil {
		return fmt.Errorf("get workout: %w", err)
	}

	owned := make(map[string]bool, len(detail.Exercises))
	for _, ex := range detail.Exercises {
		owned[ex.ID] = true
	}

	for i, op := range input.Operations {
		switch op.Action {
		case "remove", "update":
			if !owned[op.WorkoutExerciseID] {
				return fmt.Errorf(
					"operation %d: exercise %q is not part of workout %s: %w",
					i, op.WorkoutExerciseID, input.WorkoutID, ErrValidation)
			}
		case "add":
			if op.ExerciseName == "" {
				return fmt.Errorf("operation %d: add needs an exercise name: %w", i, ErrValidation)
			}
		default:
			return fmt.Errorf("operation %d: unknown action %q: %w", i, op.Action, ErrValidation)
		}
	}

	for _, op := range input.Operations {
		switch op.Action {
		case "remove":
			if err = e.workouts.RemoveExercise(ctx, op.WorkoutExerciseID); err != nil {
				return fmt.Errorf("remove exercise: %w", err)
			}
		case "update":
			update := workout.PlanUpdate{
				TargetSets:      op.TargetSets,
				TargetReps:      op.TargetReps,
				SuggestedWeight: op.TargetWeight,
				RestSeconds:     op.RestSeconds,
			}
			if err = e.workouts.UpdateExercisePlan(ctx, op.WorkoutExerciseID, update); err != nil {
				return fmt.Errorf("update exercise: %w", err)
			}
		case "add":
			catalogEx, resolveErr := e.workouts.ResolveExercise(ctx, op.ExerciseName)
			if resolveErr != nil {
				return fmt.Errorf("resolve exercise %q: %w", op.ExerciseName, resolveErr)
			}
			plan := workout.ExercisePlan{}
			if op.TargetSets != nil {
				plan.TargetSets = *op.TargetSets
			}
			if op.TargetReps != nil {
				plan.TargetReps = *op.TargetReps
			}
			if op.TargetWeight != nil {
				plan.SuggestedWeight = *op.TargetWeight
			}
			if op.RestSeconds != nil {
				plan.RestSeconds = *op.RestSeconds
			}
			if _, err = e.workouts.AddExercise(ctx, input.WorkoutID, catalogEx.ID, catalogEx.Name, plan); err != nil {
				return fmt.Errorf("add exercise %q: %w", op.ExerciseName, err)
			}
		}
	}

	e.logger.LogAttrs(ctx, slog.LevelInfo, "chat modified workout",
		slog.String("workoutID", input.WorkoutID),
		slog.Int("operations", len(input.Operations)))
	return nil
}
