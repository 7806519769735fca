package workout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Templates retrieves every workout template, seeded first.
func (s *Service) Templates(ctx context.Context) ([]Template, error) {
	templates, err := s.repo.listTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// Template retrieves one template with its exercises.
func (s *Service) Template(ctx context.Context, id string) (Template, error) {
	t, err := s.repo.getTemplate(ctx, id)
	if err != nil {
		return Template{}, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

// DeleteTemplate removes a user-created template. Seeded templates cannot be
// deleted.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.repo.deleteTemplate(ctx, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}

// CreateFromTemplate materializes a template into a planned workout for the
// given day. Each exercise gets a progressive load suggestion from its
// history; the template's static weight is used only when no positive
// suggestion exists. Set seeding is delegated to AddExercise so template
// workouts behave exactly like hand-built ones.
func (s *Service) CreateFromTemplate(ctx context.Context, templateID string, date time.Time) (string, error) {
	t, err := s.repo.getTemplate(ctx, templateID)
	if err != nil {
		return "", fmt.Errorf("get template: %w", err)
	}

	w := Workout{
		ID:         uuid.NewString(),
		Date:       dateOnly(date),
		Type:       t.Type.WorkoutType(),
		Status:     StatusPlanned,
		TemplateID: t.ID,
	}
	if err = s.repo.createWorkout(ctx, w); err != nil {
		return "", fmt.Errorf("create workout: %w", err)
	}

	for _, ex := range t.Exercises {
		weight := ex.SuggestedWeight
		progressive, loadErr := s.ProgressiveLoad(ctx, ex.ExerciseID, ex.TargetReps)
		if loadErr != nil {
			return "", fmt.Errorf("progressive load: %w", loadErr)
		}
		if progressive > 0 {
			weight = progressive
		}

		_, err = s.AddExercise(ctx, w.ID, ex.ExerciseID, ex.ExerciseName, ExercisePlan{
			TargetSets:      ex.TargetSets,
			TargetReps:      ex.TargetReps,
			SuggestedWeight: weight,
			RestSeconds:     ex.RestSeconds,
		})
		if err != nil {
			return "", fmt.Errorf("add template exercise: %w", err)
		}
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "created workout from template",
		slog.String("workoutID", w.ID),
		slog.String("templateID", templateID))
	return w.ID, nil
}

// SaveAsTemplate snapshots a workout's exercises into a new user-created
// template. The observed duration buckets to the nearest of 20, 30, or 45
// minutes, defaulting to 30 when unknown.
func (s *Service) SaveAsTemplate(ctx context.Context, workoutID, name, description string) (string, error) {
	detail, err := s.Get(ctx, workoutID)
	if err != nil {
		return "", err
	}

	t := Template{
		ID:              uuid.NewString(),
		Name:            name,
		Description:     description,
		Type:            TemplateType(detail.Type),
		DurationMinutes: bucketDuration(detail.DurationMinutes),
		UserCreated:     true,
	}
	for i, ex := range detail.Exercises {
		t.Exercises = append(t.Exercises, TemplateExercise{
			ID:              uuid.NewString(),
			TemplateID:      t.ID,
			ExerciseID:      ex.ExerciseID,
			ExerciseName:    ex.ExerciseName,
			Position:        i,
			TargetSets:      ex.TargetSets,
			TargetReps:      ex.TargetReps,
			SuggestedWeight: ex.SuggestedWeight,
			RestSeconds:     ex.RestSeconds,
		})
	}

	if err = s.repo.insertTemplate(ctx, t); err != nil {
		return "", fmt.Errorf("insert template: %w", err)
	}
	return t.ID, nil
}

// bucketDuration snaps an observed workout duration onto the nominal template
// durations.
func bucketDuration(minutes int) int {
	switch {
	case minutes <= 0:
		return 30
	case minutes <= 25:
		return 20
	case minutes <= 35:
		return 30
	default:
		return 45
	}
}
