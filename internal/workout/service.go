package workout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/sqlite"
)

const (
	defaultTargetSets  = 3
	defaultTargetReps  = 10
	defaultRestSeconds = 90
)

// Service handles the business logic for workouts.
type Service struct {
	repo   *sqliteRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new workout service.
func NewService(db *sqlite.Database, logger *slog.Logger) *Service {
	return &Service{
		repo:   newSQLiteRepository(db, logger),
		logger: logger,
		now:    time.Now,
	}
}

// dateOnly strips the time-of-day so that session dates compare by calendar
// day.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Create creates a planned workout for the given day.
func (s *Service) Create(ctx context.Context, date time.Time, workoutType Type) (Workout, error) {
	return s.create(ctx, date, workoutType, false)
}

// CreateAIGenerated creates a planned workout flagged as AI generated.
func (s *Service) CreateAIGenerated(ctx context.Context, date time.Time, workoutType Type) (Workout, error) {
	return s.create(ctx, date, workoutType, true)
}

func (s *Service) create(ctx context.Context, date time.Time, workoutType Type, aiGenerated bool) (Workout, error) {
	switch workoutType {
	case TypePush, TypePull, TypeLegs, TypeCustom:
	default:
		return Workout{}, fmt.Errorf("invalid workout type %q", workoutType)
	}

	w := Workout{
		ID:          uuid.NewString(),
		Date:        dateOnly(date),
		Type:        workoutType,
		Status:      StatusPlanned,
		AIGenerated: aiGenerated,
	}
	if err := s.repo.createWorkout(ctx, w); err != nil {
		return Workout{}, fmt.Errorf("create workout: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "created workout",
		slog.String("id", w.ID),
		slog.String("type", string(workoutType)),
		slog.String("date", w.Date.Format(dateFormat)))
	return w, nil
}

// Get retrieves a workout with its exercises and sets.
func (s *Service) Get(ctx context.Context, id string) (Detail, error) {
	w, err := s.repo.getWorkout(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("get workout: %w", err)
	}

	exercises, err := s.repo.exercisesForWorkout(ctx, id)
	if err != nil {
		return Detail{}, fmt.Errorf("get workout exercises: %w", err)
	}

	detail := Detail{Workout: w, Exercises: make([]ExerciseDetail, 0, len(exercises))}
	for _, ex := range exercises {
		sets, setsErr := s.repo.setsForExercise(ctx, ex.ID)
		if setsErr != nil {
			return Detail{}, fmt.Errorf("get exercise sets: %w", setsErr)
		}
		detail.Exercises = append(detail.Exercises, ExerciseDetail{Exercise: ex, Sets: sets})
	}
	return detail, nil
}

// ForDate retrieves the workouts dated on the given day.
func (s *Service) ForDate(ctx context.Context, date time.Time) ([]Workout, error) {
	workouts, err := s.repo.workoutsOn(ctx, dateOnly(date))
	if err != nil {
		return nil, fmt.Errorf("workouts for date: %w", err)
	}
	return workouts, nil
}

// ActiveForDate returns the planned or in-progress workout for the day, or
// ErrNotFound when the day is clear. The chat executor uses this as its
// create guard.
func (s *Service) ActiveForDate(ctx context.Context, date time.Time) (Workout, error) {
	workouts, err := s.ForDate(ctx, date)
	if err != nil {
		return Workout{}, err
	}
	for _, w := range workouts {
		if w.Status == StatusPlanned || w.Status == StatusInProgress {
			return w, nil
		}
	}
	return Workout{}, ErrNotFound
}

// Recent retrieves the most recent workouts, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Workout, error) {
	workouts, err := s.repo.recentWorkouts(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("recent workouts: %w", err)
	}
	return workouts, nil
}

// Start transitions a planned workout to in progress and stamps started_at.
// Starting an already running workout is a no-op.
func (s *Service) Start(ctx context.Context, id string) error {
	w, err := s.repo.getWorkout(ctx, id)
	if err != nil {
		return fmt.Errorf("get workout: %w", err)
	}
	switch w.Status {
	case StatusCompleted:
		return ErrAlreadyCompleted
	case StatusInProgress:
		return nil
	case StatusPlanned, StatusSkipped:
	}

	startedAt := s.now()
	if err = s.repo.setWorkoutStatus(ctx, id, StatusInProgress, &startedAt); err != nil {
		return fmt.Errorf("start workout: %w", err)
	}
	return nil
}

// Skip marks a workout as skipped without computing aggregates.
func (s *Service) Skip(ctx context.Context, id string) error {
	w, err := s.repo.getWorkout(ctx, id)
	if err != nil {
		return fmt.Errorf("get workout: %w", err)
	}
	if w.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if err = s.repo.setWorkoutStatus(ctx, id, StatusSkipped, nil); err != nil {
		return fmt.Errorf("skip workout: %w", err)
	}
	return nil
}

// Complete finishes a workout: aggregates completed sets into the session
// totals, appends one history entry per exercise with at least one completed
// set, and persists everything atomically. Completing twice returns
// ErrAlreadyCompleted so the ledger never gets duplicate entries.
func (s *Service) Complete(ctx context.Context, id string, notes string) (Summary, error) {
	w, err := s.repo.getWorkout(ctx, id)
	if err != nil {
		return Summary{}, fmt.Errorf("get workout: %w", err)
	}
	if w.Status == StatusCompleted {
		return Summary{}, ErrAlreadyCompleted
	}

	exercises, err := s.repo.exercisesForWorkout(ctx, id)
	if err != nil {
		return Summary{}, fmt.Errorf("get workout exercises: %w", err)
	}

	now := s.now()
	summary := Summary{ExerciseCount: len(exercises)}
	var history []HistoryEntry

	for _, ex := range exercises {
		sets, setsErr := s.repo.setsForExercise(ctx, ex.ID)
		if setsErr != nil {
			return Summary{}, fmt.Errorf("get exercise sets: %w", setsErr)
		}

		var (
			volume     float64
			bestWeight float64
			bestReps   int
			completed  int
		)
		for _, set := range sets {
			if !set.Completed || set.ActualReps == nil || set.ActualWeight == nil {
				continue
			}
			weight, reps := *set.ActualWeight, *set.ActualReps
			volume += weight * float64(reps)
			completed++
			if set.PR {
				summary.PRCount++
			}
			// Best set by weight, reps as the tiebreak.
			if weight > bestWeight || (weight == bestWeight && reps > bestReps) {
				bestWeight, bestReps = weight, reps
			}
		}

		if completed > 0 {
			summary.TotalVolume += volume
			summary.SetCount += completed
			history = append(history, HistoryEntry{
				ID:           uuid.NewString(),
				ExerciseID:   ex.ExerciseID,
				ExerciseName: ex.ExerciseName,
				Date:         w.Date,
				BestWeight:   bestWeight,
				BestReps:     bestReps,
				TotalVolume:  volume,
				TotalSets:    completed,
				OneRepMax:    Estimate1RM(bestWeight, bestReps),
			})
		}
	}

	// A workout completed without ever being started collapses to zero
	// duration.
	if w.StartedAt != nil {
		summary.DurationMinutes = int(math.Round(now.Sub(*w.StartedAt).Minutes()))
	}

	w.Status = StatusCompleted
	w.TotalVolume = summary.TotalVolume
	w.DurationMinutes = summary.DurationMinutes
	w.CompletedAt = &now
	if notes != "" {
		w.Notes = notes
	}

	if err = s.repo.finalizeWorkout(ctx, w, history); err != nil {
		return Summary{}, fmt.Errorf("finalize workout: %w", err)
	}

	s.logger.LogAttrs(ctx, slog.LevelInfo, "completed workout",
		slog.String("id", id),
		slog.Float64("totalVolume", summary.TotalVolume),
		slog.Int("prCount", summary.PRCount))
	return summary, nil
}

// Delete discards a workout and cascades to its exercises and sets. Completed
// workouts are part of the permanent record and cannot be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	w, err := s.repo.getWorkout(ctx, id)
	if err != nil {
		return fmt.Errorf("get workout: %w", err)
	}
	if w.Status == StatusCompleted {
		return ErrAlreadyCompleted
	}
	if err = s.repo.deleteWorkout(ctx, id); err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	return nil
}

// ExercisePlan carries the optional plan values for adding an exercise to a
// workout. Zero values fall back to 3 sets of 10 with 90 seconds rest.
type ExercisePlan struct {
	TargetSets      int
	TargetReps      int
	SuggestedWeight float64
	RestSeconds     int
}

// AddExercise appends an exercise slot at the end of the workout and seeds
// its sets 1..targetSets from the plan. The exercise id is not validated
// against the catalog since it may reference an AI-synthesized exercise.
func (s *Service) AddExercise(ctx context.Context, workoutID, exerciseID, exerciseName string, plan ExercisePlan) (string, error) {
	if _, err := s.repo.getWorkout(ctx, workoutID); err != nil {
		return "", fmt.Errorf("get workout: %w", err)
	}

	if plan.TargetSets <= 0 {
		plan.TargetSets = defaultTargetSets
	}
	if plan.TargetReps <= 0 {
		plan.TargetReps = defaultTargetReps
	}
	if plan.RestSeconds <= 0 {
		plan.RestSeconds = defaultRestSeconds
	}

	existing, err := s.repo.exercisesForWorkout(ctx, workoutID)
	if err != nil {
		return "", fmt.Errorf("get workout exercises: %w", err)
	}

	ex := Exercise{
		ID:              uuid.NewString(),
		WorkoutID:       workoutID,
		ExerciseID:      exerciseID,
		ExerciseName:    exerciseName,
		Position:        len(existing),
		TargetSets:      plan.TargetSets,
		TargetReps:      plan.TargetReps,
		SuggestedWeight: plan.SuggestedWeight,
		RestSeconds:     plan.RestSeconds,
	}

	sets := make([]Set, 0, plan.TargetSets)
	for number := 1; number <= plan.TargetSets; number++ {
		sets = append(sets, Set{
			ID:                uuid.NewString(),
			WorkoutExerciseID: ex.ID,
			SetNumber:         number,
			TargetReps:        plan.TargetReps,
			TargetWeight:      plan.SuggestedWeight,
			SetType:           SetTypeWorking,
		})
	}

	if err = s.repo.insertExercise(ctx, ex, sets); err != nil {
		return "", fmt.Errorf("add exercise: %w", err)
	}
	return ex.ID, nil
}

// PlanUpdate carries the optional plan changes for an existing exercise
// slot. Nil fields are left untouched.
type PlanUpdate struct {
	TargetSets      *int
	TargetReps      *int
	SuggestedWeight *float64
	RestSeconds     *int
}

// UpdateExercisePlan adjusts the plan values of an exercise slot. Changing
// target sets does not reshape already seeded sets; AddSet and DeleteSet
// manage those.
func (s *Service) UpdateExercisePlan(ctx context.Context, workoutExerciseID string, update PlanUpdate) error {
	ex, err := s.repo.getExercise(ctx, workoutExerciseID)
	if err != nil {
		return fmt.Errorf("get workout exercise: %w", err)
	}
	if update.TargetSets != nil {
		ex.TargetSets = *update.TargetSets
	}
	if update.TargetReps != nil {
		ex.TargetReps = *update.TargetReps
	}
	if update.SuggestedWeight != nil {
		ex.SuggestedWeight = *update.SuggestedWeight
	}
	if update.RestSeconds != nil {
		ex.RestSeconds = *update.RestSeconds
	}
	if err = s.repo.updateExercisePlan(ctx, ex); err != nil {
		return fmt.Errorf("update exercise plan: %w", err)
	}
	return nil
}

// RemoveExercise deletes an exercise slot and its sets. Sibling positions are
// left as they are; readers sort by position so gaps are harmless.
func (s *Service) RemoveExercise(ctx context.Context, workoutExerciseID string) error {
	if _, err := s.repo.getExercise(ctx, workoutExerciseID); err != nil {
		return fmt.Errorf("get workout exercise: %w", err)
	}
	if err := s.repo.deleteExercise(ctx, workoutExerciseID); err != nil {
		return fmt.Errorf("remove exercise: %w", err)
	}
	return nil
}

// AddSet appends one more set to an exercise, copying the targets from the
// last existing set, and bumps the parent's target set count to match.
func (s *Service) AddSet(ctx context.Context, workoutExerciseID string) (Set, error) {
	if _, err := s.repo.getExercise(ctx, workoutExerciseID); err != nil {
		return Set{}, fmt.Errorf("get workout exercise: %w", err)
	}

	sets, err := s.repo.setsForExercise(ctx, workoutExerciseID)
	if err != nil {
		return Set{}, fmt.Errorf("get exercise sets: %w", err)
	}

	targetReps, targetWeight := defaultTargetReps, 0.0
	if len(sets) > 0 {
		last := sets[len(sets)-1]
		targetReps, targetWeight = last.TargetReps, last.TargetWeight
	}

	set := Set{
		ID:                uuid.NewString(),
		WorkoutExerciseID: workoutExerciseID,
		SetNumber:         len(sets) + 1,
		TargetReps:        targetReps,
		TargetWeight:      targetWeight,
		SetType:           SetTypeWorking,
	}
	if err = s.repo.appendSet(ctx, set, len(sets)+1); err != nil {
		return Set{}, fmt.Errorf("append set: %w", err)
	}
	return set, nil
}

// DeleteSet removes a set and reports whether it was the exercise's only set,
// so the caller can offer to remove the now-empty exercise.
func (s *Service) DeleteSet(ctx context.Context, setID string) (bool, error) {
	set, err := s.repo.getSet(ctx, setID)
	if err != nil {
		return false, fmt.Errorf("get set: %w", err)
	}

	siblings, err := s.repo.setsForExercise(ctx, set.WorkoutExerciseID)
	if err != nil {
		return false, fmt.Errorf("get exercise sets: %w", err)
	}

	wasLast := len(siblings) == 1
	if err = s.repo.deleteSet(ctx, set, len(siblings)-1); err != nil {
		return false, fmt.Errorf("delete set: %w", err)
	}
	return wasLast, nil
}

// LogSet records the actual reps and weight for a set, detects a personal
// record against the exercise's full history, and marks the parent exercise
// completed once every sibling set is done. A missing set or parent is a
// silent no-op.
func (s *Service) LogSet(ctx context.Context, setID string, actualReps int, actualWeight float64) (bool, error) {
	set, err := s.repo.getSet(ctx, setID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get set: %w", err)
	}

	ex, err := s.repo.getExercise(ctx, set.WorkoutExerciseID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get workout exercise: %w", err)
	}

	isPR, err := s.isPersonalRecord(ctx, ex.ExerciseID, actualWeight, actualReps)
	if err != nil {
		return false, err
	}

	if err = s.repo.logSet(ctx, setID, actualReps, actualWeight, isPR, s.now()); err != nil {
		return false, fmt.Errorf("log set: %w", err)
	}

	// Re-check siblings for exercise completion. The set just written counts
	// as completed even if this read races a stale snapshot.
	siblings, err := s.repo.setsForExercise(ctx, ex.ID)
	if err != nil {
		return false, fmt.Errorf("get exercise sets: %w", err)
	}
	allDone := true
	for _, sibling := range siblings {
		if sibling.ID != setID && !sibling.Completed {
			allDone = false
			break
		}
	}
	if allDone {
		if err = s.repo.markExerciseCompleted(ctx, ex.ID); err != nil {
			return false, fmt.Errorf("mark exercise completed: %w", err)
		}
	}

	return isPR, nil
}

// isPersonalRecord applies the PR rule: the first weighted set for an
// exercise is always a record, later sets must beat the best historical 1RM
// estimate, and bodyweight sets never qualify.
func (s *Service) isPersonalRecord(ctx context.Context, exerciseID string, weight float64, reps int) (bool, error) {
	if weight <= 0 {
		return false, nil
	}
	best, hasHistory, err := s.repo.maxOneRepMax(ctx, exerciseID)
	if err != nil {
		return false, fmt.Errorf("max one rep max: %w", err)
	}
	if !hasHistory {
		return true, nil
	}
	return Estimate1RM(weight, reps) > best, nil
}

// History retrieves the performance ledger for an exercise, most recent
// first.
func (s *Service) History(ctx context.Context, exerciseID string) ([]HistoryEntry, error) {
	entries, err := s.repo.historyForExercise(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("exercise history: %w", err)
	}
	return entries, nil
}

// LastPerformance returns the most recent history entry for an exercise, or
// nil when the exercise was never performed.
func (s *Service) LastPerformance(ctx context.Context, exerciseID string) (*HistoryEntry, error) {
	entries, err := s.History(ctx, exerciseID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil //nolint:nilnil // no history is a valid answer, not an error.
	}
	return &entries[0], nil
}

// ProgressiveLoad suggests a working weight for an exercise: the last
// session's best weight, stepped up when the last session hit its rep
// target, and zero when no history exists so the template default wins.
func (s *Service) ProgressiveLoad(ctx context.Context, exerciseID string, targetReps int) (float64, error) {
	last, err := s.LastPerformance(ctx, exerciseID)
	if err != nil {
		return 0, err
	}
	if last == nil || last.BestWeight <= 0 {
		return 0, nil
	}
	if targetReps > 0 && last.BestReps >= targetReps {
		return last.BestWeight + progressiveLoadStep, nil
	}
	return last.BestWeight, nil
}

// AssignSupersetGroup sets or clears the superset group across several
// exercises of one workout atomically.
func (s *Service) AssignSupersetGroup(ctx context.Context, workoutID string, workoutExerciseIDs []string, group *int) error {
	if len(workoutExerciseIDs) == 0 {
		return nil
	}
	if err := s.repo.assignSupersetGroup(ctx, workoutID, workoutExerciseIDs, group); err != nil {
		return fmt.Errorf("assign superset group: %w", err)
	}
	return nil
}

// Catalog retrieves the exercise catalog.
func (s *Service) Catalog(ctx context.Context) ([]CatalogExercise, error) {
	exercises, err := s.repo.listCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("exercise catalog: %w", err)
	}
	return exercises, nil
}

// CatalogExercise retrieves one catalog entry.
func (s *Service) CatalogExercise(ctx context.Context, id string) (CatalogExercise, error) {
	ex, err := s.repo.getCatalogExercise(ctx, id)
	if err != nil {
		return CatalogExercise{}, fmt.Errorf("catalog exercise: %w", err)
	}
	return ex, nil
}

// ResolveExercise matches a free-text exercise name against the catalog:
// case-insensitive exact match first, then prefix, then substring, first
// match wins. When nothing matches, a custom catalog entry is created with a
// stable id synthesized from the lowercased underscore-joined name.
func (s *Service) ResolveExercise(ctx context.Context, name string) (CatalogExercise, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return CatalogExercise{}, fmt.Errorf("empty exercise name: %w", ErrNotFound)
	}

	catalog, err := s.repo.listCatalog(ctx)
	if err != nil {
		return CatalogExercise{}, fmt.Errorf("exercise catalog: %w", err)
	}

	lower := strings.ToLower(trimmed)
	for _, ex := range catalog {
		if strings.ToLower(ex.Name) == lower {
			return ex, nil
		}
	}
	for _, ex := range catalog {
		if strings.HasPrefix(strings.ToLower(ex.Name), lower) {
			return ex, nil
		}
	}
	for _, ex := range catalog {
		if strings.Contains(strings.ToLower(ex.Name), lower) {
			return ex, nil
		}
	}

	ex := CatalogExercise{
		ID:     SynthesizeExerciseID(trimmed),
		Name:   trimmed,
		Custom: true,
	}
	if err = s.repo.insertCatalogExercise(ctx, ex); err != nil {
		return CatalogExercise{}, fmt.Errorf("insert custom exercise: %w", err)
	}
	return ex, nil
}

// SynthesizeExerciseID derives a stable catalog id from a free-text exercise
// name by lowercasing and joining the words with underscores.
func SynthesizeExerciseID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}
