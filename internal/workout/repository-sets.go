package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// insertExercise appends a workout exercise together with its seeded sets in
// one transaction.
func (r *sqliteRepository) insertExercise(ctx context.Context, ex Exercise, sets []Set) error {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", rollbackErr))
		}
	}(tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO workout_exercises (
			id, workout_id, exercise_id, exercise_name, position, superset_group,
			target_sets, target_reps, suggested_weight, rest_seconds, is_completed
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.WorkoutID, ex.ExerciseID, ex.ExerciseName, ex.Position, ex.SupersetGroup,
		ex.TargetSets, ex.TargetReps, ex.SuggestedWeight, ex.RestSeconds, ex.Completed,
	)
	if err != nil {
		return fmt.Errorf("insert workout exercise: %w", err)
	}

	for _, set := range sets {
		if err = insertSetTx(ctx, tx, set); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// getExercise retrieves a single workout exercise, or ErrNotFound.
func (r *sqliteRepository) getExercise(ctx context.Context, id string) (Exercise, error) {
	row := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, workout_id, exercise_id, exercise_name, position, superset_group,
		       target_sets, target_reps, suggested_weight, rest_seconds, is_completed
		FROM workout_exercises
		WHERE id = ?`, id)

	ex, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, ErrNotFound
	}
	if err != nil {
		return Exercise{}, fmt.Errorf("query workout exercise: %w", err)
	}
	return ex, nil
}

// exercisesForWorkout retrieves the workout's exercise slots in position
// order. Positions may have gaps after removals.
func (r *sqliteRepository) exercisesForWorkout(ctx context.Context, workoutID string) ([]Exercise, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, workout_id, exercise_id, exercise_name, position, superset_group,
		       target_sets, target_reps, suggested_weight, rest_seconds, is_completed
		FROM workout_exercises
		WHERE workout_id = ?
		ORDER BY position`, workoutID)
	if err != nil {
		return nil, fmt.Errorf("query workout exercises: %w", err)
	}
	defer rows.Close()

	var exercises []Exercise
	for rows.Next() {
		ex, scanErr := scanExercise(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan workout exercise: %w", scanErr)
		}
		exercises = append(exercises, ex)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout exercises: %w", err)
	}
	return exercises, nil
}

// updateExercisePlan rewrites the plan columns of a workout exercise.
func (r *sqliteRepository) updateExercisePlan(ctx context.Context, ex Exercise) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE workout_exercises
		SET target_sets = ?, target_reps = ?, suggested_weight = ?, rest_seconds = ?
		WHERE id = ?`,
		ex.TargetSets, ex.TargetReps, ex.SuggestedWeight, ex.RestSeconds, ex.ID)
	if err != nil {
		return fmt.Errorf("update exercise plan: %w", err)
	}
	return nil
}

// deleteExercise removes a workout exercise and its sets in one transaction.
// Sibling positions are not re-indexed.
func (r *sqliteRepository) deleteExercise(ctx context.Context, id string) error {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", rollbackErr))
		}
	}(tx)

	if _, err = tx.ExecContext(ctx, `DELETE FROM exercise_sets WHERE workout_exercise_id = ?`, id); err != nil {
		return fmt.Errorf("delete exercise sets: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM workout_exercises WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete workout exercise: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// getSet retrieves a single set, or ErrNotFound.
func (r *sqliteRepository) getSet(ctx context.Context, id string) (Set, error) {
	row := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, workout_exercise_id, set_number, target_reps, target_weight,
		       actual_reps, actual_weight, set_type, is_completed, is_pr, completed_at
		FROM exercise_sets
		WHERE id = ?`, id)

	set, err := scanSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Set{}, ErrNotFound
	}
	if err != nil {
		return Set{}, fmt.Errorf("query exercise set: %w", err)
	}
	return set, nil
}

// setsForExercise retrieves the exercise's sets ordered by set number.
func (r *sqliteRepository) setsForExercise(ctx context.Context, workoutExerciseID string) ([]Set, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, workout_exercise_id, set_number, target_reps, target_weight,
		       actual_reps, actual_weight, set_type, is_completed, is_pr, completed_at
		FROM exercise_sets
		WHERE workout_exercise_id = ?
		ORDER BY set_number`, workoutExerciseID)
	if err != nil {
		return nil, fmt.Errorf("query exercise sets: %w", err)
	}
	defer rows.Close()

	var sets []Set
	for rows.Next() {
		set, scanErr := scanSet(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan exercise set: %w", scanErr)
		}
		sets = append(sets, set)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercise sets: %w", err)
	}
	return sets, nil
}

// appendSet inserts one more set and updates the parent's target_sets to the
// new count, keeping target_sets a derived current-set count.
func (r *sqliteRepository) appendSet(ctx context.Context, set Set, newTargetSets int) error {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", rollbackErr))
		}
	}(tx)

	if err = insertSetTx(ctx, tx, set); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE workout_exercises SET target_sets = ? WHERE id = ?`,
		newTargetSets, set.WorkoutExerciseID)
	if err != nil {
		return fmt.Errorf("update target sets: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// deleteSet removes one set and updates the parent's target_sets to the
// remaining count.
func (r *sqliteRepository) deleteSet(ctx context.Context, set Set, remaining int) error {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", rollbackErr))
		}
	}(tx)

	if _, err = tx.ExecContext(ctx, `DELETE FROM exercise_sets WHERE id = ?`, set.ID); err != nil {
		return fmt.Errorf("delete exercise set: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE workout_exercises SET target_sets = ? WHERE id = ?`,
		remaining, set.WorkoutExerciseID)
	if err != nil {
		return fmt.Errorf("update target sets: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// logSet persists the actuals, completion, and PR flag onto a set.
func (r *sqliteRepository) logSet(ctx context.Context, id string, reps int, weight float64, isPR bool, completedAt time.Time) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE exercise_sets
		SET actual_reps = ?, actual_weight = ?, is_completed = 1, is_pr = ?, completed_at = ?
		WHERE id = ?`,
		reps, weight, isPR, completedAt.UTC().Format(timestampFormat), id)
	if err != nil {
		return fmt.Errorf("log exercise set: %w", err)
	}
	return nil
}

// markExerciseCompleted flags a workout exercise once every set is done.
func (r *sqliteRepository) markExerciseCompleted(ctx context.Context, id string) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE workout_exercises SET is_completed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark exercise completed: %w", err)
	}
	return nil
}

// assignSupersetGroup updates the superset group across several exercises of
// the same workout in one transaction. A nil group dissolves membership. The
// whole batch fails if any exercise does not belong to the workout.
func (r *sqliteRepository) assignSupersetGroup(ctx context.Context, workoutID string, exerciseIDs []string, group *int) error {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", rollbackErr))
		}
	}(tx)

	for _, id := range exerciseIDs {
		result, execErr := tx.ExecContext(ctx, `
			UPDATE workout_exercises SET superset_group = ?
			WHERE id = ? AND workout_id = ?`,
			group, id, workoutID)
		if execErr != nil {
			return fmt.Errorf("update superset group: %w", execErr)
		}
		rows, rowsErr := result.RowsAffected()
		if rowsErr != nil {
			return fmt.Errorf("get rows affected: %w", rowsErr)
		}
		if rows == 0 {
			return fmt.Errorf("exercise %s not in workout %s: %w", id, workoutID, ErrNotFound)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertSetTx(ctx context.Context, tx *sql.Tx, set Set) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO exercise_sets (
			id, workout_exercise_id, set_number, target_reps, target_weight,
			actual_reps, actual_weight, set_type, is_completed, is_pr, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		set.ID, set.WorkoutExerciseID, set.SetNumber, set.TargetReps, set.TargetWeight,
		set.ActualReps, set.ActualWeight, string(set.SetType), set.Completed, set.PR,
		formatTimestamp(set.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert exercise set: %w", err)
	}
	return nil
}

func scanExercise(row rowScanner) (Exercise, error) {
	var (
		ex    Exercise
		group sql.NullInt64
	)
	err := row.Scan(
		&ex.ID, &ex.WorkoutID, &ex.ExerciseID, &ex.ExerciseName, &ex.Position, &group,
		&ex.TargetSets, &ex.TargetReps, &ex.SuggestedWeight, &ex.RestSeconds, &ex.Completed,
	)
	if err != nil {
		return Exercise{}, err
	}
	if group.Valid {
		g := int(group.Int64)
		ex.SupersetGroup = &g
	}
	return ex, nil
}

func scanSet(row rowScanner) (Set, error) {
	var (
		set         Set
		actualReps  sql.NullInt64
		actualKg    sql.NullFloat64
		completedAt sql.NullString
	)
	err := row.Scan(
		&set.ID, &set.WorkoutExerciseID, &set.SetNumber, &set.TargetReps, &set.TargetWeight,
		&actualReps, &actualKg, &set.SetType, &set.Completed, &set.PR, &completedAt,
	)
	if err != nil {
		return Set{}, err
	}
	if actualReps.Valid {
		reps := int(actualReps.Int64)
		set.ActualReps = &reps
	}
	if actualKg.Valid {
		weight := actualKg.Float64
		set.ActualWeight = &weight
	}
	if set.CompletedAt, err = parseTimestamp(completedAt); err != nil {
		return Set{}, fmt.Errorf("parse completed_at: %w", err)
	}
	return set, nil
}
