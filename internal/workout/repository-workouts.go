package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// createWorkout inserts a new workout row.
func (r *sqliteRepository) createWorkout(ctx context.Context, w Workout) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO workouts (
			id, workout_date, type, status, ai_generated, template_id, notes, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.Date.Format(dateFormat), string(w.Type), string(w.Status),
		w.AIGenerated, nullableString(w.TemplateID), w.Notes,
		formatTimestamp(w.StartedAt), formatTimestamp(w.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("insert workout: %w", err)
	}
	return nil
}

// getWorkout retrieves a single workout row, or ErrNotFound.
func (r *sqliteRepository) getWorkout(ctx context.Context, id string) (Workout, error) {
	row := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, workout_date, type, status, total_volume, duration_minutes,
		       ai_generated, template_id, notes, started_at, completed_at
		FROM workouts
		WHERE id = ?`, id)

	w, err := scanWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Workout{}, ErrNotFound
	}
	if err != nil {
		return Workout{}, fmt.Errorf("query workout: %w", err)
	}
	return w, nil
}

// workoutsOn retrieves every workout dated on the given day.
func (r *sqliteRepository) workoutsOn(ctx context.Context, date time.Time) ([]Workout, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, workout_date, type, status, total_volume, duration_minutes,
		       ai_generated, template_id, notes, started_at, completed_at
		FROM workouts
		WHERE workout_date = ?
		ORDER BY id`, date.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("query workouts for date: %w", err)
	}
	defer rows.Close()
	return collectWorkouts(rows)
}

// recentWorkouts retrieves the most recent workouts, newest first.
func (r *sqliteRepository) recentWorkouts(ctx context.Context, limit int) ([]Workout, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, workout_date, type, status, total_volume, duration_minutes,
		       ai_generated, template_id, notes, started_at, completed_at
		FROM workouts
		ORDER BY workout_date DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent workouts: %w", err)
	}
	defer rows.Close()
	return collectWorkouts(rows)
}

// setWorkoutStatus transitions a workout's status, stamping started_at on the
// first start. Transitions away from completed are refused by the service
// before reaching here.
func (r *sqliteRepository) setWorkoutStatus(ctx context.Context, id string, status Status, startedAt *time.Time) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE workouts
		SET status = ?,
		    started_at = COALESCE(started_at, ?)
		WHERE id = ?`,
		string(status), formatTimestamp(startedAt), id)
	if err != nil {
		return fmt.Errorf("update workout status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// finalizeWorkout atomically persists the completion aggregates and appends
// the history ledger entries produced by the same completion.
func (r *sqliteRepository) finalizeWorkout(ctx context.Context, w Workout, history []HistoryEntry) error {
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
		UPDATE workouts
		SET status = ?, total_volume = ?, duration_minutes = ?, notes = ?, completed_at = ?
		WHERE id = ?`,
		string(w.Status), w.TotalVolume, w.DurationMinutes, w.Notes,
		formatTimestamp(w.CompletedAt), w.ID)
	if err != nil {
		return fmt.Errorf("update completed workout: %w", err)
	}

	for _, entry := range history {
		if err = insertHistoryTx(ctx, tx, entry); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// deleteWorkout removes a workout and all its exercises and sets. The cascade
// runs explicitly inside one transaction rather than relying on the schema's
// ON DELETE CASCADE.
func (r *sqliteRepository) deleteWorkout(ctx context.Context, id string) error {
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
		DELETE FROM exercise_sets
		WHERE workout_exercise_id IN (
			SELECT id FROM workout_exercises WHERE workout_id = ?
		)`, id)
	if err != nil {
		return fmt.Errorf("delete exercise sets: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM workout_exercises WHERE workout_id = ?`, id); err != nil {
		return fmt.Errorf("delete workout exercises: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM workouts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for the shared workout scan.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(row rowScanner) (Workout, error) {
	var (
		w           Workout
		dateStr     string
		totalVolume sql.NullFloat64
		duration    sql.NullInt64
		templateID  sql.NullString
		notes       sql.NullString
		startedAt   sql.NullString
		completedAt sql.NullString
	)
	err := row.Scan(
		&w.ID, &dateStr, &w.Type, &w.Status, &totalVolume, &duration,
		&w.AIGenerated, &templateID, &notes, &startedAt, &completedAt,
	)
	if err != nil {
		return Workout{}, err
	}

	if w.Date, err = time.Parse(dateFormat, dateStr); err != nil {
		return Workout{}, fmt.Errorf("parse workout date: %w", err)
	}
	w.TotalVolume = totalVolume.Float64
	w.DurationMinutes = int(duration.Int64)
	w.TemplateID = templateID.String
	w.Notes = notes.String
	if w.StartedAt, err = parseTimestamp(startedAt); err != nil {
		return Workout{}, fmt.Errorf("parse started_at: %w", err)
	}
	if w.CompletedAt, err = parseTimestamp(completedAt); err != nil {
		return Workout{}, fmt.Errorf("parse completed_at: %w", err)
	}
	return w, nil
}

func collectWorkouts(rows *sql.Rows) ([]Workout, error) {
	var workouts []Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		workouts = append(workouts, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workouts: %w", err)
	}
	return workouts, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
