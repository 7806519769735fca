package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// listTemplates retrieves every template without exercises, seeded first.
func (r *sqliteRepository) listTemplates(ctx context.Context) ([]Template, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, name, description, type, duration_minutes, is_user_created
		FROM workout_templates
		ORDER BY is_user_created, name`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var t Template
		if err = rows.Scan(&t.ID, &t.Name, &t.Description, &t.Type, &t.DurationMinutes, &t.UserCreated); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return templates, nil
}

// getTemplate retrieves a template with its exercises in position order, or
// ErrNotFound.
func (r *sqliteRepository) getTemplate(ctx context.Context, id string) (Template, error) {
	var t Template
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, description, type, duration_minutes, is_user_created
		FROM workout_templates
		WHERE id = ?`, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.Type, &t.DurationMinutes, &t.UserCreated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, ErrNotFound
	}
	if err != nil {
		return Template{}, fmt.Errorf("query template: %w", err)
	}

	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, template_id, exercise_id, exercise_name, position,
		       target_sets, target_reps, suggested_weight, rest_seconds
		FROM template_exercises
		WHERE template_id = ?
		ORDER BY position`, id)
	if err != nil {
		return Template{}, fmt.Errorf("query template exercises: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ex TemplateExercise
		err = rows.Scan(
			&ex.ID, &ex.TemplateID, &ex.ExerciseID, &ex.ExerciseName, &ex.Position,
			&ex.TargetSets, &ex.TargetReps, &ex.SuggestedWeight, &ex.RestSeconds,
		)
		if err != nil {
			return Template{}, fmt.Errorf("scan template exercise: %w", err)
		}
		t.Exercises = append(t.Exercises, ex)
	}
	if err = rows.Err(); err != nil {
		return Template{}, fmt.Errorf("iterate template exercises: %w", err)
	}
	return t, nil
}

// insertTemplate stores a template with its exercises in one transaction.
func (r *sqliteRepository) insertTemplate(ctx context.Context, t Template) error {
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
		INSERT INTO workout_templates (id, name, description, type, duration_minutes, is_user_created)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, string(t.Type), t.DurationMinutes, t.UserCreated,
	)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}

	for _, ex := range t.Exercises {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO template_exercises (
				id, template_id, exercise_id, exercise_name, position,
				target_sets, target_reps, suggested_weight, rest_seconds
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ex.ID, ex.TemplateID, ex.ExerciseID, ex.ExerciseName, ex.Position,
			ex.TargetSets, ex.TargetReps, ex.SuggestedWeight, ex.RestSeconds,
		)
		if err != nil {
			return fmt.Errorf("insert template exercise: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// deleteTemplate removes a user-created template with its exercises. Seeded
// templates are refused.
func (r *sqliteRepository) deleteTemplate(ctx context.Context, id string) error {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", rollbackErr))
		}
	}(tx)

	if _, err = tx.ExecContext(ctx, `DELETE FROM template_exercises WHERE template_id = ?`, id); err != nil {
		return fmt.Errorf("delete template exercises: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		DELETE FROM workout_templates WHERE id = ? AND is_user_created = 1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
