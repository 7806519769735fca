package workout

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// historyForExercise retrieves every history entry for an exercise, most
// recent session first.
func (r *sqliteRepository) historyForExercise(ctx context.Context, exerciseID string) ([]HistoryEntry, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, exercise_id, exercise_name, workout_date,
		       best_weight, best_reps, total_volume, total_sets, one_rep_max_estimate
		FROM exercise_history
		WHERE exercise_id = ?
		ORDER BY workout_date DESC, id DESC`, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("query exercise history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			entry   HistoryEntry
			dateStr string
		)
		err = rows.Scan(
			&entry.ID, &entry.ExerciseID, &entry.ExerciseName, &dateStr,
			&entry.BestWeight, &entry.BestReps, &entry.TotalVolume, &entry.TotalSets,
			&entry.OneRepMax,
		)
		if err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if entry.Date, err = time.Parse(dateFormat, dateStr); err != nil {
			return nil, fmt.Errorf("parse history date: %w", err)
		}
		entries = append(entries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history entries: %w", err)
	}
	return entries, nil
}

// maxOneRepMax returns the highest recorded 1RM estimate for an exercise and
// whether any history exists at all.
func (r *sqliteRepository) maxOneRepMax(ctx context.Context, exerciseID string) (float64, bool, error) {
	var best sql.NullFloat64
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT MAX(one_rep_max_estimate) FROM exercise_history WHERE exercise_id = ?`,
		exerciseID).Scan(&best)
	if err != nil {
		return 0, false, fmt.Errorf("query max one rep max: %w", err)
	}
	return best.Float64, best.Valid, nil
}

// insertHistoryTx appends one ledger entry within an open transaction.
func insertHistoryTx(ctx context.Context, tx *sql.Tx, entry HistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO exercise_history (
			id, exercise_id, exercise_name, workout_date,
			best_weight, best_reps, total_volume, total_sets, one_rep_max_estimate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ExerciseID, entry.ExerciseName, entry.Date.Format(dateFormat),
		entry.BestWeight, entry.BestReps, entry.TotalVolume, entry.TotalSets, entry.OneRepMax,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}
