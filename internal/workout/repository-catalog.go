package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// listCatalog retrieves the whole exercise catalog ordered by name.
func (r *sqliteRepository) listCatalog(ctx context.Context) ([]CatalogExercise, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, name, primary_muscles, equipment, description_markdown, is_custom
		FROM exercises
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query exercises: %w", err)
	}
	defer rows.Close()

	var exercises []CatalogExercise
	for rows.Next() {
		ex, scanErr := scanCatalogExercise(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		exercises = append(exercises, ex)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exercises: %w", err)
	}
	return exercises, nil
}

// getCatalogExercise retrieves one catalog entry, or ErrNotFound.
func (r *sqliteRepository) getCatalogExercise(ctx context.Context, id string) (CatalogExercise, error) {
	row := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, primary_muscles, equipment, description_markdown, is_custom
		FROM exercises
		WHERE id = ?`, id)

	ex, err := scanCatalogExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return CatalogExercise{}, ErrNotFound
	}
	if err != nil {
		return CatalogExercise{}, err
	}
	return ex, nil
}

// insertCatalogExercise adds a synthesized or user-defined exercise. An
// existing id is left untouched so repeated synthesis stays stable.
func (r *sqliteRepository) insertCatalogExercise(ctx context.Context, ex CatalogExercise) error {
	muscles, err := json.Marshal(orEmpty(ex.PrimaryMuscles))
	if err != nil {
		return fmt.Errorf("marshal primary muscles: %w", err)
	}
	equipment, err := json.Marshal(orEmpty(ex.Equipment))
	if err != nil {
		return fmt.Errorf("marshal equipment: %w", err)
	}

	_, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO exercises (id, name, primary_muscles, equipment, description_markdown, is_custom)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		ex.ID, ex.Name, string(muscles), string(equipment), ex.Description, ex.Custom,
	)
	if err != nil {
		return fmt.Errorf("insert exercise: %w", err)
	}
	return nil
}

func scanCatalogExercise(row rowScanner) (CatalogExercise, error) {
	var (
		ex        CatalogExercise
		muscles   string
		equipment string
	)
	if err := row.Scan(&ex.ID, &ex.Name, &muscles, &equipment, &ex.Description, &ex.Custom); err != nil {
		return CatalogExercise{}, err
	}
	if err := json.Unmarshal([]byte(muscles), &ex.PrimaryMuscles); err != nil {
		return CatalogExercise{}, fmt.Errorf("parse primary muscles: %w", err)
	}
	if err := json.Unmarshal([]byte(equipment), &ex.Equipment); err != nil {
		return CatalogExercise{}, fmt.Errorf("parse equipment: %w", err)
	}
	return ex, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
