// Package backup exports the full user dataset as a JSON archive and
// restores such archives. Everything except the seeded template catalog is
// replaced wholesale on import.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	liftlogerrors "github.com/liftlog/liftlog/internal/errors"
	"github.com/liftlog/liftlog/internal/sqlite"
)

// ErrIncompatible is returned for archives this version cannot restore.
var ErrIncompatible = liftlogerrors.NewSentinel("incompatible backup archive")

const archiveVersion = "1.0"

// userTables lists the exported tables in parent-before-child order. Import
// deletes in reverse and inserts in this order so foreign keys hold at every
// step. The session table is deliberately absent.
var userTables = []string{
	"user_profile",
	"exercises",
	"workouts",
	"workout_exercises",
	"exercise_sets",
	"exercise_history",
	"workout_templates",
	"template_exercises",
	"custom_series",
	"custom_points",
	"withings_data",
	"body_measurements",
}

// Row is one table row keyed by column name.
type Row map[string]any

// Archive is the export format.
type Archive struct {
	Version    string           `json:"version"`
	ExportedAt time.Time        `json:"exportedAt"`
	AppVersion string           `json:"appVersion"`
	Tables     map[string][]Row `json:"tables"`
}

// Service exports and imports backup archives.
type Service struct {
	db         *sqlite.Database
	logger     *slog.Logger
	appVersion string
	now        func() time.Time
}

// NewService creates the backup service. appVersion is stamped into exports
// for diagnostics only.
func NewService(db *sqlite.Database, appVersion string, logger *slog.Logger) *Service {
	return &Service{
		db:         db,
		logger:     logger,
		appVersion: appVersion,
		now:        time.Now,
	}
}

// Export snapshots every user table into an archive.
func (s *Service) Export(ctx context.Context) (Archive, error) {
	archive := Archive{
		Version:    archiveVersion,
		ExportedAt: s.now().UTC(),
		AppVersion: s.appVersion,
		Tables:     make(map[string][]Row, len(userTables)),
	}
	for _, table := range userTables {
		rows, err := s.exportTable(ctx, table)
		if err != nil {
			return Archive{}, fmt.Errorf("export %s: %w", table, err)
		}
		archive.Tables[table] = rows
	}
	return archive, nil
}

func (s *Service) exportTable(ctx context.Context, table string) ([]Row, error) {
	rows, err := s.db.ReadOnly.QueryContext(ctx, "SELECT * FROM "+table)
	if err != nil {
		return nil, fmt.Errorf("query table: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	exported := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err = rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, column := range columns {
			if b, ok := values[i].([]byte); ok {
				row[column] = string(b)
				continue
			}
			row[column] = values[i]
		}
		exported = append(exported, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return exported, nil
}

// Import restores an archive in one transaction. Every user table is cleared
// and refilled from the archive, except workout templates: seeded templates
// stay in place and only user-created ones are replaced, merged by id.
func (s *Service) Import(ctx context.Context, archive Archive) error {
	if archive.Version != archiveVersion {
		return fmt.Errorf("archive version %q: %w", archive.Version, ErrIncompatible)
	}

	tx, err := s.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", rollbackErr))
		}
	}(tx)

	for i := len(userTables) - 1; i >= 0; i-- {
		if err = s.clearTable(ctx, tx, userTables[i]); err != nil {
			return err
		}
	}
	for _, table := range userTables {
		if err = s.fillTable(ctx, tx, table, archive.Tables[table]); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "backup imported",
		slog.Time("exportedAt", archive.ExportedAt),
		slog.String("appVersion", archive.AppVersion))
	return nil
}

// clearTable deletes the rows the import will replace. Seeded templates and
// their exercises survive so an archive from an older seed catalog cannot
// wipe the current one.
func (s *Service) clearTable(ctx context.Context, tx *sql.Tx, table string) error {
	var query string
	switch table {
	case "workout_templates":
		query = "DELETE FROM workout_templates WHERE is_user_created = 1"
	case "template_exercises":
		query = `DELETE FROM template_exercises WHERE template_id IN
			(SELECT id FROM workout_templates WHERE is_user_created = 1)`
	default:
		query = "DELETE FROM " + table
	}
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	return nil
}

func (s *Service) fillTable(ctx context.Context, tx *sql.Tx, table string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	columns, err := tableColumns(ctx, tx, table)
	if err != nil {
		return fmt.Errorf("columns of %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)
	if table == "workout_templates" || table == "template_exercises" {
		// Seeded rows already exist; archived copies of them are ignored.
		query += " ON CONFLICT (id) DO NOTHING"
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert into %s: %w", table, err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "close statement", slog.Any("error", closeErr))
		}
	}()

	for _, row := range rows {
		values := make([]any, len(columns))
		for i, column := range columns {
			values[i] = row[column]
		}
		if _, err = stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}
	return nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, "SELECT * FROM "+table+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("probe table: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate probe: %w", err)
	}
	return columns, nil
}
