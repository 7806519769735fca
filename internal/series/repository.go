package series

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	liftlogerrors "github.com/liftlog/liftlog/internal/errors"
	"github.com/liftlog/liftlog/internal/sqlite"
)

// ErrNotFound is returned when a series or point does not exist.
var ErrNotFound = liftlogerrors.NewSentinel("series not found")

const (
	dateFormat = time.DateOnly
	// Nanosecond precision keeps the last aggregation deterministic for
	// points logged in quick succession.
	timestampFormat = "2006-01-02T15:04:05.000000000Z"
)

type sqliteRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newSQLiteRepository(db *sqlite.Database, logger *slog.Logger) *sqliteRepository {
	return &sqliteRepository{db: db, logger: logger}
}

func (r *sqliteRepository) list(ctx context.Context) ([]Series, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, name, unit, aggregation, tracker_mode, daily_goal, quick_add_presets
		FROM custom_series
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var all []Series
	for rows.Next() {
		s, scanErr := scanSeries(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		all = append(all, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series: %w", err)
	}
	return all, nil
}

func (r *sqliteRepository) get(ctx context.Context, id string) (Series, error) {
	row := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, name, unit, aggregation, tracker_mode, daily_goal, quick_add_presets
		FROM custom_series
		WHERE id = ?`, id)

	s, err := scanSeries(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Series{}, ErrNotFound
	}
	if err != nil {
		return Series{}, err
	}
	return s, nil
}

func (r *sqliteRepository) insert(ctx context.Context, s Series) error {
	presets, err := json.Marshal(s.QuickAddPresets)
	if err != nil {
		return fmt.Errorf("marshal presets: %w", err)
	}
	if s.QuickAddPresets == nil {
		presets = []byte("[]")
	}

	_, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO custom_series (id, name, unit, aggregation, tracker_mode, daily_goal, quick_add_presets)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Unit, string(s.Aggregation), string(s.TrackerMode),
		s.DailyGoal, string(presets),
	)
	if err != nil {
		return fmt.Errorf("insert series: %w", err)
	}
	return nil
}

// deleteSeries removes a series and its points in one transaction.
func (r *sqliteRepository) deleteSeries(ctx context.Context, id string) error {
	tx, err := r.db.ReadWrite.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			r.logger.LogAttrs(ctx, slog.LevelError, "rollback transaction", slog.Any("error", rollbackErr))
		}
	}(tx)

	if _, err = tx.ExecContext(ctx, `DELETE FROM custom_points WHERE series_id = ?`, id); err != nil {
		return fmt.Errorf("delete points: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM custom_series WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete series: %w", err)
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

func (r *sqliteRepository) insertPoint(ctx context.Context, p Point) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO custom_points (id, series_id, point_date, value, recorded_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.SeriesID, p.Date.Format(dateFormat), p.Value,
		p.RecordedAt.UTC().Format(timestampFormat),
	)
	if err != nil {
		return fmt.Errorf("insert point: %w", err)
	}
	return nil
}

func (r *sqliteRepository) deletePoint(ctx context.Context, id string) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM custom_points WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete point: %w", err)
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

// pointsInRange retrieves points for the series within [from, to], oldest
// first with same-day points in logged order.
func (r *sqliteRepository) pointsInRange(ctx context.Context, seriesID string, from, to time.Time) ([]Point, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, series_id, point_date, value, recorded_at
		FROM custom_points
		WHERE series_id = ? AND point_date >= ? AND point_date <= ?
		ORDER BY point_date, recorded_at`,
		seriesID, from.Format(dateFormat), to.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var (
			p           Point
			dateStr     string
			recordedStr string
		)
		if err = rows.Scan(&p.ID, &p.SeriesID, &dateStr, &p.Value, &recordedStr); err != nil {
			return nil, fmt.Errorf("scan point: %w", err)
		}
		if p.Date, err = time.Parse(dateFormat, dateStr); err != nil {
			return nil, fmt.Errorf("parse point date: %w", err)
		}
		if p.RecordedAt, err = time.Parse(timestampFormat, recordedStr); err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate points: %w", err)
	}
	return points, nil
}

func scanSeries(row interface{ Scan(...any) error }) (Series, error) {
	var (
		s         Series
		dailyGoal sql.NullFloat64
		presets   string
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Unit, &s.Aggregation, &s.TrackerMode, &dailyGoal, &presets); err != nil {
		return Series{}, err
	}
	if dailyGoal.Valid {
		goal := dailyGoal.Float64
		s.DailyGoal = &goal
	}
	if err := json.Unmarshal([]byte(presets), &s.QuickAddPresets); err != nil {
		return Series{}, fmt.Errorf("parse presets: %w", err)
	}
	return s, nil
}
