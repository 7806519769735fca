package withings

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/sqlite"
)

const dateFormat = time.DateOnly

type sqliteRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newSQLiteRepository(db *sqlite.Database, logger *slog.Logger) *sqliteRepository {
	return &sqliteRepository{db: db, logger: logger}
}

// upsertMetric writes the per-day metric row. A later sync for the same
// (type, date) key overwrites the value instead of duplicating the row.
func (r *sqliteRepository) upsertMetric(ctx context.Context, metric MetricType, date string, value float64) error {
	_, err := r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO withings_data (id, metric_type, metric_date, value, unit)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (metric_type, metric_date) DO UPDATE SET
			value = excluded.value,
			unit  = excluded.unit`,
		uuid.NewString(), string(metric), date, value, metricUnits[metric],
	)
	if err != nil {
		return fmt.Errorf("upsert metric: %w", err)
	}
	return nil
}

// mergeBodyField sets one column of the per-day body measurement record,
// creating the record when the day has none yet. Columns filled by an
// earlier fetch stay untouched.
func (r *sqliteRepository) mergeBodyField(ctx context.Context, date, column string, value float64) error {
	query := fmt.Sprintf(`
		INSERT INTO body_measurements (id, measured_on, source, %[1]s)
		VALUES (?, ?, 'withings', ?)
		ON CONFLICT (measured_on, source) DO UPDATE SET %[1]s = excluded.%[1]s`, column)
	if _, err := r.db.ReadWrite.ExecContext(ctx, query, uuid.NewString(), date, value); err != nil {
		return fmt.Errorf("merge body measurement: %w", err)
	}
	return nil
}

// metricsInRange retrieves stored metric rows of one type, oldest first.
func (r *sqliteRepository) metricsInRange(ctx context.Context, metric MetricType, from, to time.Time) ([]Metric, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, metric_type, metric_date, value, unit
		FROM withings_data
		WHERE metric_type = ? AND metric_date >= ? AND metric_date <= ?
		ORDER BY metric_date`,
		string(metric), from.Format(dateFormat), to.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("query metrics: %w", err)
	}
	defer rows.Close()

	var metrics []Metric
	for rows.Next() {
		var (
			m       Metric
			dateStr string
		)
		if err = rows.Scan(&m.ID, &m.Type, &dateStr, &m.Value, &m.Unit); err != nil {
			return nil, fmt.Errorf("scan metric: %w", err)
		}
		if m.Date, err = time.Parse(dateFormat, dateStr); err != nil {
			return nil, fmt.Errorf("parse metric date: %w", err)
		}
		metrics = append(metrics, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metrics: %w", err)
	}
	return metrics, nil
}

// bodyMeasurementsInRange retrieves merged body measurement records from all
// sources, oldest first.
func (r *sqliteRepository) bodyMeasurementsInRange(ctx context.Context, from, to time.Time) ([]BodyMeasurement, error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, measured_on, source, weight, body_fat, muscle_mass, bone_mass
		FROM body_measurements
		WHERE measured_on >= ? AND measured_on <= ?
		ORDER BY measured_on, source`,
		from.Format(dateFormat), to.Format(dateFormat))
	if err != nil {
		return nil, fmt.Errorf("query body measurements: %w", err)
	}
	defer rows.Close()

	var measurements []BodyMeasurement
	for rows.Next() {
		var (
			bm                                    BodyMeasurement
			dateStr                               string
			weight, bodyFat, muscleMass, boneMass sql.NullFloat64
		)
		if err = rows.Scan(&bm.ID, &dateStr, &bm.Source, &weight, &bodyFat, &muscleMass, &boneMass); err != nil {
			return nil, fmt.Errorf("scan body measurement: %w", err)
		}
		if bm.MeasuredOn, err = time.Parse(dateFormat, dateStr); err != nil {
			return nil, fmt.Errorf("parse measured_on: %w", err)
		}
		bm.Weight = nullableFloat(weight)
		bm.BodyFat = nullableFloat(bodyFat)
		bm.MuscleMass = nullableFloat(muscleMass)
		bm.BoneMass = nullableFloat(boneMass)
		measurements = append(measurements, bm)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate body measurements: %w", err)
	}
	return measurements, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
