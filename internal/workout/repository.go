package workout

import (
	"database/sql"
	"log/slog"
	"time"

	liftlogerrors "github.com/liftlog/liftlog/internal/errors"
	"github.com/liftlog/liftlog/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"
const dateFormat = time.DateOnly

var (
	// ErrNotFound is returned when a workout, exercise, set, or template does
	// not exist.
	ErrNotFound = liftlogerrors.NewSentinel("not found")

	// ErrAlreadyCompleted guards completed workouts against re-completion and
	// deletion. Completing twice would append duplicate history rows and
	// double-count aggregates.
	ErrAlreadyCompleted = liftlogerrors.NewSentinel("workout already completed")

	// ErrWorkoutExists is returned when a planned or in-progress workout
	// already exists for the requested day.
	ErrWorkoutExists = liftlogerrors.NewSentinel("workout already exists for this day")
)

// sqliteRepository handles database operations for workouts, the exercise
// catalog, the history ledger, and templates.
type sqliteRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

// newSQLiteRepository creates a new SQLite-backed workout repository.
func newSQLiteRepository(db *sqlite.Database, logger *slog.Logger) *sqliteRepository {
	return &sqliteRepository{
		db:     db,
		logger: logger,
	}
}

// parseTimestamp converts a nullable timestamp column into a *time.Time.
func parseTimestamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil //nolint:nilnil // absent column maps to absent timestamp.
	}
	t, err := time.Parse(timestampFormat, s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// formatTimestamp converts a *time.Time into a nullable timestamp column.
func formatTimestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timestampFormat)
}
