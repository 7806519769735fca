package series

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/liftlog/liftlog/internal/sqlite"
)

// Service handles the business logic for custom data series.
type Service struct {
	repo   *sqliteRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new series service.
func NewService(db *sqlite.Database, logger *slog.Logger) *Service {
	return &Service{
		repo:   newSQLiteRepository(db, logger),
		logger: logger,
		now:    time.Now,
	}
}

// List retrieves every series definition.
func (s *Service) List(ctx context.Context) ([]Series, error) {
	all, err := s.repo.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	return all, nil
}

// Get retrieves one series definition.
func (s *Service) Get(ctx context.Context, id string) (Series, error) {
	got, err := s.repo.get(ctx, id)
	if err != nil {
		return Series{}, fmt.Errorf("get series: %w", err)
	}
	return got, nil
}

// Create validates and stores a new series definition.
func (s *Service) Create(ctx context.Context, def Series) (Series, error) {
	if def.Name == "" {
		return Series{}, fmt.Errorf("series name is required")
	}
	if def.Aggregation == "" {
		def.Aggregation = AggregationSum
	}
	if !def.Aggregation.Valid() {
		return Series{}, fmt.Errorf("invalid aggregation %q", def.Aggregation)
	}
	if def.TrackerMode == "" {
		def.TrackerMode = ModeStandard
	}
	if !def.TrackerMode.Valid() {
		return Series{}, fmt.Errorf("invalid tracker mode %q", def.TrackerMode)
	}

	def.ID = uuid.NewString()
	if err := s.repo.insert(ctx, def); err != nil {
		return Series{}, fmt.Errorf("create series: %w", err)
	}
	return def, nil
}

// Delete removes a series together with its points.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.deleteSeries(ctx, id); err != nil {
		return fmt.Errorf("delete series: %w", err)
	}
	return nil
}

// LogPoint records a value for the series on the given day.
func (s *Service) LogPoint(ctx context.Context, seriesID string, date time.Time, value float64) (Point, error) {
	if _, err := s.repo.get(ctx, seriesID); err != nil {
		return Point{}, fmt.Errorf("get series: %w", err)
	}

	p := Point{
		ID:         uuid.NewString(),
		SeriesID:   seriesID,
		Date:       time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Value:      value,
		RecordedAt: s.now(),
	}
	if err := s.repo.insertPoint(ctx, p); err != nil {
		return Point{}, fmt.Errorf("log point: %w", err)
	}
	return p, nil
}

// DeletePoint removes a logged point. Points are otherwise immutable.
func (s *Service) DeletePoint(ctx context.Context, pointID string) error {
	if err := s.repo.deletePoint(ctx, pointID); err != nil {
		return fmt.Errorf("delete point: %w", err)
	}
	return nil
}

// Summary builds the dashboard view for one day: every series with its
// aggregated value and goal status. Series without points that day appear
// with a zero value so the dashboard can render an empty tracker.
func (s *Service) Summary(ctx context.Context, date time.Time) ([]Snapshot, error) {
	all, err := s.repo.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	snapshots := make([]Snapshot, 0, len(all))
	for _, def := range all {
		points, err := s.repo.pointsInRange(ctx, def.ID, day, day)
		if err != nil {
			return nil, fmt.Errorf("points for %s: %w", def.Name, err)
		}
		snap := Snapshot{
			Series: def,
			Date:   day,
			Value:  Aggregate(def.Aggregation, points),
			Count:  len(points),
		}
		if def.DailyGoal != nil {
			snap.GoalMet = snap.Value >= *def.DailyGoal
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

// DailyValues aggregates a series per calendar day across [from, to] using
// the series' aggregation method. Days without points are omitted.
func (s *Service) DailyValues(ctx context.Context, seriesID string, from, to time.Time) ([]DayValue, error) {
	def, err := s.repo.get(ctx, seriesID)
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}

	points, err := s.repo.pointsInRange(ctx, seriesID, from, to)
	if err != nil {
		return nil, fmt.Errorf("points in range: %w", err)
	}

	var days []DayValue
	for start := 0; start < len(points); {
		end := start
		for end < len(points) && points[end].Date.Equal(points[start].Date) {
			end++
		}
		bucket := points[start:end]
		days = append(days, DayValue{
			Date:  points[start].Date,
			Value: Aggregate(def.Aggregation, bucket),
			Count: len(bucket),
		})
		start = end
	}
	return days, nil
}
