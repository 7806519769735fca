package withings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	liftlogerrors "github.com/liftlog/liftlog/internal/errors"
	"github.com/liftlog/liftlog/internal/profile"
	"github.com/liftlog/liftlog/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

// ErrNotConnected is returned when no Withings tokens are stored yet.
var ErrNotConnected = liftlogerrors.NewSentinel("withings account not connected")

// syncWindow is how far back a sync run looks.
const syncWindow = 30 * 24 * time.Hour

// Service runs sync jobs against the Withings API and serves the stored
// metrics.
type Service struct {
	client   *Client
	repo     *sqliteRepository
	profiles *profile.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates the Withings sync service.
func NewService(client *Client, db *sqlite.Database, profiles *profile.Service, logger *slog.Logger) *Service {
	return &Service{
		client:   client,
		repo:     newSQLiteRepository(db, logger),
		profiles: profiles,
		logger:   logger,
		now:      time.Now,
	}
}

// tokenSource hands out the current access token and serializes refreshes.
// Concurrent fetches that hit a stale token trigger one refresh: the first
// caller exchanges the refresh token, later callers see the new access token
// already in place and skip the exchange.
type tokenSource struct {
	mu        sync.Mutex
	tokens    profile.WithingsTokens
	client    *Client
	profiles  *profile.Service
	refreshed bool
}

func (ts *tokenSource) accessToken() string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.tokens.AccessToken
}

// refresh exchanges the refresh token unless another caller already did so
// since staleToken was handed out. Returns the token to retry with.
func (ts *tokenSource) refresh(ctx context.Context, staleToken string) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.tokens.AccessToken != staleToken {
		return ts.tokens.AccessToken, nil
	}

	fresh, err := ts.client.RefreshTokens(ctx, ts.tokens.RefreshToken)
	if err != nil {
		return "", err
	}
	if err = ts.profiles.SaveWithingsTokens(ctx, fresh); err != nil {
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}
	ts.tokens = fresh
	ts.refreshed = true
	return fresh.AccessToken, nil
}

// Sync fetches the tracked metric types for the last 30 days and upserts
// them into the store. The fetches run concurrently; a stale token is
// refreshed once and the failed fetch retried with the new token.
func (s *Service) Sync(ctx context.Context) (Report, error) {
	p, err := s.profiles.Get(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load profile: %w", err)
	}
	if p.Withings == nil {
		return Report{}, ErrNotConnected
	}

	ts := &tokenSource{
		tokens:   *p.Withings,
		client:   s.client,
		profiles: s.profiles,
	}

	until := s.now()
	since := until.Add(-syncWindow)

	var upserted atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	for _, metric := range syncedMetrics {
		group.Go(func() error {
			n, syncErr := s.syncMetric(groupCtx, ts, metric, since, until)
			if syncErr != nil {
				return fmt.Errorf("sync %s: %w", metric, syncErr)
			}
			upserted.Add(int64(n))
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return Report{}, err
	}

	report := Report{Upserted: int(upserted.Load()), Refreshed: ts.refreshed}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "withings sync finished",
		slog.Int("upserted", report.Upserted),
		slog.Bool("tokenRefreshed", report.Refreshed))
	return report, nil
}

// syncMetric fetches one metric type and upserts its per-day values,
// retrying once after a token refresh.
func (s *Service) syncMetric(ctx context.Context, ts *tokenSource, metric MetricType, since, until time.Time) (int, error) {
	token := ts.accessToken()
	measurements, err := s.client.Measurements(ctx, token, metric, since, until)
	if errors.Is(err, ErrUnauthorized) {
		var fresh string
		if fresh, err = ts.refresh(ctx, token); err != nil {
			return 0, fmt.Errorf("refresh token: %w", err)
		}
		measurements, err = s.client.Measurements(ctx, fresh, metric, since, until)
	}
	if err != nil {
		return 0, err
	}

	upserted := 0
	for date, value := range latestPerDay(measurements) {
		if err = s.repo.upsertMetric(ctx, metric, date, value); err != nil {
			return upserted, err
		}
		if column, ok := bodyCompositionColumns[metric]; ok {
			if err = s.repo.mergeBodyField(ctx, date, column, value); err != nil {
				return upserted, err
			}
		}
		upserted++
	}
	return upserted, nil
}

// latestPerDay reduces raw readings to one value per calendar day, keeping
// the most recent reading of each day.
func latestPerDay(measurements []Measurement) map[string]float64 {
	type timed struct {
		takenAt time.Time
		value   float64
	}
	latest := make(map[string]timed)
	for _, m := range measurements {
		date := m.TakenAt.Format(dateFormat)
		if prev, ok := latest[date]; ok && !m.TakenAt.After(prev.takenAt) {
			continue
		}
		latest[date] = timed{takenAt: m.TakenAt, value: m.Value}
	}

	values := make(map[string]float64, len(latest))
	for date, t := range latest {
		values[date] = t.value
	}
	return values
}

// Metrics serves stored metric rows of one type within [from, to].
func (s *Service) Metrics(ctx context.Context, metric MetricType, from, to time.Time) ([]Metric, error) {
	return s.repo.metricsInRange(ctx, metric, from, to)
}

// BodyMeasurements serves the merged per-day body composition records
// within [from, to].
func (s *Service) BodyMeasurements(ctx context.Context, from, to time.Time) ([]BodyMeasurement, error) {
	return s.repo.bodyMeasurementsInRange(ctx, from, to)
}
