package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/liftlog/liftlog/internal/sqlite"
)

// Service handles the business logic for the user profile.
type Service struct {
	repo   *sqliteRepository
	logger *slog.Logger
}

// NewService creates a new profile service.
func NewService(db *sqlite.Database, logger *slog.Logger) *Service {
	return &Service{
		repo:   newSQLiteRepository(db, logger),
		logger: logger,
	}
}

// Get retrieves the profile. Before onboarding it returns a default profile
// anchored at today so that the schedule views still render something useful.
func (s *Service) Get(ctx context.Context) (Profile, error) {
	p, err := s.repo.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		now := time.Now()
		return Profile{
			PPLStartDate:    time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local),
			TrainingDays:    EveryDay(),
			ExperienceLevel: ExperienceBeginner,
		}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Save upserts the full profile record.
func (s *Service) Save(ctx context.Context, p Profile) error {
	if p.PPLStartDate.IsZero() {
		return errors.New("ppl start date is required")
	}
	if err := s.repo.Set(ctx, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// SaveWithingsTokens persists the token triple from the OAuth callback.
func (s *Service) SaveWithingsTokens(ctx context.Context, tokens WithingsTokens) error {
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return errors.New("access token and refresh token are required")
	}
	if err := s.repo.SetWithingsTokens(ctx, tokens); err != nil {
		return fmt.Errorf("save withings tokens: %w", err)
	}
	return nil
}
