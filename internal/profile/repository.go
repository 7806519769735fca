package profile

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

// ErrNotFound is returned when no profile row exists yet.
var ErrNotFound = liftlogerrors.NewSentinel("profile not found")

const (
	dateFormat      = time.DateOnly
	timestampFormat = "2006-01-02T15:04:05.000Z"
)

// sqliteRepository persists the singleton profile row.
type sqliteRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newSQLiteRepository(db *sqlite.Database, logger *slog.Logger) *sqliteRepository {
	return &sqliteRepository{db: db, logger: logger}
}

// Get retrieves the profile, or ErrNotFound before onboarding has happened.
func (r *sqliteRepository) Get(ctx context.Context) (Profile, error) {
	var (
		p            Profile
		startDateStr string
		equipment    string
		accessToken  sql.NullString
		refreshToken sql.NullString
		expiresAt    sql.NullString
		withingsUser sql.NullString
	)

	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT name, ppl_start_date,
		       monday, tuesday, wednesday, thursday, friday, saturday, sunday,
		       equipment, experience_level,
		       withings_access_token, withings_refresh_token, withings_expires_at, withings_user_id
		FROM user_profile
		WHERE id = 1`).Scan(
		&p.Name, &startDateStr,
		&p.TrainingDays.Monday, &p.TrainingDays.Tuesday, &p.TrainingDays.Wednesday,
		&p.TrainingDays.Thursday, &p.TrainingDays.Friday, &p.TrainingDays.Saturday,
		&p.TrainingDays.Sunday,
		&equipment, &p.ExperienceLevel,
		&accessToken, &refreshToken, &expiresAt, &withingsUser,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query profile: %w", err)
	}

	if p.PPLStartDate, err = time.Parse(dateFormat, startDateStr); err != nil {
		return Profile{}, fmt.Errorf("parse ppl start date: %w", err)
	}
	if err = json.Unmarshal([]byte(equipment), &p.Equipment); err != nil {
		return Profile{}, fmt.Errorf("parse equipment: %w", err)
	}

	if accessToken.Valid && accessToken.String != "" {
		tokens := WithingsTokens{
			AccessToken:  accessToken.String,
			RefreshToken: refreshToken.String,
			UserID:       withingsUser.String,
		}
		if expiresAt.Valid && expiresAt.String != "" {
			if tokens.ExpiresAt, err = time.Parse(timestampFormat, expiresAt.String); err != nil {
				return Profile{}, fmt.Errorf("parse withings expiry: %w", err)
			}
		}
		p.Withings = &tokens
	}

	return p, nil
}

// Set upserts the full profile record. The Withings token columns are managed
// separately by SetWithingsTokens so that a profile edit cannot clobber them.
func (r *sqliteRepository) Set(ctx context.Context, p Profile) error {
	equipment, err := json.Marshal(p.Equipment)
	if err != nil {
		return fmt.Errorf("marshal equipment: %w", err)
	}
	if p.Equipment == nil {
		equipment = []byte("[]")
	}

	_, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO user_profile (
			id, name, ppl_start_date,
			monday, tuesday, wednesday, thursday, friday, saturday, sunday,
			equipment, experience_level
		) VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			ppl_start_date = excluded.ppl_start_date,
			monday = excluded.monday,
			tuesday = excluded.tuesday,
			wednesday = excluded.wednesday,
			thursday = excluded.thursday,
			friday = excluded.friday,
			saturday = excluded.saturday,
			sunday = excluded.sunday,
			equipment = excluded.equipment,
			experience_level = excluded.experience_level`,
		p.Name, p.PPLStartDate.Format(dateFormat),
		p.TrainingDays.Monday, p.TrainingDays.Tuesday, p.TrainingDays.Wednesday,
		p.TrainingDays.Thursday, p.TrainingDays.Friday, p.TrainingDays.Saturday,
		p.TrainingDays.Sunday,
		string(equipment), string(p.ExperienceLevel),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// SetWithingsTokens persists the OAuth tokens onto the existing profile row.
func (r *sqliteRepository) SetWithingsTokens(ctx context.Context, tokens WithingsTokens) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `
		UPDATE user_profile
		SET withings_access_token = ?,
		    withings_refresh_token = ?,
		    withings_expires_at = ?,
		    withings_user_id = ?
		WHERE id = 1`,
		tokens.AccessToken, tokens.RefreshToken,
		tokens.ExpiresAt.UTC().Format(timestampFormat), tokens.UserID,
	)
	if err != nil {
		return fmt.Errorf("update withings tokens: %w", err)
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
