package profile

import "time"

// ExperienceLevel describes how long the user has been training.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceAdvanced     ExperienceLevel = "advanced"
)

// TrainingDays stores which days of the week the user wants to work out.
// A day set to false is a rest day regardless of the rotation.
type TrainingDays struct {
	Monday    bool
	Tuesday   bool
	Wednesday bool
	Thursday  bool
	Friday    bool
	Saturday  bool
	Sunday    bool
}

// EveryDay returns training days with every weekday enabled, the default for
// a profile that never restricted its schedule.
func EveryDay() TrainingDays {
	return TrainingDays{
		Monday:    true,
		Tuesday:   true,
		Wednesday: true,
		Thursday:  true,
		Friday:    true,
		Saturday:  true,
		Sunday:    true,
	}
}

// Trains reports whether the given weekday is a training day.
func (d TrainingDays) Trains(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return d.Monday
	case time.Tuesday:
		return d.Tuesday
	case time.Wednesday:
		return d.Wednesday
	case time.Thursday:
		return d.Thursday
	case time.Friday:
		return d.Friday
	case time.Saturday:
		return d.Saturday
	case time.Sunday:
		return d.Sunday
	}
	return false
}

// WithingsTokens holds the OAuth token triple handed back by the Withings
// callback. ExpiresAt is an absolute timestamp derived from expires_in.
type WithingsTokens struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	UserID       string
}

// Profile is the singleton user profile. PPLStartDate anchors the push/pull/
// legs rotation and is a date-only value in local time.
type Profile struct {
	Name            string
	PPLStartDate    time.Time
	TrainingDays    TrainingDays
	Equipment       []string
	ExperienceLevel ExperienceLevel
	Withings        *WithingsTokens
}
