// Package schedule implements the push/pull/legs rotation: a deterministic
// mapping from calendar dates to workout types anchored at the profile's
// start date.
package schedule

import (
	"time"

	"github.com/liftlog/liftlog/internal/profile"
)

// Type is one of the three rotation days.
type Type string

const (
	TypePush Type = "push"
	TypePull Type = "pull"
	TypeLegs Type = "legs"
)

//nolint:gochecknoglobals // fixed rotation order.
var rotation = [3]Type{TypePush, TypePull, TypeLegs}

// Normalize strips the time-of-day from t. All rotation arithmetic happens on
// normalized dates so that DST transitions cannot shift the day count.
func Normalize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TypeForDate returns the rotation type for target given the anchor date.
// The rotation cycles push, pull, legs with period 3 and is defined for
// targets before the anchor as well: the double modulo wraps negative day
// differences onto 0..2.
func TypeForDate(start, target time.Time) Type {
	startDay := Normalize(start)
	targetDay := Normalize(target)

	daysDiff := int(targetDay.Sub(startDay).Hours() / 24)
	return rotation[((daysDiff%3)+3)%3]
}

// Day is one calendar day of the schedule.
type Day struct {
	Date      time.Time
	Type      Type
	RestDay   bool
	Suggested bool
}

// ForRange maps the rotation across [from, from+days) and overlays the
// profile's rest days. Rest-day status is orthogonal to the rotation: a date
// keeps its rotation type even when the user does not train that weekday, and
// such days carry Suggested=true as an opportunistic workout hint.
func ForRange(p profile.Profile, from time.Time, days int) []Day {
	schedule := make([]Day, days)
	start := Normalize(from)
	for i := range days {
		date := start.AddDate(0, 0, i)
		rest := !p.TrainingDays.Trains(date.Weekday())
		schedule[i] = Day{
			Date:      date,
			Type:      TypeForDate(p.PPLStartDate, date),
			RestDay:   rest,
			Suggested: rest,
		}
	}
	return schedule
}

// WeekFor returns the schedule for the week containing date, Monday first.
func WeekFor(p profile.Profile, date time.Time) []Day {
	offset := int(time.Monday - date.Weekday())
	if offset > 0 {
		offset = -6 //nolint:mnd // Sunday wraps back to the previous Monday.
	}
	monday := Normalize(date).AddDate(0, 0, offset)
	return ForRange(p, monday, 7) //nolint:mnd // days in a week.
}

// MonthFor returns the schedule for the calendar month containing date.
func MonthFor(p profile.Profile, date time.Time) []Day {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	return ForRange(p, first, daysInMonth)
}
