package schedule_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/liftlog/liftlog/internal/profile"
	"github.com/liftlog/liftlog/internal/schedule"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTypeForDate_CyclesWithPeriodThree(t *testing.T) {
	start := date(2024, time.March, 4)

	want := []schedule.Type{schedule.TypePush, schedule.TypePull, schedule.TypeLegs}
	for n := range 12 {
		got := schedule.TypeForDate(start, start.AddDate(0, 0, n))
		if got != want[n%3] {
			t.Errorf("day +%d: got %s, want %s", n, got, want[n%3])
		}
	}
}

func TestTypeForDate_NegativeOffsetsWrap(t *testing.T) {
	start := date(2024, time.March, 4)

	tests := []struct {
		offset int
		want   schedule.Type
	}{
		{offset: -1, want: schedule.TypeLegs},
		{offset: -2, want: schedule.TypePull},
		{offset: -3, want: schedule.TypePush},
		{offset: -4, want: schedule.TypeLegs},
		{offset: -30, want: schedule.TypePush},
	}
	for _, tt := range tests {
		if got := schedule.TypeForDate(start, start.AddDate(0, 0, tt.offset)); got != tt.want {
			t.Errorf("day %d: got %s, want %s", tt.offset, got, tt.want)
		}
	}
}

func TestTypeForDate_IgnoresTimeOfDayAndZone(t *testing.T) {
	start := date(2024, time.March, 4)
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// Same calendar date expressed at different times of day and zones.
	lateEvening := time.Date(2024, time.March, 7, 23, 30, 0, 0, helsinki)
	earlyMorning := time.Date(2024, time.March, 7, 0, 15, 0, 0, time.UTC)

	if got, want := schedule.TypeForDate(start, lateEvening), schedule.TypeForDate(start, earlyMorning); got != want {
		t.Errorf("time of day changed the rotation: %s vs %s", got, want)
	}
}

func TestTypeForDate_StableAcrossDSTBoundary(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// DST starts March 31st 2024 in Helsinki. Walking the rotation across the
	// boundary must not skip or repeat a day.
	start := time.Date(2024, time.March, 29, 12, 0, 0, 0, helsinki)
	want := []schedule.Type{schedule.TypePush, schedule.TypePull, schedule.TypeLegs, schedule.TypePush}
	for n := range 4 {
		if got := schedule.TypeForDate(start, start.AddDate(0, 0, n)); got != want[n] {
			t.Errorf("day +%d across DST: got %s, want %s", n, got, want[n])
		}
	}
}

func TestWeekFor_RestDayOverlay(t *testing.T) {
	p := profile.Profile{
		PPLStartDate: date(2024, time.March, 4), // a Monday
		TrainingDays: profile.TrainingDays{
			Monday:    true,
			Tuesday:   true,
			Wednesday: false,
			Thursday:  true,
			Friday:    true,
			Saturday:  false,
			Sunday:    false,
		},
	}

	week := schedule.WeekFor(p, date(2024, time.March, 6))
	if len(week) != 7 {
		t.Fatalf("got %d days, want 7", len(week))
	}
	if !week[0].Date.Equal(date(2024, time.March, 4)) {
		t.Errorf("week should start on Monday, got %s", week[0].Date)
	}

	// Wednesday is a rest day but keeps its rotation slot (legs) and is
	// surfaced as an opportunistic suggestion.
	wednesday := week[2]
	want := schedule.Day{
		Date:      date(2024, time.March, 6),
		Type:      schedule.TypeLegs,
		RestDay:   true,
		Suggested: true,
	}
	if diff := cmp.Diff(want, wednesday); diff != "" {
		t.Errorf("wednesday mismatch (-want +got):\n%s", diff)
	}

	// Thursday trains and wraps back to push.
	if week[3].Type != schedule.TypePush || week[3].RestDay {
		t.Errorf("thursday: got %+v", week[3])
	}
}

func TestMonthFor_CoversWholeMonth(t *testing.T) {
	p := profile.Profile{
		PPLStartDate: date(2024, time.January, 1),
		TrainingDays: profile.EveryDay(),
	}

	month := schedule.MonthFor(p, date(2024, time.February, 10))
	if len(month) != 29 { // 2024 is a leap year.
		t.Fatalf("got %d days, want 29", len(month))
	}
	if !month[0].Date.Equal(date(2024, time.February, 1)) {
		t.Errorf("month should start on the 1st, got %s", month[0].Date)
	}
	for _, day := range month {
		if day.RestDay {
			t.Errorf("no rest days expected, got one on %s", day.Date)
		}
	}
}
