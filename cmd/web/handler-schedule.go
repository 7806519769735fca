package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/liftlog/liftlog/internal/schedule"
)

type scheduleDay struct {
	Date      string `json:"date"`
	Type      string `json:"type"`
	RestDay   bool   `json:"restDay"`
	Suggested bool   `json:"suggested"`
}

func toScheduleDays(days []schedule.Day) []scheduleDay {
	out := make([]scheduleDay, len(days))
	for i, d := range days {
		out[i] = scheduleDay{
			Date:      d.Date.Format(time.DateOnly),
			Type:      string(d.Type),
			RestDay:   d.RestDay,
			Suggested: d.Suggested,
		}
	}
	return out
}

// scheduleWeekGET serves the rotation for the week containing the date query
// parameter, defaulting to this week.
func (app *application) scheduleWeekGET(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateQuery(w, r, "date")
	if !ok {
		return
	}
	p, err := app.profiles.Get(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, toScheduleDays(schedule.WeekFor(p, date)))
}

// scheduleMonthGET serves the rotation for one calendar month. Year and
// month query parameters default to the current month.
func (app *application) scheduleMonthGET(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), now.Month()
	if raw := r.URL.Query().Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid year"})
			return
		}
		year = parsed
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid month"})
			return
		}
		month = time.Month(parsed)
	}

	p, err := app.profiles.Get(r.Context())
	if err != nil {
		app.serverError(w, r, err)
		return
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	app.writeJSON(w, r, http.StatusOK, toScheduleDays(schedule.MonthFor(p, first)))
}
