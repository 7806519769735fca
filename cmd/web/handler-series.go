package main

import (
	"net/http"
	"time"

	"github.com/liftlog/liftlog/internal/series"
)

type seriesView struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Unit            string    `json:"unit,omitempty"`
	Aggregation     string    `json:"aggregation"`
	TrackerMode     string    `json:"trackerMode"`
	DailyGoal       *float64  `json:"dailyGoal,omitempty"`
	QuickAddPresets []float64 `json:"quickAddPresets,omitempty"`
}

func toSeriesView(s series.Series) seriesView {
	return seriesView{
		ID:              s.ID,
		Name:            s.Name,
		Unit:            s.Unit,
		Aggregation:     string(s.Aggregation),
		TrackerMode:     string(s.TrackerMode),
		DailyGoal:       s.DailyGoal,
		QuickAddPresets: s.QuickAddPresets,
	}
}

func (app *application) seriesListGET(w http.ResponseWriter, r *http.Request) {
	all, err := app.trackers.List(r.Context())
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	views := make([]seriesView, len(all))
	for i, s := range all {
		views[i] = toSeriesView(s)
	}
	app.writeJSON(w, r, http.StatusOK, views)
}

func (app *application) seriesCreatePOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string    `json:"name"`
		Unit            string    `json:"unit"`
		Aggregation     string    `json:"aggregation"`
		TrackerMode     string    `json:"trackerMode"`
		DailyGoal       *float64  `json:"dailyGoal"`
		QuickAddPresets []float64 `json:"quickAddPresets"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}

	created, err := app.trackers.Create(r.Context(), series.Series{
		Name:            req.Name,
		Unit:            req.Unit,
		Aggregation:     series.Aggregation(req.Aggregation),
		TrackerMode:     series.TrackerMode(req.TrackerMode),
		DailyGoal:       req.DailyGoal,
		QuickAddPresets: req.QuickAddPresets,
	})
	if err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	app.writeJSON(w, r, http.StatusCreated, toSeriesView(created))
}

func (app *application) seriesDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.trackers.Delete(r.Context(), r.PathValue("id")); err != nil {
		app.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// seriesSummaryGET serves the dashboard view: every series with its value
// for one day and goal status.
func (app *application) seriesSummaryGET(w http.ResponseWriter, r *http.Request) {
	date, ok := app.parseDateQuery(w, r, "date")
	if !ok {
		return
	}

	snapshots, err := app.trackers.Summary(r.Context(), date)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	type snapshotView struct {
		Series  seriesView `json:"series"`
		Date    string     `json:"date"`
		Value   float64    `json:"value"`
		Count   int        `json:"count"`
		GoalMet bool       `json:"goalMet"`
	}
	views := make([]snapshotView, len(snapshots))
	for i, snap := range snapshots {
		views[i] = snapshotView{
			Series:  toSeriesView(snap.Series),
			Date:    snap.Date.Format(time.DateOnly),
			Value:   snap.Value,
			Count:   snap.Count,
			GoalMet: snap.GoalMet,
		}
	}
	app.writeJSON(w, r, http.StatusOK, views)
}

// seriesDailyGET serves the per-day aggregated values within from/to.
func (app *application) seriesDailyGET(w http.ResponseWriter, r *http.Request) {
	from, to, ok := app.parseRangeQuery(w, r)
	if !ok {
		return
	}

	values, err := app.trackers.DailyValues(r.Context(), r.PathValue("id"), from, to)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	type dayView struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
		Count int     `json:"count"`
	}
	views := make([]dayView, len(values))
	for i, v := range values {
		views[i] = dayView{Date: v.Date.Format(time.DateOnly), Value: v.Value, Count: v.Count}
	}
	app.writeJSON(w, r, http.StatusOK, views)
}

func (app *application) seriesPointPOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}

	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid date"})
			return
		}
		date = parsed
	}

	point, err := app.trackers.LogPoint(r.Context(), r.PathValue("id"), date, req.Value)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, struct {
		ID    string  `json:"id"`
		Date  string  `json:"date"`
		Value float64 `json:"value"`
	}{ID: point.ID, Date: point.Date.Format(time.DateOnly), Value: point.Value})
}

func (app *application) seriesPointDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.trackers.DeletePoint(r.Context(), r.PathValue("id")); err != nil {
		app.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
