package main

import (
	"net/http"
	"time"

	"github.com/liftlog/liftlog/internal/profile"
	"github.com/liftlog/liftlog/internal/withings"
)

type profileView struct {
	Name             string   `json:"name,omitempty"`
	PPLStartDate     string   `json:"pplStartDate"`
	TrainingDays     []string `json:"trainingDays"`
	Equipment        []string `json:"equipment"`
	ExperienceLevel  string   `json:"experienceLevel"`
	WithingsLinked   bool     `json:"withingsLinked"`
	WithingsSyncedAs string   `json:"withingsSyncedAs,omitempty"`
}

//nolint:gochecknoglobals // fixed weekday order for the API representation.
var weekdayNames = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

func toProfileView(p profile.Profile) profileView {
	view := profileView{
		Name:            p.Name,
		PPLStartDate:    p.PPLStartDate.Format(time.DateOnly),
		TrainingDays:    []string{},
		Equipment:       p.Equipment,
		ExperienceLevel: string(p.ExperienceLevel),
		WithingsLinked:  p.Withings != nil,
	}
	if p.Equipment == nil {
		view.Equipment = []string{}
	}
	for _, wd := range weekdayNames {
		if p.TrainingDays.Trains(wd.day) {
			view.TrainingDays = append(view.TrainingDays, wd.name)
		}
	}
	if p.Withings != nil {
		view.WithingsSyncedAs = p.Withings.UserID
	}
	return view
}

func (app *application) profileGET(w http.ResponseWriter, r *http.Request) {
	p, err := app.profiles.Get(r.Context())
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, toProfileView(p))
}

// profilePUT upserts the full profile record. Withings tokens are managed
// separately and survive profile edits.
func (app *application) profilePUT(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string   `json:"name"`
		PPLStartDate    string   `json:"pplStartDate"`
		TrainingDays    []string `json:"trainingDays"`
		Equipment       []string `json:"equipment"`
		ExperienceLevel string   `json:"experienceLevel"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}

	startDate, err := time.Parse(time.DateOnly, req.PPLStartDate)
	if err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid pplStartDate"})
		return
	}

	days := profile.TrainingDays{}
	if req.TrainingDays == nil {
		days = profile.EveryDay()
	}
	for _, name := range req.TrainingDays {
		switch name {
		case "monday":
			days.Monday = true
		case "tuesday":
			days.Tuesday = true
		case "wednesday":
			days.Wednesday = true
		case "thursday":
			days.Thursday = true
		case "friday":
			days.Friday = true
		case "saturday":
			days.Saturday = true
		case "sunday":
			days.Sunday = true
		default:
			app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "unknown training day " + name})
			return
		}
	}

	p := profile.Profile{
		Name:            req.Name,
		PPLStartDate:    startDate,
		TrainingDays:    days,
		Equipment:       req.Equipment,
		ExperienceLevel: profile.ExperienceLevel(req.ExperienceLevel),
	}
	if err = app.profiles.Save(r.Context(), p); err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	app.writeJSON(w, r, http.StatusOK, toProfileView(p))
}

// withingsTokensPOST stores the token triple from the OAuth callback.
func (app *application) withingsTokensPOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    int64  `json:"expiresIn"`
		UserID       string `json:"userId"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}

	tokens := profile.WithingsTokens{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(req.ExpiresIn) * time.Second),
		UserID:       req.UserID,
	}
	if err := app.profiles.SaveWithingsTokens(r.Context(), tokens); err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// withingsSyncPOST runs one sync against the Withings API.
func (app *application) withingsSyncPOST(w http.ResponseWriter, r *http.Request) {
	report, err := app.withingsSync.Sync(r.Context())
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		Upserted  int  `json:"upserted"`
		Refreshed bool `json:"tokenRefreshed"`
	}{Upserted: report.Upserted, Refreshed: report.Refreshed})
}

// withingsMetricsGET serves stored per-day metric rows of one type.
func (app *application) withingsMetricsGET(w http.ResponseWriter, r *http.Request) {
	metric := withings.MetricType(r.URL.Query().Get("type"))
	if metric == "" {
		metric = withings.MetricWeight
	}
	from, to, ok := app.parseRangeQuery(w, r)
	if !ok {
		return
	}

	metrics, err := app.withingsSync.Metrics(r.Context(), metric, from, to)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	type metricView struct {
		Date  string  `json:"date"`
		Value float64 `json:"value"`
		Unit  string  `json:"unit"`
	}
	views := make([]metricView, len(metrics))
	for i, m := range metrics {
		views[i] = metricView{Date: m.Date.Format(time.DateOnly), Value: m.Value, Unit: m.Unit}
	}
	app.writeJSON(w, r, http.StatusOK, views)
}

// bodyMeasurementsGET serves the merged per-day body composition records.
func (app *application) bodyMeasurementsGET(w http.ResponseWriter, r *http.Request) {
	from, to, ok := app.parseRangeQuery(w, r)
	if !ok {
		return
	}

	measurements, err := app.withingsSync.BodyMeasurements(r.Context(), from, to)
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	type measurementView struct {
		Date       string   `json:"date"`
		Source     string   `json:"source"`
		Weight     *float64 `json:"weight,omitempty"`
		BodyFat    *float64 `json:"bodyFat,omitempty"`
		MuscleMass *float64 `json:"muscleMass,omitempty"`
		BoneMass   *float64 `json:"boneMass,omitempty"`
	}
	views := make([]measurementView, len(measurements))
	for i, bm := range measurements {
		views[i] = measurementView{
			Date:       bm.MeasuredOn.Format(time.DateOnly),
			Source:     bm.Source,
			Weight:     bm.Weight,
			BodyFat:    bm.BodyFat,
			MuscleMass: bm.MuscleMass,
			BoneMass:   bm.BoneMass,
		}
	}
	app.writeJSON(w, r, http.StatusOK, views)
}
