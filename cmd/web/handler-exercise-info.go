package main

import (
	"bytes"
	"net/http"
	"time"

	"github.com/liftlog/liftlog/internal/workout"
	"github.com/yuin/goldmark"
)

type catalogExerciseView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	PrimaryMuscles []string `json:"primaryMuscles"`
	Equipment      []string `json:"equipment"`
	Custom         bool     `json:"custom"`
}

func toCatalogView(ex workout.CatalogExercise) catalogExerciseView {
	return catalogExerciseView{
		ID:             ex.ID,
		Name:           ex.Name,
		PrimaryMuscles: ex.PrimaryMuscles,
		Equipment:      ex.Equipment,
		Custom:         ex.Custom,
	}
}

// exercisesGET serves the exercise catalog.
func (app *application) exercisesGET(w http.ResponseWriter, r *http.Request) {
	catalog, err := app.workouts.Catalog(r.Context())
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	views := make([]catalogExerciseView, len(catalog))
	for i, ex := range catalog {
		views[i] = toCatalogView(ex)
	}
	app.writeJSON(w, r, http.StatusOK, views)
}

func (app *application) exerciseGET(w http.ResponseWriter, r *http.Request) {
	ex, err := app.workouts.CatalogExercise(r.Context(), r.PathValue("id"))
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, toCatalogView(ex))
}

// exerciseInfoGET renders the exercise's markdown description to HTML for
// the info sheet.
func (app *application) exerciseInfoGET(w http.ResponseWriter, r *http.Request) {
	ex, err := app.workouts.CatalogExercise(r.Context(), r.PathValue("id"))
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	var rendered bytes.Buffer
	if err = goldmark.Convert([]byte(ex.Description), &rendered); err != nil {
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		HTML string `json:"html"`
	}{ID: ex.ID, Name: ex.Name, HTML: rendered.String()})
}

// exerciseHistoryGET serves the performance ledger of one exercise, newest
// session first.
func (app *application) exerciseHistoryGET(w http.ResponseWriter, r *http.Request) {
	history, err := app.workouts.History(r.Context(), r.PathValue("id"))
	if err != nil {
		app.respondError(w, r, err)
		return
	}

	type entryView struct {
		Date        string  `json:"date"`
		BestWeight  float64 `json:"bestWeight"`
		BestReps    int     `json:"bestReps"`
		TotalVolume float64 `json:"totalVolume"`
		TotalSets   int     `json:"totalSets"`
		OneRepMax   float64 `json:"oneRepMax"`
	}
	views := make([]entryView, len(history))
	for i, entry := range history {
		views[i] = entryView{
			Date:        entry.Date.Format(time.DateOnly),
			BestWeight:  entry.BestWeight,
			BestReps:    entry.BestReps,
			TotalVolume: entry.TotalVolume,
			TotalSets:   entry.TotalSets,
			OneRepMax:   entry.OneRepMax,
		}
	}
	app.writeJSON(w, r, http.StatusOK, views)
}

// exerciseProgressiveLoadGET suggests the next working weight for the given
// target rep count.
func (app *application) exerciseProgressiveLoadGET(w http.ResponseWriter, r *http.Request) {
	targetReps, ok := parseIntQuery(r, "reps")
	if !ok {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid reps"})
		return
	}

	weight, err := app.workouts.ProgressiveLoad(r.Context(), r.PathValue("id"), targetReps)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		SuggestedWeight float64 `json:"suggestedWeight"`
	}{SuggestedWeight: weight})
}
