package main

import (
	"net/http"
	"strconv"

	"github.com/liftlog/liftlog/internal/workout"
)

func parseIntQuery(r *http.Request, name string) (int, bool) {
	value, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0, false
	}
	return value, true
}

// workoutExercisePATCH updates the plan fields of one exercise slot. Absent
// fields keep their current value.
func (app *application) workoutExercisePATCH(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetSets      *int     `json:"targetSets"`
		TargetReps      *int     `json:"targetReps"`
		SuggestedWeight *float64 `json:"suggestedWeight"`
		RestSeconds     *int     `json:"restSeconds"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}

	update := workout.PlanUpdate{
		TargetSets:      req.TargetSets,
		TargetReps:      req.TargetReps,
		SuggestedWeight: req.SuggestedWeight,
		RestSeconds:     req.RestSeconds,
	}
	if err := app.workouts.UpdateExercisePlan(r.Context(), r.PathValue("weID"), update); err != nil {
		app.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) workoutExerciseDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.workouts.RemoveExercise(r.Context(), r.PathValue("weID")); err != nil {
		app.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// exerciseSetAddPOST appends one set to the exercise, copying the targets of
// the last existing set.
func (app *application) exerciseSetAddPOST(w http.ResponseWriter, r *http.Request) {
	set, err := app.workouts.AddSet(r.Context(), r.PathValue("weID"))
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, struct {
		ID           string  `json:"id"`
		SetNumber    int     `json:"setNumber"`
		TargetReps   int     `json:"targetReps"`
		TargetWeight float64 `json:"targetWeight"`
	}{
		ID:           set.ID,
		SetNumber:    set.SetNumber,
		TargetReps:   set.TargetReps,
		TargetWeight: set.TargetWeight,
	})
}

// exerciseSetLogPOST records the actual reps and weight of a set and reports
// whether it set a personal record.
func (app *application) exerciseSetLogPOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reps   int     `json:"reps"`
		Weight float64 `json:"weight"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}

	isPR, err := app.workouts.LogSet(r.Context(), r.PathValue("id"), req.Reps, req.Weight)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		IsPR bool `json:"isPR"`
	}{IsPR: isPR})
}

func (app *application) exerciseSetDELETE(w http.ResponseWriter, r *http.Request) {
	wasLast, err := app.workouts.DeleteSet(r.Context(), r.PathValue("id"))
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, struct {
		WasLastSet bool `json:"wasLastSet"`
	}{WasLastSet: wasLast})
}
