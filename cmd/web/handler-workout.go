package main

import (
	"net/http"
	"time"

	"github.com/liftlog/liftlog/internal/workout"
)

type workoutView struct {
	ID              string  `json:"id"`
	Date            string  `json:"date"`
	Type            string  `json:"type"`
	Status          string  `json:"status"`
	TotalVolume     float64 `json:"totalVolume"`
	DurationMinutes int     `json:"durationMinutes"`
	AIGenerated     bool    `json:"aiGenerated"`
	TemplateID      string  `json:"templateId,omitempty"`
	Notes           string  `json:"notes,omitempty"`
}

type setView struct {
	ID           string   `json:"id"`
	SetNumber    int      `json:"setNumber"`
	SetType      string   `json:"setType"`
	TargetReps   int      `json:"targetReps"`
	TargetWeight float64  `json:"targetWeight"`
	ActualReps   *int     `json:"actualReps"`
	ActualWeight *float64 `json:"actualWeight"`
	Completed    bool     `json:"completed"`
	PR           bool     `json:"pr"`
}

type exerciseView struct {
	ID              string    `json:"id"`
	ExerciseID      string    `json:"exerciseId"`
	ExerciseName    string    `json:"exerciseName"`
	Position        int       `json:"position"`
	SupersetGroup   *int      `json:"supersetGroup"`
	TargetSets      int       `json:"targetSets"`
	TargetReps      int       `json:"targetReps"`
	SuggestedWeight float64   `json:"suggestedWeight"`
	RestSeconds     int       `json:"restSeconds"`
	Completed       bool      `json:"completed"`
	Sets            []setView `json:"sets"`
}

type workoutDetailView struct {
	workoutView
	Exercises []exerciseView `json:"exercises"`
}

func toWorkoutView(w workout.Workout) workoutView {
	return workoutView{
		ID:              w.ID,
		Date:            w.Date.Format(time.DateOnly),
		Type:            string(w.Type),
		Status:          string(w.Status),
		TotalVolume:     w.TotalVolume,
		DurationMinutes: w.DurationMinutes,
		AIGenerated:     w.AIGenerated,
		TemplateID:      w.TemplateID,
		Notes:           w.Notes,
	}
}

func toDetailView(d workout.Detail) workoutDetailView {
	view := workoutDetailView{
		workoutView: toWorkoutView(d.Workout),
		Exercises:   make([]exerciseView, len(d.Exercises)),
	}
	for i, ex := range d.Exercises {
		sets := make([]setView, len(ex.Sets))
		for j, set := range ex.Sets {
			sets[j] = setView{
				ID:           set.ID,
				SetNumber:    set.SetNumber,
				SetType:      string(set.SetType),
				TargetReps:   set.TargetReps,
				TargetWeight: set.TargetWeight,
				ActualReps:   set.ActualReps,
				ActualWeight: set.ActualWeight,
				Completed:    set.Completed,
				PR:           set.PR,
			}
		}
		view.Exercises[i] = exerciseView{
			ID:              ex.ID,
			ExerciseID:      ex.ExerciseID,
			ExerciseName:    ex.ExerciseName,
			Position:        ex.Position,
			SupersetGroup:   ex.SupersetGroup,
			TargetSets:      ex.TargetSets,
			TargetReps:      ex.TargetReps,
			SuggestedWeight: ex.SuggestedWeight,
			RestSeconds:     ex.RestSeconds,
			Completed:       ex.Completed,
			Sets:            sets,
		}
	}
	return view
}

// workoutCreatePOST creates a planned workout. The date defaults to today.
func (app *application) workoutCreatePOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
		Type string `json:"type"`
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
	workoutType := workout.Type(req.Type)
	switch workoutType {
	case workout.TypePush, workout.TypePull, workout.TypeLegs, workout.TypeCustom:
	default:
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "unknown workout type"})
		return
	}

	created, err := app.workouts.Create(r.Context(), date, workoutType)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, toWorkoutView(created))
}

// workoutListGET serves either the workouts of one day (date query
// parameter) or the most recent sessions.
func (app *application) workoutListGET(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if raw := r.URL.Query().Get("date"); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid date"})
			return
		}
		workouts, err := app.workouts.ForDate(ctx, date)
		if err != nil {
			app.respondError(w, r, err)
			return
		}
		app.writeJSON(w, r, http.StatusOK, toWorkoutViews(workouts))
		return
	}

	workouts, err := app.workouts.Recent(ctx, 20) //nolint:mnd // enough for the history screen.
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, toWorkoutViews(workouts))
}

func toWorkoutViews(workouts []workout.Workout) []workoutView {
	views := make([]workoutView, len(workouts))
	for i, w := range workouts {
		views[i] = toWorkoutView(w)
	}
	return views
}

func (app *application) workoutGET(w http.ResponseWriter, r *http.Request) {
	detail, err := app.workouts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, toDetailView(detail))
}

func (app *application) workoutDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.workouts.Delete(r.Context(), r.PathValue("id")); err != nil {
		app.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) workoutStartPOST(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := app.workouts.Start(r.Context(), id); err != nil {
		app.respondError(w, r, err)
		return
	}
	app.setActiveWorkout(r, id, 0)
	w.WriteHeader(http.StatusNoContent)
}

func (app *application) workoutCompletePOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}

	summary, err := app.workouts.Complete(r.Context(), r.PathValue("id"), req.Notes)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.clearActiveWorkout(r)
	app.writeJSON(w, r, http.StatusOK, struct {
		TotalVolume     float64 `json:"totalVolume"`
		DurationMinutes int     `json:"durationMinutes"`
		ExerciseCount   int     `json:"exerciseCount"`
		SetCount        int     `json:"setCount"`
		PRCount         int     `json:"prCount"`
	}{
		TotalVolume:     summary.TotalVolume,
		DurationMinutes: summary.DurationMinutes,
		ExerciseCount:   summary.ExerciseCount,
		SetCount:        summary.SetCount,
		PRCount:         summary.PRCount,
	})
}

func (app *application) workoutSkipPOST(w http.ResponseWriter, r *http.Request) {
	if err := app.workouts.Skip(r.Context(), r.PathValue("id")); err != nil {
		app.respondError(w, r, err)
		return
	}
	app.clearActiveWorkout(r)
	w.WriteHeader(http.StatusNoContent)
}

// workoutAddExercisePOST appends an exercise slot. The exercise is looked up
// by free-text name against the catalog; unknown names get a synthesized
// catalog entry.
func (app *application) workoutAddExercisePOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string  `json:"name"`
		TargetSets      int     `json:"targetSets"`
		TargetReps      int     `json:"targetReps"`
		SuggestedWeight float64 `json:"suggestedWeight"`
		RestSeconds     int     `json:"restSeconds"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "exercise name is required"})
		return
	}

	ctx := r.Context()
	catalogEx, err := app.workouts.ResolveExercise(ctx, req.Name)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	slotID, err := app.workouts.AddExercise(ctx, r.PathValue("id"), catalogEx.ID, catalogEx.Name, workout.ExercisePlan{
		TargetSets:      req.TargetSets,
		TargetReps:      req.TargetReps,
		SuggestedWeight: req.SuggestedWeight,
		RestSeconds:     req.RestSeconds,
	})
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, struct {
		ID         string `json:"id"`
		ExerciseID string `json:"exerciseId"`
	}{ID: slotID, ExerciseID: catalogEx.ID})
}

// workoutSupersetPOST assigns or clears a superset group over several
// exercise slots atomically.
func (app *application) workoutSupersetPOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExerciseIDs []string `json:"exerciseIds"`
		Group       *int     `json:"group"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}

	if err := app.workouts.AssignSupersetGroup(r.Context(), r.PathValue("id"), req.ExerciseIDs, req.Group); err != nil {
		app.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// workoutAdvanceGET answers where the session moves after finishing a set of
// the exercise at the position query parameter.
func (app *application) workoutAdvanceGET(w http.ResponseWriter, r *http.Request) {
	position, ok := parseIntQuery(r, "position")
	if !ok {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "invalid position"})
		return
	}

	detail, err := app.workouts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	exercises := make([]workout.Exercise, len(detail.Exercises))
	for i, ex := range detail.Exercises {
		exercises[i] = ex.Exercise
	}
	if position < 0 || position >= len(exercises) {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "position out of range"})
		return
	}

	advance := workout.NextAfterSet(exercises, position)
	app.writeJSON(w, r, http.StatusOK, struct {
		NextIndex   int  `json:"nextIndex"`
		Rest        bool `json:"rest"`
		RestSeconds int  `json:"restSeconds"`
		ReturnIndex int  `json:"returnIndex"`
	}{
		NextIndex:   advance.NextIndex,
		Rest:        advance.Rest,
		RestSeconds: advance.RestSeconds,
		ReturnIndex: advance.ReturnIndex,
	})
}
