package main

import (
	"net/http"
	"time"

	"github.com/liftlog/liftlog/internal/workout"
)

type templateView struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description,omitempty"`
	Type            string                 `json:"type"`
	DurationMinutes int                    `json:"durationMinutes"`
	UserCreated     bool                   `json:"userCreated"`
	Exercises       []templateExerciseView `json:"exercises,omitempty"`
}

type templateExerciseView struct {
	ExerciseID      string  `json:"exerciseId"`
	ExerciseName    string  `json:"exerciseName"`
	Position        int     `json:"position"`
	TargetSets      int     `json:"targetSets"`
	TargetReps      int     `json:"targetReps"`
	SuggestedWeight float64 `json:"suggestedWeight"`
	RestSeconds     int     `json:"restSeconds"`
}

func toTemplateView(t workout.Template) templateView {
	view := templateView{
		ID:              t.ID,
		Name:            t.Name,
		Description:     t.Description,
		Type:            string(t.Type),
		DurationMinutes: t.DurationMinutes,
		UserCreated:     t.UserCreated,
	}
	for _, ex := range t.Exercises {
		view.Exercises = append(view.Exercises, templateExerciseView{
			ExerciseID:      ex.ExerciseID,
			ExerciseName:    ex.ExerciseName,
			Position:        ex.Position,
			TargetSets:      ex.TargetSets,
			TargetReps:      ex.TargetReps,
			SuggestedWeight: ex.SuggestedWeight,
			RestSeconds:     ex.RestSeconds,
		})
	}
	return view
}

func (app *application) templatesGET(w http.ResponseWriter, r *http.Request) {
	templates, err := app.workouts.Templates(r.Context())
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	views := make([]templateView, len(templates))
	for i, t := range templates {
		views[i] = toTemplateView(t)
	}
	app.writeJSON(w, r, http.StatusOK, views)
}

func (app *application) templateGET(w http.ResponseWriter, r *http.Request) {
	t, err := app.workouts.Template(r.Context(), r.PathValue("id"))
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, toTemplateView(t))
}

// templateDELETE removes a user-created template. Seeded templates cannot be
// deleted.
func (app *application) templateDELETE(w http.ResponseWriter, r *http.Request) {
	if err := app.workouts.DeleteTemplate(r.Context(), r.PathValue("id")); err != nil {
		app.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// templateMaterializePOST expands a template into a concrete workout, with
// progressive-load weights where history exists.
func (app *application) templateMaterializePOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
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

	workoutID, err := app.workouts.CreateFromTemplate(r.Context(), r.PathValue("id"), date)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, struct {
		WorkoutID string `json:"workoutId"`
	}{WorkoutID: workoutID})
}

// workoutSaveTemplatePOST snapshots a workout's exercise plan as a reusable
// template.
func (app *application) workoutSaveTemplatePOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "template name is required"})
		return
	}

	templateID, err := app.workouts.SaveAsTemplate(r.Context(), r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, struct {
		TemplateID string `json:"templateId"`
	}{TemplateID: templateID})
}
