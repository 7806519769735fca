package main

import "net/http"

// Session keys for the best-effort active workout state. The rest timer
// itself is client-side; only the workout id and the current exercise index
// survive a page reload.
const (
	sessionKeyActiveWorkout = "activeWorkoutID"
	sessionKeyExerciseIndex = "currentExerciseIndex"
)

func (app *application) setActiveWorkout(r *http.Request, workoutID string, exerciseIndex int) {
	app.sessionManager.Put(r.Context(), sessionKeyActiveWorkout, workoutID)
	app.sessionManager.Put(r.Context(), sessionKeyExerciseIndex, exerciseIndex)
}

func (app *application) clearActiveWorkout(r *http.Request) {
	app.sessionManager.Remove(r.Context(), sessionKeyActiveWorkout)
	app.sessionManager.Remove(r.Context(), sessionKeyExerciseIndex)
}

// activeWorkoutGET serves the session's active workout pointer.
func (app *application) activeWorkoutGET(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, struct {
		WorkoutID     string `json:"workoutId"`
		ExerciseIndex int    `json:"exerciseIndex"`
	}{
		WorkoutID:     app.sessionManager.GetString(r.Context(), sessionKeyActiveWorkout),
		ExerciseIndex: app.sessionManager.GetInt(r.Context(), sessionKeyExerciseIndex),
	})
}

// activeWorkoutPUT stores the active workout pointer, or clears it when the
// workout id is empty.
func (app *application) activeWorkoutPUT(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WorkoutID     string `json:"workoutId"`
		ExerciseIndex int    `json:"exerciseIndex"`
	}
	if !app.readJSON(w, r, &req) {
		return
	}

	if req.WorkoutID == "" {
		app.clearActiveWorkout(r)
	} else {
		app.setActiveWorkout(r, req.WorkoutID, req.ExerciseIndex)
	}
	w.WriteHeader(http.StatusNoContent)
}
