package main

import (
	"net/http"
	"time"

	"github.com/liftlog/liftlog/internal/chat"
)

// chatPOST runs one coaching conversation turn. Tool calls the model emits
// are executed before the reply is returned.
func (app *application) chatPOST(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if !app.readJSON(w, r, &req) {
		return
	}

	result, err := app.chats.Chat(r.Context(), req)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, result)
}

// workoutGeneratePOST asks the model for a full plan and materializes it as
// today's AI-generated workout.
func (app *application) workoutGeneratePOST(w http.ResponseWriter, r *http.Request) {
	var req struct {
		chat.GenerationRequest
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

	workoutID, plan, err := app.chats.GenerateWorkout(r.Context(), req.GenerationRequest, date)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusCreated, struct {
		WorkoutID string             `json:"workoutId"`
		Plan      chat.GeneratedPlan `json:"plan"`
	}{WorkoutID: workoutID, Plan: plan})
}

// exerciseSubstitutePOST asks the model for alternatives to an exercise.
func (app *application) exerciseSubstitutePOST(w http.ResponseWriter, r *http.Request) {
	var req chat.SubstituteRequest
	if !app.readJSON(w, r, &req) {
		return
	}

	subs, err := app.chats.Substitute(r.Context(), req)
	if err != nil {
		app.respondError(w, r, err)
		return
	}
	app.writeJSON(w, r, http.StatusOK, subs)
}
