package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/liftlog/liftlog/internal/backup"
	"github.com/liftlog/liftlog/internal/chat"
	"github.com/liftlog/liftlog/internal/series"
	"github.com/liftlog/liftlog/internal/withings"
	"github.com/liftlog/liftlog/internal/workout"
)

const maxRequestBody = 10 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON renders v as the response body.
func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "encode response", slog.Any("error", err))
	}
}

// readJSON decodes the request body into v. A false return means the 400
// response has already been sent.
func (app *application) readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	return true
}

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error", slog.Any("error", err))
	app.writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

// respondError maps domain errors onto status codes; anything unrecognized
// is a 500.
func (app *application) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := 0
	switch {
	case errors.Is(err, workout.ErrNotFound),
		errors.Is(err, series.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workout.ErrAlreadyCompleted),
		errors.Is(err, workout.ErrWorkoutExists):
		status = http.StatusConflict
	case errors.Is(err, chat.ErrValidation),
		errors.Is(err, backup.ErrIncompatible),
		errors.Is(err, withings.ErrNotConnected):
		status = http.StatusUnprocessableEntity
	default:
		app.serverError(w, r, err)
		return
	}
	app.writeJSON(w, r, status, errorResponse{Error: err.Error()})
}

// parseDateParam parses the "date" path parameter. On failure the 404
// response has already been sent.
func (app *application) parseDateParam(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, err := time.Parse(time.DateOnly, r.PathValue("date"))
	if err != nil {
		http.NotFound(w, r)
		return time.Time{}, false
	}
	return date, true
}

// parseDateQuery parses an optional date query parameter, defaulting to
// today.
func (app *application) parseDateQuery(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Now(), true
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid %s: %v", name, err)})
		return time.Time{}, false
	}
	return date, true
}

// parseRangeQuery parses from/to query parameters, defaulting to the last 30
// days.
func (app *application) parseRangeQuery(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	to, ok := app.parseDateQuery(w, r, "to")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	from := to.AddDate(0, 0, -30)
	if raw := r.URL.Query().Get("from"); raw != "" {
		var err error
		if from, err = time.Parse(time.DateOnly, raw); err != nil {
			app.writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid from: %v", err)})
			return time.Time{}, time.Time{}, false
		}
	}
	return from, to, true
}
