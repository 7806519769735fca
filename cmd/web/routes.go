package main

import "net/http"

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	var (
		api = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
				noCache(app.sessionManager.LoadAndSave(app.timeout(next)))))))
		}
		slow = func(next http.Handler) http.Handler {
			return app.recoverPanic(app.logAndTraceRequest(secureHeaders(app.crossOriginProtection(
				noCache(app.sessionManager.LoadAndSave(app.aiTimeout(next)))))))
		}
	)

	mux.Handle("GET /api/healthy", api(http.HandlerFunc(app.healthy)))

	mux.Handle("GET /api/schedule/week", api(http.HandlerFunc(app.scheduleWeekGET)))
	mux.Handle("GET /api/schedule/month", api(http.HandlerFunc(app.scheduleMonthGET)))

	mux.Handle("POST /api/workouts", api(http.HandlerFunc(app.workoutCreatePOST)))
	mux.Handle("GET /api/workouts", api(http.HandlerFunc(app.workoutListGET)))
	mux.Handle("GET /api/workouts/{id}", api(http.HandlerFunc(app.workoutGET)))
	mux.Handle("DELETE /api/workouts/{id}", api(http.HandlerFunc(app.workoutDELETE)))
	mux.Handle("POST /api/workouts/{id}/start", api(http.HandlerFunc(app.workoutStartPOST)))
	mux.Handle("POST /api/workouts/{id}/complete", api(http.HandlerFunc(app.workoutCompletePOST)))
	mux.Handle("POST /api/workouts/{id}/skip", api(http.HandlerFunc(app.workoutSkipPOST)))
	mux.Handle("POST /api/workouts/{id}/exercises", api(http.HandlerFunc(app.workoutAddExercisePOST)))
	mux.Handle("POST /api/workouts/{id}/superset", api(http.HandlerFunc(app.workoutSupersetPOST)))
	mux.Handle("GET /api/workouts/{id}/advance", api(http.HandlerFunc(app.workoutAdvanceGET)))
	mux.Handle("POST /api/workouts/{id}/save-template", api(http.HandlerFunc(app.workoutSaveTemplatePOST)))

	mux.Handle("PATCH /api/workout-exercises/{weID}", api(http.HandlerFunc(app.workoutExercisePATCH)))
	mux.Handle("DELETE /api/workout-exercises/{weID}", api(http.HandlerFunc(app.workoutExerciseDELETE)))
	mux.Handle("POST /api/workout-exercises/{weID}/sets", api(http.HandlerFunc(app.exerciseSetAddPOST)))
	mux.Handle("POST /api/sets/{id}/log", api(http.HandlerFunc(app.exerciseSetLogPOST)))
	mux.Handle("DELETE /api/sets/{id}", api(http.HandlerFunc(app.exerciseSetDELETE)))

	mux.Handle("GET /api/exercises", api(http.HandlerFunc(app.exercisesGET)))
	mux.Handle("GET /api/exercises/{id}", api(http.HandlerFunc(app.exerciseGET)))
	mux.Handle("GET /api/exercises/{id}/info", api(http.HandlerFunc(app.exerciseInfoGET)))
	mux.Handle("GET /api/exercises/{id}/history", api(http.HandlerFunc(app.exerciseHistoryGET)))
	mux.Handle("GET /api/exercises/{id}/progressive-load", api(http.HandlerFunc(app.exerciseProgressiveLoadGET)))
	mux.Handle("POST /api/exercises/substitute", slow(http.HandlerFunc(app.exerciseSubstitutePOST)))

	mux.Handle("GET /api/templates", api(http.HandlerFunc(app.templatesGET)))
	mux.Handle("GET /api/templates/{id}", api(http.HandlerFunc(app.templateGET)))
	mux.Handle("DELETE /api/templates/{id}", api(http.HandlerFunc(app.templateDELETE)))
	mux.Handle("POST /api/templates/{id}/workouts", api(http.HandlerFunc(app.templateMaterializePOST)))

	mux.Handle("POST /api/chat", slow(http.HandlerFunc(app.chatPOST)))
	mux.Handle("POST /api/workouts/generate", slow(http.HandlerFunc(app.workoutGeneratePOST)))

	mux.Handle("GET /api/series", api(http.HandlerFunc(app.seriesListGET)))
	mux.Handle("POST /api/series", api(http.HandlerFunc(app.seriesCreatePOST)))
	mux.Handle("DELETE /api/series/{id}", api(http.HandlerFunc(app.seriesDELETE)))
	mux.Handle("GET /api/series/summary", api(http.HandlerFunc(app.seriesSummaryGET)))
	mux.Handle("GET /api/series/{id}/daily", api(http.HandlerFunc(app.seriesDailyGET)))
	mux.Handle("POST /api/series/{id}/points", api(http.HandlerFunc(app.seriesPointPOST)))
	mux.Handle("DELETE /api/points/{id}", api(http.HandlerFunc(app.seriesPointDELETE)))

	mux.Handle("GET /api/profile", api(http.HandlerFunc(app.profileGET)))
	mux.Handle("PUT /api/profile", api(http.HandlerFunc(app.profilePUT)))
	mux.Handle("POST /api/withings/tokens", api(http.HandlerFunc(app.withingsTokensPOST)))
	mux.Handle("POST /api/withings/sync", slow(http.HandlerFunc(app.withingsSyncPOST)))
	mux.Handle("GET /api/withings/metrics", api(http.HandlerFunc(app.withingsMetricsGET)))
	mux.Handle("GET /api/measurements", api(http.HandlerFunc(app.bodyMeasurementsGET)))

	mux.Handle("GET /api/backup/export", api(http.HandlerFunc(app.backupExportGET)))
	mux.Handle("POST /api/backup/import", api(http.HandlerFunc(app.backupImportPOST)))

	mux.Handle("GET /api/session/active-workout", api(http.HandlerFunc(app.activeWorkoutGET)))
	mux.Handle("PUT /api/session/active-workout", api(http.HandlerFunc(app.activeWorkoutPUT)))

	return mux
}
