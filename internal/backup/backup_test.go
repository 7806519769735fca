package backup_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/liftlog/liftlog/internal/backup"
	"github.com/liftlog/liftlog/internal/series"
	"github.com/liftlog/liftlog/internal/sqlite"
	"github.com/liftlog/liftlog/internal/testhelpers"
	"github.com/liftlog/liftlog/internal/workout"
)

func newTestBackup(t *testing.T) (*backup.Service, *workout.Service, *series.Service) {
	t.Helper()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := sqlite.NewDatabase(t.Context(), ":memory:", logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("close database: %v", closeErr)
		}
	})
	return backup.NewService(db, "test", logger),
		workout.NewService(db, logger),
		series.NewService(db, logger)
}

// roundTrip simulates transport of the archive through its JSON encoding.
func roundTrip(t *testing.T, archive backup.Archive) backup.Archive {
	t.Helper()
	raw, err := json.Marshal(archive)
	if err != nil {
		t.Fatalf("marshal archive: %v", err)
	}
	var decoded backup.Archive
	if err = json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal archive: %v", err)
	}
	return decoded
}

func TestExportImport_RoundTrip(t *testing.T) {
	backups, workouts, trackers := newTestBackup(t)
	ctx := t.Context()

	date := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	w, err := workouts.Create(ctx, date, workout.TypePush)
	if err != nil {
		t.Fatalf("create workout: %v", err)
	}
	if _, err = workouts.AddExercise(ctx, w.ID, "bench_press", "Bench Press", workout.ExercisePlan{
		TargetSets: 2, TargetReps: 8, SuggestedWeight: 60, RestSeconds: 120,
	}); err != nil {
		t.Fatalf("add exercise: %v", err)
	}

	water, err := trackers.Create(ctx, series.Series{Name: "Water", Unit: "ml"})
	if err != nil {
		t.Fatalf("create series: %v", err)
	}
	if _, err = trackers.LogPoint(ctx, water.ID, date, 500); err != nil {
		t.Fatalf("log point: %v", err)
	}

	archive, err := backups.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(archive.Tables["workouts"]) != 1 || len(archive.Tables["custom_points"]) != 1 {
		t.Fatalf("archive rows: workouts %d, points %d",
			len(archive.Tables["workouts"]), len(archive.Tables["custom_points"]))
	}

	// Diverge from the snapshot, then restore it.
	if err = workouts.Delete(ctx, w.ID); err != nil {
		t.Fatalf("delete workout: %v", err)
	}
	if _, err = trackers.LogPoint(ctx, water.ID, date, 750); err != nil {
		t.Fatalf("log extra point: %v", err)
	}

	if err = backups.Import(ctx, roundTrip(t, archive)); err != nil {
		t.Fatalf("import: %v", err)
	}

	detail, err := workouts.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get restored workout: %v", err)
	}
	if len(detail.Exercises) != 1 || len(detail.Exercises[0].Sets) != 2 {
		t.Errorf("restored workout has %d exercises", len(detail.Exercises))
	}

	values, err := trackers.DailyValues(ctx, water.ID, date, date)
	if err != nil {
		t.Fatalf("daily values: %v", err)
	}
	if len(values) != 1 || values[0].Count != 1 {
		t.Fatalf("restored points = %+v, want the single snapshot point", values)
	}
}

func TestImport_KeepsSeededTemplates(t *testing.T) {
	backups, workouts, _ := newTestBackup(t)
	ctx := t.Context()

	empty := backup.Archive{Version: "1.0", Tables: map[string][]backup.Row{}}
	if err := backups.Import(ctx, roundTrip(t, empty)); err != nil {
		t.Fatalf("import empty archive: %v", err)
	}

	templates, err := workouts.Templates(ctx)
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	if len(templates) == 0 {
		t.Fatal("seeded templates wiped by import")
	}
	for _, tpl := range templates {
		if tpl.UserCreated {
			t.Errorf("user template %s survived an empty archive", tpl.ID)
		}
	}
}

func TestImport_ReplacesUserTemplates(t *testing.T) {
	backups, workouts, _ := newTestBackup(t)
	ctx := t.Context()

	date := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	w, err := workouts.Create(ctx, date, workout.TypeLegs)
	if err != nil {
		t.Fatalf("create workout: %v", err)
	}
	if _, err = workouts.AddExercise(ctx, w.ID, "squat", "Squat", workout.ExercisePlan{}); err != nil {
		t.Fatalf("add exercise: %v", err)
	}
	if _, err = workouts.Complete(ctx, w.ID, ""); err != nil {
		t.Fatalf("complete workout: %v", err)
	}
	templateID, err := workouts.SaveAsTemplate(ctx, w.ID, "My Legs", "")
	if err != nil {
		t.Fatalf("save template: %v", err)
	}

	archive, err := backups.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if err = workouts.DeleteTemplate(ctx, templateID); err != nil {
		t.Fatalf("delete template: %v", err)
	}
	if err = backups.Import(ctx, roundTrip(t, archive)); err != nil {
		t.Fatalf("import: %v", err)
	}

	restored, err := workouts.Template(ctx, templateID)
	if err != nil {
		t.Fatalf("get restored template: %v", err)
	}
	if !restored.UserCreated || len(restored.Exercises) != 1 {
		t.Errorf("restored template = user created %v with %d exercises",
			restored.UserCreated, len(restored.Exercises))
	}
}

func TestImport_RejectsUnknownVersion(t *testing.T) {
	backups, _, _ := newTestBackup(t)

	err := backups.Import(t.Context(), backup.Archive{Version: "9.7"})
	if !errors.Is(err, backup.ErrIncompatible) {
		t.Errorf("unknown version: got %v, want ErrIncompatible", err)
	}
}
