package workout

import (
	"errors"
	"testing"
	"time"

	"github.com/liftlog/liftlog/internal/sqlite"
	"github.com/liftlog/liftlog/internal/testhelpers"
)

func newClockedService(t *testing.T, now *time.Time) *Service {
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
	return &Service{
		repo:   newSQLiteRepository(db, logger),
		logger: logger,
		now:    func() time.Time { return *now },
	}
}

func TestBucketDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    int
	}{
		{minutes: 0, want: 30},
		{minutes: -5, want: 30},
		{minutes: 10, want: 20},
		{minutes: 25, want: 20},
		{minutes: 26, want: 30},
		{minutes: 35, want: 30},
		{minutes: 36, want: 45},
		{minutes: 90, want: 45},
	}
	for _, tt := range tests {
		if got := bucketDuration(tt.minutes); got != tt.want {
			t.Errorf("bucketDuration(%d) = %d, want %d", tt.minutes, got, tt.want)
		}
	}
}

func TestCreateFromTemplate(t *testing.T) {
	now := time.Date(2024, time.June, 3, 18, 0, 0, 0, time.UTC)
	svc := newClockedService(t, &now)
	ctx := t.Context()

	_, err := svc.CreateFromTemplate(ctx, "no-such-template", now)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing template: got %v, want ErrNotFound", err)
	}

	workoutID, err := svc.CreateFromTemplate(ctx, "tpl_fullbody_30", now)
	if err != nil {
		t.Fatalf("create from template: %v", err)
	}

	detail, err := svc.Get(ctx, workoutID)
	if err != nil {
		t.Fatalf("get workout: %v", err)
	}
	// A full-body template materializes as a custom workout.
	if detail.Type != TypeCustom {
		t.Errorf("workout type = %s, want custom", detail.Type)
	}
	if detail.TemplateID != "tpl_fullbody_30" {
		t.Errorf("template id = %s", detail.TemplateID)
	}
	if len(detail.Exercises) != 3 {
		t.Fatalf("got %d exercises, want 3", len(detail.Exercises))
	}
	first := detail.Exercises[0]
	if first.ExerciseID != "squat" || first.TargetSets != 3 || first.TargetReps != 8 {
		t.Errorf("first exercise = %+v", first.Exercise)
	}
	// Set seeding goes through the engine, so each slot has its sets.
	if len(first.Sets) != 3 {
		t.Errorf("got %d seeded sets, want 3", len(first.Sets))
	}
}

func TestCreateFromTemplate_ProgressiveWeightWins(t *testing.T) {
	now := time.Date(2024, time.June, 3, 18, 0, 0, 0, time.UTC)
	svc := newClockedService(t, &now)
	ctx := t.Context()

	// Build history: squat at 100 kg x 8 hits the full-body template's rep
	// target, so the next materialization should step the weight up.
	w, err := svc.Create(ctx, now, TypeLegs)
	if err != nil {
		t.Fatalf("create workout: %v", err)
	}
	if _, err = svc.AddExercise(ctx, w.ID, "squat", "Squat", ExercisePlan{TargetSets: 1}); err != nil {
		t.Fatalf("add exercise: %v", err)
	}
	detail, err := svc.Get(ctx, w.ID)
	if err != nil {
		t.Fatalf("get workout: %v", err)
	}
	if _, err = svc.LogSet(ctx, detail.Exercises[0].Sets[0].ID, 8, 100); err != nil {
		t.Fatalf("log set: %v", err)
	}
	if _, err = svc.Complete(ctx, w.ID, ""); err != nil {
		t.Fatalf("complete workout: %v", err)
	}

	workoutID, err := svc.CreateFromTemplate(ctx, "tpl_fullbody_30", now.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("create from template: %v", err)
	}
	detail, err = svc.Get(ctx, workoutID)
	if err != nil {
		t.Fatalf("get workout: %v", err)
	}

	squat := detail.Exercises[0]
	if squat.SuggestedWeight != 102.5 {
		t.Errorf("squat suggested weight = %v, want progressive 102.5", squat.SuggestedWeight)
	}
	// No history for the bench press, so the template default stays.
	bench := detail.Exercises[1]
	if bench.SuggestedWeight != 0 {
		t.Errorf("bench suggested weight = %v, want template default 0", bench.SuggestedWeight)
	}
}

func TestSaveAsTemplate(t *testing.T) {
	now := time.Date(2024, time.June, 3, 18, 0, 0, 0, time.UTC)
	svc := newClockedService(t, &now)
	ctx := t.Context()

	w, err := svc.Create(ctx, now, TypePush)
	if err != nil {
		t.Fatalf("create workout: %v", err)
	}
	if _, err = svc.AddExercise(ctx, w.ID, "bench_press", "Bench Press", ExercisePlan{
		TargetSets:      4,
		TargetReps:      8,
		SuggestedWeight: 60,
		RestSeconds:     120,
	}); err != nil {
		t.Fatalf("add exercise: %v", err)
	}

	if err = svc.Start(ctx, w.ID); err != nil {
		t.Fatalf("start workout: %v", err)
	}
	now = now.Add(22 * time.Minute)
	if _, err = svc.Complete(ctx, w.ID, ""); err != nil {
		t.Fatalf("complete workout: %v", err)
	}

	templateID, err := svc.SaveAsTemplate(ctx, w.ID, "Short Push", "quick version")
	if err != nil {
		t.Fatalf("save as template: %v", err)
	}

	tpl, err := svc.Template(ctx, templateID)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if !tpl.UserCreated {
		t.Error("saved template should be user created")
	}
	// 22 observed minutes bucket down to the 20 minute nominal duration.
	if tpl.DurationMinutes != 20 {
		t.Errorf("duration = %d, want 20", tpl.DurationMinutes)
	}
	if len(tpl.Exercises) != 1 {
		t.Fatalf("got %d template exercises, want 1", len(tpl.Exercises))
	}
	ex := tpl.Exercises[0]
	if ex.ExerciseID != "bench_press" || ex.TargetSets != 4 || ex.TargetReps != 8 || ex.RestSeconds != 120 {
		t.Errorf("template exercise = %+v", ex)
	}

	// Seeded templates cannot be deleted, user templates can.
	if err = svc.DeleteTemplate(ctx, "tpl_push_45"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete seeded template: got %v, want ErrNotFound", err)
	}
	if err = svc.DeleteTemplate(ctx, templateID); err != nil {
		t.Errorf("delete user template: %v", err)
	}
}

func TestSaveAsTemplate_UnknownDurationDefaults(t *testing.T) {
	now := time.Date(2024, time.June, 3, 18, 0, 0, 0, time.UTC)
	svc := newClockedService(t, &now)
	ctx := t.Context()

	w, err := svc.Create(ctx, now, TypePull)
	if err != nil {
		t.Fatalf("create workout: %v", err)
	}
	// Completed without ever being started: duration collapses to zero.
	if _, err = svc.Complete(ctx, w.ID, ""); err != nil {
		t.Fatalf("complete workout: %v", err)
	}

	templateID, err := svc.SaveAsTemplate(ctx, w.ID, "Empty Pull", "")
	if err != nil {
		t.Fatalf("save as template: %v", err)
	}
	tpl, err := svc.Template(ctx, templateID)
	if err != nil {
		t.Fatalf("get template: %v", err)
	}
	if tpl.DurationMinutes != 30 {
		t.Errorf("duration = %d, want default 30", tpl.DurationMinutes)
	}
}
