package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/liftlog/liftlog/internal/sqlite"
	"github.com/liftlog/liftlog/internal/testhelpers"
	"github.com/liftlog/liftlog/internal/workout"
	"github.com/openai/openai-go/v3/option"
)

// fakeModel serves the OpenAI chat completion endpoint, answering each
// request with the next queued reply.
func fakeModel(t *testing.T, replies ...string) *httptest.Server {
	t.Helper()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected request path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if calls >= len(replies) {
			t.Errorf("model called %d times, only %d replies queued", calls+1, len(replies))
			http.Error(w, "no replies left", http.StatusInternalServerError)
			return
		}
		body := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": replies[calls]}},
			},
			"usage": map[string]any{"prompt_tokens": 42, "completion_tokens": 17},
		}
		calls++
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			t.Errorf("encode completion: %v", err)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestChatService(t *testing.T, replies ...string) (*Service, *workout.Service) {
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

	srv := fakeModel(t, replies...)
	workouts := workout.NewService(db, logger)
	service := NewService("test-key", workouts, logger, option.WithBaseURL(srv.URL))
	service.executor.now = func() time.Time {
		return time.Date(2024, time.June, 3, 17, 30, 0, 0, time.UTC)
	}
	return service, workouts
}

// toolCallReply builds a model reply carrying the given tool call, wrapped
// in prose the way real completions come back.
func toolCallReply(t *testing.T, reply, tool string, input any) string {
	t.Helper()
	rawInput, err := json.Marshal(input)
	if err != nil {
		t.Fatalf("marshal tool input: %v", err)
	}
	raw, err := json.Marshal(Reply{
		Reply:    reply,
		ToolCall: &ToolCall{Name: tool, Input: rawInput},
	})
	if err != nil {
		t.Fatalf("marshal reply: %v", err)
	}
	return "Here you go!\n" + string(raw)
}

func TestChat_CreateWorkoutToolCall(t *testing.T) {
	content := toolCallReply(t, "Planned a push day for you.", "create_workout", CreateWorkoutInput{
		Type: "push",
		Exercises: []PlannedExercise{
			{Name: "Bench Press", Sets: 4, TargetReps: 8, TargetWeight: 60, RestSeconds: 120},
			{Name: "Tricep Pushdown", Sets: 3, TargetReps: 12, RestSeconds: 60},
		},
	})
	service, workouts := newTestChatService(t, content)

	result, err := service.Chat(t.Context(), Request{Message: "plan me a push workout"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if result.Reply != "Planned a push day for you." {
		t.Errorf("reply = %q", result.Reply)
	}
	if result.Action != "create_workout" || result.WorkoutID == "" {
		t.Fatalf("result = action %q workout %q", result.Action, result.WorkoutID)
	}

	detail, err := workouts.Get(t.Context(), result.WorkoutID)
	if err != nil {
		t.Fatalf("get workout: %v", err)
	}
	if detail.Type != workout.TypePush || len(detail.Exercises) != 2 {
		t.Errorf("created workout = type %s with %d exercises", detail.Type, len(detail.Exercises))
	}
	if detail.Exercises[0].ExerciseID != "bench_press" {
		t.Errorf("first exercise resolved to %s", detail.Exercises[0].ExerciseID)
	}
}

func TestChat_PlainTextReply(t *testing.T) {
	service, _ := newTestChatService(t, "Protein intake of 1.6 g/kg per day is plenty for most lifters.")

	result, err := service.Chat(t.Context(), Request{Message: "how much protein do I need?"})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if result.Reply != "Protein intake of 1.6 g/kg per day is plenty for most lifters." {
		t.Errorf("reply = %q", result.Reply)
	}
	if result.Action != "" || result.WorkoutID != "" {
		t.Errorf("plain reply produced action %q workout %q", result.Action, result.WorkoutID)
	}
}

func TestChat_ModifyWorkoutToolCall(t *testing.T) {
	createContent := toolCallReply(t, "Created.", "create_workout", CreateWorkoutInput{
		Type:      "pull",
		Exercises: []PlannedExercise{{Name: "Barbell Row", Sets: 4, TargetReps: 8}},
	})
	service, workouts := newTestChatService(t, createContent)

	created, err := service.Chat(t.Context(), Request{Message: "plan a pull day"})
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	modifyContent := toolCallReply(t, "Added face pulls.", "modify_workout", ModifyWorkoutInput{
		WorkoutID:  created.WorkoutID,
		Operations: []Operation{{Action: "add", ExerciseName: "Face Pull"}},
	})
	service2, _ := newTestChatService(t, modifyContent)
	service2.workouts = workouts
	service2.executor = service.executor

	result, err := service2.Chat(t.Context(), Request{Message: "add face pulls"})
	if err != nil {
		t.Fatalf("modify chat: %v", err)
	}
	if result.Action != "modify_workout" || result.WorkoutID != created.WorkoutID {
		t.Errorf("result = action %q workout %q", result.Action, result.WorkoutID)
	}

	detail, err := workouts.Get(t.Context(), created.WorkoutID)
	if err != nil {
		t.Fatalf("get workout: %v", err)
	}
	if len(detail.Exercises) != 2 || detail.Exercises[1].ExerciseID != "face_pull" {
		t.Errorf("workout after modify has %d exercises", len(detail.Exercises))
	}
}

func TestChat_EmptyMessage(t *testing.T) {
	service, _ := newTestChatService(t)

	_, err := service.Chat(t.Context(), Request{Message: "   "})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("empty message: got %v, want ErrValidation", err)
	}
}

func TestChat_UnknownToolCall(t *testing.T) {
	service, _ := newTestChatService(t, toolCallReply(t, "Deleting everything.", "drop_database", map[string]any{}))

	_, err := service.Chat(t.Context(), Request{Message: "do something weird"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unknown tool: got %v, want ErrValidation", err)
	}
}

func TestGenerateWorkout_WiresSupersets(t *testing.T) {
	plan := GeneratedPlan{
		Exercises: []GeneratedExercise{
			{Name: "Bench Press", Sets: 4, TargetReps: 8, TargetWeight: 60, RestSeconds: 90},
			{Name: "Barbell Row", Sets: 4, TargetReps: 8, TargetWeight: 50, RestSeconds: 90, SupersetWith: "Bench Press"},
			{Name: "Lateral Raise", Sets: 3, TargetReps: 15, RestSeconds: 60},
		},
		Reasoning:         "Balanced push/pull pairing.",
		EstimatedDuration: 45,
	}
	rawPlan, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("marshal plan: %v", err)
	}
	service, workouts := newTestChatService(t, "Sure, here is the plan:\n"+string(rawPlan))

	date := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	workoutID, got, err := service.GenerateWorkout(t.Context(), GenerationRequest{TodayType: "custom"}, date)
	if err != nil {
		t.Fatalf("generate workout: %v", err)
	}
	if got.Reasoning != plan.Reasoning || got.EstimatedDuration != 45 {
		t.Errorf("plan = reasoning %q, duration %d", got.Reasoning, got.EstimatedDuration)
	}

	detail, err := workouts.Get(t.Context(), workoutID)
	if err != nil {
		t.Fatalf("get workout: %v", err)
	}
	if !detail.AIGenerated {
		t.Error("workout not flagged as AI generated")
	}
	if len(detail.Exercises) != 3 {
		t.Fatalf("got %d exercises, want 3", len(detail.Exercises))
	}

	bench, row, raise := detail.Exercises[0], detail.Exercises[1], detail.Exercises[2]
	if bench.SupersetGroup == nil || row.SupersetGroup == nil {
		t.Fatal("superset pair not grouped")
	}
	if *bench.SupersetGroup != *row.SupersetGroup {
		t.Errorf("pair in groups %d and %d", *bench.SupersetGroup, *row.SupersetGroup)
	}
	if raise.SupersetGroup != nil {
		t.Errorf("ungrouped exercise got group %d", *raise.SupersetGroup)
	}
}

func TestGenerateWorkout_RejectsUnknownType(t *testing.T) {
	service, _ := newTestChatService(t)

	_, _, err := service.GenerateWorkout(t.Context(), GenerationRequest{TodayType: "cardio"}, time.Now())
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unknown type: got %v, want ErrValidation", err)
	}
}

func TestSubstitute(t *testing.T) {
	subs := Substitutions{Alternatives: []Alternative{
		{Name: "Dumbbell Bench Press", Equipment: "dumbbells", Reasoning: "Same movement pattern."},
		{Name: "Weighted Push-Up", Equipment: "bodyweight", Reasoning: "No equipment needed."},
		{Name: "Machine Chest Press", Equipment: "machine", Reasoning: "Fixed path, easier setup."},
	}}
	rawSubs, err := json.Marshal(subs)
	if err != nil {
		t.Fatalf("marshal substitutions: %v", err)
	}
	service, _ := newTestChatService(t, string(rawSubs))

	got, err := service.Substitute(t.Context(), SubstituteRequest{ExerciseName: "Bench Press"})
	if err != nil {
		t.Fatalf("substitute: %v", err)
	}
	if len(got.Alternatives) != 3 || got.Alternatives[0].Name != "Dumbbell Bench Press" {
		t.Errorf("got %d alternatives", len(got.Alternatives))
	}
}
