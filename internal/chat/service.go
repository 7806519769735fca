package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/liftlog/liftlog/internal/workout"
	"github.com/openai/openai-go/v3/option"
)

const chatSystemPrompt = `You are a knowledgeable strength training coach inside a workout
tracking app. Answer concisely. When the user asks you to plan or change a
workout, reply with a single JSON object of the shape
{"reply": string, "toolCall": {"name": "create_workout"|"modify_workout", "input": object}}.
For plain questions answer with {"reply": string} and no toolCall.
create_workout input: {"type": "push"|"pull"|"legs"|"custom",
"exercises": [{"name", "sets", "targetReps", "targetWeight", "restSeconds"}]}.
modify_workout input: {"workout_id", "operations": [{"action": "remove"|"update"|"add", ...}]}.`

const generateSystemPrompt = `You plan strength workouts. Reply with a single JSON object:
{"exercises": [{"name", "sets", "targetReps", "targetWeight", "restSeconds",
"supersetWith"?, "notes"?}], "reasoning": string, "estimatedDuration": number}.
Respect the listed equipment and avoid the excluded exercises.`

const substituteSystemPrompt = `You suggest substitute strength exercises. Reply with a single
JSON object: {"alternatives": [{"name", "equipment", "reasoning"}]} with
exactly three alternatives matching the same primary muscles.`

// Service ties the LLM client to the action executor.
type Service struct {
	llm      *llmClient
	executor *Executor
	workouts *workout.Service
	logger   *slog.Logger
}

// NewService creates the chat service. Extra request options are passed to
// the OpenAI client so tests can redirect it.
func NewService(apiKey string, workouts *workout.Service, logger *slog.Logger, opts ...option.RequestOption) *Service {
	return &Service{
		llm:      newLLMClient(apiKey, logger, opts...),
		executor: NewExecutor(workouts, logger),
		workouts: workouts,
		logger:   logger,
	}
}

// Chat runs one conversation turn and executes any tool call the model
// produced. The model reply may wrap its JSON in prose; the first
// brace-matched object wins, and a reply without any JSON is treated as
// plain text.
func (s *Service) Chat(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Message) == "" {
		return Result{}, fmt.Errorf("message is required: %w", ErrValidation)
	}

	user := req.Message
	if req.Context != "" {
		user = fmt.Sprintf("Context: %s\n\n%s", req.Context, req.Message)
	}
	system := chatSystemPrompt
	if req.TodayWorkoutContext != "" {
		system = fmt.Sprintf("%s\n\nToday's workout:\n%s", system, req.TodayWorkoutContext)
	}

	raw, err := s.llm.completeConversation(ctx, system, req.ConversationHistory, user)
	if err != nil {
		return Result{}, fmt.Errorf("chat: %w", err)
	}

	reply := parseReply(raw)
	result := Result{Reply: reply.Reply}
	if reply.ToolCall == nil {
		return result, nil
	}

	switch reply.ToolCall.Name {
	case "create_workout":
		var input CreateWorkoutInput
		if err = json.Unmarshal(reply.ToolCall.Input, &input); err != nil {
			return Result{}, fmt.Errorf("parse create_workout input: %w: %w", ErrValidation, err)
		}
		workoutID, createErr := s.executor.ExecuteCreate(ctx, input)
		if createErr != nil {
			return Result{}, createErr
		}
		result.WorkoutID = workoutID
		result.Action = "create_workout"
	case "modify_workout":
		var input ModifyWorkoutInput
		if err = json.Unmarshal(reply.ToolCall.Input, &input); err != nil {
			return Result{}, fmt.Errorf("parse modify_workout input: %w: %w", ErrValidation, err)
		}
		if err = s.executor.ExecuteModify(ctx, input); err != nil {
			return Result{}, err
		}
		result.WorkoutID = input.WorkoutID
		result.Action = "modify_workout"
	default:
		return Result{}, fmt.Errorf("unknown tool call %q: %w", reply.ToolCall.Name, ErrValidation)
	}
	return result, nil
}

// parseReply extracts the structured reply from the raw model output,
// falling back to the whole text when no JSON object parses.
func parseReply(raw string) Reply {
	if extracted, ok := ExtractJSONObject(raw); ok {
		var reply Reply
		if err := json.Unmarshal([]byte(extracted), &reply); err == nil && reply.Reply != "" {
			return reply
		}
	}
	return Reply{Reply: strings.TrimSpace(raw)}
}

// GenerateWorkout asks the model for a plan and materializes it as an
// AI-generated workout for the given day, wiring superset pairs from the
// plan's supersetWith references.
func (s *Service) GenerateWorkout(ctx context.Context, req GenerationRequest, date time.Time) (string, GeneratedPlan, error) {
	todayType := workout.Type(req.TodayType)
	switch todayType {
	case workout.TypePush, workout.TypePull, workout.TypeLegs, workout.TypeCustom:
	default:
		return "", GeneratedPlan{}, fmt.Errorf("unknown workout type %q: %w", req.TodayType, ErrValidation)
	}

	prompt, err := json.Marshal(req)
	if err != nil {
		return "", GeneratedPlan{}, fmt.Errorf("marshal generation request: %w", err)
	}

	raw, err := s.llm.complete(ctx, generateSystemPrompt, string(prompt))
	if err != nil {
		return "", GeneratedPlan{}, fmt.Errorf("generate workout: %w", err)
	}

	extracted, ok := ExtractJSONObject(raw)
	if !ok {
		return "", GeneratedPlan{}, fmt.Errorf("no JSON object in generation reply: %w", ErrValidation)
	}
	var plan GeneratedPlan
	if err = json.Unmarshal([]byte(extracted), &plan); err != nil {
		return "", GeneratedPlan{}, fmt.Errorf("parse generated plan: %w: %w", ErrValidation, err)
	}
	if len(plan.Exercises) == 0 {
		return "", GeneratedPlan{}, fmt.Errorf("generated plan has no exercises: %w", ErrValidation)
	}

	w, err := s.workouts.CreateAIGenerated(ctx, date, todayType)
	if err != nil {
		return "", GeneratedPlan{}, fmt.Errorf("create workout: %w", err)
	}

	slotIDs := make(map[string]string, len(plan.Exercises))
	for _, gen := range plan.Exercises {
		catalogEx, resolveErr := s.workouts.ResolveExercise(ctx, gen.Name)
		if resolveErr != nil {
			return "", GeneratedPlan{}, fmt.Errorf("resolve exercise %q: %w", gen.Name, resolveErr)
		}
		slotID, addErr := s.workouts.AddExercise(ctx, w.ID, catalogEx.ID, catalogEx.Name, workout.ExercisePlan{
			TargetSets:      gen.Sets,
			TargetReps:      gen.TargetReps,
			SuggestedWeight: gen.TargetWeight,
			RestSeconds:     gen.RestSeconds,
		})
		if addErr != nil {
			return "", GeneratedPlan{}, fmt.Errorf("add exercise %q: %w", gen.Name, addErr)
		}
		slotIDs[strings.ToLower(gen.Name)] = slotID
	}

	if err = s.wireSupersets(ctx, w.ID, plan.Exercises, slotIDs); err != nil {
		return "", GeneratedPlan{}, err
	}

	return w.ID, plan, nil
}

// wireSupersets groups plan exercises that reference each other through
// supersetWith. Each pair gets the next free group number; references to
// unknown names are ignored.
func (s *Service) wireSupersets(ctx context.Context, workoutID string, exercises []GeneratedExercise, slotIDs map[string]string) error {
	groups := make(map[string]int)
	next := 1
	for _, gen := range exercises {
		if gen.SupersetWith == "" {
			continue
		}
		self, partner := slotIDs[strings.ToLower(gen.Name)], slotIDs[strings.ToLower(gen.SupersetWith)]
		if self == "" || partner == "" {
			continue
		}
		group, okSelf := groups[self]
		if !okSelf {
			if g, okPartner := groups[partner]; okPartner {
				group = g
			} else {
				group = next
				next++
			}
		}
		groups[self] = group
		groups[partner] = group
	}

	byGroup := make(map[int][]string)
	for slotID, group := range groups {
		byGroup[group] = append(byGroup[group], slotID)
	}
	for group, slots := range byGroup {
		g := group
		if err := s.workouts.AssignSupersetGroup(ctx, workoutID, slots, &g); err != nil {
			return fmt.Errorf("assign superset group: %w", err)
		}
	}
	return nil
}

// Substitute asks the model for alternatives to an exercise.
func (s *Service) Substitute(ctx context.Context, req SubstituteRequest) (Substitutions, error) {
	if strings.TrimSpace(req.ExerciseName) == "" {
		return Substitutions{}, fmt.Errorf("exercise name is required: %w", ErrValidation)
	}

	prompt, err := json.Marshal(req)
	if err != nil {
		return Substitutions{}, fmt.Errorf("marshal substitute request: %w", err)
	}

	raw, err := s.llm.complete(ctx, substituteSystemPrompt, string(prompt))
	if err != nil {
		return Substitutions{}, fmt.Errorf("substitute exercise: %w", err)
	}

	extracted, ok := ExtractJSONObject(raw)
	if !ok {
		return Substitutions{}, fmt.Errorf("no JSON object in substitute reply: %w", ErrValidation)
	}
	var subs Substitutions
	if err = json.Unmarshal([]byte(extracted), &subs); err != nil {
		return Substitutions{}, fmt.Errorf("parse substitutions: %w: %w", ErrValidation, err)
	}
	return subs, nil
}
