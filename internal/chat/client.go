package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// llmClient wraps the OpenAI chat completion API. Structured output is
// parsed manually from the reply text since the models routinely wrap JSON
// in prose.
type llmClient struct {
	api    openai.Client
	model  openai.ChatModel
	logger *slog.Logger
}

// newLLMClient creates an OpenAI-backed client. Extra request options let
// tests point the client at a local server.
func newLLMClient(apiKey string, logger *slog.Logger, opts ...option.RequestOption) *llmClient {
	options := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &llmClient{
		api:    openai.NewClient(options...),
		model:  openai.ChatModelGPT4o,
		logger: logger,
	}
}

// complete sends one system+user exchange and returns the reply text.
func (c *llmClient) complete(ctx context.Context, system, user string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}

	completion, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	c.logger.LogAttrs(ctx, slog.LevelDebug, "chat completion",
		slog.Int64("promptTokens", completion.Usage.PromptTokens),
		slog.Int64("completionTokens", completion.Usage.CompletionTokens))
	return completion.Choices[0].Message.Content, nil
}

// completeConversation sends a multi-turn conversation and returns the reply
// text.
func (c *llmClient) completeConversation(ctx context.Context, system string, history []Message, user string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(system))
	for _, msg := range history {
		if msg.Role == "assistant" {
			messages = append(messages, openai.AssistantMessage(msg.Content))
			continue
		}
		messages = append(messages, openai.UserMessage(msg.Content))
	}
	messages = append(messages, openai.UserMessage(user))

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}
