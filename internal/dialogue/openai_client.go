package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

var openaiTracer = otel.Tracer("nova.internal.dialogue.openai")

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIGenerator implements Generator on the OpenAI chat completion API.
type OpenAIGenerator struct {
	client  chatClient
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewOpenAIGenerator wraps an OpenAI client with the voice agent's defaults.
func NewOpenAIGenerator(client chatClient, model string, timeout time.Duration, logger *logging.Logger) *OpenAIGenerator {
	if client == nil {
		panic("dialogue: openai client cannot be nil")
	}
	if model == "" {
		model = "gpt-4"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAIGenerator{client: client, model: model, timeout: timeout, logger: logger}
}

// Generate runs one chat completion with a bounded deadline. A timeout is a
// failure outcome, never an indefinite suspension.
func (g *OpenAIGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	ctx, span := openaiTracer.Start(ctx, "dialogue.openai.completion")
	defer span.End()
	span.SetAttributes(
		attribute.String("nova.openai.model", g.model),
		attribute.Int("nova.openai.messages", len(messages)),
	)

	req := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: 0.7,
		MaxTokens:   150,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(callCtx, req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("dialogue: openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		err := errors.New("dialogue: openai returned no choices")
		span.RecordError(err)
		return "", err
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func openAIRole(role string) string {
	switch role {
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	default:
		return openai.ChatMessageRoleUser
	}
}
