package dialogue

import "context"

// Message is one prompt entry handed to the generation collaborator.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Generator produces the next assistant utterance from a prompt. A failure
// is terminal for the turn; the engine never retries mid-call.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
