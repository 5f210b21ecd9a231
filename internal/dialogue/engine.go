// Package dialogue turns caller utterances into spoken replies plus the
// structured fields scraped from the generator's output.
package dialogue

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orbyn-ai/nova-voice-agent/internal/language"
	"github.com/orbyn-ai/nova-voice-agent/internal/session"
	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

var engineTracer = otel.Tracer("nova.internal.dialogue")

// Engine advances a conversation by one turn. Callers must not hand it an
// empty utterance; the webhook layer re-prompts for those without consuming
// a turn.
type Engine struct {
	gen        Generator
	classifier *language.Classifier
	logger     *logging.Logger
}

// NewEngine wires a dialogue engine around the generation collaborator.
func NewEngine(gen Generator, classifier *language.Classifier, logger *logging.Logger) *Engine {
	if gen == nil {
		panic("dialogue: generator cannot be nil")
	}
	if classifier == nil {
		classifier = language.NewClassifier()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Engine{gen: gen, classifier: classifier, logger: logger}
}

// Advance appends the caller's utterance, re-detects language, generates the
// assistant reply, merges extracted fields into the session, and appends the
// spoken reply to the history. A generator failure is returned as-is and is
// not retried; an unparsable extraction block is not an error.
func (e *Engine) Advance(ctx context.Context, sess *session.CallSession, utterance string) (string, ExtractedFields, error) {
	ctx, span := engineTracer.Start(ctx, "dialogue.advance")
	defer span.End()
	span.SetAttributes(
		attribute.String("nova.call_id", sess.CallID),
		attribute.Int("nova.turn", len(sess.Turns)),
	)

	sess.AppendTurn(session.RoleUser, utterance)
	sess.Language = e.classifier.Detect(utterance, sess.Language)
	span.SetAttributes(attribute.String("nova.language", string(sess.Language)))

	raw, err := e.gen.Generate(ctx, e.buildPrompt(sess))
	if err != nil {
		span.RecordError(err)
		return "", ExtractedFields{}, fmt.Errorf("dialogue: generate reply: %w", err)
	}

	reply, fields := parseReply(raw)
	mergeCollected(&sess.Collected, fields)
	sess.AppendTurn(session.RoleAssistant, reply)

	e.logger.Debug("dialogue advanced",
		"call_id", sess.CallID,
		"language", sess.Language,
		"ready_to_book", fields.ReadyToBook,
	)
	return reply, fields, nil
}

// buildPrompt reconstructs the full generation context: persona for the
// active language, every turn so far, and the extraction directive last.
func (e *Engine) buildPrompt(sess *session.CallSession) []Message {
	messages := make([]Message, 0, len(sess.Turns)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: personaFor(sess.Language)})
	for _, turn := range sess.Turns {
		role := RoleUser
		if turn.Role == session.RoleAssistant {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: turn.Text})
	}
	messages = append(messages, Message{Role: RoleSystem, Content: extractionDirective})
	return messages
}
