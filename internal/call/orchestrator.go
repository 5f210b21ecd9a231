package call

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orbyn-ai/nova-voice-agent/internal/booking"
	"github.com/orbyn-ai/nova-voice-agent/internal/dialogue"
	"github.com/orbyn-ai/nova-voice-agent/internal/observability/metrics"
	"github.com/orbyn-ai/nova-voice-agent/internal/scheduling"
	"github.com/orbyn-ai/nova-voice-agent/internal/session"
	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

var orchestratorTracer = otel.Tracer("nova.internal.call")

// Action tells the webhook layer how to render the reply.
type Action string

const (
	// ActionGather speaks the reply and listens for the next utterance.
	ActionGather Action = "gather"
	// ActionOfferSlots speaks the reply and routes the next utterance to
	// the booking confirmation endpoint.
	ActionOfferSlots Action = "offer_slots"
	// ActionEndCall speaks the reply and hangs up.
	ActionEndCall Action = "end_call"
)

// TurnResult is the outcome of one processed utterance.
type TurnResult struct {
	Reply    string
	Action   Action
	Language session.Language
}

type dialogueEngine interface {
	Advance(ctx context.Context, sess *session.CallSession, utterance string) (string, dialogue.ExtractedFields, error)
}

type bookingCoordinator interface {
	OfferSlots(ctx context.Context) []scheduling.SlotOffer
	AttemptBooking(ctx context.Context, sess *session.CallSession) booking.Result
}

// Orchestrator drives one call turn by turn.
type Orchestrator struct {
	store     *session.Store
	engine    dialogueEngine
	booking   bookingCoordinator
	lifecycle *Lifecycle
	logger    *logging.Logger
	metrics   *metrics.VoiceMetrics
}

// NewOrchestrator wires the call flow together.
func NewOrchestrator(store *session.Store, engine dialogueEngine, coord bookingCoordinator, lifecycle *Lifecycle, logger *logging.Logger, m *metrics.VoiceMetrics) *Orchestrator {
	if store == nil || engine == nil || coord == nil || lifecycle == nil {
		panic("call: store, engine, booking coordinator, and lifecycle are required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Orchestrator{
		store:     store,
		engine:    engine,
		booking:   coord,
		lifecycle: lifecycle,
		logger:    logger,
		metrics:   m,
	}
}

// StartCall registers the session for a newly connected call and returns the
// greeting to speak.
func (o *Orchestrator) StartCall(ctx context.Context, callID, callerPhone string) TurnResult {
	var lang session.Language
	o.store.Update(callID, func(sess *session.CallSession) {
		if sess.CallerPhone == "" {
			sess.CallerPhone = callerPhone
		}
		lang = sess.Language
	})
	o.metrics.CallStarted()
	o.logger.Info("call started", "call_id", callID)
	return TurnResult{Reply: Greeting(lang), Action: ActionGather, Language: lang}
}

// HandleTurn processes one utterance from the caller. An empty utterance is
// answered with a re-prompt and leaves the conversation history untouched.
// A generator failure apologizes, marks the session for callback, and ends
// the call; it never surfaces an error to the caller.
func (o *Orchestrator) HandleTurn(ctx context.Context, callID, callerPhone, utterance string) TurnResult {
	ctx, span := orchestratorTracer.Start(ctx, "call.handle_turn")
	defer span.End()
	span.SetAttributes(attribute.String("nova.call.id", callID))

	var result TurnResult
	var failed bool
	o.store.Update(callID, func(sess *session.CallSession) {
		if sess.CallerPhone == "" {
			sess.CallerPhone = callerPhone
		}

		if sess.Status.Terminal() {
			result = TurnResult{Reply: ApologyGoodbye(sess.Language), Action: ActionEndCall, Language: sess.Language}
			return
		}

		if strings.TrimSpace(utterance) == "" {
			result = TurnResult{Reply: RePrompt(sess.Language), Action: ActionGather, Language: sess.Language}
			return
		}

		reply, fields, err := o.engine.Advance(ctx, sess, utterance)
		if err != nil {
			span.RecordError(err)
			o.logger.Error("dialogue turn failed", "call_id", callID, "error", err)
			sess.TransitionTo(session.StatusNeedsCallback)
			failed = true
			o.metrics.ObserveTurn(string(sess.Language), "error")
			result = TurnResult{Reply: ApologyGoodbye(sess.Language), Action: ActionEndCall, Language: sess.Language}
			return
		}
		o.metrics.ObserveTurn(string(sess.Language), "ok")

		if fields.ReadyToBook && sess.Collected.Name != "" && sess.Collected.Phone != "" && sess.Status == session.StatusNew {
			slots := o.booking.OfferSlots(ctx)
			speech := scheduling.FormatSlotsForSpeech(slots, sess.Language)
			result = TurnResult{
				Reply:    strings.TrimSpace(reply + " " + speech),
				Action:   ActionOfferSlots,
				Language: sess.Language,
			}
			return
		}

		result = TurnResult{Reply: reply, Action: ActionGather, Language: sess.Language}
	})
	if failed {
		o.lifecycle.Finalize(ctx, callID, ReasonFailed)
	}
	return result
}

// ConfirmBooking books the first available slot for the session and closes
// the call with either a confirmation or a callback promise. The session is
// finalized before this returns, so a duplicate confirmation webhook finds
// no session and gets the callback goodbye.
func (o *Orchestrator) ConfirmBooking(ctx context.Context, callID string) TurnResult {
	ctx, span := orchestratorTracer.Start(ctx, "call.confirm_booking")
	defer span.End()
	span.SetAttributes(attribute.String("nova.call.id", callID))

	var result TurnResult
	reason := ReasonFailed
	found := o.store.UpdateExisting(callID, func(sess *session.CallSession) {
		if sess.Status.Terminal() {
			result = TurnResult{Reply: CallbackGoodbye(sess.Language), Action: ActionEndCall, Language: sess.Language}
			return
		}

		attempt := o.booking.AttemptBooking(ctx, sess)
		if attempt.Outcome == booking.OutcomeBooked {
			reason = ReasonBooked
			when := scheduling.FormatSlotWhen(attempt.Slot, sess.Language)
			result = TurnResult{Reply: BookedGoodbye(sess.Language, when), Action: ActionEndCall, Language: sess.Language}
			return
		}
		result = TurnResult{Reply: CallbackGoodbye(sess.Language), Action: ActionEndCall, Language: sess.Language}
	})
	if !found {
		return TurnResult{Reply: CallbackGoodbye(session.LanguageEnglish), Action: ActionEndCall, Language: session.LanguageEnglish}
	}

	o.lifecycle.Finalize(ctx, callID, reason)
	return result
}

// HandleCallEnd finalizes the session when the telephony provider reports
// the call finished. Safe to call for unknown or already finalized calls.
func (o *Orchestrator) HandleCallEnd(ctx context.Context, callID string) {
	o.lifecycle.Finalize(ctx, callID, ReasonCompleted)
}
