package call

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orbyn-ai/nova-voice-agent/internal/leads"
	"github.com/orbyn-ai/nova-voice-agent/internal/observability/metrics"
	"github.com/orbyn-ai/nova-voice-agent/internal/session"
	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

var lifecycleTracer = otel.Tracer("nova.internal.call.lifecycle")

// Reason records why a call is being finalized.
type Reason string

const (
	ReasonCompleted Reason = "completed" // telephony provider reported call end
	ReasonBooked    Reason = "booked"    // booking flow finished and hung up
	ReasonFailed    Reason = "failed"    // internal failure ended the call
)

// Archiver persists a finished session's transcript.
type Archiver interface {
	RecordFromSession(ctx context.Context, sess *session.CallSession) error
}

// Lifecycle finalizes sessions: it settles the terminal status, persists the
// lead exactly once, archives the transcript, and evicts the session.
type Lifecycle struct {
	store   *session.Store
	sink    leads.Sink
	archive Archiver
	logger  *logging.Logger
	metrics *metrics.VoiceMetrics
}

// NewLifecycle creates a lifecycle manager. Sink and archive may be nil.
func NewLifecycle(store *session.Store, sink leads.Sink, archive Archiver, logger *logging.Logger, m *metrics.VoiceMetrics) *Lifecycle {
	if store == nil {
		panic("call: store is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Lifecycle{
		store:   store,
		sink:    sink,
		archive: archive,
		logger:  logger,
		metrics: m,
	}
}

// Finalize ends the session for callID. A session still in its initial
// status settles to no_booking. The lead is persisted unless an earlier step
// already recorded it, the transcript is archived best-effort, and the
// session is evicted. Finalizing an unknown or already-evicted call is a
// no-op, so duplicate end-of-call webhooks are harmless.
func (l *Lifecycle) Finalize(ctx context.Context, callID string, reason Reason) {
	ctx, span := lifecycleTracer.Start(ctx, "call.finalize")
	defer span.End()
	span.SetAttributes(
		attribute.String("nova.call.id", callID),
		attribute.String("nova.call.reason", string(reason)),
	)

	var snapshot *session.CallSession
	found := l.store.UpdateExisting(callID, func(sess *session.CallSession) {
		if sess.Status == session.StatusNew {
			sess.TransitionTo(session.StatusNoBooking)
		}
		if l.sink != nil && !sess.LeadRecorded {
			if err := l.sink.Record(ctx, leads.FromSession(sess)); err != nil {
				l.logger.Warn("lead record failed at call end", "call_id", callID, "error", err)
			} else {
				sess.LeadRecorded = true
			}
		}
		// Copy under the call lock; archive runs after release.
		copied := *sess
		copied.Turns = append([]session.Turn(nil), sess.Turns...)
		snapshot = &copied
	})
	if !found {
		return
	}

	if l.archive != nil && snapshot != nil {
		if err := l.archive.RecordFromSession(ctx, snapshot); err != nil {
			l.logger.Warn("transcript archive failed", "call_id", callID, "error", err)
		}
	}

	l.store.Remove(callID)
	l.metrics.CallEnded()
	l.logger.Info("call finalized", "call_id", callID, "reason", string(reason), "status", string(snapshot.Status))
}
