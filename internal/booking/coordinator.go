// Package booking coordinates slot lookup, the provider booking call, and the
// follow-up notifications for one call session.
package booking

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/orbyn-ai/nova-voice-agent/internal/leads"
	"github.com/orbyn-ai/nova-voice-agent/internal/notify"
	"github.com/orbyn-ai/nova-voice-agent/internal/observability/metrics"
	"github.com/orbyn-ai/nova-voice-agent/internal/scheduling"
	"github.com/orbyn-ai/nova-voice-agent/internal/session"
	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

var bookingTracer = otel.Tracer("nova.internal.booking")

// Outcome classifies how a booking attempt ended.
type Outcome string

const (
	OutcomeBooked  Outcome = "booked"
	OutcomeNoSlots Outcome = "no_slots"
	OutcomeFailed  Outcome = "failed"
)

// Result reports one booking attempt. Slot is meaningful only when Outcome
// is OutcomeBooked.
type Result struct {
	Outcome Outcome
	Slot    scheduling.SlotOffer
	Err     error
}

// SlotProvider is the scheduling backend the coordinator books against.
type SlotProvider interface {
	ListSlots(ctx context.Context, horizonDays int) ([]scheduling.SlotOffer, error)
	Book(ctx context.Context, booking scheduling.BookingRequest) error
}

// Coordinator runs the booking flow: fetch slots, book the first one, then
// fire best-effort confirmations and record the lead.
type Coordinator struct {
	calendar    SlotProvider
	sms         notify.SMSSender
	email       notify.EmailSender
	sink        leads.Sink
	loc         *time.Location
	horizonDays int
	slotLimit   int
	logger      *logging.Logger
	metrics     *metrics.VoiceMetrics
	now         func() time.Time
}

// Config wires the coordinator's collaborators. Calendar is required; SMS,
// Email, and Sink may be nil and are then skipped.
type Config struct {
	Calendar    SlotProvider
	SMS         notify.SMSSender
	Email       notify.EmailSender
	Sink        leads.Sink
	Location    *time.Location
	HorizonDays int
	SlotLimit   int
	Logger      *logging.Logger
	Metrics     *metrics.VoiceMetrics
}

// NewCoordinator creates a booking coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Calendar == nil {
		panic("booking: Calendar is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 7
	}
	if cfg.SlotLimit <= 0 {
		cfg.SlotLimit = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Coordinator{
		calendar:    cfg.Calendar,
		sms:         cfg.SMS,
		email:       cfg.Email,
		sink:        cfg.Sink,
		loc:         cfg.Location,
		horizonDays: cfg.HorizonDays,
		slotLimit:   cfg.SlotLimit,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		now:         time.Now,
	}
}

// OfferSlots returns candidate slots to read to the caller. A provider
// failure degrades to the deterministic next-day fallback pair, so this
// never returns an empty offer because of an outage.
func (c *Coordinator) OfferSlots(ctx context.Context) []scheduling.SlotOffer {
	ctx, span := bookingTracer.Start(ctx, "booking.offer_slots")
	defer span.End()

	slots, err := c.calendar.ListSlots(ctx, c.horizonDays)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("slot lookup failed, using fallback slots", "error", err)
		slots = scheduling.FallbackSlots(c.now(), c.loc)
	}
	if len(slots) > c.slotLimit {
		slots = slots[:c.slotLimit]
	}
	span.SetAttributes(attribute.Int("nova.booking.slots", len(slots)))
	return slots
}

// AttemptBooking refetches availability and books the first slot for the
// session. On success it marks the session booked, stamps the appointment
// time, and fires the confirmation SMS, the confirmation email, and the lead
// record, all best-effort. On failure the session moves to needs_callback
// and the lead is still recorded. Either way the lead is persisted at most
// once, guarded by the session's LeadRecorded latch.
func (c *Coordinator) AttemptBooking(ctx context.Context, sess *session.CallSession) Result {
	ctx, span := bookingTracer.Start(ctx, "booking.attempt")
	defer span.End()
	span.SetAttributes(attribute.String("nova.call.id", sess.CallID))

	slots, err := c.calendar.ListSlots(ctx, c.horizonDays)
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("slot refetch failed, using fallback slots", "call_id", sess.CallID, "error", err)
		slots = scheduling.FallbackSlots(c.now(), c.loc)
	}
	if len(slots) > c.slotLimit {
		slots = slots[:c.slotLimit]
	}
	if len(slots) == 0 {
		c.logger.Warn("no slots available to book", "call_id", sess.CallID)
		c.failSession(ctx, sess)
		c.observeBooking(string(OutcomeNoSlots))
		return Result{Outcome: OutcomeNoSlots}
	}

	slot := slots[0]
	email := sess.Collected.Email
	if email == "" {
		email = fmt.Sprintf("%s@temp.com", sess.Collected.Phone)
	}

	err = c.calendar.Book(ctx, scheduling.BookingRequest{
		Name:  sess.Collected.Name,
		Email: email,
		Phone: sess.Collected.Phone,
		Start: slot.Start,
	})
	if err != nil {
		span.RecordError(err)
		c.logger.Error("booking failed", "call_id", sess.CallID, "start", slot.Start, "error", err)
		c.failSession(ctx, sess)
		c.observeBooking(string(OutcomeFailed))
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	sess.AppointmentTime = slot.Start
	sess.TransitionTo(session.StatusBooked)
	c.logger.Info("appointment booked", "call_id", sess.CallID, "start", slot.Start)

	when := scheduling.FormatSlotWhen(slot, sess.Language)
	c.sendConfirmations(ctx, sess, when)
	c.recordLead(ctx, sess)
	c.observeBooking(string(OutcomeBooked))

	return Result{Outcome: OutcomeBooked, Slot: slot}
}

func (c *Coordinator) failSession(ctx context.Context, sess *session.CallSession) {
	sess.TransitionTo(session.StatusNeedsCallback)
	c.recordLead(ctx, sess)
}

func (c *Coordinator) sendConfirmations(ctx context.Context, sess *session.CallSession, when string) {
	if c.sms != nil && sess.Collected.Phone != "" {
		body := notify.ConfirmationSMS(sess.Language, sess.Collected.Name, when)
		if err := c.sms.SendSMS(ctx, sess.Collected.Phone, body); err != nil {
			c.logger.Warn("confirmation sms failed", "call_id", sess.CallID, "error", err)
		}
	}
	if c.email != nil && sess.Collected.Email != "" {
		subject, body := notify.ConfirmationEmail(sess.Language, sess.Collected.Name, when)
		msg := notify.EmailMessage{
			To:      sess.Collected.Email,
			ToName:  sess.Collected.Name,
			Subject: subject,
			Body:    body,
		}
		if err := c.email.Send(ctx, msg); err != nil {
			c.logger.Warn("confirmation email failed", "call_id", sess.CallID, "error", err)
		}
	}
}

func (c *Coordinator) recordLead(ctx context.Context, sess *session.CallSession) {
	if c.sink == nil || sess.LeadRecorded {
		return
	}
	if err := c.sink.Record(ctx, leads.FromSession(sess)); err != nil {
		c.logger.Warn("lead record failed", "call_id", sess.CallID, "error", err)
		return
	}
	sess.LeadRecorded = true
}

func (c *Coordinator) observeBooking(outcome string) {
	c.metrics.ObserveBooking(outcome)
}
