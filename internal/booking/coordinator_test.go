package booking

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/orbyn-ai/nova-voice-agent/internal/leads"
	"github.com/orbyn-ai/nova-voice-agent/internal/notify"
	"github.com/orbyn-ai/nova-voice-agent/internal/scheduling"
	"github.com/orbyn-ai/nova-voice-agent/internal/session"
	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

type stubCalendar struct {
	slots    []scheduling.SlotOffer
	listErr  error
	bookErr  error
	booked   []scheduling.BookingRequest
	listHits int
}

func (s *stubCalendar) ListSlots(ctx context.Context, horizonDays int) ([]scheduling.SlotOffer, error) {
	s.listHits++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.slots, nil
}

func (s *stubCalendar) Book(ctx context.Context, booking scheduling.BookingRequest) error {
	if s.bookErr != nil {
		return s.bookErr
	}
	s.booked = append(s.booked, booking)
	return nil
}

type stubSMS struct {
	sent []string
	err  error
}

func (s *stubSMS) SendSMS(ctx context.Context, to, body string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, body)
	return nil
}

type stubEmail struct {
	sent []notify.EmailMessage
}

func (s *stubEmail) Send(ctx context.Context, msg notify.EmailMessage) error {
	s.sent = append(s.sent, msg)
	return nil
}

func testSlots() []scheduling.SlotOffer {
	return []scheduling.SlotOffer{
		{Date: "2026-03-10", DisplayTime: "10:00 AM", Start: "2026-03-10T14:00:00Z"},
		{Date: "2026-03-10", DisplayTime: "2:00 PM", Start: "2026-03-10T18:00:00Z"},
	}
}

func newTestCoordinator(cal SlotProvider, sms notify.SMSSender, email notify.EmailSender, sink leads.Sink) *Coordinator {
	return NewCoordinator(Config{
		Calendar: cal,
		SMS:      sms,
		Email:    email,
		Sink:     sink,
		Location: time.UTC,
		Logger:   logging.Default(),
	})
}

func newTestSession() *session.CallSession {
	return &session.CallSession{
		CallID:      "CA900",
		CallerPhone: "+15551234567",
		Language:    session.LanguageEnglish,
		Status:      session.StatusNew,
		Collected: session.ContactInfo{
			Name:  "John Smith",
			Phone: "+15551234567",
		},
	}
}

func TestOfferSlotsReturnsProviderSlots(t *testing.T) {
	cal := &stubCalendar{slots: testSlots()}
	c := newTestCoordinator(cal, nil, nil, nil)

	slots := c.OfferSlots(context.Background())
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
}

func TestOfferSlotsFallsBackOnProviderError(t *testing.T) {
	cal := &stubCalendar{listErr: errors.New("cal.com down")}
	c := newTestCoordinator(cal, nil, nil, nil)

	slots := c.OfferSlots(context.Background())
	if len(slots) != 2 {
		t.Fatalf("expected 2 fallback slots, got %d", len(slots))
	}
	if slots[0].DisplayTime != "10:00 AM" || slots[1].DisplayTime != "2:00 PM" {
		t.Fatalf("unexpected fallback slots: %+v", slots)
	}
}

func TestOfferSlotsCapped(t *testing.T) {
	var many []scheduling.SlotOffer
	for i := 0; i < 9; i++ {
		many = append(many, scheduling.SlotOffer{Date: "2026-03-10", DisplayTime: "10:00 AM", Start: "2026-03-10T14:00:00Z"})
	}
	cal := &stubCalendar{slots: many}
	c := newTestCoordinator(cal, nil, nil, nil)

	slots := c.OfferSlots(context.Background())
	if len(slots) != 5 {
		t.Fatalf("expected slots capped at 5, got %d", len(slots))
	}
}

func TestAttemptBookingSuccess(t *testing.T) {
	cal := &stubCalendar{slots: testSlots()}
	sms := &stubSMS{}
	email := &stubEmail{}
	sink := leads.NewMemorySink()
	c := newTestCoordinator(cal, sms, email, sink)

	sess := newTestSession()
	result := c.AttemptBooking(context.Background(), sess)

	if result.Outcome != OutcomeBooked {
		t.Fatalf("expected booked, got %s (%v)", result.Outcome, result.Err)
	}
	if result.Slot.Start != "2026-03-10T14:00:00Z" {
		t.Fatalf("expected first slot booked, got %+v", result.Slot)
	}
	if sess.Status != session.StatusBooked {
		t.Fatalf("expected session booked, got %s", sess.Status)
	}
	if sess.AppointmentTime != "2026-03-10T14:00:00Z" {
		t.Fatalf("expected appointment time stamped, got %q", sess.AppointmentTime)
	}
	if len(cal.booked) != 1 {
		t.Fatalf("expected 1 booking call, got %d", len(cal.booked))
	}
	if len(sms.sent) != 1 {
		t.Fatalf("expected confirmation sms, got %d", len(sms.sent))
	}
	if !sess.LeadRecorded || len(sink.All()) != 1 {
		t.Fatalf("expected lead recorded once, latch=%v leads=%d", sess.LeadRecorded, len(sink.All()))
	}
}

func TestAttemptBookingPlaceholderEmail(t *testing.T) {
	cal := &stubCalendar{slots: testSlots()}
	c := newTestCoordinator(cal, nil, nil, nil)

	sess := newTestSession()
	c.AttemptBooking(context.Background(), sess)

	if len(cal.booked) != 1 {
		t.Fatalf("expected booking call, got %d", len(cal.booked))
	}
	if cal.booked[0].Email != "+15551234567@temp.com" {
		t.Fatalf("expected placeholder email, got %q", cal.booked[0].Email)
	}
}

func TestAttemptBookingKeepsCollectedEmail(t *testing.T) {
	cal := &stubCalendar{slots: testSlots()}
	email := &stubEmail{}
	c := newTestCoordinator(cal, nil, email, nil)

	sess := newTestSession()
	sess.Collected.Email = "john@example.com"
	c.AttemptBooking(context.Background(), sess)

	if cal.booked[0].Email != "john@example.com" {
		t.Fatalf("expected collected email used, got %q", cal.booked[0].Email)
	}
	if len(email.sent) != 1 || email.sent[0].To != "john@example.com" {
		t.Fatalf("expected confirmation email, got %+v", email.sent)
	}
}

func TestAttemptBookingProviderFailure(t *testing.T) {
	cal := &stubCalendar{slots: testSlots(), bookErr: errors.New("409 conflict")}
	sink := leads.NewMemorySink()
	c := newTestCoordinator(cal, nil, nil, sink)

	sess := newTestSession()
	result := c.AttemptBooking(context.Background(), sess)

	if result.Outcome != OutcomeFailed {
		t.Fatalf("expected failed outcome, got %s", result.Outcome)
	}
	if sess.Status != session.StatusNeedsCallback {
		t.Fatalf("expected needs_callback, got %s", sess.Status)
	}
	if sess.AppointmentTime != "" {
		t.Fatalf("expected no appointment time, got %q", sess.AppointmentTime)
	}
	if !sess.LeadRecorded || len(sink.All()) != 1 {
		t.Fatal("expected lead recorded for callback")
	}
	if sink.All()[0].Status != "needs_callback" {
		t.Fatalf("expected needs_callback lead, got %s", sink.All()[0].Status)
	}
}

func TestAttemptBookingRefetchFallsBack(t *testing.T) {
	cal := &stubCalendar{listErr: errors.New("cal.com down")}
	c := newTestCoordinator(cal, nil, nil, nil)

	sess := newTestSession()
	result := c.AttemptBooking(context.Background(), sess)

	// Fallback slots still let the booking go through.
	if result.Outcome != OutcomeBooked {
		t.Fatalf("expected booked via fallback slots, got %s", result.Outcome)
	}
	if result.Slot.DisplayTime != "10:00 AM" {
		t.Fatalf("expected morning fallback slot, got %+v", result.Slot)
	}
}

func TestAttemptBookingNoSlots(t *testing.T) {
	cal := &stubCalendar{slots: nil}
	sink := leads.NewMemorySink()
	c := newTestCoordinator(cal, nil, nil, sink)

	sess := newTestSession()
	result := c.AttemptBooking(context.Background(), sess)

	if result.Outcome != OutcomeNoSlots {
		t.Fatalf("expected no slots outcome, got %s", result.Outcome)
	}
	if sess.Status != session.StatusNeedsCallback {
		t.Fatalf("expected needs_callback, got %s", sess.Status)
	}
	if len(cal.booked) != 0 {
		t.Fatal("expected no booking call")
	}
}

func TestAttemptBookingSMSFailureNonFatal(t *testing.T) {
	cal := &stubCalendar{slots: testSlots()}
	sms := &stubSMS{err: errors.New("twilio 500")}
	sink := leads.NewMemorySink()
	c := newTestCoordinator(cal, sms, nil, sink)

	sess := newTestSession()
	result := c.AttemptBooking(context.Background(), sess)

	if result.Outcome != OutcomeBooked {
		t.Fatalf("sms failure must not break booking, got %s", result.Outcome)
	}
	if sess.Status != session.StatusBooked {
		t.Fatalf("expected booked, got %s", sess.Status)
	}
	if len(sink.All()) != 1 {
		t.Fatal("expected lead still recorded")
	}
}

func TestAttemptBookingLeadRecordedOnce(t *testing.T) {
	cal := &stubCalendar{slots: testSlots()}
	sink := leads.NewMemorySink()
	c := newTestCoordinator(cal, nil, nil, sink)

	sess := newTestSession()
	sess.LeadRecorded = true
	c.AttemptBooking(context.Background(), sess)

	if len(sink.All()) != 0 {
		t.Fatalf("expected no duplicate lead, got %d", len(sink.All()))
	}
}

func TestAttemptBookingSpanishConfirmation(t *testing.T) {
	cal := &stubCalendar{slots: testSlots()}
	sms := &stubSMS{}
	c := newTestCoordinator(cal, sms, nil, nil)

	sess := newTestSession()
	sess.Language = session.LanguageSpanish
	sess.Collected.Name = "Maria"
	c.AttemptBooking(context.Background(), sess)

	if len(sms.sent) != 1 {
		t.Fatalf("expected 1 sms, got %d", len(sms.sent))
	}
	if !strings.Contains(sms.sent[0], "¡Hola Maria!") {
		t.Fatalf("expected spanish confirmation, got %q", sms.sent[0])
	}
}
