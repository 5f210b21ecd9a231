package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/orbyn-ai/nova-voice-agent/internal/booking"
	"github.com/orbyn-ai/nova-voice-agent/internal/call"
	"github.com/orbyn-ai/nova-voice-agent/internal/dialogue"
	"github.com/orbyn-ai/nova-voice-agent/internal/language"
	"github.com/orbyn-ai/nova-voice-agent/internal/leads"
	"github.com/orbyn-ai/nova-voice-agent/internal/scheduling"
	"github.com/orbyn-ai/nova-voice-agent/internal/session"
	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

type scriptedGenerator struct {
	replies []string
	calls   int
}

func (g *scriptedGenerator) Generate(ctx context.Context, messages []dialogue.Message) (string, error) {
	reply := g.replies[g.calls%len(g.replies)]
	g.calls++
	return reply, nil
}

type fixedCalendar struct {
	slots []scheduling.SlotOffer
	books int
}

func (c *fixedCalendar) ListSlots(ctx context.Context, horizonDays int) ([]scheduling.SlotOffer, error) {
	return c.slots, nil
}

func (c *fixedCalendar) Book(ctx context.Context, b scheduling.BookingRequest) error {
	c.books++
	return nil
}

type testHarness struct {
	handler *VoiceWebhookHandler
	store   *session.Store
	sink    *leads.MemorySink
	cal     *fixedCalendar
}

func newHarness(t *testing.T, gen dialogue.Generator) *testHarness {
	t.Helper()
	logger := logging.Default()
	store := session.NewStore(session.LanguageEnglish)
	sink := leads.NewMemorySink()
	cal := &fixedCalendar{slots: []scheduling.SlotOffer{
		{Date: "2026-03-10", DisplayTime: "10:00 AM", Start: "2026-03-10T14:00:00Z"},
		{Date: "2026-03-10", DisplayTime: "2:00 PM", Start: "2026-03-10T18:00:00Z"},
	}}

	engine := dialogue.NewEngine(gen, language.NewClassifier(), logger)
	coord := booking.NewCoordinator(booking.Config{
		Calendar: cal,
		Sink:     sink,
		Location: time.UTC,
		Logger:   logger,
	})
	lifecycle := call.NewLifecycle(store, sink, nil, logger, nil)
	orchestrator := call.NewOrchestrator(store, engine, coord, lifecycle, logger, nil)

	handler := NewVoiceWebhookHandler(VoiceWebhookConfig{
		Orchestrator: orchestrator,
		Logger:       logger,
	})
	return &testHarness{handler: handler, store: store, sink: sink, cal: cal}
}

func postForm(t *testing.T, handlerFunc http.HandlerFunc, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestIncomingGreetsAndGathers(t *testing.T) {
	h := newHarness(t, &scriptedGenerator{replies: []string{"hi"}})

	rec := postForm(t, h.handler.Incoming, "/webhooks/voice/incoming", url.Values{
		"CallSid": {"CA300"},
		"From":    {"+15551234567"},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<Gather") || !strings.Contains(body, `action="/webhooks/voice/process"`) {
		t.Fatalf("expected gather to process endpoint, got %s", body)
	}
	if !strings.Contains(body, "Nova") {
		t.Fatalf("expected greeting, got %s", body)
	}
	if !strings.Contains(body, "Polly.Joanna") {
		t.Fatalf("expected english voice, got %s", body)
	}

	sess, ok := h.store.Lookup("CA300")
	if !ok || sess.CallerPhone != "+15551234567" {
		t.Fatalf("expected session created, got %+v", sess)
	}
}

func TestIncomingMissingCallSid(t *testing.T) {
	h := newHarness(t, &scriptedGenerator{replies: []string{"hi"}})

	rec := postForm(t, h.handler.Incoming, "/webhooks/voice/incoming", url.Values{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestProcessSpeechEmptyUtteranceReprompts(t *testing.T) {
	h := newHarness(t, &scriptedGenerator{replies: []string{"hi"}})

	rec := postForm(t, h.handler.ProcessSpeech, "/webhooks/voice/process", url.Values{
		"CallSid": {"CA301"},
		"From":    {"+15551234567"},
	})

	body := rec.Body.String()
	if !strings.Contains(body, "I didn&#39;t catch that") {
		t.Fatalf("expected re-prompt, got %s", body)
	}
	if !strings.Contains(body, "<Gather") {
		t.Fatalf("expected gather, got %s", body)
	}

	sess, _ := h.store.Lookup("CA301")
	if len(sess.Turns) != 0 {
		t.Fatalf("expected 0 turns after empty utterance, got %d", len(sess.Turns))
	}
}

func TestProcessSpeechContinuesConversation(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		`Nice to meet you, John! {"name": "John Smith", "phone": null, "email": null, "service": null, "ready_to_book": false}`,
	}}
	h := newHarness(t, gen)

	rec := postForm(t, h.handler.ProcessSpeech, "/webhooks/voice/process", url.Values{
		"CallSid":      {"CA302"},
		"From":         {"+15551234567"},
		"SpeechResult": {"Hi, I'm John Smith"},
	})

	body := rec.Body.String()
	if !strings.Contains(body, "Nice to meet you, John!") {
		t.Fatalf("expected spoken reply, got %s", body)
	}
	if strings.Contains(body, "ready_to_book") {
		t.Fatalf("structured block leaked into speech: %s", body)
	}
	if !strings.Contains(body, `action="/webhooks/voice/process"`) {
		t.Fatalf("expected loop back to process, got %s", body)
	}

	sess, _ := h.store.Lookup("CA302")
	if sess.Collected.Name != "John Smith" {
		t.Fatalf("expected name extracted, got %+v", sess.Collected)
	}
}

func TestProcessSpeechOffersSlotsWhenReady(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		`Great, let's find you a time! {"name": "John Smith", "phone": "+15551234567", "email": null, "service": "marketing", "ready_to_book": true}`,
	}}
	h := newHarness(t, gen)

	rec := postForm(t, h.handler.ProcessSpeech, "/webhooks/voice/process", url.Values{
		"CallSid":      {"CA303"},
		"From":         {"+15551234567"},
		"SpeechResult": {"Yes, I'd like to book a consultation. I'm John Smith, my number is 555-123-4567"},
	})

	body := rec.Body.String()
	if !strings.Contains(body, `action="/webhooks/voice/book"`) {
		t.Fatalf("expected gather to book endpoint, got %s", body)
	}
	if !strings.Contains(body, "10:00 AM") {
		t.Fatalf("expected slots read out, got %s", body)
	}
}

func TestConfirmBookingBooksFirstSlot(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		`Great! {"name": "John Smith", "phone": "+15551234567", "email": null, "service": null, "ready_to_book": true}`,
	}}
	h := newHarness(t, gen)

	postForm(t, h.handler.ProcessSpeech, "/webhooks/voice/process", url.Values{
		"CallSid":      {"CA304"},
		"From":         {"+15551234567"},
		"SpeechResult": {"book me in please, I'm John Smith at 555-123-4567"},
	})

	rec := postForm(t, h.handler.ConfirmBooking, "/webhooks/voice/book", url.Values{
		"CallSid":      {"CA304"},
		"SpeechResult": {"the morning one works"},
	})

	body := rec.Body.String()
	if !strings.Contains(body, "booked you for 2026-03-10 at 10:00 AM") {
		t.Fatalf("expected booking confirmation, got %s", body)
	}
	if !strings.Contains(body, "<Hangup") {
		t.Fatalf("expected hangup, got %s", body)
	}
	if h.cal.books != 1 {
		t.Fatalf("expected 1 provider booking, got %d", h.cal.books)
	}
	if _, ok := h.store.Lookup("CA304"); ok {
		t.Fatal("expected session evicted after booking")
	}
	allLeads := h.sink.All()
	if len(allLeads) != 1 || allLeads[0].Status != "booked" {
		t.Fatalf("expected one booked lead, got %+v", allLeads)
	}
}

func TestConfirmBookingUnknownCall(t *testing.T) {
	h := newHarness(t, &scriptedGenerator{replies: []string{"hi"}})

	rec := postForm(t, h.handler.ConfirmBooking, "/webhooks/voice/book", url.Values{
		"CallSid": {"CA305"},
	})

	body := rec.Body.String()
	if !strings.Contains(body, "trouble booking") || !strings.Contains(body, "<Hangup") {
		t.Fatalf("expected callback goodbye with hangup, got %s", body)
	}
}

func TestCallStatusCompletedFinalizes(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		`Thanks for calling! {"name": "John Smith", "phone": null, "email": null, "service": null, "ready_to_book": false}`,
	}}
	h := newHarness(t, gen)

	postForm(t, h.handler.ProcessSpeech, "/webhooks/voice/process", url.Values{
		"CallSid":      {"CA306"},
		"From":         {"+15551234567"},
		"SpeechResult": {"just looking around, thanks"},
	})

	rec := postForm(t, h.handler.CallStatus, "/webhooks/voice/status", url.Values{
		"CallSid":    {"CA306"},
		"CallStatus": {"completed"},
	})

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if _, ok := h.store.Lookup("CA306"); ok {
		t.Fatal("expected session evicted")
	}
	allLeads := h.sink.All()
	if len(allLeads) != 1 || allLeads[0].Status != "no_booking" {
		t.Fatalf("expected no_booking lead, got %+v", allLeads)
	}
}

func TestCallStatusRingingIgnored(t *testing.T) {
	h := newHarness(t, &scriptedGenerator{replies: []string{"hi"}})

	postForm(t, h.handler.Incoming, "/webhooks/voice/incoming", url.Values{
		"CallSid": {"CA307"},
		"From":    {"+15551234567"},
	})
	postForm(t, h.handler.CallStatus, "/webhooks/voice/status", url.Values{
		"CallSid":    {"CA307"},
		"CallStatus": {"in-progress"},
	})

	if _, ok := h.store.Lookup("CA307"); !ok {
		t.Fatal("expected session kept for non-final status")
	}
}

func TestSpanishCallerGetsSpanishVoice(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		`¡Hola! ¿Cómo te llamas? {"name": null, "phone": null, "email": null, "service": null, "ready_to_book": false}`,
	}}
	h := newHarness(t, gen)

	rec := postForm(t, h.handler.ProcessSpeech, "/webhooks/voice/process", url.Values{
		"CallSid":      {"CA308"},
		"From":         {"+15551234567"},
		"SpeechResult": {"Hola, necesito ayuda con mi negocio"},
	})

	body := rec.Body.String()
	if !strings.Contains(body, "Polly.Lupe") {
		t.Fatalf("expected spanish voice, got %s", body)
	}
	if !strings.Contains(body, `language="es-US"`) {
		t.Fatalf("expected spanish locale, got %s", body)
	}

	sess, _ := h.store.Lookup("CA308")
	if sess.Language != session.LanguageSpanish {
		t.Fatalf("expected session flipped to spanish, got %s", sess.Language)
	}
}

func TestSignatureValidationRejectsUnsigned(t *testing.T) {
	h := newHarness(t, &scriptedGenerator{replies: []string{"hi"}})
	h.handler.authToken = "token"
	h.handler.publicBaseURL = "https://agent.example.com"
	h.handler.validateSignatures = true

	rec := postForm(t, h.handler.Incoming, "/webhooks/voice/incoming", url.Values{
		"CallSid": {"CA309"},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSignatureValidationAcceptsSigned(t *testing.T) {
	h := newHarness(t, &scriptedGenerator{replies: []string{"hi"}})
	h.handler.authToken = "token"
	h.handler.publicBaseURL = "https://agent.example.com"
	h.handler.validateSignatures = true

	form := url.Values{"CallSid": {"CA310"}, "From": {"+15551234567"}}
	payload := buildSignaturePayload("https://agent.example.com/webhooks/voice/incoming", form)
	sig := computeSignature(payload, "token")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/voice/incoming", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", sig)
	rec := httptest.NewRecorder()
	h.handler.Incoming(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for signed request, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHealthCheck(t *testing.T) {
	h := newHarness(t, &scriptedGenerator{replies: []string{"hi"}})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.handler.HealthCheck(rec, req)

	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected health response: %d %s", rec.Code, rec.Body.String())
	}
}
