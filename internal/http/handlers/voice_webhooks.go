package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/orbyn-ai/nova-voice-agent/internal/call"
	"github.com/orbyn-ai/nova-voice-agent/internal/observability/metrics"
	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

const (
	processPath = "/webhooks/voice/process"
	bookPath    = "/webhooks/voice/book"
)

// VoiceWebhookHandler serves the Twilio voice webhooks for one agent number.
type VoiceWebhookHandler struct {
	orchestrator       *call.Orchestrator
	authToken          string
	publicBaseURL      string
	validateSignatures bool
	logger             *logging.Logger
	metrics            *metrics.VoiceMetrics
}

// VoiceWebhookConfig wires the voice webhook handler.
type VoiceWebhookConfig struct {
	Orchestrator *call.Orchestrator
	// AuthToken and PublicBaseURL enable Twilio signature validation when
	// both are set and ValidateSignatures is true.
	AuthToken          string
	PublicBaseURL      string
	ValidateSignatures bool
	Logger             *logging.Logger
	Metrics            *metrics.VoiceMetrics
}

// NewVoiceWebhookHandler creates the Twilio voice webhook handler.
func NewVoiceWebhookHandler(cfg VoiceWebhookConfig) *VoiceWebhookHandler {
	if cfg.Orchestrator == nil {
		panic("handlers: orchestrator is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &VoiceWebhookHandler{
		orchestrator:       cfg.Orchestrator,
		authToken:          cfg.AuthToken,
		publicBaseURL:      cfg.PublicBaseURL,
		validateSignatures: cfg.ValidateSignatures && cfg.AuthToken != "" && cfg.PublicBaseURL != "",
		logger:             cfg.Logger,
		metrics:            cfg.Metrics,
	}
}

func (h *VoiceWebhookHandler) verify(w http.ResponseWriter, r *http.Request) bool {
	if !h.validateSignatures {
		return true
	}
	if !ValidateTwilioSignature(r, h.authToken, buildAbsoluteURL(h.publicBaseURL, r)) {
		h.logger.Warn("rejected webhook with bad signature", "path", r.URL.Path, "remote_ip", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusForbidden)
		return false
	}
	return true
}

// Incoming answers a new call with the greeting and starts gathering speech.
func (h *VoiceWebhookHandler) Incoming(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveWebhookLatency("incoming", time.Since(start).Seconds()) }()

	if !h.verify(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	callID := r.FormValue("CallSid")
	if callID == "" {
		http.Error(w, "CallSid required", http.StatusBadRequest)
		return
	}

	result := h.orchestrator.StartCall(r.Context(), callID, r.FormValue("From"))

	writeTwiML(w, &VoiceResponse{
		Gather: &Gather{
			Input:         "speech",
			Action:        processPath,
			SpeechTimeout: "auto",
			Language:      localeFor(result.Language),
			Say:           &Say{Voice: voiceFor(result.Language), Text: result.Reply},
		},
		Say: &Say{Voice: voiceFor(result.Language), Text: call.NoInputGoodbye(result.Language)},
	})
}

// ProcessSpeech handles one caller utterance and renders the next verb set.
func (h *VoiceWebhookHandler) ProcessSpeech(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveWebhookLatency("process", time.Since(start).Seconds()) }()

	if !h.verify(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	callID := r.FormValue("CallSid")
	if callID == "" {
		http.Error(w, "CallSid required", http.StatusBadRequest)
		return
	}

	result := h.orchestrator.HandleTurn(r.Context(), callID, r.FormValue("From"), r.FormValue("SpeechResult"))
	voice := voiceFor(result.Language)

	switch result.Action {
	case call.ActionOfferSlots:
		writeTwiML(w, &VoiceResponse{
			Gather: &Gather{
				Input:         "speech",
				Action:        bookPath,
				SpeechTimeout: "auto",
				Language:      localeFor(result.Language),
				Say:           &Say{Voice: voice, Text: result.Reply},
			},
		})
	case call.ActionEndCall:
		writeTwiML(w, &VoiceResponse{
			Say:    &Say{Voice: voice, Text: result.Reply},
			Hangup: &Hangup{},
		})
	default:
		writeTwiML(w, &VoiceResponse{
			Gather: &Gather{
				Input:         "speech",
				Action:        processPath,
				SpeechTimeout: "auto",
				Language:      localeFor(result.Language),
				Say:           &Say{Voice: voice, Text: result.Reply},
			},
			Say:      &Say{Voice: voice, Text: call.StillThere(result.Language)},
			Redirect: &Redirect{URL: processPath},
		})
	}
}

// ConfirmBooking books the first offered slot and closes the call.
func (h *VoiceWebhookHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveWebhookLatency("book", time.Since(start).Seconds()) }()

	if !h.verify(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	callID := r.FormValue("CallSid")
	if callID == "" {
		http.Error(w, "CallSid required", http.StatusBadRequest)
		return
	}

	result := h.orchestrator.ConfirmBooking(r.Context(), callID)

	writeTwiML(w, &VoiceResponse{
		Say:    &Say{Voice: voiceFor(result.Language), Text: result.Reply},
		Hangup: &Hangup{},
	})
}

// CallStatus receives call status callbacks and finalizes finished calls.
func (h *VoiceWebhookHandler) CallStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveWebhookLatency("status", time.Since(start).Seconds()) }()

	if !h.verify(w, r) {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	callID := r.FormValue("CallSid")
	status := r.FormValue("CallStatus")
	h.logger.Info("call status update", "call_id", callID, "status", status)

	switch status {
	case "completed", "failed", "busy", "no-answer", "canceled":
		h.orchestrator.HandleCallEnd(r.Context(), callID)
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck reports service liveness.
func (h *VoiceWebhookHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
