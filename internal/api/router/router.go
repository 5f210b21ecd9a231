package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/orbyn-ai/nova-voice-agent/internal/http/handlers"
	httpmiddleware "github.com/orbyn-ai/nova-voice-agent/internal/http/middleware"
	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Voice          *handlers.VoiceWebhookHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", cfg.Voice.HealthCheck)

	r.Route("/webhooks/voice", func(voice chi.Router) {
		voice.Post("/incoming", cfg.Voice.Incoming)
		voice.Post("/process", cfg.Voice.ProcessSpeech)
		voice.Post("/book", cfg.Voice.ConfirmBooking)
		voice.Post("/status", cfg.Voice.CallStatus)
	})

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
