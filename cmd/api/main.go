package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	openai "github.com/sashabaranov/go-openai"

	"github.com/orbyn-ai/nova-voice-agent/cmd/mainconfig"
	"github.com/orbyn-ai/nova-voice-agent/internal/api/router"
	"github.com/orbyn-ai/nova-voice-agent/internal/archive"
	"github.com/orbyn-ai/nova-voice-agent/internal/booking"
	"github.com/orbyn-ai/nova-voice-agent/internal/call"
	appconfig "github.com/orbyn-ai/nova-voice-agent/internal/config"
	"github.com/orbyn-ai/nova-voice-agent/internal/dialogue"
	"github.com/orbyn-ai/nova-voice-agent/internal/http/handlers"
	"github.com/orbyn-ai/nova-voice-agent/internal/language"
	"github.com/orbyn-ai/nova-voice-agent/internal/leads"
	"github.com/orbyn-ai/nova-voice-agent/internal/notify"
	"github.com/orbyn-ai/nova-voice-agent/internal/observability/metrics"
	"github.com/orbyn-ai/nova-voice-agent/internal/scheduling"
	"github.com/orbyn-ai/nova-voice-agent/internal/session"
	"github.com/orbyn-ai/nova-voice-agent/pkg/logging"
)

func main() {
	// Load .env for local development; production uses real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting nova-voice-agent API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	loc, err := time.LoadLocation(cfg.ClinicTimezone)
	if err != nil {
		logger.Error("invalid clinic timezone", "timezone", cfg.ClinicTimezone, "error", err)
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	voiceMetrics := metrics.NewVoiceMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Dialogue
	openaiClient := openai.NewClient(cfg.OpenAIAPIKey)
	generator := dialogue.NewOpenAIGenerator(openaiClient, cfg.OpenAIModel, cfg.OpenAITimeout, logger)
	engine := dialogue.NewEngine(generator, language.NewClassifier(), logger)

	// Scheduling
	calendar := scheduling.NewCalClient(cfg.CalAPIKey, cfg.CalEventTypeID, cfg.CalBaseURL, loc, logger)

	// Lead sink
	sink := buildLeadSink(cfg, logger)

	// Notifications
	sms := notify.NewTwilioSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	email := buildEmailSender(cfg, logger)

	// Transcript archive
	var transcripts call.Archiver
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb := redis.NewClient(opts)
		transcripts = archive.NewTranscriptStore(rdb, cfg.TranscriptTTL)
		logger.Info("transcript archive enabled", "addr", cfg.RedisAddr)
	}

	// Call flow
	store := session.NewStore(session.Language(cfg.DefaultLanguage))
	coordinator := booking.NewCoordinator(booking.Config{
		Calendar:    calendar,
		SMS:         sms,
		Email:       email,
		Sink:        sink,
		Location:    loc,
		HorizonDays: cfg.SlotHorizonDays,
		SlotLimit:   cfg.SlotLimit,
		Logger:      logger,
		Metrics:     voiceMetrics,
	})
	lifecycle := call.NewLifecycle(store, sink, transcripts, logger, voiceMetrics)
	orchestrator := call.NewOrchestrator(store, engine, coordinator, lifecycle, logger, voiceMetrics)

	voiceHandler := handlers.NewVoiceWebhookHandler(handlers.VoiceWebhookConfig{
		Orchestrator:       orchestrator,
		AuthToken:          cfg.TwilioAuthToken,
		PublicBaseURL:      cfg.PublicBaseURL,
		ValidateSignatures: cfg.Env != "development",
		Logger:             logger,
		Metrics:            voiceMetrics,
	})

	r := router.New(&router.Config{
		Logger:         logger,
		Voice:          voiceHandler,
		MetricsHandler: metricsHandler,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// buildLeadSink picks the lead destination: Postgres when DATABASE_URL is
// set, Notion when a token is configured, otherwise an in-memory sink for
// local development.
func buildLeadSink(cfg *appconfig.Config, logger *logging.Logger) leads.Sink {
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		logger.Info("lead sink: postgres")
		return leads.NewPostgresSink(pool)
	}
	if cfg.NotionToken != "" && cfg.NotionDatabaseID != "" {
		logger.Info("lead sink: notion", "database_id", cfg.NotionDatabaseID)
		return leads.NewNotionSink(cfg.NotionToken, cfg.NotionDatabaseID, cfg.NotionBaseURL, logger)
	}
	logger.Warn("lead sink: in-memory (leads are lost on restart)")
	return leads.NewMemorySink()
}

func buildEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("sendgrid selected but SENDGRID_API_KEY missing, email disabled")
			return nil
		}
		logger.Info("email sender: sendgrid")
		return sender
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		logger.Info("email sender: ses", "region", cfg.AWSRegion)
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	default:
		return nil
	}
}
