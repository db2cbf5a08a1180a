package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voicebridge-systems/voicebridge/internal/config"
	"github.com/voicebridge-systems/voicebridge/internal/handlers"
	"github.com/voicebridge-systems/voicebridge/internal/journal"
	"github.com/voicebridge-systems/voicebridge/internal/logging"
	"github.com/voicebridge-systems/voicebridge/internal/middleware"
	"github.com/voicebridge-systems/voicebridge/internal/payments"
	"github.com/voicebridge-systems/voicebridge/internal/server"
	"github.com/voicebridge-systems/voicebridge/internal/subscriptions"
	"github.com/voicebridge-systems/voicebridge/internal/voice"
	"github.com/voicebridge-systems/voicebridge/internal/webhook"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("relay"))
	logging.SetDefault(logger)

	slog.Info("Starting relay service",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("payments_url", cfg.Payments.URL),
		slog.String("voice_url", cfg.Voice.URL),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	// Subscription bookkeeping store
	var store subscriptions.Store
	if cfg.Redis.Enabled {
		redisStore, err := subscriptions.NewRedisStore(cfg.Redis.URL, cfg.Redis.SeenTTL)
		if err != nil {
			log.Printf("WARNING: Failed to connect to Redis: %v", err)
			log.Println("Falling back to in-memory bookkeeping (single instance only)")
			store = subscriptions.NewMemoryStore(cfg.Redis.SeenTTL)
		} else {
			store = redisStore
			log.Printf("Redis bookkeeping enabled: %s", cfg.Redis.URL)
		}
	} else {
		store = subscriptions.NewMemoryStore(cfg.Redis.SeenTTL)
		log.Println("Redis disabled - using in-memory bookkeeping")
	}
	defer store.Close()

	// Optional event journal
	var eventJournal journal.Publisher = journal.Noop{}
	if cfg.Journal.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		js, err := journal.NewJetStreamJournal(ctx, cfg.Journal.NatsURL)
		cancel()
		if err != nil {
			log.Printf("WARNING: Failed to initialize event journal: %v", err)
			log.Println("Continuing without event journal")
		} else {
			eventJournal = js
			log.Printf("Event journal enabled (nats: %s)", cfg.Journal.NatsURL)
		}
	} else {
		log.Println("Event journal disabled")
	}
	defer eventJournal.Close()

	// Webhook verification and dispatch
	verifier := webhook.NewVerifier(webhook.VerifierConfig{
		Secret:    cfg.Payments.WebhookSecret,
		Tolerance: cfg.Payments.WebhookTolerance,
	})
	dispatcher := webhook.NewPaymentDispatcher(store, logger)

	// Upstream clients
	paymentsClient := payments.New(payments.Config{
		BaseURL:    cfg.Payments.URL,
		APIKey:     cfg.Payments.APIKey,
		Timeout:    cfg.Payments.Timeout,
		SuccessURL: cfg.Payments.SuccessURL,
		CancelURL:  cfg.Payments.CancelURL,
	})
	voiceClient := voice.New(voice.Config{
		BaseURL:     cfg.Voice.URL,
		APIKey:      cfg.Voice.APIKey,
		AgentID:     cfg.Voice.AgentID,
		PhoneNumber: cfg.Voice.PhoneNumber,
		Timeout:     cfg.Voice.Timeout,
	})

	webhookHandler := handlers.NewWebhookHandler(verifier, dispatcher, eventJournal, logger)
	relayHandler := handlers.NewRelayHandler(paymentsClient, voiceClient, logger)

	router := server.NewRouter(webhookHandler, relayHandler, middleware.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("Relay service listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
