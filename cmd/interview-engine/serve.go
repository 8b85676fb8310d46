package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/interview-engine/internal/api"
	"github.com/terra-clan/interview-engine/internal/auth"
	"github.com/terra-clan/interview-engine/internal/config"
	"github.com/terra-clan/interview-engine/internal/interview"
	"github.com/terra-clan/interview-engine/internal/resume"
	"github.com/terra-clan/interview-engine/internal/services"
	"github.com/terra-clan/interview-engine/internal/speech"
	"github.com/terra-clan/interview-engine/internal/telephony"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		return serve(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	slog.Info("starting interview-engine",
		"version", version,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"provider", cfg.AI.Provider,
	)

	initCtx, initCancel := context.WithTimeout(parent, 30*time.Second)
	defer initCancel()

	repo, err := openRepository(initCtx, cfg.Database)
	if err != nil {
		return err
	}
	defer repo.Close()

	registry := services.NewRegistry()
	defer func() {
		if err := registry.Close(); err != nil {
			slog.Error("failed to close service providers", "error", err)
		}
	}()

	if cfg.Database.DSN != "" {
		postgresProvider, err := services.NewPostgresProvider(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to create postgres provider: %w", err)
		}
		registry.Register("postgres", postgresProvider)
	}

	var audioCache speech.Cache
	if cfg.Redis.Address != "" {
		redisProvider, err := services.NewRedisProvider(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to create redis provider: %w", err)
		}
		registry.Register("redis", redisProvider)
		audioCache = speech.NewRedisCache(redisProvider.Client())
	}

	interviewer, err := newInterviewer(initCtx, cfg.AI, loadQuestionBank(cfg.QuestionBank))
	if err != nil {
		return err
	}

	extractor, err := resume.NewExtractor(cfg.Resume.PDFLicenseKey)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(repo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	var synth speech.Synthesizer
	if cfg.Speech.ElevenLabsAPIKey != "" {
		synth = speech.NewElevenLabs(cfg.Speech.ElevenLabsAPIKey)
	} else {
		slog.Info("speech synthesis disabled")
	}

	deps := api.Dependencies{
		Manager:        interview.NewManager(repo, interviewer, extractor),
		Auth:           authService,
		Speech:         speech.NewService(synth, audioCache, cfg.Speech.VoiceID, cfg.Speech.CacheTTL),
		Registry:       registry,
		Video:          cfg.Video,
		MaxUploadBytes: cfg.Resume.MaxUploadBytes,
	}

	if cfg.Twilio.Enabled() {
		dialer, err := telephony.NewDialer(telephony.Config{
			AccountSID:    cfg.Twilio.AccountSID,
			AuthToken:     cfg.Twilio.AuthToken,
			From:          cfg.Twilio.PhoneNumber,
			PublicBaseURL: cfg.Twilio.PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to create telephony dialer: %w", err)
		}
		deps.Dialer = dialer
		deps.Webhooks = telephony.NewWebhookValidator(cfg.Twilio.AuthToken, cfg.Twilio.PublicBaseURL)
	} else {
		slog.Info("phone interviews disabled")
	}

	server := api.NewServer(cfg.Server, deps)
	// Handlers are bounded by the router timeout and live channels stay
	// open, so only header reads are limited here
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("interview-engine stopped")
	return nil
}
