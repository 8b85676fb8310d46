package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/terra-clan/interview-engine/internal/ai"
	"github.com/terra-clan/interview-engine/internal/ai/gemini"
	"github.com/terra-clan/interview-engine/internal/ai/openai"
	"github.com/terra-clan/interview-engine/internal/config"
	"github.com/terra-clan/interview-engine/internal/questionbank"
	"github.com/terra-clan/interview-engine/internal/storage"
)

// openRepository connects to PostgreSQL, applying pending migrations
// first, or falls back to the in-memory store when no DSN is configured
func openRepository(ctx context.Context, cfg config.DatabaseConfig) (storage.Repository, error) {
	if cfg.DSN == "" {
		slog.Warn("no database configured, using in-memory storage")
		return storage.NewMemoryRepository(), nil
	}

	slog.Info("running database migrations", "dir", cfg.MigrationsDir)
	if err := storage.MigrateFromDSN(ctx, cfg.DSN, cfg.MigrationsDir); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repo, err := storage.NewPostgresRepository(ctx, storage.PostgresConfig{
		DSN:          cfg.DSN,
		MaxOpenConns: int32(cfg.MaxOpenConns),
		MaxIdleConns: int32(cfg.MaxIdleConns),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create database repository: %w", err)
	}
	slog.Info("database connected successfully")

	return repo, nil
}

// loadQuestionBank returns the built-in bank merged with the configured
// directory, if any
func loadQuestionBank(cfg config.QuestionBankConfig) *questionbank.Loader {
	bank := questionbank.NewLoader()
	if cfg.Dir != "" {
		if err := bank.LoadFromDir(cfg.Dir); err != nil {
			slog.Warn("failed to load question bank from dir", "dir", cfg.Dir, "error", err)
		}
	}
	return bank
}

// newInterviewer wraps the configured language model with the
// deterministic fallback
func newInterviewer(ctx context.Context, cfg config.AIConfig, bank *questionbank.Loader) (ai.Interviewer, error) {
	var primary ai.Interviewer

	switch cfg.Provider {
	case config.ProviderGemini:
		gen, err := gemini.NewGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		primary = ai.NewLLM(gen)
		slog.Info("language model configured", "provider", cfg.Provider, "model", gen.Model())
	case config.ProviderOpenAI:
		gen, err := openai.NewGenerator(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		primary = ai.NewLLM(gen)
		slog.Info("language model configured", "provider", cfg.Provider, "model", gen.Model())
	default:
		slog.Warn("no language model configured, using deterministic interviewer")
	}

	return ai.NewResilient(primary, ai.NewDeterministic(bank), cfg.Timeout), nil
}
