package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("unexpected address %s", cfg.Server.Addr())
	}
	if cfg.Database.DSN != "" {
		t.Errorf("expected memory store by default, got DSN %q", cfg.Database.DSN)
	}
	if cfg.AI.Provider != ProviderNone || cfg.AI.Timeout != 30*time.Second {
		t.Errorf("unexpected AI config %+v", cfg.AI)
	}
	if cfg.Auth.TokenTTL != 7*24*time.Hour {
		t.Errorf("unexpected token ttl %s", cfg.Auth.TokenTTL)
	}
	if cfg.Resume.MaxUploadBytes != 5<<20 {
		t.Errorf("unexpected upload limit %d", cfg.Resume.MaxUploadBytes)
	}
	if cfg.Twilio.Enabled() {
		t.Error("twilio should be disabled by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/interviews")
	t.Setenv("DATABASE_MAX_OPEN_CONNS", "25")
	t.Setenv("AI_PROVIDER", " Gemini ")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("AI_GEMINI_API_KEY", "g-key")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("SPEECH_CACHE_TTL", "1h")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok")
	t.Setenv("TWILIO_PHONE_NUMBER", "+16502530000")
	t.Setenv("RESUME_MAX_UPLOAD_BYTES", "1024")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Database.DSN != "postgres://u:p@db:5432/interviews" || cfg.Database.MaxOpenConns != 25 {
		t.Errorf("unexpected database config %+v", cfg.Database)
	}
	if cfg.AI.Provider != ProviderGemini || cfg.AI.Gemini.APIKey != "g-key" || cfg.AI.Timeout != 5*time.Second {
		t.Errorf("unexpected AI config %+v", cfg.AI)
	}
	if cfg.Speech.CacheTTL != time.Hour {
		t.Errorf("cache ttl = %s", cfg.Speech.CacheTTL)
	}
	if !cfg.Twilio.Enabled() {
		t.Error("expected twilio enabled")
	}
	if cfg.Resume.MaxUploadBytes != 1024 {
		t.Errorf("upload limit = %d", cfg.Resume.MaxUploadBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interview-engine.yaml")
	content := `
server:
  port: 7000
ai:
  provider: openai
  openai:
    api_key: file-key
    model: gpt-4o
auth:
  jwt_secret: from-file
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	t.Setenv("SERVER_PORT", "7100")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7100 {
		t.Errorf("expected env to override file, got port %d", cfg.Server.Port)
	}
	if cfg.AI.Provider != ProviderOpenAI || cfg.AI.OpenAI.APIKey != "file-key" || cfg.AI.OpenAI.Model != "gpt-4o" {
		t.Errorf("unexpected AI config %+v", cfg.AI)
	}
	if cfg.Auth.JWTSecret != "from-file" {
		t.Errorf("unexpected secret %q", cfg.Auth.JWTSecret)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			AI:     AIConfig{Provider: ProviderNone, Timeout: time.Second},
			Auth:   AuthConfig{JWTSecret: "secret"},
			Resume: ResumeConfig{MaxUploadBytes: 1},
		}
	}

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"missing secret", func(c *Config) { c.Auth.JWTSecret = "" }, "AUTH_JWT_SECRET"},
		{"unknown provider", func(c *Config) { c.AI.Provider = "claude" }, "unknown AI provider"},
		{"gemini without key", func(c *Config) { c.AI.Provider = ProviderGemini }, "AI_GEMINI_API_KEY"},
		{"openai without key", func(c *Config) { c.AI.Provider = ProviderOpenAI }, "AI_OPENAI_API_KEY"},
		{"zero timeout", func(c *Config) { c.AI.Timeout = 0 }, "timeout"},
		{"zero upload limit", func(c *Config) { c.Resume.MaxUploadBytes = 0 }, "upload limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
