package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AI providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config holds all configuration for interview-engine
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	AI           AIConfig           `mapstructure:"ai"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Speech       SpeechConfig       `mapstructure:"speech"`
	Twilio       TwilioConfig       `mapstructure:"twilio"`
	Video        VideoConfig        `mapstructure:"video"`
	Resume       ResumeConfig       `mapstructure:"resume"`
	QuestionBank QuestionBankConfig `mapstructure:"questionbank"`
	Log          LogConfig          `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL configuration. An empty DSN selects the
// in-memory store.
type DatabaseConfig struct {
	DSN           string `mapstructure:"dsn"`
	MaxOpenConns  int    `mapstructure:"max_open_conns"`
	MaxIdleConns  int    `mapstructure:"max_idle_conns"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// RedisConfig holds Redis configuration. An empty address selects the
// in-memory speech cache.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AIConfig selects and configures the language model backend
type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Gemini   ModelConfig   `mapstructure:"gemini"`
	OpenAI   ModelConfig   `mapstructure:"openai"`
}

// ModelConfig holds the credentials of one model provider
type ModelConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// AuthConfig holds token settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// SpeechConfig holds text-to-speech settings
type SpeechConfig struct {
	ElevenLabsAPIKey string        `mapstructure:"elevenlabs_api_key"`
	VoiceID          string        `mapstructure:"voice_id"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

// TwilioConfig holds telephony settings
type TwilioConfig struct {
	AccountSID    string `mapstructure:"account_sid"`
	AuthToken     string `mapstructure:"auth_token"`
	PhoneNumber   string `mapstructure:"phone_number"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

// Enabled reports whether calls can be placed
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.PhoneNumber != ""
}

// VideoConfig holds the video call settings
type VideoConfig struct {
	AgoraAppID string `mapstructure:"agora_app_id"`
}

// ResumeConfig holds upload settings
type ResumeConfig struct {
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	PDFLicenseKey  string `mapstructure:"pdf_license_key"`
}

// QuestionBankConfig points at an optional directory of role banks
type QuestionBankConfig struct {
	Dir string `mapstructure:"dir"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"server.host": "0.0.0.0",
	"server.port": 8080,

	"database.dsn":            "",
	"database.max_open_conns": 10,
	"database.max_idle_conns": 2,
	"database.migrations_dir": "",

	"redis.address":  "",
	"redis.password": "",
	"redis.db":       0,

	"ai.provider":        ProviderNone,
	"ai.timeout":         30 * time.Second,
	"ai.gemini.api_key":  "",
	"ai.gemini.model":    "gemini-2.5-flash",
	"ai.gemini.base_url": "",
	"ai.openai.api_key":  "",
	"ai.openai.model":    "gpt-4o-mini",
	"ai.openai.base_url": "",

	"auth.jwt_secret": "",
	"auth.token_ttl":  7 * 24 * time.Hour,

	"speech.elevenlabs_api_key": "",
	"speech.voice_id":           "EXAVITQu4vr4xnSDxMaL",
	"speech.cache_ttl":          24 * time.Hour,

	"twilio.account_sid":     "",
	"twilio.auth_token":      "",
	"twilio.phone_number":    "",
	"twilio.public_base_url": "",

	"video.agora_app_id": "",

	"resume.max_upload_bytes": 5 << 20,
	"resume.pdf_license_key":  "",

	"questionbank.dir": "",

	"log.level":  "info",
	"log.format": "json",
}

// Load reads configuration from the environment, a .env file in the
// working directory and the optional YAML file at path. Environment
// variables win over the file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))

	return cfg, nil
}

// Validate checks the settings needed to serve requests
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("AUTH_JWT_SECRET is required")
	}

	switch c.AI.Provider {
	case ProviderNone:
	case ProviderGemini:
		if c.AI.Gemini.APIKey == "" {
			return fmt.Errorf("AI_GEMINI_API_KEY is required for provider %s", ProviderGemini)
		}
	case ProviderOpenAI:
		if c.AI.OpenAI.APIKey == "" {
			return fmt.Errorf("AI_OPENAI_API_KEY is required for provider %s", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("unknown AI provider: %q", c.AI.Provider)
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("invalid AI timeout: %s", c.AI.Timeout)
	}

	if c.Resume.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid resume upload limit: %d", c.Resume.MaxUploadBytes)
	}

	return nil
}
