// Package speech turns interview questions into spoken audio.
package speech

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// MaxTextLength bounds a single synthesis request
const MaxTextLength = 5000

var (
	// ErrUnavailable is returned when no speech backend is configured
	ErrUnavailable = errors.New("speech synthesis unavailable")
	ErrEmptyText   = errors.New("text is required")
	ErrTextTooLong = fmt.Errorf("text exceeds %d characters", MaxTextLength)
)

// Synthesizer converts text to audio
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Service puts a cache in front of a synthesizer
type Service struct {
	synth   Synthesizer
	cache   Cache
	voiceID string
	ttl     time.Duration
}

// NewService creates a speech service. A nil synth makes every call
// return ErrUnavailable.
func NewService(synth Synthesizer, cache Cache, voiceID string, ttl time.Duration) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}
	return &Service{synth: synth, cache: cache, voiceID: voiceID, ttl: ttl}
}

// Available reports whether a backend is configured
func (s *Service) Available() bool {
	return s.synth != nil
}

// Synthesize returns MP3 audio for text, using the default voice when
// voiceID is empty
func (s *Service) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	if s.synth == nil {
		return nil, ErrUnavailable
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}
	if len([]rune(text)) > MaxTextLength {
		return nil, ErrTextTooLong
	}
	if voiceID == "" {
		voiceID = s.voiceID
	}

	key := cacheKey(voiceID, text)
	audio, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("speech cache read failed", "error", err)
	} else if ok {
		slog.Debug("speech cache hit", "voice_id", voiceID, "bytes", len(audio))
		return audio, nil
	}

	audio, err = s.synth.Synthesize(ctx, text, voiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	if err := s.cache.Set(ctx, key, audio, s.ttl); err != nil {
		slog.Warn("speech cache write failed", "error", err)
	}

	return audio, nil
}

func cacheKey(voiceID, text string) string {
	sum := sha256.Sum256([]byte(voiceID + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
