package speech

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestElevenLabsSynthesize(t *testing.T) {
	var gotPath, gotKey, gotAccept string
	var gotBody synthesizeRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		gotAccept = r.Header.Get("Accept")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3-audio"))
	}))
	defer server.Close()

	client := NewElevenLabs("secret-key", WithBaseURL(server.URL+"/"))
	audio, err := client.Synthesize(context.Background(), "Tell me about Go", "")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if string(audio) != "ID3-audio" {
		t.Errorf("unexpected audio %q", audio)
	}
	if gotPath != "/v1/text-to-speech/"+DefaultVoiceID {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotKey != "secret-key" {
		t.Errorf("unexpected api key %q", gotKey)
	}
	if gotAccept != "audio/mpeg" {
		t.Errorf("unexpected accept header %q", gotAccept)
	}
	if gotBody.Text != "Tell me about Go" || gotBody.ModelID != DefaultModelID {
		t.Errorf("unexpected body %+v", gotBody)
	}
	if gotBody.VoiceSettings.Stability != 0.5 || gotBody.VoiceSettings.SimilarityBoost != 0.75 {
		t.Errorf("unexpected voice settings %+v", gotBody.VoiceSettings)
	}
}

func TestElevenLabsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewElevenLabs("key", WithBaseURL(server.URL))
	_, err := client.Synthesize(context.Background(), "hello", "voice")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status error, got %v", err)
	}
}

type countingSynth struct {
	calls atomic.Int32
	err   error
}

func (s *countingSynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return []byte(voiceID + ":" + text), nil
}

func TestServiceCachesAudio(t *testing.T) {
	synth := &countingSynth{}
	svc := NewService(synth, NewMemoryCache(), "", time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		audio, err := svc.Synthesize(ctx, "  What is a goroutine? ", "")
		if err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}
		if string(audio) != DefaultVoiceID+":What is a goroutine?" {
			t.Errorf("unexpected audio %q", audio)
		}
	}
	if n := synth.calls.Load(); n != 1 {
		t.Errorf("expected one backend call, got %d", n)
	}

	if _, err := svc.Synthesize(ctx, "What is a goroutine?", "other-voice"); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if n := synth.calls.Load(); n != 2 {
		t.Errorf("expected a second call for another voice, got %d", n)
	}
}

func TestServiceErrors(t *testing.T) {
	ctx := context.Background()

	unavailable := NewService(nil, nil, "", 0)
	if unavailable.Available() {
		t.Error("service without backend reports available")
	}
	if _, err := unavailable.Synthesize(ctx, "hello", ""); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}

	synth := &countingSynth{err: errors.New("boom")}
	svc := NewService(synth, nil, "", 0)
	if _, err := svc.Synthesize(ctx, "   ", ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
	if _, err := svc.Synthesize(ctx, strings.Repeat("a", MaxTextLength+1), ""); !errors.Is(err, ErrTextTooLong) {
		t.Errorf("expected ErrTextTooLong, got %v", err)
	}
	if _, err := svc.Synthesize(ctx, "hello", ""); err == nil {
		t.Error("expected backend error")
	}

	// Failures are not cached
	synth.err = nil
	if _, err := svc.Synthesize(ctx, "hello", ""); err != nil {
		t.Errorf("expected success after backend recovered, got %v", err)
	}
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache()
	current := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }
	ctx := context.Background()

	cache.Set(ctx, "short", []byte("a"), time.Minute)
	cache.Set(ctx, "forever", []byte("b"), 0)

	if audio, ok, _ := cache.Get(ctx, "short"); !ok || string(audio) != "a" {
		t.Errorf("expected cached entry, got %q %v", audio, ok)
	}

	current = current.Add(time.Minute)
	if _, ok, _ := cache.Get(ctx, "short"); ok {
		t.Error("expected entry to expire")
	}
	if _, ok, _ := cache.Get(ctx, "forever"); !ok {
		t.Error("entry without ttl should not expire")
	}
	if _, ok, _ := cache.Get(ctx, "missing"); ok {
		t.Error("unexpected hit for missing key")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("INTERVIEW_TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("INTERVIEW_TEST_REDIS_ADDRESS not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx := context.Background()

	cache := NewRedisCache(client)
	key := cacheKey("voice", "redis test "+time.Now().String())

	if _, ok, err := cache.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got %v %v", ok, err)
	}
	if err := cache.Set(ctx, key, []byte("audio"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	audio, ok, err := cache.Get(ctx, key)
	if err != nil || !ok || string(audio) != "audio" {
		t.Errorf("expected hit, got %q %v %v", audio, ok, err)
	}
	client.Del(ctx, "tts:"+key)
}
