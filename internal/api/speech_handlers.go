package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/terra-clan/interview-engine/internal/speech"
)

type speechRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	if !s.speech.Available() {
		respondError(w, http.StatusServiceUnavailable, "speech_unavailable", "speech synthesis is not configured")
		return
	}

	var req speechRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	audio, err := s.speech.Synthesize(r.Context(), req.Text, req.VoiceID)
	switch {
	case errors.Is(err, speech.ErrEmptyText), errors.Is(err, speech.ErrTextTooLong):
		respondValidation(w, "text", err.Error())
		return
	case errors.Is(err, speech.ErrUnavailable):
		respondError(w, http.StatusServiceUnavailable, "speech_unavailable", "speech synthesis is not configured")
		return
	case err != nil:
		slog.Error("failed to synthesize speech", "error", err)
		respondError(w, http.StatusServiceUnavailable, "speech_unavailable", "speech synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		slog.Debug("failed to write audio", "error", err)
	}
}
