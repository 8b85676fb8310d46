package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/telephony"
)

// unansweredText stands in for an empty transcription
const unansweredText = "(no answer recorded)"

type startCallRequest struct {
	Phone string `json:"phone"`
}

func (s *Server) handleStartCall(w http.ResponseWriter, r *http.Request) {
	if s.dialer == nil {
		respondError(w, http.StatusServiceUnavailable, "telephony_unavailable", "phone interviews are not configured")
		return
	}

	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	var req startCallRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	detail, err := s.manager.GetInterview(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get interview")
		return
	}
	if detail.Interview.Status.IsTerminal() {
		respondValidation(w, "id", "interview is "+string(detail.Interview.Status))
		return
	}

	phone := strings.TrimSpace(req.Phone)
	if phone == "" && detail.Candidate != nil {
		phone = detail.Candidate.Phone
	}

	sid, err := s.dialer.Call(r.Context(), id, phone)
	if errors.Is(err, telephony.ErrInvalidPhone) {
		respondValidation(w, "phone", "phone number is not valid")
		return
	}
	if err != nil {
		slog.Error("failed to place interview call", "interview_id", id, "error", err)
		respondError(w, http.StatusBadGateway, "telephony_error", "failed to place call")
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]any{
		"interviewId": id,
		"callSid":     sid,
	})
}

// verifyWebhook rejects telephony callbacks without a valid signature.
// Without a validator configured every request is accepted.
func (s *Server) verifyWebhook(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.webhooks != nil && !s.webhooks.ValidRequest(r) {
			slog.Warn("rejected unsigned telephony webhook", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			respondError(w, http.StatusForbidden, "forbidden", "invalid webhook signature")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// webhookTarget reads the interview and question addressed by a webhook
// URL. A missing questionIndex yields -1.
func webhookTarget(r *http.Request) (int64, int, bool) {
	q := r.URL.Query()
	id, err := strconv.ParseInt(q.Get("interviewId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, 0, false
	}
	raw := q.Get("questionIndex")
	if raw == "" {
		return id, -1, true
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, 0, false
	}
	return id, index, true
}

func respondTwiML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Debug("failed to write twiml", "error", err)
	}
}

func (s *Server) handleVoiceWebhook(w http.ResponseWriter, r *http.Request) {
	id, index, ok := webhookTarget(r)
	if !ok || index < 0 {
		respondValidation(w, "questionIndex", "interviewId and questionIndex are required")
		return
	}

	question, ok := s.pendingQuestion(r, id, index)
	if !ok || s.dialer == nil {
		s.respondClosing(w)
		return
	}

	body, err := telephony.QuestionTwiML(question, index, s.dialer.VoiceURL(id, index+1), s.dialer.TranscribeURL(id, index))
	if err != nil {
		slog.Error("failed to render question twiml", "interview_id", id, "error", err)
		s.respondClosing(w)
		return
	}
	respondTwiML(w, body)
}

// pendingQuestion returns question index of an interview still in progress
func (s *Server) pendingQuestion(r *http.Request, id int64, index int) (string, bool) {
	detail, err := s.manager.GetInterview(r.Context(), id)
	if err != nil {
		slog.Warn("voice webhook for unavailable interview", "interview_id", id, "error", err)
		return "", false
	}
	iv := detail.Interview
	if iv.Status != models.InterviewInProgress || !iv.HasQuestion(index) {
		return "", false
	}
	return iv.Questions[index], true
}

func (s *Server) respondClosing(w http.ResponseWriter) {
	body, err := telephony.ClosingTwiML()
	if err != nil {
		slog.Error("failed to render closing twiml", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	respondTwiML(w, body)
}

func (s *Server) handleTranscribeWebhook(w http.ResponseWriter, r *http.Request) {
	id, index, ok := webhookTarget(r)
	if !ok || index < 0 {
		respondValidation(w, "questionIndex", "interviewId and questionIndex are required")
		return
	}

	text := strings.TrimSpace(r.FormValue("TranscriptionText"))
	if text == "" {
		text = unansweredText
	}

	if _, err := s.manager.SubmitAnswer(r.Context(), id, index, text); err != nil {
		slog.Warn("failed to record phone answer",
			"interview_id", id,
			"question_index", index,
			"error", err,
		)
	}

	// Twilio does not retry on errors, so the callback is always acknowledged
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatusWebhook(w http.ResponseWriter, r *http.Request) {
	id, _, ok := webhookTarget(r)
	if !ok {
		respondValidation(w, "interviewId", "interviewId is required")
		return
	}

	status := r.FormValue("CallStatus")
	if !telephony.AbandonedStatus(status) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	detail, err := s.manager.GetInterview(r.Context(), id)
	if err != nil {
		slog.Warn("status webhook for unavailable interview", "interview_id", id, "error", err)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if detail.Interview.Status == models.InterviewInProgress {
		slog.Info("phone interview abandoned", "interview_id", id, "call_status", status)
		if err := s.manager.TerminateInterview(r.Context(), id); err != nil {
			slog.Error("failed to terminate abandoned interview", "interview_id", id, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
