package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/terra-clan/interview-engine/internal/interview"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/resume"
)

// maxJSONBody bounds JSON request bodies
const maxJSONBody = 1 << 20

// Response helpers

type apiResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondFieldError(w, status, code, message, "")
}

func respondFieldError(w http.ResponseWriter, status int, code, message, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
			Field:   field,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

func respondValidation(w http.ResponseWriter, field, message string) {
	respondFieldError(w, http.StatusBadRequest, "validation_error", message, field)
}

// respondServiceError maps interview errors to responses. Unexpected
// errors are logged and reported without detail.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var verr *interview.ValidationError
	var ferr *interview.ForbiddenError

	switch {
	case errors.As(err, &verr):
		respondValidation(w, verr.Field, verr.Error())
	case errors.Is(err, interview.ErrNotFound):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.As(err, &ferr):
		respondError(w, http.StatusForbidden, "forbidden", ferr.Reason)
	case errors.Is(err, interview.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", "forbidden")
	default:
		slog.Error("failed to "+action, "error", err, "request_id", middleware.GetReqID(r.Context()))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// idParam parses a positive integer path parameter
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respondValidation(w, name, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed", "dependency", "storage", "error", err)
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	checks := map[string]string{"storage": "ok"}
	ready := true
	for name, err := range s.registry.HealthCheckAll(r.Context()) {
		if err != nil {
			slog.Warn("readiness check failed", "dependency", name, "error", err)
			checks[name] = "unavailable"
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	if !ready {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"checks": checks,
	})
}

// Interview handlers

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	// Form fields travel alongside the file
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+maxJSONBody)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondValidation(w, "resume", fmt.Sprintf("file exceeds %d bytes", s.maxUpload))
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected multipart form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("resume")
	if err != nil {
		respondValidation(w, "resume", "resume file is required")
		return
	}
	defer file.Close()

	if header.Size > s.maxUpload {
		respondValidation(w, "resume", fmt.Sprintf("file exceeds %d bytes", s.maxUpload))
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename)
	if !resume.IsAllowed(contentType) {
		respondValidation(w, "resume", "unsupported file type, use PDF, DOC, DOCX or TXT")
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "failed to read resume")
		return
	}
	if int64(len(data)) > s.maxUpload {
		respondValidation(w, "resume", fmt.Sprintf("file exceeds %d bytes", s.maxUpload))
		return
	}

	resp, err := s.manager.StartInterview(r.Context(), interview.StartRequest{
		Name:       r.FormValue("name"),
		Email:      r.FormValue("email"),
		Phone:      r.FormValue("phone"),
		JobRole:    r.FormValue("jobRole"),
		Resume:     data,
		ResumeMIME: contentType,
	})
	if err != nil {
		respondServiceError(w, r, err, "start interview")
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// uploadContentType trusts the declared type unless it is missing or
// generic, then falls back to the file extension
func uploadContentType(declared, filename string) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
		return mt
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return resume.MIMEPDF
	case ".txt":
		return resume.MIMEText
	case ".doc":
		return resume.MIMEDoc
	case ".docx":
		return resume.MIMEDocx
	}
	return declared
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.manager.SubmitAnswer(r.Context(), req.InterviewID, req.QuestionIndex, req.AnswerText)
	if err != nil {
		respondServiceError(w, r, err, "submit answer")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := s.manager.GetInterview(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get interview")
		return
	}

	respondJSON(w, http.StatusOK, detail)
}

func (s *Server) handleTerminateInterview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.manager.TerminateInterview(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "terminate interview")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{
		"terminated": true,
	})
}

func (s *Server) handleVideoRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if s.video.AgoraAppID == "" {
		respondError(w, http.StatusServiceUnavailable, "video_unavailable", "video calls are not configured")
		return
	}

	if _, err := s.manager.GetInterview(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "get interview")
		return
	}

	respondJSON(w, http.StatusOK, models.VideoRoom{
		AppID:   s.video.AgoraAppID,
		Channel: fmt.Sprintf("interview-%d-%s", id, uuid.NewString()),
	})
}

// Candidate handlers

func (s *Server) handleCandidateResults(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	results, err := s.manager.GetCandidateResults(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get candidate results")
		return
	}

	respondJSON(w, http.StatusOK, results)
}

func (s *Server) handleCandidateByEmail(w http.ResponseWriter, r *http.Request) {
	email, err := url.PathUnescape(chi.URLParam(r, "email"))
	if err != nil || strings.TrimSpace(email) == "" {
		respondValidation(w, "email", "email is required")
		return
	}

	candidate, err := s.manager.GetCandidateByEmail(r.Context(), email)
	if err != nil {
		respondServiceError(w, r, err, "get candidate")
		return
	}

	respondJSON(w, http.StatusOK, candidate)
}
