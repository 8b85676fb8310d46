package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/terra-clan/interview-engine/internal/auth"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if s.auth == nil {
		respondError(w, http.StatusServiceUnavailable, "auth_unavailable", "authentication is not configured")
		return
	}

	user, err := s.auth.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			respondValidation(w, "email", err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			respondValidation(w, "password", err.Error())
		case errors.Is(err, auth.ErrEmailTaken):
			respondError(w, http.StatusConflict, "email_taken", err.Error())
		default:
			slog.Error("failed to sign up", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if s.auth == nil {
		respondError(w, http.StatusServiceUnavailable, "auth_unavailable", "authentication is not configured")
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		slog.Error("failed to log in", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, session)
}
