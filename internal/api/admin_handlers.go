package api

import (
	"net/http"
)

// --- Admin handlers (JWT with admin role) ---

func (s *Server) handleAdminInterviews(w http.ResponseWriter, r *http.Request) {
	records, err := s.manager.ListInterviews(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "list interviews")
		return
	}

	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.manager.ComputeStats(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "compute stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.manager.ListUsers(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "list users")
		return
	}

	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleAdminCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.manager.ListCandidates(r.Context())
	if err != nil {
		respondServiceError(w, r, err, "list candidates")
		return
	}

	respondJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleAdminDeleteInterview(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.manager.DeleteInterview(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "delete interview")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "interview deleted",
	})
}

func (s *Server) handleAdminDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.manager.DeleteCandidate(r.Context(), id); err != nil {
		respondServiceError(w, r, err, "delete candidate")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "candidate deleted",
	})
}
