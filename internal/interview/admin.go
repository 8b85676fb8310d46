package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/storage"
)

// ListInterviews returns all interviews with candidate and evaluation,
// newest first
func (m *InterviewManager) ListInterviews(ctx context.Context) ([]*models.InterviewRecord, error) {
	records, err := m.repo.ListInterviewRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}
	return records, nil
}

// ComputeStats aggregates recommendations and the average overall score
func (m *InterviewManager) ComputeStats(ctx context.Context) (*models.Stats, error) {
	evaluations, err := m.repo.ListEvaluations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return aggregateStats(evaluations), nil
}

// ListCandidates returns all candidates
func (m *InterviewManager) ListCandidates(ctx context.Context) ([]*models.Candidate, error) {
	candidates, err := m.repo.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	return candidates, nil
}

// ListUsers returns all registered users
func (m *InterviewManager) ListUsers(ctx context.Context) ([]*models.User, error) {
	users, err := m.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// DeleteInterview removes an interview with its answers and evaluation
func (m *InterviewManager) DeleteInterview(ctx context.Context, interviewID int64) error {
	if err := m.repo.DeleteInterview(ctx, interviewID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete interview: %w", err)
	}

	slog.Info("interview deleted", "interview_id", interviewID)
	return nil
}

// DeleteCandidate removes a candidate and all of their interviews
func (m *InterviewManager) DeleteCandidate(ctx context.Context, candidateID int64) error {
	if err := m.repo.DeleteCandidate(ctx, candidateID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete candidate: %w", err)
	}

	slog.Info("candidate deleted", "candidate_id", candidateID)
	return nil
}
