package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/storage"
)

// TerminateInterview marks the interview terminated whatever its state.
// Unknown ids are ignored, so the call is idempotent.
func (m *InterviewManager) TerminateInterview(ctx context.Context, interviewID int64) error {
	err := m.repo.SetInterviewStatus(ctx, interviewID, models.InterviewTerminated)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Debug("terminate requested for unknown interview", "interview_id", interviewID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to terminate interview: %w", err)
	}

	slog.Info("interview terminated", "interview_id", interviewID)
	return nil
}

// GetInterview returns the interview with its candidate, answers and
// evaluation
func (m *InterviewManager) GetInterview(ctx context.Context, interviewID int64) (*models.InterviewDetail, error) {
	iv, err := m.repo.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	if iv == nil {
		return nil, ErrNotFound
	}

	candidate, err := m.repo.GetCandidate(ctx, iv.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	answers, evaluation, err := m.outcome(ctx, iv.ID)
	if err != nil {
		return nil, err
	}

	return &models.InterviewDetail{
		Interview:  iv,
		Candidate:  candidate,
		Answers:    answers,
		Evaluation: evaluation,
	}, nil
}

// GetCandidateResults returns every interview of the candidate with its
// outcome. Unknown candidates yield an empty list.
func (m *InterviewManager) GetCandidateResults(ctx context.Context, candidateID int64) ([]*models.CandidateResult, error) {
	interviews, err := m.repo.ListInterviewsByCandidate(ctx, candidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}

	results := make([]*models.CandidateResult, 0, len(interviews))
	for _, iv := range interviews {
		answers, evaluation, err := m.outcome(ctx, iv.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, &models.CandidateResult{
			Interview:  iv,
			Answers:    answers,
			Evaluation: evaluation,
		})
	}

	return results, nil
}

// GetCandidateByEmail returns the most recently created candidate with
// the email
func (m *InterviewManager) GetCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	candidates, err := m.repo.ListCandidatesByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNotFound
	}
	return candidates[0], nil
}

func (m *InterviewManager) outcome(ctx context.Context, interviewID int64) ([]*models.Answer, *models.Evaluation, error) {
	answers, err := m.repo.ListAnswersByInterview(ctx, interviewID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list answers: %w", err)
	}
	evaluation, err := m.repo.GetEvaluationByInterview(ctx, interviewID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	return answers, evaluation, nil
}
