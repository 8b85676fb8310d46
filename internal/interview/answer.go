package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/terra-clan/interview-engine/internal/ai"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/storage"
)

// SubmitAnswer scores one answer and advances the interview. Answering the
// last question completes the interview and creates its evaluation.
func (m *InterviewManager) SubmitAnswer(ctx context.Context, interviewID int64, questionIndex int, answerText string) (*models.SubmitAnswerResponse, error) {
	iv, err := m.repo.GetInterview(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("failed to get interview: %w", err)
	}
	if iv == nil {
		return nil, ErrNotFound
	}

	if !iv.HasQuestion(questionIndex) {
		return nil, invalid("questionIndex", fmt.Sprintf("must be between 0 and %d", len(iv.Questions)-1))
	}
	answerText = strings.TrimSpace(answerText)
	if answerText == "" {
		return nil, invalid("answerText", "is required")
	}
	if iv.Status.IsTerminal() {
		return nil, invalid("interviewId", fmt.Sprintf("interview is %s", iv.Status))
	}

	candidate, err := m.repo.GetCandidate(ctx, iv.CandidateID)
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}
	var name, jobRole string
	if candidate != nil {
		name, jobRole = candidate.Name, candidate.JobRole
	}

	question := iv.Questions[questionIndex]
	eval, err := m.interviewer.EvaluateAnswer(ctx, question, answerText, jobRole)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate answer: %w", err)
	}

	answer := &models.Answer{
		InterviewID:   iv.ID,
		QuestionIndex: questionIndex,
		QuestionText:  question,
		AnswerText:    answerText,
		Score:         eval.Score,
		Feedback:      eval.Feedback,
	}
	if err := m.repo.CreateAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("failed to save answer: %w", err)
	}

	slog.Info("answer recorded",
		"interview_id", iv.ID,
		"question_index", questionIndex,
		"score", eval.Score,
	)

	if !iv.IsLastQuestion(questionIndex) {
		next := questionIndex + 1
		if err := m.repo.UpdateInterviewProgress(ctx, iv.ID, next); err != nil {
			return nil, fmt.Errorf("failed to advance interview: %w", err)
		}
		return &models.SubmitAnswerResponse{
			Score:         eval.Score,
			Feedback:      eval.Feedback,
			Completed:     false,
			NextQuestion:  iv.Questions[next],
			QuestionIndex: next,
		}, nil
	}

	summary, err := m.finish(ctx, iv, name, jobRole)
	if err != nil {
		return nil, err
	}

	return &models.SubmitAnswerResponse{
		Score:     eval.Score,
		Feedback:  eval.Feedback,
		Completed: true,
		Summary:   summary,
	}, nil
}

// finish summarizes all answers, stores the single evaluation and then
// completes the interview
func (m *InterviewManager) finish(ctx context.Context, iv *models.Interview, name, jobRole string) (*models.Summary, error) {
	answers, err := m.repo.ListAnswersByInterview(ctx, iv.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}

	scores := ScoreAnswers(answers)

	transcript := make([]ai.TranscriptEntry, len(answers))
	for i, a := range answers {
		transcript[i] = ai.TranscriptEntry{
			Question: a.QuestionText,
			Answer:   a.AnswerText,
			Score:    a.Score,
			Feedback: a.Feedback,
		}
	}

	summary, err := m.interviewer.GenerateSummary(ctx, name, jobRole, transcript)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize interview: %w", err)
	}
	summary.Recommendation = models.RecommendationFor(scores.Mean)

	evaluation := &models.Evaluation{
		InterviewID:      iv.ID,
		OverallScore:     scores.Overall,
		TechnicalScore:   scores.Technical,
		BehavioralScore:  scores.Behavioral,
		Strengths:        summary.Strengths,
		ImprovementAreas: summary.ImprovementAreas,
		Recommendation:   summary.Recommendation,
	}
	// The evaluation must exist before the interview is completed.
	if err := m.repo.CreateEvaluation(ctx, evaluation); err != nil {
		if !errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("failed to save evaluation: %w", err)
		}
		current, getErr := m.repo.GetInterview(ctx, iv.ID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to get interview: %w", getErr)
		}
		if current == nil {
			return nil, ErrNotFound
		}
		if current.Status.IsTerminal() {
			return nil, invalid("interviewId", fmt.Sprintf("interview is %s", current.Status))
		}
		// An earlier finish stored the evaluation but never completed the
		// interview.
		slog.Warn("evaluation already stored, completing interview",
			"interview_id", iv.ID,
		)
	}

	if err := m.repo.CompleteInterview(ctx, iv.ID, m.now()); err != nil {
		return nil, fmt.Errorf("failed to complete interview: %w", err)
	}

	slog.Info("interview completed",
		"interview_id", iv.ID,
		"candidate_id", iv.CandidateID,
		"overall_score", scores.Overall,
		"recommendation", summary.Recommendation,
	)

	return summary, nil
}
