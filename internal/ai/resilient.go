package ai

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// DefaultTimeout bounds a single remote model call
const DefaultTimeout = 30 * time.Second

// Resilient tries the primary interviewer and substitutes the fallback on
// any error, timeout or off-contract result. Callers never see a remote
// failure.
type Resilient struct {
	primary  Interviewer
	fallback Interviewer
	timeout  time.Duration
}

// NewResilient wraps primary with fallback. A nil primary always uses the
// fallback.
func NewResilient(primary, fallback Interviewer, timeout time.Duration) *Resilient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resilient{primary: primary, fallback: fallback, timeout: timeout}
}

// GenerateQuestions returns exactly QuestionCount questions
func (r *Resilient) GenerateQuestions(ctx context.Context, name, jobRole, resumeText string) ([]string, error) {
	if r.primary != nil {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		questions, err := r.primary.GenerateQuestions(callCtx, name, jobRole, resumeText)
		cancel()
		if err == nil {
			err = ValidateQuestions(questions)
		}
		if err == nil {
			return questions, nil
		}
		slog.Warn("question generation failed, using fallback", "job_role", jobRole, "error", err)
	}
	return r.fallback.GenerateQuestions(ctx, name, jobRole, resumeText)
}

// EvaluateAnswer returns a 0-10 score with feedback
func (r *Resilient) EvaluateAnswer(ctx context.Context, question, answer, jobRole string) (*AnswerEvaluation, error) {
	if r.primary != nil {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		eval, err := r.primary.EvaluateAnswer(callCtx, question, answer, jobRole)
		cancel()
		if err == nil {
			err = ValidateEvaluation(eval)
		}
		if err == nil {
			return eval, nil
		}
		slog.Warn("answer evaluation failed, using fallback", "job_role", jobRole, "error", err)
	}
	return r.fallback.EvaluateAnswer(ctx, question, answer, jobRole)
}

// GenerateSummary returns the final assessment
func (r *Resilient) GenerateSummary(ctx context.Context, name, jobRole string, transcript []TranscriptEntry) (*models.Summary, error) {
	if r.primary != nil {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		summary, err := r.primary.GenerateSummary(callCtx, name, jobRole, transcript)
		cancel()
		if err == nil {
			err = ValidateSummary(summary)
		}
		if err == nil {
			return summary, nil
		}
		slog.Warn("summary generation failed, using fallback", "job_role", jobRole, "answers", len(transcript), "error", err)
	}
	return r.fallback.GenerateSummary(ctx, name, jobRole, transcript)
}
