// Package ai defines the interview collaborators that generate questions,
// score answers and summarize finished interviews, with a language-model
// backed implementation and a deterministic local fallback.
package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/terra-clan/interview-engine/internal/models"
)

// QuestionCount is the number of questions every interview receives
const QuestionCount = 10

// ErrMalformedResponse reports output that does not match the expected schema
var ErrMalformedResponse = errors.New("malformed model response")

// TranscriptEntry is one answered question of a finished interview
type TranscriptEntry struct {
	Question string
	Answer   string
	Score    int
	Feedback string
}

// AnswerEvaluation is the score and feedback for a single answer
type AnswerEvaluation struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// QuestionGenerator produces the question set for a candidate
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, name, jobRole, resumeText string) ([]string, error)
}

// AnswerEvaluator scores one answer on a 0-10 scale
type AnswerEvaluator interface {
	EvaluateAnswer(ctx context.Context, question, answer, jobRole string) (*AnswerEvaluation, error)
}

// SummaryGenerator produces the final assessment of an interview
type SummaryGenerator interface {
	GenerateSummary(ctx context.Context, name, jobRole string, transcript []TranscriptEntry) (*models.Summary, error)
}

// Interviewer bundles the three collaborators
type Interviewer interface {
	QuestionGenerator
	AnswerEvaluator
	SummaryGenerator
}

// ValidateQuestions checks the question set contract
func ValidateQuestions(questions []string) error {
	if len(questions) != QuestionCount {
		return fmt.Errorf("%w: expected %d questions, got %d", ErrMalformedResponse, QuestionCount, len(questions))
	}
	for i, q := range questions {
		if strings.TrimSpace(q) == "" {
			return fmt.Errorf("%w: question %d is empty", ErrMalformedResponse, i+1)
		}
	}
	return nil
}

// ValidateEvaluation checks the answer evaluation contract
func ValidateEvaluation(e *AnswerEvaluation) error {
	if e == nil {
		return fmt.Errorf("%w: missing evaluation", ErrMalformedResponse)
	}
	if e.Score < 0 || e.Score > 10 {
		return fmt.Errorf("%w: score %d out of range", ErrMalformedResponse, e.Score)
	}
	return nil
}

// ValidateSummary checks the summary contract
func ValidateSummary(s *models.Summary) error {
	if s == nil {
		return fmt.Errorf("%w: missing summary", ErrMalformedResponse)
	}
	if !s.Recommendation.Valid() {
		return fmt.Errorf("%w: invalid recommendation %q", ErrMalformedResponse, s.Recommendation)
	}
	if math.IsNaN(s.FinalRating) || s.FinalRating < 0 || s.FinalRating > 10 {
		return fmt.Errorf("%w: final rating %v out of range", ErrMalformedResponse, s.FinalRating)
	}
	return nil
}

// MeanScore returns the mean per-question score of a transcript, 0 when empty
func MeanScore(transcript []TranscriptEntry) float64 {
	if len(transcript) == 0 {
		return 0
	}
	total := 0
	for _, e := range transcript {
		total += e.Score
	}
	return float64(total) / float64(len(transcript))
}
