package ai

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/terra-clan/interview-engine/internal/models"
)

const (
	defaultFeedback         = "No feedback provided"
	defaultStrengths        = "No strengths identified"
	defaultImprovementAreas = "No improvement areas identified"
)

// extractJSON strips markdown fences and returns the outermost JSON object
func extractJSON(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}
	return text[start : end+1], nil
}

func decodeJSON(raw string, v any) error {
	payload, err := extractJSON(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func parseQuestions(raw string) ([]string, error) {
	var resp struct {
		Questions []string `json:"questions"`
	}
	if err := decodeJSON(raw, &resp); err != nil {
		return nil, err
	}

	questions := make([]string, 0, len(resp.Questions))
	for _, q := range resp.Questions {
		questions = append(questions, strings.TrimSpace(q))
	}
	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func parseEvaluation(raw string) (*AnswerEvaluation, error) {
	var resp struct {
		Score    *float64 `json:"score"`
		Feedback string   `json:"feedback"`
	}
	if err := decodeJSON(raw, &resp); err != nil {
		return nil, err
	}

	if resp.Score == nil || math.IsNaN(*resp.Score) || *resp.Score < 0 || *resp.Score > 10 {
		return nil, fmt.Errorf("%w: score missing or out of range", ErrMalformedResponse)
	}

	feedback := strings.TrimSpace(resp.Feedback)
	if feedback == "" {
		feedback = defaultFeedback
	}

	return &AnswerEvaluation{
		Score:    int(roundHalfUp(*resp.Score)),
		Feedback: feedback,
	}, nil
}

func parseSummary(raw string) (*models.Summary, error) {
	var resp struct {
		Strengths        string   `json:"strengths"`
		ImprovementAreas string   `json:"improvementAreas"`
		FinalRating      *float64 `json:"finalRating"`
		Recommendation   string   `json:"recommendation"`
	}
	if err := decodeJSON(raw, &resp); err != nil {
		return nil, err
	}

	rec := models.Recommendation(strings.TrimSpace(resp.Recommendation))
	if !rec.Valid() {
		return nil, fmt.Errorf("%w: invalid recommendation %q", ErrMalformedResponse, resp.Recommendation)
	}

	rating := 0.0
	if resp.FinalRating != nil && !math.IsNaN(*resp.FinalRating) {
		rating = math.Max(0, math.Min(10, *resp.FinalRating))
	}

	summary := &models.Summary{
		Strengths:        strings.TrimSpace(resp.Strengths),
		ImprovementAreas: strings.TrimSpace(resp.ImprovementAreas),
		FinalRating:      rating,
		Recommendation:   rec,
	}
	if summary.Strengths == "" {
		summary.Strengths = defaultStrengths
	}
	if summary.ImprovementAreas == "" {
		summary.ImprovementAreas = defaultImprovementAreas
	}
	return summary, nil
}

// roundHalfUp rounds .5 towards positive infinity
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

// roundOneDecimal rounds to one decimal place, half up
func roundOneDecimal(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

// truncateForLog shortens s to at most max runes for log previews
func truncateForLog(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
