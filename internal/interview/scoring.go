package interview

import (
	"math"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Scores are the 0-100 sub-scores of a finished interview
type Scores struct {
	Overall    int
	Technical  int
	Behavioral int
	Mean       float64 // per-question mean on the 0-10 scale
}

// ScoreAnswers aggregates answers in submission order. Technical covers all
// but the last answer and behavioral only the last one, whatever the
// question count.
func ScoreAnswers(answers []*models.Answer) Scores {
	all := make([]int, len(answers))
	for i, a := range answers {
		all[i] = a.Score
	}

	var technical, behavioral []int
	if n := len(all); n > 0 {
		technical = all[:n-1]
		behavioral = all[n-1:]
	}

	return Scores{
		Overall:    scaled(all),
		Technical:  scaled(technical),
		Behavioral: scaled(behavioral),
		Mean:       mean(all),
	}
}

// scaled converts 0-10 scores to the 0-100 scale, rounding half up
func scaled(scores []int) int {
	return int(math.Floor(10*mean(scores) + 0.5))
}

func mean(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	total := 0
	for _, s := range scores {
		total += s
	}
	return float64(total) / float64(len(scores))
}

func roundOneDecimal(x float64) float64 {
	return math.Floor(x*10+0.5) / 10
}

// aggregateStats counts recommendations and averages the overall score
func aggregateStats(evaluations []*models.Evaluation) *models.Stats {
	stats := &models.Stats{Total: len(evaluations)}
	if len(evaluations) == 0 {
		return stats
	}

	total := 0
	for _, e := range evaluations {
		switch e.Recommendation {
		case models.RecommendHire:
			stats.Recommended++
		case models.RecommendMaybe:
			stats.Maybe++
		case models.RecommendNo:
			stats.Rejected++
		}
		total += e.OverallScore
	}
	stats.AvgScore = roundOneDecimal(float64(total) / float64(len(evaluations)))

	return stats
}
