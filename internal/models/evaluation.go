package models

import "time"

// Recommendation is the final hiring verdict of an interview
type Recommendation string

const (
	RecommendHire  Recommendation = "Hire"
	RecommendMaybe Recommendation = "Maybe"
	RecommendNo    Recommendation = "No"
)

// Recommendation thresholds on the 0-10 average score
const (
	HireThreshold  = 8.0
	MaybeThreshold = 6.0
)

// RecommendationFor maps an average per-question score to a verdict
func RecommendationFor(avg float64) Recommendation {
	switch {
	case avg >= HireThreshold:
		return RecommendHire
	case avg >= MaybeThreshold:
		return RecommendMaybe
	default:
		return RecommendNo
	}
}

// Valid reports whether r is one of Hire, Maybe or No
func (r Recommendation) Valid() bool {
	return r == RecommendHire || r == RecommendMaybe || r == RecommendNo
}

// Evaluation is the final assessment created when an interview completes.
// Scores are on a 0-100 scale.
type Evaluation struct {
	ID               int64          `json:"id"`
	InterviewID      int64          `json:"interviewId"`
	OverallScore     int            `json:"overallScore"`
	TechnicalScore   int            `json:"technicalScore"`
	BehavioralScore  int            `json:"behavioralScore"`
	Strengths        string         `json:"strengths"`
	ImprovementAreas string         `json:"improvementAreas"`
	Recommendation   Recommendation `json:"recommendation"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// Clone returns a copy of the evaluation
func (e *Evaluation) Clone() *Evaluation {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

// Summary is the aggregate feedback produced for a finished interview
type Summary struct {
	Strengths        string         `json:"strengths"`
	ImprovementAreas string         `json:"improvementAreas"`
	FinalRating      float64        `json:"finalRating"`
	Recommendation   Recommendation `json:"recommendation"`
}

// Stats aggregates all evaluations for the admin dashboard
type Stats struct {
	Total       int     `json:"total"`
	Recommended int     `json:"recommended"`
	Maybe       int     `json:"maybe"`
	Rejected    int     `json:"rejected"`
	AvgScore    float64 `json:"avgScore"`
}
