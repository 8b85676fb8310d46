package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/questionbank"
)

// Question set composition for the fallback generator
const (
	fallbackTechnical  = 4
	fallbackCoding     = 2
	fallbackBehavioral = 2
)

var evidencePhrases = []string{
	"for example", "for instance", "in my experience", "in my last", "i built", "we built",
	"i implemented", "i designed", "i led", "trade-off", "tradeoff", "because",
}

var evasivePhrases = []string{
	"i don't know", "i do not know", "no idea", "not sure", "skip", "pass on this",
}

var stopwords = map[string]bool{
	"about": true, "after": true, "again": true, "being": true, "could": true, "describe": true,
	"does": true, "explain": true, "from": true, "have": true, "how": true, "into": true,
	"tell": true, "that": true, "their": true, "there": true, "these": true, "this": true,
	"time": true, "what": true, "when": true, "where": true, "which": true, "while": true,
	"with": true, "would": true, "your": true, "you": true,
}

// Deterministic is the local fallback interviewer. It is pure: the same
// input always yields the same output and it never touches the network.
type Deterministic struct {
	bank *questionbank.Loader
}

// NewDeterministic creates a fallback interviewer over a question bank.
// A nil bank uses the built-in one.
func NewDeterministic(bank *questionbank.Loader) *Deterministic {
	if bank == nil {
		bank = questionbank.NewLoader()
	}
	return &Deterministic{bank: bank}
}

// GenerateQuestions composes technical, coding and behavioral questions from
// the bank and pads the set to QuestionCount
func (d *Deterministic) GenerateQuestions(ctx context.Context, name, jobRole, resumeText string) ([]string, error) {
	var technical []string
	if role := d.bank.Match(jobRole); role != nil {
		technical = role.Technical
	}

	var picked []string
	picked = appendUnique(picked, technical, fallbackTechnical)
	picked = appendUnique(picked, d.bank.Coding(), fallbackCoding)
	picked = appendUnique(picked, d.bank.Behavioral(), fallbackBehavioral)
	picked = appendUnique(picked, d.bank.Padding(), QuestionCount-len(picked))
	picked = appendUnique(picked, technical, QuestionCount-len(picked))

	for i := len(picked); i < QuestionCount; i++ {
		picked = append(picked, fmt.Sprintf("Tell us about another experience that prepared you for the {role} role (%d).", i+1))
	}

	replacer := strings.NewReplacer("{role}", displayRole(jobRole), "{name}", displayName(name))
	questions := make([]string, QuestionCount)
	for i, q := range picked[:QuestionCount] {
		questions[i] = replacer.Replace(q)
	}
	return questions, nil
}

// EvaluateAnswer scores an answer by length, overlap with the question's
// keywords, supporting evidence and evasive phrasing
func (d *Deterministic) EvaluateAnswer(ctx context.Context, question, answer, jobRole string) (*AnswerEvaluation, error) {
	score := heuristicScore(question, answer)
	return &AnswerEvaluation{Score: score, Feedback: feedbackFor(score)}, nil
}

// GenerateSummary templates strengths and improvement areas from the mean
// score and applies the recommendation thresholds
func (d *Deterministic) GenerateSummary(ctx context.Context, name, jobRole string, transcript []TranscriptEntry) (*models.Summary, error) {
	avg := MeanScore(transcript)
	role := displayRole(jobRole)

	var strengths, improvements string
	switch {
	case avg >= models.HireThreshold:
		strengths = "Consistently strong answers with solid technical depth and clear communication."
		improvements = "Could go deeper on trade-offs and edge cases in the most complex scenarios."
	case avg >= models.MaybeThreshold:
		strengths = fmt.Sprintf("Good grasp of core concepts for the %s role and generally clear communication.", role)
		improvements = "Support answers with concrete examples from past work and add more technical depth."
	case avg >= 4:
		strengths = "Shows foundational knowledge in several areas."
		improvements = fmt.Sprintf("Build deeper knowledge of core %s topics and structure answers more clearly.", role)
	default:
		strengths = "Engaged with the interview questions."
		improvements = fmt.Sprintf("Substantial preparation needed on core %s topics; practise explaining solutions with concrete examples.", role)
	}

	if best := bestAnswer(transcript); best >= 0 && transcript[best].Score > 0 {
		strengths += fmt.Sprintf(" Strongest answer on question %d.", best+1)
	}

	return &models.Summary{
		Strengths:        strengths,
		ImprovementAreas: improvements,
		FinalRating:      roundOneDecimal(avg),
		Recommendation:   models.RecommendationFor(avg),
	}, nil
}

func heuristicScore(question, answer string) int {
	words := strings.Fields(answer)
	if len(words) == 0 {
		return 0
	}

	var score int
	switch n := len(words); {
	case n < 5:
		score = 2
	case n < 15:
		score = 4
	case n < 40:
		score = 5
	case n < 100:
		score = 6
	default:
		score = 7
	}

	answerWords := make(map[string]bool, len(words))
	for _, w := range words {
		answerWords[normalizeWord(w)] = true
	}
	overlap := 0
	for _, kw := range keywords(question) {
		if answerWords[kw] {
			overlap++
		}
	}
	switch {
	case overlap >= 3:
		score += 2
	case overlap >= 1:
		score++
	}

	lower := strings.ToLower(answer)
	if containsAny(lower, evidencePhrases) {
		score++
	}
	if containsAny(lower, evasivePhrases) {
		score -= 3
	}

	return clamp(score, 0, 10)
}

func feedbackFor(score int) string {
	switch {
	case score >= 8:
		return "Strong, well-structured answer with relevant detail."
	case score >= 6:
		return "Good answer. A concrete example from your own work would make it stronger."
	case score >= 4:
		return "Partially addresses the question. Expand on the key concepts and how you applied them."
	case score > 0:
		return "The answer is too brief to assess. Walk through your reasoning step by step."
	default:
		return "No substantive answer was given."
	}
}

// keywords returns the distinct significant words of a question
func keywords(question string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, w := range strings.Fields(question) {
		w = normalizeWord(w)
		if len(w) < 4 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func normalizeWord(w string) string {
	return strings.ToLower(strings.TrimFunc(w, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}))
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// appendUnique appends up to n items from src that are not already in dst
func appendUnique(dst, src []string, n int) []string {
	added := 0
	for _, s := range src {
		if added >= n {
			break
		}
		if contains(dst, s) {
			continue
		}
		dst = append(dst, s)
		added++
	}
	return dst
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func bestAnswer(transcript []TranscriptEntry) int {
	best := -1
	for i, e := range transcript {
		if best < 0 || e.Score > transcript[best].Score {
			best = i
		}
	}
	return best
}

func displayRole(jobRole string) string {
	if r := strings.TrimSpace(jobRole); r != "" {
		return r
	}
	return "advertised"
}

func displayName(name string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return "candidate"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
