package ai

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/terra-clan/interview-engine/internal/models"
)

// maxResumeRunes bounds the resume text sent to the model
const maxResumeRunes = 12000

const defaultMaxLogLength = 200

var (
	//go:embed prompts/questions.md
	questionsPrompt string
	//go:embed prompts/evaluation.md
	evaluationPrompt string
	//go:embed prompts/summary.md
	summaryPrompt string
)

// TextGenerator sends a prompt to a language model and returns its text reply
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Model() string
}

// LLM implements Interviewer on top of a language model. Every reply is
// schema-checked; anything off-contract is returned as ErrMalformedResponse.
type LLM struct {
	generator TextGenerator
	maxLogLen int
}

// NewLLM creates a language-model backed interviewer
func NewLLM(generator TextGenerator) *LLM {
	return &LLM{generator: generator, maxLogLen: defaultMaxLogLength}
}

// GenerateQuestions asks the model for exactly QuestionCount questions
func (l *LLM) GenerateQuestions(ctx context.Context, name, jobRole, resumeText string) ([]string, error) {
	prompt := fillPrompt(questionsPrompt, map[string]string{
		"NAME":   name,
		"ROLE":   jobRole,
		"RESUME": clip(resumeText, maxResumeRunes),
	})

	raw, err := l.generate(ctx, "questions", prompt)
	if err != nil {
		return nil, err
	}
	return parseQuestions(raw)
}

// EvaluateAnswer asks the model to score one answer
func (l *LLM) EvaluateAnswer(ctx context.Context, question, answer, jobRole string) (*AnswerEvaluation, error) {
	prompt := fillPrompt(evaluationPrompt, map[string]string{
		"ROLE":     jobRole,
		"QUESTION": question,
		"ANSWER":   answer,
	})

	raw, err := l.generate(ctx, "evaluation", prompt)
	if err != nil {
		return nil, err
	}
	return parseEvaluation(raw)
}

// GenerateSummary asks the model for the final assessment
func (l *LLM) GenerateSummary(ctx context.Context, name, jobRole string, transcript []TranscriptEntry) (*models.Summary, error) {
	prompt := fillPrompt(summaryPrompt, map[string]string{
		"NAME":       name,
		"ROLE":       jobRole,
		"TRANSCRIPT": formatTranscript(transcript),
	})

	raw, err := l.generate(ctx, "summary", prompt)
	if err != nil {
		return nil, err
	}
	return parseSummary(raw)
}

func (l *LLM) generate(ctx context.Context, kind, prompt string) (string, error) {
	slog.Debug("model request",
		"kind", kind,
		"model", l.generator.Model(),
		"prompt_length", utf8.RuneCountInString(prompt),
		"prompt_preview", truncateForLog(prompt, l.maxLogLen),
	)

	raw, err := l.generator.GenerateText(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%s request failed: %w", kind, err)
	}

	slog.Debug("model response",
		"kind", kind,
		"model", l.generator.Model(),
		"response_length", utf8.RuneCountInString(raw),
		"response_preview", truncateForLog(raw, l.maxLogLen),
	)
	return raw, nil
}

// fillPrompt substitutes {{KEY}} placeholders in a single pass so values
// containing placeholder syntax are left untouched
func fillPrompt(template string, values map[string]string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(values)*2)
	for _, key := range keys {
		pairs = append(pairs, "{{"+key+"}}", values[key])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func formatTranscript(transcript []TranscriptEntry) string {
	var b strings.Builder
	for i, e := range transcript {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Q%d: %s\nAnswer: %s\nScore: %d/10\nFeedback: %s", i+1, e.Question, e.Answer, e.Score, e.Feedback)
	}
	return b.String()
}

func clip(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
