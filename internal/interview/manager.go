// Package interview implements the interview lifecycle: starting an
// interview from a resume, sequencing and scoring answers, producing the
// final evaluation, and the admin aggregates over all interviews.
package interview

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/interview-engine/internal/ai"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/storage"
)

// Manager defines the interview operations used by the API layer
type Manager interface {
	StartInterview(ctx context.Context, req StartRequest) (*models.StartInterviewResponse, error)
	SubmitAnswer(ctx context.Context, interviewID int64, questionIndex int, answerText string) (*models.SubmitAnswerResponse, error)
	TerminateInterview(ctx context.Context, interviewID int64) error
	GetInterview(ctx context.Context, interviewID int64) (*models.InterviewDetail, error)
	GetCandidateResults(ctx context.Context, candidateID int64) ([]*models.CandidateResult, error)
	GetCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error)

	// Admin
	ListInterviews(ctx context.Context) ([]*models.InterviewRecord, error)
	ComputeStats(ctx context.Context) (*models.Stats, error)
	ListCandidates(ctx context.Context) ([]*models.Candidate, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	DeleteInterview(ctx context.Context, interviewID int64) error
	DeleteCandidate(ctx context.Context, candidateID int64) error

	Ping(ctx context.Context) error
}

// ResumeExtractor turns an uploaded resume into text
type ResumeExtractor interface {
	Extract(ctx context.Context, data []byte, contentType string) string
}

// InterviewManager implements Manager on top of a storage repository
type InterviewManager struct {
	repo        storage.Repository
	interviewer ai.Interviewer
	resumes     ResumeExtractor
	validate    *validator.Validate
	now         func() time.Time
}

// NewManager creates an InterviewManager. The interviewer is expected to
// absorb remote failures itself, see ai.Resilient.
func NewManager(repo storage.Repository, interviewer ai.Interviewer, resumes ResumeExtractor) *InterviewManager {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return &InterviewManager{
		repo:        repo,
		interviewer: interviewer,
		resumes:     resumes,
		validate:    v,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks storage connectivity
func (m *InterviewManager) Ping(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
