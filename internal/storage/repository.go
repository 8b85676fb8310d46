package storage

import (
	"context"
	"errors"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

var (
	// ErrNotFound is returned by updates and deletes that match no row.
	// Getters return nil, nil instead.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("record already exists")
)

// Repository defines the persistence contract shared by the memory and
// Postgres backends. Both must behave identically for every method.
type Repository interface {
	// Candidates
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	GetCandidate(ctx context.Context, id int64) (*models.Candidate, error)
	ListCandidates(ctx context.Context) ([]*models.Candidate, error)
	ListCandidatesByEmail(ctx context.Context, email string) ([]*models.Candidate, error)
	DeleteCandidate(ctx context.Context, id int64) error

	// Interviews
	CreateInterview(ctx context.Context, iv *models.Interview) error
	GetInterview(ctx context.Context, id int64) (*models.Interview, error)
	ListInterviewsByCandidate(ctx context.Context, candidateID int64) ([]*models.Interview, error)
	UpdateInterviewProgress(ctx context.Context, id int64, currentIndex int) error
	SetInterviewStatus(ctx context.Context, id int64, status models.InterviewStatus) error
	CompleteInterview(ctx context.Context, id int64, completedAt time.Time) error
	DeleteInterview(ctx context.Context, id int64) error
	ListInterviewRecords(ctx context.Context) ([]*models.InterviewRecord, error)

	// Answers
	CreateAnswer(ctx context.Context, a *models.Answer) error
	ListAnswersByInterview(ctx context.Context, interviewID int64) ([]*models.Answer, error)

	// Evaluations
	CreateEvaluation(ctx context.Context, e *models.Evaluation) error
	GetEvaluationByInterview(ctx context.Context, interviewID int64) (*models.Evaluation, error)
	ListEvaluations(ctx context.Context) ([]*models.Evaluation, error)

	// Users
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// now returns the timestamp stored for new rows. Postgres keeps microsecond
// precision, so both backends truncate to it.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func stampIfZero(t *time.Time) {
	if t.IsZero() {
		*t = now()
	} else {
		*t = t.UTC().Truncate(time.Microsecond)
	}
}
