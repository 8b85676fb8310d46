package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// MemoryRepository implements Repository in process memory. Ids
// auto-increment per entity type starting at 1. Records are copied on the
// way in and out so callers never share state with the store.
type MemoryRepository struct {
	mu sync.RWMutex

	candidates  map[int64]*models.Candidate
	interviews  map[int64]*models.Interview
	answers     map[int64]*models.Answer
	evaluations map[int64]*models.Evaluation
	users       map[int64]*models.User

	nextCandidateID  int64
	nextInterviewID  int64
	nextAnswerID     int64
	nextEvaluationID int64
	nextUserID       int64
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		candidates:       make(map[int64]*models.Candidate),
		interviews:       make(map[int64]*models.Interview),
		answers:          make(map[int64]*models.Answer),
		evaluations:      make(map[int64]*models.Evaluation),
		users:            make(map[int64]*models.User),
		nextCandidateID:  1,
		nextInterviewID:  1,
		nextAnswerID:     1,
		nextEvaluationID: 1,
		nextUserID:       1,
	}
}

// Ping always succeeds
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}

// CreateCandidate stores a candidate and assigns its id
func (r *MemoryRepository) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stampIfZero(&c.CreatedAt)
	c.ID = r.nextCandidateID
	r.nextCandidateID++
	r.candidates[c.ID] = c.Clone()
	return nil
}

// GetCandidate returns the candidate or nil if missing
func (r *MemoryRepository) GetCandidate(ctx context.Context, id int64) (*models.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.candidates[id].Clone(), nil
}

// ListCandidates returns all candidates ordered by id
func (r *MemoryRepository) ListCandidates(ctx context.Context) ([]*models.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Candidate, 0, len(r.candidates))
	for _, c := range r.candidates {
		result = append(result, c.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ListCandidatesByEmail returns candidates with the email, newest first
func (r *MemoryRepository) ListCandidatesByEmail(ctx context.Context, email string) ([]*models.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Candidate{}
	for _, c := range r.candidates {
		if c.Email == email {
			result = append(result, c.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return newerFirst(result[i].CreatedAt, result[i].ID, result[j].CreatedAt, result[j].ID)
	})
	return result, nil
}

// DeleteCandidate removes the candidate with all of its interviews
func (r *MemoryRepository) DeleteCandidate(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.candidates[id]; !ok {
		return fmt.Errorf("candidate %d: %w", id, ErrNotFound)
	}

	for ivID, iv := range r.interviews {
		if iv.CandidateID == id {
			r.deleteInterviewLocked(ivID)
		}
	}
	delete(r.candidates, id)
	return nil
}

// CreateInterview stores an interview and assigns its id
func (r *MemoryRepository) CreateInterview(ctx context.Context, iv *models.Interview) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.candidates[iv.CandidateID]; !ok {
		return fmt.Errorf("failed to create interview: candidate %d: %w", iv.CandidateID, ErrNotFound)
	}

	stampIfZero(&iv.CreatedAt)
	iv.ID = r.nextInterviewID
	r.nextInterviewID++
	r.interviews[iv.ID] = iv.Clone()
	return nil
}

// GetInterview returns the interview or nil if missing
func (r *MemoryRepository) GetInterview(ctx context.Context, id int64) (*models.Interview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.interviews[id].Clone(), nil
}

// ListInterviewsByCandidate returns the candidate's interviews ordered by id
func (r *MemoryRepository) ListInterviewsByCandidate(ctx context.Context, candidateID int64) ([]*models.Interview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Interview{}
	for _, iv := range r.interviews {
		if iv.CandidateID == candidateID {
			result = append(result, iv.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// UpdateInterviewProgress sets the current question index
func (r *MemoryRepository) UpdateInterviewProgress(ctx context.Context, id int64, currentIndex int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	iv, ok := r.interviews[id]
	if !ok {
		return fmt.Errorf("interview %d: %w", id, ErrNotFound)
	}
	iv.CurrentQuestionIndex = currentIndex
	return nil
}

// SetInterviewStatus overwrites the interview status
func (r *MemoryRepository) SetInterviewStatus(ctx context.Context, id int64, status models.InterviewStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	iv, ok := r.interviews[id]
	if !ok {
		return fmt.Errorf("interview %d: %w", id, ErrNotFound)
	}
	iv.Status = status
	return nil
}

// CompleteInterview marks the interview completed at the given time
func (r *MemoryRepository) CompleteInterview(ctx context.Context, id int64, completedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	iv, ok := r.interviews[id]
	if !ok {
		return fmt.Errorf("interview %d: %w", id, ErrNotFound)
	}
	stampIfZero(&completedAt)
	iv.Status = models.InterviewCompleted
	iv.CompletedAt = &completedAt
	return nil
}

// DeleteInterview removes the interview with its answers and evaluation
func (r *MemoryRepository) DeleteInterview(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.interviews[id]; !ok {
		return fmt.Errorf("interview %d: %w", id, ErrNotFound)
	}
	r.deleteInterviewLocked(id)
	return nil
}

func (r *MemoryRepository) deleteInterviewLocked(id int64) {
	for aID, a := range r.answers {
		if a.InterviewID == id {
			delete(r.answers, aID)
		}
	}
	for eID, e := range r.evaluations {
		if e.InterviewID == id {
			delete(r.evaluations, eID)
		}
	}
	delete(r.interviews, id)
}

// ListInterviewRecords joins every interview with its candidate and
// evaluation, newest first
func (r *MemoryRepository) ListInterviewRecords(ctx context.Context) ([]*models.InterviewRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byInterview := make(map[int64]*models.Evaluation, len(r.evaluations))
	for _, e := range r.evaluations {
		byInterview[e.InterviewID] = e
	}

	result := make([]*models.InterviewRecord, 0, len(r.interviews))
	for _, iv := range r.interviews {
		result = append(result, &models.InterviewRecord{
			Interview:  iv.Clone(),
			Candidate:  r.candidates[iv.CandidateID].Clone(),
			Evaluation: byInterview[iv.ID].Clone(),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i].Interview, result[j].Interview
		return newerFirst(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
	})
	return result, nil
}

// CreateAnswer stores an answer and assigns its id
func (r *MemoryRepository) CreateAnswer(ctx context.Context, a *models.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.interviews[a.InterviewID]; !ok {
		return fmt.Errorf("failed to create answer: interview %d: %w", a.InterviewID, ErrNotFound)
	}

	stampIfZero(&a.CreatedAt)
	a.ID = r.nextAnswerID
	r.nextAnswerID++
	r.answers[a.ID] = a.Clone()
	return nil
}

// ListAnswersByInterview returns answers in insertion order
func (r *MemoryRepository) ListAnswersByInterview(ctx context.Context, interviewID int64) ([]*models.Answer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*models.Answer{}
	for _, a := range r.answers {
		if a.InterviewID == interviewID {
			result = append(result, a.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// CreateEvaluation stores the single evaluation of an interview
func (r *MemoryRepository) CreateEvaluation(ctx context.Context, e *models.Evaluation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.interviews[e.InterviewID]; !ok {
		return fmt.Errorf("failed to create evaluation: interview %d: %w", e.InterviewID, ErrNotFound)
	}
	for _, existing := range r.evaluations {
		if existing.InterviewID == e.InterviewID {
			return fmt.Errorf("evaluation for interview %d: %w", e.InterviewID, ErrDuplicate)
		}
	}

	stampIfZero(&e.CreatedAt)
	e.ID = r.nextEvaluationID
	r.nextEvaluationID++
	r.evaluations[e.ID] = e.Clone()
	return nil
}

// GetEvaluationByInterview returns the evaluation or nil if missing
func (r *MemoryRepository) GetEvaluationByInterview(ctx context.Context, interviewID int64) (*models.Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.evaluations {
		if e.InterviewID == interviewID {
			return e.Clone(), nil
		}
	}
	return nil, nil
}

// ListEvaluations returns all evaluations ordered by id
func (r *MemoryRepository) ListEvaluations(ctx context.Context) ([]*models.Evaluation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Evaluation, 0, len(r.evaluations))
	for _, e := range r.evaluations {
		result = append(result, e.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// CreateUser stores a user, rejecting duplicate emails
func (r *MemoryRepository) CreateUser(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return fmt.Errorf("user %s: %w", u.Email, ErrDuplicate)
		}
	}

	stampIfZero(&u.CreatedAt)
	u.ID = r.nextUserID
	r.nextUserID++
	r.users[u.ID] = u.Clone()
	return nil
}

// GetUserByEmail returns the user or nil if missing
func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, nil
}

// ListUsers returns all users ordered by id
func (r *MemoryRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		result = append(result, u.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// newerFirst orders by creation time descending, then id descending
func newerFirst(aTime time.Time, aID int64, bTime time.Time, bID int64) bool {
	if !aTime.Equal(bTime) {
		return aTime.After(bTime)
	}
	return aID > bID
}
