package models

import "time"

// InterviewStatus represents the lifecycle state of an interview
type InterviewStatus string

const (
	InterviewPending    InterviewStatus = "pending"     // Never persisted in practice, creation starts in-progress
	InterviewInProgress InterviewStatus = "in-progress" // Questions are being answered
	InterviewCompleted  InterviewStatus = "completed"   // Last answer submitted, evaluation created
	InterviewTerminated InterviewStatus = "terminated"  // Abandoned, blocks the candidate email
)

// IsTerminal returns true if no more answers may be recorded
func (s InterviewStatus) IsTerminal() bool {
	return s == InterviewCompleted || s == InterviewTerminated
}

// Valid reports whether s is a known status
func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewPending, InterviewInProgress, InterviewCompleted, InterviewTerminated:
		return true
	}
	return false
}

// Candidate is a person who uploaded a resume and started an interview.
// Immutable after creation.
type Candidate struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	JobRole    string    `json:"jobRole"`
	ResumeText string    `json:"resumeText"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Clone returns a copy of the candidate
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Interview is an ordered question set being worked through by a candidate
type Interview struct {
	ID                   int64           `json:"id"`
	CandidateID          int64           `json:"candidateId"`
	Questions            []string        `json:"questions"`
	CurrentQuestionIndex int             `json:"currentQuestionIndex"`
	Status               InterviewStatus `json:"status"`
	CreatedAt            time.Time       `json:"createdAt"`
	CompletedAt          *time.Time      `json:"completedAt,omitempty"`
}

// HasQuestion reports whether index addresses a question of the interview
func (i *Interview) HasQuestion(index int) bool {
	return index >= 0 && index < len(i.Questions)
}

// IsLastQuestion reports whether answering index finishes the interview
func (i *Interview) IsLastQuestion(index int) bool {
	return index+1 >= len(i.Questions)
}

// Clone returns a deep copy of the interview
func (i *Interview) Clone() *Interview {
	if i == nil {
		return nil
	}
	cp := *i
	cp.Questions = append([]string(nil), i.Questions...)
	if i.CompletedAt != nil {
		t := *i.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}

// Answer is a scored response to one question. QuestionText is a snapshot
// taken at answer time.
type Answer struct {
	ID            int64     `json:"id"`
	InterviewID   int64     `json:"interviewId"`
	QuestionIndex int       `json:"questionIndex"`
	QuestionText  string    `json:"questionText"`
	AnswerText    string    `json:"answerText"`
	Score         int       `json:"score"`
	Feedback      string    `json:"feedback"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Clone returns a copy of the answer
func (a *Answer) Clone() *Answer {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}
