package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/interview-engine/internal/models"
)

// StartRequest holds the candidate details and resume of a new interview
type StartRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	JobRole    string `json:"jobRole" validate:"required"`
	Resume     []byte `json:"resume" validate:"required,min=1"`
	ResumeMIME string `json:"resumeMime"`
}

func (r *StartRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.JobRole = strings.TrimSpace(r.JobRole)
	r.ResumeMIME = strings.TrimSpace(r.ResumeMIME)
}

// StartInterview creates a candidate and an in-progress interview with a
// freshly generated question set. Nothing is written until every check
// has passed.
func (m *InterviewManager) StartInterview(ctx context.Context, req StartRequest) (*models.StartInterviewResponse, error) {
	req.normalize()
	if err := m.validateStruct(&req); err != nil {
		return nil, err
	}

	if err := m.checkEligible(ctx, req.Email); err != nil {
		return nil, err
	}

	resumeText := m.resumes.Extract(ctx, req.Resume, req.ResumeMIME)

	questions, err := m.interviewer.GenerateQuestions(ctx, req.Name, req.JobRole, resumeText)
	if err != nil {
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("failed to generate questions: empty question set")
	}

	candidate := &models.Candidate{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		JobRole:    req.JobRole,
		ResumeText: resumeText,
	}
	if err := m.repo.CreateCandidate(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to create candidate: %w", err)
	}

	iv := &models.Interview{
		CandidateID:          candidate.ID,
		Questions:            questions,
		CurrentQuestionIndex: 0,
		Status:               models.InterviewInProgress,
	}
	if err := m.repo.CreateInterview(ctx, iv); err != nil {
		return nil, fmt.Errorf("failed to create interview: %w", err)
	}

	slog.Info("interview started",
		"interview_id", iv.ID,
		"candidate_id", candidate.ID,
		"job_role", req.JobRole,
		"questions", len(questions),
	)

	return &models.StartInterviewResponse{
		InterviewID:     iv.ID,
		CandidateID:     candidate.ID,
		Questions:       append([]string(nil), questions...),
		CurrentQuestion: questions[0],
	}, nil
}

// checkEligible refuses admin emails and emails with a terminated interview
func (m *InterviewManager) checkEligible(ctx context.Context, email string) error {
	user, err := m.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user != nil && user.IsAdmin() {
		return &ForbiddenError{Reason: ReasonAdminEmail}
	}

	candidates, err := m.repo.ListCandidatesByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to list candidates: %w", err)
	}
	for _, c := range candidates {
		interviews, err := m.repo.ListInterviewsByCandidate(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("failed to list interviews: %w", err)
		}
		for _, iv := range interviews {
			if iv.Status == models.InterviewTerminated {
				slog.Info("interview start refused, terminated history",
					"candidate_id", c.ID,
					"interview_id", iv.ID,
				)
				return &ForbiddenError{Reason: ReasonRevoked}
			}
		}
	}

	return nil
}

func (m *InterviewManager) validateStruct(req *StartRequest) error {
	err := m.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "email":
		return invalid(fe.Field(), "must be a valid email address")
	case "min":
		return invalid(fe.Field(), "must not be empty")
	default:
		return invalid(fe.Field(), "is required")
	}
}
