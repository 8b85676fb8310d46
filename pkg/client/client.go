// Package client is a Go SDK for the interview-engine HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/terra-clan/interview-engine/internal/models"
)

// Client is a Go SDK for the interview-engine API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken authenticates requests with a bearer token, as returned by
// Login
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a new interview-engine client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetToken replaces the bearer token used for subsequent requests
func (c *Client) SetToken(token string) {
	c.token = token
}

// APIError is a failed API call
type APIError struct {
	Status  int
	Code    string
	Message string
	Field   string
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("API error %d: %s - %s (field %s)", e.Status, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("API error %d: %s - %s", e.Status, e.Code, e.Message)
}

// StartRequest holds the fields of an interview start
type StartRequest struct {
	Name           string
	Email          string
	Phone          string
	JobRole        string
	Resume         []byte
	ResumeFilename string
	ResumeMIME     string
}

// Session is a successful login
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

type envelope[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

// StartInterview uploads a resume and starts an interview
func (c *Client) StartInterview(ctx context.Context, req StartRequest) (*models.StartInterviewResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"name", req.Name},
		{"email", req.Email},
		{"phone", req.Phone},
		{"jobRole", req.JobRole},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}

	filename := req.ResumeFilename
	if filename == "" {
		filename = "resume"
	}
	contentType := req.ResumeMIME
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume"; filename="%s"`, strings.ReplaceAll(filename, `"`, "")))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume part: %w", err)
	}
	if _, err := part.Write(req.Resume); err != nil {
		return nil, fmt.Errorf("failed to write resume: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	return call[*models.StartInterviewResponse](ctx, c, http.MethodPost, "/api/v1/interviews/start", mw.FormDataContentType(), &buf)
}

// SubmitAnswer answers one question of an interview
func (c *Client) SubmitAnswer(ctx context.Context, interviewID int64, questionIndex int, answerText string) (*models.SubmitAnswerResponse, error) {
	body, err := jsonBody(models.SubmitAnswerRequest{
		InterviewID:   interviewID,
		QuestionIndex: questionIndex,
		AnswerText:    answerText,
	})
	if err != nil {
		return nil, err
	}
	return call[*models.SubmitAnswerResponse](ctx, c, http.MethodPost, "/api/v1/interviews/answer", "application/json", body)
}

// GetInterview retrieves an interview with its answers and evaluation
func (c *Client) GetInterview(ctx context.Context, id int64) (*models.InterviewDetail, error) {
	return call[*models.InterviewDetail](ctx, c, http.MethodGet, fmt.Sprintf("/api/v1/interviews/%d", id), "", nil)
}

// TerminateInterview ends an interview early
func (c *Client) TerminateInterview(ctx context.Context, id int64) error {
	_, err := call[map[string]bool](ctx, c, http.MethodPost, fmt.Sprintf("/api/v1/interviews/%d/terminate", id), "", nil)
	return err
}

// CandidateResults lists every interview of a candidate
func (c *Client) CandidateResults(ctx context.Context, candidateID int64) ([]*models.CandidateResult, error) {
	return call[[]*models.CandidateResult](ctx, c, http.MethodGet, fmt.Sprintf("/api/v1/candidates/%d/results", candidateID), "", nil)
}

// CandidateByEmail looks up the most recent candidate with email
func (c *Client) CandidateByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	return call[*models.Candidate](ctx, c, http.MethodGet, "/api/v1/candidates/by-email/"+url.PathEscape(email), "", nil)
}

// Signup registers a candidate account
func (c *Client) Signup(ctx context.Context, email, password string) (*models.User, error) {
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	return call[*models.User](ctx, c, http.MethodPost, "/api/v1/auth/signup", "application/json", body)
}

// Login exchanges credentials for a session. The returned token is used for
// subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := jsonBody(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}
	session, err := call[*Session](ctx, c, http.MethodPost, "/api/v1/auth/login", "application/json", body)
	if err != nil {
		return nil, err
	}
	if session != nil {
		c.token = session.Token
	}
	return session, nil
}

// AdminInterviews lists all interviews, newest first
func (c *Client) AdminInterviews(ctx context.Context) ([]*models.InterviewRecord, error) {
	return call[[]*models.InterviewRecord](ctx, c, http.MethodGet, "/api/v1/admin/interviews", "", nil)
}

// AdminStats returns the evaluation aggregates
func (c *Client) AdminStats(ctx context.Context) (*models.Stats, error) {
	return call[*models.Stats](ctx, c, http.MethodGet, "/api/v1/admin/stats", "", nil)
}

// DeleteCandidate removes a candidate with all their interviews
func (c *Client) DeleteCandidate(ctx context.Context, candidateID int64) error {
	_, err := call[map[string]string](ctx, c, http.MethodDelete, fmt.Sprintf("/api/v1/admin/candidates/%d", candidateID), "", nil)
	return err
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := call[map[string]string](ctx, c, http.MethodGet, "/health", "", nil)
	return err
}

func jsonBody(v any) (io.Reader, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return bytes.NewReader(body), nil
}

// call performs a request and unwraps the response envelope
func call[T any](ctx context.Context, c *Client, method, path, contentType string, body io.Reader) (T, error) {
	var zero T

	status, respBody, err := c.doRequest(ctx, method, path, contentType, body)
	if err != nil {
		return zero, err
	}

	var result envelope[T]
	if err := json.Unmarshal(respBody, &result); err != nil {
		if status >= 400 {
			return zero, &APIError{Status: status, Code: "http_error", Message: strings.TrimSpace(string(respBody))}
		}
		return zero, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || status >= 400 {
		apiErr := &APIError{Status: status, Code: "unknown_error"}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
			apiErr.Field = result.Error.Field
		}
		return zero, apiErr
	}

	return result.Data, nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
