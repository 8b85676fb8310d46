package api_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/interview-engine/internal/ai"
	"github.com/terra-clan/interview-engine/internal/api"
	"github.com/terra-clan/interview-engine/internal/auth"
	"github.com/terra-clan/interview-engine/internal/config"
	"github.com/terra-clan/interview-engine/internal/interview"
	"github.com/terra-clan/interview-engine/internal/models"
	"github.com/terra-clan/interview-engine/internal/resume"
	"github.com/terra-clan/interview-engine/internal/speech"
	"github.com/terra-clan/interview-engine/internal/storage"
	"github.com/terra-clan/interview-engine/internal/telephony"
	"github.com/terra-clan/interview-engine/pkg/client"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "admin-password"
)

// numericInterviewer scores an answer by its numeric text, 5 otherwise
type numericInterviewer struct{}

func (numericInterviewer) GenerateQuestions(ctx context.Context, name, jobRole, resumeText string) ([]string, error) {
	questions := make([]string, ai.QuestionCount)
	for i := range questions {
		questions[i] = fmt.Sprintf("%s question %d", jobRole, i+1)
	}
	return questions, nil
}

func (numericInterviewer) EvaluateAnswer(ctx context.Context, question, answer, jobRole string) (*ai.AnswerEvaluation, error) {
	score := 5
	if n, err := strconv.Atoi(answer); err == nil {
		score = n
	}
	return &ai.AnswerEvaluation{Score: score, Feedback: "noted"}, nil
}

func (numericInterviewer) GenerateSummary(ctx context.Context, name, jobRole string, transcript []ai.TranscriptEntry) (*models.Summary, error) {
	return &models.Summary{
		Strengths:        "focus",
		ImprovementAreas: "depth",
		FinalRating:      ai.MeanScore(transcript),
		Recommendation:   models.RecommendMaybe,
	}, nil
}

type textExtractor struct{}

func (textExtractor) Extract(ctx context.Context, data []byte, contentType string) string {
	return string(data)
}

type fakeDialer struct {
	mu     sync.Mutex
	phones []string
}

func (d *fakeDialer) Call(ctx context.Context, interviewID int64, phone string) (string, error) {
	if phone == "bad" {
		return "", telephony.ErrInvalidPhone
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.phones = append(d.phones, phone)
	return "CA" + strconv.FormatInt(interviewID, 10), nil
}

func (d *fakeDialer) dialed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.phones...)
}

func (d *fakeDialer) VoiceURL(interviewID int64, index int) string {
	return fmt.Sprintf("https://example.com/voice?interviewId=%d&questionIndex=%d", interviewID, index)
}

func (d *fakeDialer) TranscribeURL(interviewID int64, index int) string {
	return fmt.Sprintf("https://example.com/transcribe?interviewId=%d&questionIndex=%d", interviewID, index)
}

type staticValidator bool

func (v staticValidator) ValidRequest(r *http.Request) bool {
	return bool(v)
}

type fixedSynth struct{}

func (fixedSynth) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	return []byte("mp3:" + text), nil
}

type testEnv struct {
	server *httptest.Server
	dialer *fakeDialer
}

func newTestEnv(t *testing.T, mutate func(*api.Dependencies)) *testEnv {
	t.Helper()

	repo := storage.NewMemoryRepository()
	authSvc, err := auth.NewService(repo, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	if _, err := authSvc.CreateAdmin(context.Background(), adminEmail, adminPassword); err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}

	dialer := &fakeDialer{}
	deps := api.Dependencies{
		Manager: interview.NewManager(repo, numericInterviewer{}, textExtractor{}),
		Auth:    authSvc,
		Dialer:  dialer,
		Video:   config.VideoConfig{AgoraAppID: "agora-app"},
	}
	if mutate != nil {
		mutate(&deps)
	}

	srv := api.NewServer(config.ServerConfig{}, deps)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &testEnv{server: ts, dialer: dialer}
}

func (e *testEnv) client(opts ...client.Option) *client.Client {
	return client.NewClient(e.server.URL, opts...)
}

func startRequest(email string) client.StartRequest {
	return client.StartRequest{
		Name:           "Jane Doe",
		Email:          email,
		Phone:          "650-253-0000",
		JobRole:        "backend",
		Resume:         []byte("Go and Postgres"),
		ResumeFilename: "resume.txt",
		ResumeMIME:     resume.MIMEText,
	}
}

func (e *testEnv) start(t *testing.T, email string) *models.StartInterviewResponse {
	t.Helper()
	resp, err := e.client().StartInterview(context.Background(), startRequest(email))
	if err != nil {
		t.Fatalf("StartInterview failed: %v", err)
	}
	return resp
}

func apiError(t *testing.T, err error) *client.APIError {
	t.Helper()
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *client.APIError, got %v", err)
	}
	return apiErr
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	if err := env.client().Health(context.Background()); err != nil {
		t.Fatalf("Health failed: %v", err)
	}

	resp, err := http.Get(env.server.URL + "/ready")
	if err != nil {
		t.Fatalf("GET /ready failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected ready, got %d", resp.StatusCode)
	}
}

func TestInterviewFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	c := env.client()

	started := env.start(t, "jane@example.com")
	if len(started.Questions) != ai.QuestionCount {
		t.Fatalf("expected %d questions, got %d", ai.QuestionCount, len(started.Questions))
	}
	if started.CurrentQuestion != started.Questions[0] {
		t.Errorf("expected first question, got %q", started.CurrentQuestion)
	}

	var last *models.SubmitAnswerResponse
	for i := 0; i < ai.QuestionCount; i++ {
		resp, err := c.SubmitAnswer(ctx, started.InterviewID, i, "8")
		if err != nil {
			t.Fatalf("SubmitAnswer(%d) failed: %v", i, err)
		}
		if i < ai.QuestionCount-1 && (resp.Completed || resp.QuestionIndex != i+1) {
			t.Fatalf("answer %d: unexpected response %+v", i, resp)
		}
		last = resp
	}

	if !last.Completed || last.Summary == nil {
		t.Fatalf("expected completed response with summary, got %+v", last)
	}
	if last.Summary.Recommendation != models.RecommendHire {
		t.Errorf("expected Hire, got %s", last.Summary.Recommendation)
	}

	detail, err := c.GetInterview(ctx, started.InterviewID)
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if detail.Interview.Status != models.InterviewCompleted {
		t.Errorf("expected completed, got %s", detail.Interview.Status)
	}
	if detail.Evaluation == nil || detail.Evaluation.OverallScore != 80 {
		t.Errorf("expected overall score 80, got %+v", detail.Evaluation)
	}
	if len(detail.Answers) != ai.QuestionCount {
		t.Errorf("expected %d answers, got %d", ai.QuestionCount, len(detail.Answers))
	}

	results, err := c.CandidateResults(ctx, started.CandidateID)
	if err != nil {
		t.Fatalf("CandidateResults failed: %v", err)
	}
	if len(results) != 1 || results[0].Evaluation == nil {
		t.Errorf("expected one evaluated result, got %+v", results)
	}

	candidate, err := c.CandidateByEmail(ctx, "jane@example.com")
	if err != nil {
		t.Fatalf("CandidateByEmail failed: %v", err)
	}
	if candidate.ID != started.CandidateID {
		t.Errorf("expected candidate %d, got %d", started.CandidateID, candidate.ID)
	}

	_, err = c.SubmitAnswer(ctx, started.InterviewID, 0, "again")
	if apiErr := apiError(t, err); apiErr.Status != http.StatusBadRequest || apiErr.Field != "interviewId" {
		t.Errorf("expected interviewId validation error, got %+v", apiErr)
	}
}

func TestStartInterviewValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		mutate func(*client.StartRequest)
		field  string
	}{
		{"missing email", func(r *client.StartRequest) { r.Email = "" }, "email"},
		{"malformed email", func(r *client.StartRequest) { r.Email = "not-an-email" }, "email"},
		{"missing name", func(r *client.StartRequest) { r.Name = "" }, "name"},
		{"unsupported type", func(r *client.StartRequest) {
			r.ResumeFilename = "photo.png"
			r.ResumeMIME = "image/png"
		}, "resume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := startRequest("jane@example.com")
			tt.mutate(&req)

			_, err := env.client().StartInterview(context.Background(), req)
			apiErr := apiError(t, err)
			if apiErr.Status != http.StatusBadRequest || apiErr.Code != "validation_error" {
				t.Errorf("expected 400 validation_error, got %+v", apiErr)
			}
			if apiErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, apiErr.Field)
			}
		})
	}
}

func TestStartInterviewAdminForbidden(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.client().StartInterview(context.Background(), startRequest(adminEmail))
	apiErr := apiError(t, err)
	if apiErr.Status != http.StatusForbidden || apiErr.Message != interview.ReasonAdminEmail {
		t.Errorf("expected 403 with admin reason, got %+v", apiErr)
	}
}

func TestTerminateInterview(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	c := env.client()

	started := env.start(t, "jane@example.com")
	for i := 0; i < 2; i++ {
		if err := c.TerminateInterview(ctx, started.InterviewID); err != nil {
			t.Fatalf("TerminateInterview failed: %v", err)
		}
	}

	_, err := c.SubmitAnswer(ctx, started.InterviewID, 0, "late")
	if apiErr := apiError(t, err); apiErr.Field != "interviewId" {
		t.Errorf("expected interviewId validation error, got %+v", apiErr)
	}

	_, err = c.StartInterview(ctx, startRequest("jane@example.com"))
	if apiErr := apiError(t, err); apiErr.Status != http.StatusForbidden || apiErr.Message != interview.ReasonRevoked {
		t.Errorf("expected revoked access, got %+v", apiErr)
	}
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.client().GetInterview(context.Background(), 999)
	apiErr := apiError(t, err)
	if apiErr.Status != http.StatusNotFound || apiErr.Code != "not_found" {
		t.Errorf("expected 404 not_found, got %+v", apiErr)
	}

	resp, err := http.Get(env.server.URL + "/api/v1/interviews/abc")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric id, got %d", resp.StatusCode)
	}
}

func TestAuthAndAdminRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	started := env.start(t, "jane@example.com")

	_, err := env.client().AdminStats(ctx)
	if apiErr := apiError(t, err); apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %+v", apiErr)
	}

	candidate := env.client()
	if _, err := candidate.Signup(ctx, "bob@example.com", "bob-password"); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	_, err = candidate.Signup(ctx, "bob@example.com", "bob-password")
	if apiErr := apiError(t, err); apiErr.Status != http.StatusConflict {
		t.Errorf("expected 409 on duplicate signup, got %+v", apiErr)
	}
	if _, err := candidate.Login(ctx, "bob@example.com", "bob-password"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_, err = candidate.AdminStats(ctx)
	if apiErr := apiError(t, err); apiErr.Status != http.StatusForbidden {
		t.Errorf("expected 403 for candidate token, got %+v", apiErr)
	}

	_, err = env.client().Login(ctx, adminEmail, "wrong-password")
	if apiErr := apiError(t, err); apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401 on bad credentials, got %+v", apiErr)
	}

	admin := env.client()
	session, err := admin.Login(ctx, adminEmail, adminPassword)
	if err != nil {
		t.Fatalf("admin Login failed: %v", err)
	}
	if session.User == nil || session.User.Role != models.RoleAdmin {
		t.Errorf("expected admin user in session, got %+v", session.User)
	}

	records, err := admin.AdminInterviews(ctx)
	if err != nil {
		t.Fatalf("AdminInterviews failed: %v", err)
	}
	if len(records) != 1 || records[0].Interview.ID != started.InterviewID {
		t.Errorf("expected the started interview, got %+v", records)
	}

	stats, err := admin.AdminStats(ctx)
	if err != nil {
		t.Fatalf("AdminStats failed: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("expected no evaluations yet, got %+v", stats)
	}

	if err := admin.DeleteCandidate(ctx, started.CandidateID); err != nil {
		t.Fatalf("DeleteCandidate failed: %v", err)
	}
	_, err = admin.GetInterview(ctx, started.InterviewID)
	if apiErr := apiError(t, err); apiErr.Status != http.StatusNotFound {
		t.Errorf("expected interview removed with its candidate, got %+v", apiErr)
	}
}

func TestAdminRoutesWithoutAuthService(t *testing.T) {
	env := newTestEnv(t, func(d *api.Dependencies) { d.Auth = nil })

	_, err := env.client(client.WithToken("any-token")).AdminStats(context.Background())
	apiErr := apiError(t, err)
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("expected 401, got %+v", apiErr)
	}
	if apiErr.Message != "authentication is not configured" {
		t.Errorf("unexpected message %q", apiErr.Message)
	}
}

func TestVideoRoom(t *testing.T) {
	env := newTestEnv(t, nil)
	started := env.start(t, "jane@example.com")

	resp, err := http.Get(fmt.Sprintf("%s/api/v1/interviews/%d/video", env.server.URL, started.InterviewID))
	if err != nil {
		t.Fatalf("GET video failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	prefix := fmt.Sprintf(`"channel":"interview-%d-`, started.InterviewID)
	if !strings.Contains(string(body), prefix) || !strings.Contains(string(body), `"appId":"agora-app"`) {
		t.Errorf("unexpected video room: %s", body)
	}
}

func TestSpeech(t *testing.T) {
	post := func(t *testing.T, env *testEnv, body string) (*http.Response, []byte) {
		t.Helper()
		resp, err := http.Post(env.server.URL+"/api/v1/speech", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST speech failed: %v", err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return resp, data
	}

	t.Run("unconfigured", func(t *testing.T) {
		env := newTestEnv(t, nil)
		resp, _ := post(t, env, `{"text":"hello"}`)
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", resp.StatusCode)
		}
	})

	env := newTestEnv(t, func(d *api.Dependencies) {
		d.Speech = speech.NewService(fixedSynth{}, nil, "", time.Minute)
	})

	t.Run("audio", func(t *testing.T) {
		resp, data := post(t, env, `{"text":"hello"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
			t.Errorf("expected audio/mpeg, got %s", ct)
		}
		if string(data) != "mp3:hello" {
			t.Errorf("unexpected audio %q", data)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		resp, data := post(t, env, `{"text":"  "}`)
		if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(data), `"field":"text"`) {
			t.Errorf("expected text validation error, got %d: %s", resp.StatusCode, data)
		}
	})
}

func TestStartCall(t *testing.T) {
	env := newTestEnv(t, nil)
	started := env.start(t, "jane@example.com")
	callURL := fmt.Sprintf("%s/api/v1/interviews/%d/call", env.server.URL, started.InterviewID)

	resp, err := http.Post(callURL, "application/json", nil)
	if err != nil {
		t.Fatalf("POST call failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	if phones := env.dialer.dialed(); len(phones) != 1 || phones[0] != "650-253-0000" {
		t.Errorf("expected the candidate phone to be dialed, got %v", phones)
	}

	resp, err = http.Post(callURL, "application/json", strings.NewReader(`{"phone":"bad"}`))
	if err != nil {
		t.Fatalf("POST call failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid phone, got %d", resp.StatusCode)
	}

	unconfigured := newTestEnv(t, func(d *api.Dependencies) { d.Dialer = nil })
	resp, err = http.Post(unconfigured.server.URL+"/api/v1/interviews/1/call", "application/json", nil)
	if err != nil {
		t.Fatalf("POST call failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without telephony, got %d", resp.StatusCode)
	}
}

func postWebhook(t *testing.T, env *testEnv, path string, id int64, index int, form url.Values) (int, string) {
	t.Helper()
	target := fmt.Sprintf("%s%s?interviewId=%d", env.server.URL, path, id)
	if index >= 0 {
		target += "&questionIndex=" + strconv.Itoa(index)
	}
	resp, err := http.PostForm(target, form)
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestTelephonyWebhooks(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	started := env.start(t, "jane@example.com")
	id := started.InterviewID

	status, body := postWebhook(t, env, telephony.VoicePath, id, 0, url.Values{})
	if status != http.StatusOK || !strings.Contains(body, "Question 1.") || !strings.Contains(body, "<Record") {
		t.Errorf("expected question TwiML, got %d: %s", status, body)
	}

	status, _ = postWebhook(t, env, telephony.TranscribePath, id, 0, url.Values{"TranscriptionText": {"9"}})
	if status != http.StatusNoContent {
		t.Errorf("expected 204 from transcribe, got %d", status)
	}

	detail, err := env.client().GetInterview(ctx, id)
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if detail.Interview.CurrentQuestionIndex != 1 || len(detail.Answers) != 1 || detail.Answers[0].Score != 9 {
		t.Errorf("expected transcribed answer recorded, got %+v", detail)
	}

	status, _ = postWebhook(t, env, telephony.StatusPath, id, -1, url.Values{"CallStatus": {"completed"}})
	if status != http.StatusNoContent {
		t.Errorf("expected 204 from status, got %d", status)
	}
	status, _ = postWebhook(t, env, telephony.StatusPath, id, -1, url.Values{"CallStatus": {"no-answer"}})
	if status != http.StatusNoContent {
		t.Errorf("expected 204 from status, got %d", status)
	}

	detail, err = env.client().GetInterview(ctx, id)
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if detail.Interview.Status != models.InterviewTerminated {
		t.Errorf("expected abandoned call to terminate, got %s", detail.Interview.Status)
	}

	_, body = postWebhook(t, env, telephony.VoicePath, id, 1, url.Values{})
	if !strings.Contains(body, "<Hangup") {
		t.Errorf("expected closing TwiML after termination, got %s", body)
	}
}

func TestTelephonyWebhookSignature(t *testing.T) {
	env := newTestEnv(t, func(d *api.Dependencies) { d.Webhooks = staticValidator(false) })

	status, _ := postWebhook(t, env, telephony.VoicePath, 1, 0, url.Values{})
	if status != http.StatusForbidden {
		t.Errorf("expected 403 for unsigned webhook, got %d", status)
	}
}

func TestLiveChannel(t *testing.T) {
	env := newTestEnv(t, nil)
	started := env.start(t, "jane@example.com")

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + fmt.Sprintf("/api/v1/interviews/%d/live", started.InterviewID)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	read := func(expected string) api.LiveMessage {
		t.Helper()
		var msg api.LiveMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON failed: %v", err)
		}
		if msg.Type != expected {
			t.Fatalf("expected %s message, got %+v", expected, msg)
		}
		return msg
	}

	first := read("question")
	if first.QuestionIndex != 0 || first.Question != started.Questions[0] {
		t.Errorf("unexpected first question %+v", first)
	}

	if err := conn.WriteJSON(api.LiveMessage{Type: "answer", QuestionIndex: 0, Text: "7"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if eval := read("evaluation"); eval.Score != 7 {
		t.Errorf("expected score 7, got %+v", eval)
	}
	if next := read("question"); next.QuestionIndex != 1 || next.Question != started.Questions[1] {
		t.Errorf("unexpected next question %+v", next)
	}

	if err := conn.WriteJSON(api.LiveMessage{Type: "answer", QuestionIndex: 1, Text: " "}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	read("error")

	if err := conn.WriteJSON(api.LiveMessage{Type: "terminate"}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	read("terminated")

	detail, err := env.client().GetInterview(context.Background(), started.InterviewID)
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if detail.Interview.Status != models.InterviewTerminated {
		t.Errorf("expected terminated, got %s", detail.Interview.Status)
	}
}
