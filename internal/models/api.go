package models

// InterviewRecord joins an interview with its candidate and evaluation
type InterviewRecord struct {
	Interview  *Interview  `json:"interview"`
	Candidate  *Candidate  `json:"candidate"`
	Evaluation *Evaluation `json:"evaluation"`
}

// InterviewDetail is the full view of one interview
type InterviewDetail struct {
	Interview  *Interview  `json:"interview"`
	Candidate  *Candidate  `json:"candidate"`
	Answers    []*Answer   `json:"answers"`
	Evaluation *Evaluation `json:"evaluation"`
}

// CandidateResult is one interview of a candidate with its outcome
type CandidateResult struct {
	Interview  *Interview  `json:"interview"`
	Answers    []*Answer   `json:"answers"`
	Evaluation *Evaluation `json:"evaluation"`
}

// StartInterviewResponse is returned after an interview is created
type StartInterviewResponse struct {
	InterviewID     int64    `json:"interviewId"`
	CandidateID     int64    `json:"candidateId"`
	Questions       []string `json:"questions"`
	CurrentQuestion string   `json:"currentQuestion"`
}

// SubmitAnswerRequest represents an answer submission
type SubmitAnswerRequest struct {
	InterviewID   int64  `json:"interviewId"`
	QuestionIndex int    `json:"questionIndex"`
	AnswerText    string `json:"answerText"`
}

// SubmitAnswerResponse carries the per-answer score and either the next
// question or the final summary
type SubmitAnswerResponse struct {
	Score         int      `json:"score"`
	Feedback      string   `json:"feedback"`
	Completed     bool     `json:"completed"`
	NextQuestion  string   `json:"nextQuestion,omitempty"`
	QuestionIndex int      `json:"questionIndex,omitempty"`
	Summary       *Summary `json:"summary,omitempty"`
}

// VideoRoom describes the video call channel of an interview
type VideoRoom struct {
	AppID   string `json:"appId"`
	Channel string `json:"channel"`
}
