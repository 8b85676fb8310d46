package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/terra-clan/interview-engine/internal/interview"
	"github.com/terra-clan/interview-engine/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Live channel message types
const (
	liveQuestion   = "question"
	liveAnswer     = "answer"
	liveEvaluation = "evaluation"
	liveCompleted  = "completed"
	liveTerminate  = "terminate"
	liveTerminated = "terminated"
	liveError      = "error"
)

// LiveMessage is exchanged over the live interview websocket
type LiveMessage struct {
	Type          string          `json:"type"`
	QuestionIndex int             `json:"questionIndex"`
	Question      string          `json:"question,omitempty"`
	Text          string          `json:"text,omitempty"`
	Score         int             `json:"score,omitempty"`
	Feedback      string          `json:"feedback,omitempty"`
	Summary       *models.Summary `json:"summary,omitempty"`
	Error         string          `json:"error,omitempty"`
}

func (s *Server) handleLiveWS(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	detail, err := s.manager.GetInterview(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err, "get interview")
		return
	}
	iv := detail.Interview
	if iv.Status.IsTerminal() || !iv.HasQuestion(iv.CurrentQuestionIndex) {
		respondValidation(w, "id", "interview is "+string(iv.Status))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("live interview connected", "interview_id", id)

	// The connection outlives any deadline on the upgrade request
	ctx := context.WithoutCancel(r.Context())

	if err := s.sendLiveMessage(conn, LiveMessage{
		Type:          liveQuestion,
		QuestionIndex: iv.CurrentQuestionIndex,
		Question:      iv.Questions[iv.CurrentQuestionIndex],
	}); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			break
		}

		var msg LiveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendLiveError(conn, "invalid message format")
			continue
		}

		done, err := s.handleLiveMessage(ctx, conn, id, msg)
		if err != nil || done {
			break
		}
	}

	slog.Info("live interview disconnected", "interview_id", id)
}

// handleLiveMessage processes one client message and reports whether the
// channel is finished
func (s *Server) handleLiveMessage(ctx context.Context, conn *websocket.Conn, id int64, msg LiveMessage) (bool, error) {
	switch msg.Type {
	case liveAnswer:
		resp, err := s.manager.SubmitAnswer(ctx, id, msg.QuestionIndex, msg.Text)
		if err != nil {
			return false, s.sendLiveError(conn, liveErrorMessage(err))
		}

		if err := s.sendLiveMessage(conn, LiveMessage{
			Type:          liveEvaluation,
			QuestionIndex: msg.QuestionIndex,
			Score:         resp.Score,
			Feedback:      resp.Feedback,
		}); err != nil {
			return false, err
		}

		if resp.Completed {
			return true, s.sendLiveMessage(conn, LiveMessage{
				Type:          liveCompleted,
				QuestionIndex: msg.QuestionIndex,
				Summary:       resp.Summary,
			})
		}
		return false, s.sendLiveMessage(conn, LiveMessage{
			Type:          liveQuestion,
			QuestionIndex: resp.QuestionIndex,
			Question:      resp.NextQuestion,
		})

	case liveTerminate:
		if err := s.manager.TerminateInterview(ctx, id); err != nil {
			return false, s.sendLiveError(conn, liveErrorMessage(err))
		}
		return true, s.sendLiveMessage(conn, LiveMessage{Type: liveTerminated})

	default:
		return false, s.sendLiveError(conn, "unknown message type: "+msg.Type)
	}
}

// liveErrorMessage exposes validation and lookup failures only
func liveErrorMessage(err error) string {
	var verr *interview.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, interview.ErrNotFound):
		return "interview not found"
	}
	slog.Error("live interview operation failed", "error", err)
	return "internal server error"
}

func (s *Server) sendLiveMessage(conn *websocket.Conn, msg LiveMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal live message", "error", err)
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Debug("failed to send live message", "error", err)
		return err
	}
	return nil
}

func (s *Server) sendLiveError(conn *websocket.Conn, message string) error {
	return s.sendLiveMessage(conn, LiveMessage{
		Type:  liveError,
		Error: message,
	})
}
