package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"silicon-lab-service/internal/app"
	"silicon-lab-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// GameHandler runs the student game channel: one websocket per
// (classroom, nickname), carrying user intents in and session state out.
type GameHandler struct {
	service  *app.GameService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewGameHandler(service *app.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startTaskPayload struct {
	Kind domain.TaskKind `json:"kind"`
}

type demoSpeedPayload struct {
	Enabled bool `json:"enabled"`
}

type answerPayload struct {
	QuestionID int `json:"questionId"`
	Option     int `json:"option"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type joinedPayload struct {
	Classroom domain.Classroom   `json:"classroom"`
	Resumed   bool               `json:"resumed"`
	Session   domain.GameSession `json:"session"`
}

type promotionPayload struct {
	Eligible   bool                `json:"eligible"`
	Session    *domain.GameSession `json:"session,omitempty"`
	Assessment *domain.Question    `json:"assessment,omitempty"`
}

// ServeGame upgrades HTTP requests to websockets and wires them into the lab
// use cases. The server drives the task countdown: while a task is running a
// one-second ticker advances it and streams the remaining time.
func (h *GameHandler) ServeGame(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	nickname := r.URL.Query().Get("nickname")
	if code == "" || nickname == "" {
		http.Error(w, "missing code or nickname", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := r.Context()
	classroom, resumed, err := h.service.Join(ctx, code, nickname)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	session, err := h.service.Session(ctx, code, nickname)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	done := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	// single writer goroutine; gorilla connections reject concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	// opMu serializes service calls between the read loop and the countdown
	// ticker so a tick never clobbers a concurrent user action.
	var opMu sync.Mutex

	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				opMu.Lock()
				current, err := h.service.Session(ctx, code, nickname)
				if err != nil || current.Task == nil {
					opMu.Unlock()
					continue
				}
				updated, completed, err := h.service.Advance(ctx, code, nickname, 1)
				opMu.Unlock()
				if err != nil {
					continue
				}
				if completed {
					h.push(send, done, "session", updated)
				} else {
					h.push(send, done, "task", updated.Task)
				}
			case <-done:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{Classroom: classroom, Resumed: resumed, Session: session}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		opMu.Lock()
		h.handleIntent(ctx, send, done, code, nickname, inbound)
		opMu.Unlock()
	}

	close(done)
	<-tickerDone
	close(send)
	<-writerDone
}

func (h *GameHandler) handleIntent(ctx context.Context, send chan outboundMessage[any], done chan struct{}, code, nickname string, inbound inboundMessage) {
	switch inbound.Type {
	case "buyMaterials":
		h.sessionReply(ctx, send, done, code, nickname, func() (domain.GameSession, error) {
			return h.service.BuyMaterials(ctx, code, nickname)
		})
	case "startTask":
		var payload startTaskPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.push(send, done, "error", errorPayload{Message: "invalid startTask payload"})
			return
		}
		h.sessionReply(ctx, send, done, code, nickname, func() (domain.GameSession, error) {
			return h.service.StartTask(ctx, code, nickname, payload.Kind)
		})
	case "demoSpeed":
		var payload demoSpeedPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.push(send, done, "error", errorPayload{Message: "invalid demoSpeed payload"})
			return
		}
		h.sessionReply(ctx, send, done, code, nickname, func() (domain.GameSession, error) {
			return h.service.SetDemoSpeed(ctx, code, nickname, payload.Enabled)
		})
	case "cut":
		h.sessionReply(ctx, send, done, code, nickname, func() (domain.GameSession, error) {
			return h.service.CutIngots(ctx, code, nickname)
		})
	case "sell":
		h.sessionReply(ctx, send, done, code, nickname, func() (domain.GameSession, error) {
			return h.service.SellChips(ctx, code, nickname)
		})
	case "quiz":
		question, err := h.service.DrawQuestion(ctx, code, nickname)
		if err != nil {
			h.push(send, done, "error", errorPayload{Message: err.Error()})
			return
		}
		h.push(send, done, "question", question)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			h.push(send, done, "error", errorPayload{Message: "invalid answer payload"})
			return
		}
		session, outcome, err := h.service.SubmitAnswer(ctx, code, nickname, payload.QuestionID, payload.Option)
		if err != nil {
			h.push(send, done, "error", errorPayload{Message: err.Error()})
			return
		}
		h.push(send, done, "answerResult", outcome)
		h.push(send, done, "session", session)
	case "promotionCheck":
		eligible, err := h.service.PromotionEligible(ctx, code, nickname)
		if err != nil {
			h.push(send, done, "error", errorPayload{Message: err.Error()})
			return
		}
		h.push(send, done, "promotion", promotionPayload{Eligible: eligible})
	case "promote":
		session, assessment, err := h.service.Promote(ctx, code, nickname)
		if err != nil {
			h.push(send, done, "error", errorPayload{Message: err.Error()})
			return
		}
		h.push(send, done, "promotion", promotionPayload{Eligible: true, Session: &session, Assessment: &assessment})
	case "advanceStage":
		h.sessionReply(ctx, send, done, code, nickname, func() (domain.GameSession, error) {
			return h.service.AdvanceStage(ctx, code, nickname)
		})
	case "submit":
		result, err := h.service.SubmitResult(ctx, code, nickname)
		if err != nil {
			h.push(send, done, "error", errorPayload{Message: err.Error()})
			return
		}
		h.push(send, done, "result", result)
	default:
		h.push(send, done, "error", errorPayload{Message: "unsupported message type"})
	}
}

func (h *GameHandler) sessionReply(_ context.Context, send chan outboundMessage[any], done chan struct{}, _, _ string, op func() (domain.GameSession, error)) {
	session, err := op()
	if err != nil {
		h.push(send, done, "error", errorPayload{Message: err.Error()})
		return
	}
	h.push(send, done, "session", session)
}

func (h *GameHandler) push(send chan outboundMessage[any], done chan struct{}, msgType string, payload any) {
	select {
	case send <- outboundMessage[any]{Type: msgType, Payload: payload}:
	case <-done:
	}
}
