// Package http exposes the quiz session over a WebSocket. The browser
// client (map and answer input UI) sends discrete events and renders the
// session snapshots pushed back.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	Country    string `json:"country"`
	Topic      string `json:"topic"`
	ClassLevel string `json:"classLevel"`
}

type topicsPayload struct {
	Country    string `json:"country"`
	ClassLevel string `json:"classLevel"`
}

type focusPayload struct {
	ItemID string `json:"itemId"`
}

type answerPayload struct {
	Text string `json:"text"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type sessionPayload struct {
	SessionID string `json:"sessionId"`
}

type topicListPayload struct {
	Topics []string `json:"topics"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the
// quiz use cases. One connection drives one session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	defer h.service.Drop(sessionID)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	pumpDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	// Snapshot updates start flowing once the session exists (after the
	// first start request); before that there is nothing to pump.
	var cancelUpdates func()
	startPump := func() {
		updates, cancel, err := h.service.Subscribe(sessionID)
		if err != nil {
			return
		}
		cancelUpdates = cancel
		go func() {
			defer close(pumpDone)
			for {
				select {
				case update, ok := <-updates:
					if !ok {
						return
					}
					select {
					case send <- outboundMessage[any]{Type: "state", Payload: update}:
					case <-closeSignals:
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
	}

	send <- outboundMessage[any]{Type: "session", Payload: sessionPayload{SessionID: sessionID}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.handleMessage(r, sessionID, inbound, send, &cancelUpdates, startPump)
	}

	close(closeSignals)
	if cancelUpdates != nil {
		cancelUpdates()
		<-pumpDone
	}
	close(send)
	<-writerDone
}

func (h *WSHandler) handleMessage(
	r *http.Request,
	sessionID string,
	inbound inboundMessage,
	send chan outboundMessage[any],
	cancelUpdates *func(),
	startPump func(),
) {
	ctx := r.Context()
	fail := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	switch inbound.Type {
	case "topics":
		var payload topicsPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid topics payload"))
			return
		}
		topics, err := h.service.SuggestTopics(ctx, payload.Country, payload.ClassLevel)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "topics", Payload: topicListPayload{Topics: topics}}

	case "start":
		var payload startPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid start payload"))
			return
		}
		snapshot, err := h.service.Start(ctx, sessionID, payload.Country, payload.Topic, payload.ClassLevel)
		if err != nil {
			fail(err)
			return
		}
		if *cancelUpdates == nil {
			startPump()
		}
		send <- outboundMessage[any]{Type: "state", Payload: snapshot}

	case "focus":
		var payload focusPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid focus payload"))
			return
		}
		_, err := h.service.Focus(sessionID, payload.ItemID)
		if err != nil && !errors.Is(err, domain.ErrItemAlreadyAnswered) {
			// Clicking an answered item is a silent no-op, like the map UI.
			fail(err)
		}

	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail(errors.New("invalid answer payload"))
			return
		}
		result, _, err := h.service.SubmitAnswer(ctx, sessionID, payload.Text)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "answerResult", Payload: result}

	case "cancel":
		if _, err := h.service.CancelAnswer(sessionID); err != nil {
			fail(err)
		}

	case "finish":
		summary, err := h.service.Finish(sessionID)
		if err != nil {
			fail(err)
			return
		}
		send <- outboundMessage[any]{Type: "summary", Payload: summary}

	case "restart":
		if _, err := h.service.Restart(sessionID); err != nil {
			fail(err)
		}

	default:
		fail(errors.New("unsupported message type"))
	}
}
