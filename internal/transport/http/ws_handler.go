package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quizify-engine/internal/app"
)

// WSHandler streams a live session over a websocket: timer ticks out, user
// actions in. The countdown stays the sole time authority; the handler only
// reads it.
type WSHandler struct {
	service      *app.QuizService
	upgrader     websocket.Upgrader
	tickInterval time.Duration
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		tickInterval: time.Second,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type tickPayload struct {
	Remaining int    `json:"remainingSeconds"`
	Formatted string `json:"formattedTime"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	session, err := h.service.Session(quizID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	tickerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(tickerDone)
		ticker := time.NewTicker(h.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case send <- outboundMessage[any]{Type: "tick", Payload: tickPayload{
					Remaining: session.Remaining(),
					Formatted: session.Formatted(),
				}}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "state", Payload: newStateView(session)}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if done := h.handleMessage(r, quizID, inbound, send); done {
			break
		}
	}

	close(closeSignals)
	<-tickerDone
	close(send)
	<-writerDone
}

// handleMessage applies one inbound action and reports whether the
// connection should wind down (after submit).
func (h *WSHandler) handleMessage(r *http.Request, quizID string, inbound inboundMessage, send chan outboundMessage[any]) bool {
	session, err := h.service.Session(quizID)
	if err != nil {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
		return true
	}

	switch inbound.Type {
	case "answer":
		var payload struct {
			Option string `json:"option"`
		}
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
			return false
		}
		session.SelectAnswer(payload.Option)
	case "goto":
		var payload struct {
			Index int `json:"index"`
		}
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid goto payload"}}
			return false
		}
		session.GoTo(payload.Index)
	case "next":
		session.Next()
	case "previous":
		session.Previous()
	case "review":
		session.ToggleReview()
	case "submit":
		summary, err := h.service.Submit(r.Context(), quizID)
		if err != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
			return false
		}
		send <- outboundMessage[any]{Type: "submitted", Payload: summary}
		return true
	default:
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		return false
	}

	if err := h.service.SaveProgress(r.Context(), quizID); err != nil {
		log.Printf("save progress failed for %s: %v", quizID, err)
	}
	send <- outboundMessage[any]{Type: "state", Payload: newStateView(session)}
	return false
}
