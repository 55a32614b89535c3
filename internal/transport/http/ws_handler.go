package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"framequiz-service/internal/app"
	"github.com/gorilla/websocket"
)

// WSHandler lets a client play a game over one websocket connection: it
// pushes the current game state on connect, accepts answer messages, and
// replies with the answer outcome and refreshed state.
type WSHandler struct {
	service  *app.GameService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.GameService) *WSHandler {
	return &WSHandler{
		service: service,
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

type answerPayload struct {
	Ord         int `json:"ord"`
	AnswerIndex int `json:"answerIndex"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs the play loop for one game.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(r.URL.Query().Get("gameId"), 10, 64)
	if err != nil {
		http.Error(w, "missing or invalid gameId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	state, err := h.service.GameState(r.Context(), gameID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	if err := conn.WriteJSON(outboundMessage[any]{Type: "state", Payload: state}); err != nil {
		return
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid answer payload")
				continue
			}
			result, err := h.service.SubmitAnswer(r.Context(), gameID, payload.Ord, payload.AnswerIndex)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "answerResult", Payload: result}); err != nil {
				return
			}
			state, err := h.service.GameState(r.Context(), gameID)
			if err != nil {
				h.sendError(conn, err.Error())
				continue
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "state", Payload: state}); err != nil {
				return
			}
		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: message}}); err != nil {
		log.Printf("ws write error: %v", err)
	}
}
