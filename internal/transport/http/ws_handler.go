package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quiz-live-service/internal/app"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

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

type createPayload struct {
	QuizID *int64 `json:"quizId"`
}

type joinPayload struct {
	Code string `json:"code"`
}

type setQuizPayload struct {
	QuizID int64 `json:"quizId"`
}

type answerPayload struct {
	Question int   `json:"question"`
	AnswerID int64 `json:"answerId"`
}

type namePayload struct {
	Name string `json:"name"`
}

// client adapts one websocket connection into an app.Conn. Events are queued
// onto a buffered channel and written by a single pump, so the state machine
// never blocks on a slow socket and gorilla never sees concurrent writes.
type client struct {
	conn *websocket.Conn
	send chan app.Event
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan app.Event, 32),
		done: make(chan struct{}),
	}
}

// Send enqueues without blocking; a full buffer drops the event. Leaderboard
// and distribution pushes are rebroadcast on the next submission anyway.
func (c *client) Send(ev app.Event) {
	select {
	case <-c.done:
	case c.send <- ev:
	default:
		log.Printf("ws send buffer full, dropping %s event", ev.Type)
	}
}

func (c *client) shutdown() {
	c.once.Do(func() { close(c.done) })
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case ev := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// ServeWS upgrades the request and wires the connection into the game engine.
// Handshake query params: token (stable identity, minted when absent), name
// (generated when absent), userId (optional persisted-user reference).
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	name := r.URL.Query().Get("name")
	var userID *int64
	if raw := r.URL.Query().Get("userId"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			userID = &id
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	c := newClient(conn)
	go c.writePump()

	participant := h.service.Connect(c, token, name, userID)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error: %v", err)
			}
			break
		}
		h.dispatch(r, c, participant, inbound)
	}

	h.service.Disconnect(participant, c)
	c.shutdown()
}

func (h *WSHandler) dispatch(r *http.Request, c *client, participant *app.Participant, inbound inboundMessage) {
	switch inbound.Type {
	case "room:create":
		var payload createPayload
		if len(inbound.Payload) > 0 {
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				c.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: "invalid create payload"}})
				return
			}
		}
		h.service.CreateRoom(r.Context(), participant, payload.QuizID)

	case "room:join":
		var payload joinPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: "invalid join payload"}})
			return
		}
		if err := h.service.JoinRoom(participant, payload.Code); err != nil {
			c.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: err.Error()}})
		}

	case "quiz:set":
		var payload setQuizPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: "invalid quiz payload"}})
			return
		}
		if err := h.service.SetQuiz(r.Context(), participant, payload.QuizID); err != nil {
			c.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: err.Error()}})
		}

	case "quiz:get":
		h.service.GetQuiz(participant)

	case "game:advance":
		if err := h.service.Advance(r.Context(), participant); err != nil {
			c.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: err.Error()}})
		}

	case "game:answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: "invalid answer payload"}})
			return
		}
		if points, ok := h.service.SubmitAnswer(participant, payload.Question, payload.AnswerID); ok {
			c.Send(app.Event{Type: app.EventAnswerResult, Payload: app.AnswerResultPayload{Points: points}})
		}

	case "player:name":
		var payload namePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			c.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: "invalid name payload"}})
			return
		}
		h.service.SetName(participant, payload.Name)

	default:
		c.Send(app.Event{Type: app.EventError, Payload: app.ErrorPayload{Message: "unsupported message type"}})
	}
}
