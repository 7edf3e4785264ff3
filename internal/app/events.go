package app

import "quiz-live-service/internal/domain"

// Event is one server-to-client protocol message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Conn is the transport handle owned by a participant. Send must never block
// the caller; slow or dead connections are the transport's problem.
type Conn interface {
	Send(Event)
}

const (
	EventConnected    = "connected"
	EventRoomCreated  = "room:created"
	EventRoomJoined   = "room:joined"
	EventPlayers      = "players"
	EventQuiz         = "quiz"
	EventState        = "state"
	EventLeaderboard  = "leaderboard"
	EventDistribution = "distribution"
	EventAnswerResult = "answer:result"
	EventHostChanged  = "host:changed"
	EventRoomClosed   = "room:closed"
	EventError        = "error"
)

// ConnectedPayload announces a freshly minted identity to its connection.
type ConnectedPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomPayload carries a room code back to the requester.
type RoomPayload struct {
	Code string `json:"code"`
}

// StatePayload is pushed on every phase change and question advance. Question
// and Position are omitted in the finished phase.
type StatePayload struct {
	Phase    domain.Phase `json:"phase"`
	Question *int         `json:"question,omitempty"`
	Position *int         `json:"position,omitempty"`
}

// AnswerResultPayload reports the points awarded for one submission.
type AnswerResultPayload struct {
	Points float64 `json:"points"`
}

// HostChangedPayload announces a host migration.
type HostChangedPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ErrorPayload carries a human-readable rejection reason.
type ErrorPayload struct {
	Message string `json:"message"`
}
