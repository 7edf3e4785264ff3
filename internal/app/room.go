package app

import (
	"math/rand"
	"sync"

	"quiz-live-service/internal/domain"
)

// Room is one live game session. Each room has its own lock so unrelated
// games never serialize against each other; every consult-then-mutate
// sequence on room state runs under it. Broadcasts only enqueue onto
// per-connection buffers, so holding the lock across them is safe.
type Room struct {
	code string

	mu           sync.Mutex
	phase        domain.Phase
	quiz         *domain.Quiz
	order        []int
	cursor       int
	host         *Participant
	participants []*Participant // join order, earliest first
	closed       bool           // destroyed and deleted from the store

	// gameID references the persisted game row, zero until the session-start
	// write lands.
	gameID int64
}

func newRoom(code string) *Room {
	return &Room{
		code:   code,
		phase:  domain.PhaseWaiting,
		cursor: -1,
	}
}

// Code returns the room's join code.
func (r *Room) Code() string { return r.code }

// Phase returns the current lifecycle phase.
func (r *Room) Phase() domain.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// installQuizLocked replaces the snapshot wholesale and derives a fresh
// uniform random permutation of question indices. Any previous order and
// cursor are discarded.
func (r *Room) installQuizLocked(quiz *domain.Quiz) {
	r.quiz = quiz
	r.cursor = -1
	if quiz == nil {
		r.order = nil
		return
	}
	r.order = rand.Perm(len(quiz.Questions))
}

func (r *Room) addParticipantLocked(p *Participant, host bool) {
	p.host = host
	// Joiners start answered so they cannot score against a round they did
	// not see open; flags reset on the next advance.
	p.answered = true
	r.participants = append(r.participants, p)
	if host {
		r.host = p
	}
}

// removeParticipantLocked drops p from the member list and reports whether
// the departing participant held host privilege.
func (r *Room) removeParticipantLocked(p *Participant) (wasHost bool) {
	for i, member := range r.participants {
		if member == p {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			break
		}
	}
	return r.host == p
}

// findLocked matches a connection to its participant record, if any.
func (r *Room) findLocked(conn Conn) *Participant {
	for _, p := range r.participants {
		if p.conn == conn {
			return p
		}
	}
	return nil
}

func (r *Room) playersLocked() []domain.PlayerInfo {
	list := make([]domain.PlayerInfo, 0, len(r.participants))
	for _, p := range r.participants {
		list = append(list, domain.PlayerInfo{ID: p.Token, Name: p.name, Host: p.host})
	}
	return list
}

// broadcastLocked enqueues an event to every member's connection.
func (r *Room) broadcastLocked(ev Event) {
	for _, p := range r.participants {
		if p.conn != nil {
			p.conn.Send(ev)
		}
	}
}

func (r *Room) resetAnsweredLocked() {
	for _, p := range r.participants {
		p.answered = false
	}
}

// statePayloadLocked builds the push for the current phase and cursor. The
// question index travels through the randomized order; position is 1-based.
func (r *Room) statePayloadLocked() StatePayload {
	payload := StatePayload{Phase: r.phase}
	if r.phase == domain.PhasePlaying && r.cursor >= 0 && r.cursor < len(r.order) {
		question := r.order[r.cursor]
		position := r.cursor + 1
		payload.Question = &question
		payload.Position = &position
	}
	return payload
}
