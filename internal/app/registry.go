package app

import (
	"sync"

	"github.com/google/uuid"
)

// Participant is one player or host identity. It outlives any single
// connection: reconnects matched by Token re-attach to the same record, so
// score and answer history survive a network swap. All fields except Token
// are guarded by the owning room's lock once the participant is in a room.
type Participant struct {
	Token string

	name     string
	conn     Conn
	host     bool
	answered bool
	score    float64
	// answers is sparse, keyed by question index into the quiz snapshot.
	// Last write per index wins, supporting answer changes before the round
	// closes.
	answers map[int]int64

	// userID is the optional persisted-user reference from the handshake.
	userID *int64
	// playerRecordID references the persisted session-player row, zero until
	// the fire-and-forget session-start write lands.
	playerRecordID int64

	room *Room
}

// Name returns the current display name.
func (p *Participant) Name() string { return p.name }

// IsHost reports whether the participant currently holds host privilege.
func (p *Participant) IsHost() bool { return p.host }

// Score returns the accumulated score.
func (p *Participant) Score() float64 { return p.score }

// Registry resolves connections to stable participant identities and tracks
// which room each identity currently occupies.
type Registry struct {
	mu      sync.Mutex
	byToken map[string]*Participant
}

func NewRegistry() *Registry {
	return &Registry{byToken: make(map[string]*Participant)}
}

// Resolve attaches a connection to its participant. A known token re-attaches
// to the existing record: the connection handle is replaced and the answered
// flag is left alone, so a rejoin cannot score twice in the same round. An
// unknown (or absent) token mints a fresh roomless identity and announces it
// on the connection.
func (r *Registry) Resolve(conn Conn, token, name string, userID *int64) *Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token != "" {
		if existing, ok := r.byToken[token]; ok {
			if room := existing.room; room != nil {
				room.mu.Lock()
				existing.conn = conn
				room.mu.Unlock()
			} else {
				existing.conn = conn
			}
			return existing
		}
	}

	if token == "" {
		token = uuid.NewString()
	}
	if name == "" {
		name = newGuestName()
	}
	p := &Participant{
		Token:   token,
		name:    name,
		conn:    conn,
		answers: make(map[int]int64),
		userID:  userID,
	}
	r.byToken[token] = p
	conn.Send(Event{Type: EventConnected, Payload: ConnectedPayload{ID: p.Token, Name: p.name}})
	return p
}

// Forget drops an identity, typically after its final disconnect.
func (r *Registry) Forget(token string) {
	r.mu.Lock()
	delete(r.byToken, token)
	r.mu.Unlock()
}

// Lookup returns the participant for a token, if any.
func (r *Registry) Lookup(token string) (*Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byToken[token]
	return p, ok
}

// setRoom records p's current room membership. Lock order is registry before
// room: the registry lock is never taken while a room lock is held.
func (r *Registry) setRoom(p *Participant, room *Room) {
	r.mu.Lock()
	p.room = room
	r.mu.Unlock()
}

func (r *Registry) roomOf(p *Participant) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	return p.room
}

// detachIfCurrent clears a roomless participant's connection, but only when
// conn is still the attached handle. A false return means a reconnect already
// superseded this connection and the disconnect is stale.
func (r *Registry) detachIfCurrent(p *Participant, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.conn != conn {
		return false
	}
	p.conn = nil
	return true
}
