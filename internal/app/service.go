package app

import (
	"context"
	"log"

	"quiz-live-service/internal/domain"
)

// RoomStore abstracts the process-wide code-to-room mapping (in-memory,
// Redis-marked, etc). PutIfAbsent must be atomic so concurrent creates with
// a colliding code cannot both win.
type RoomStore interface {
	PutIfAbsent(code string, room *Room) bool
	Get(code string) (*Room, bool)
	Delete(code string)
}

// SnapshotRepository loads immutable quiz snapshots (from cache/backing store).
type SnapshotRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// GameRecorder mirrors live sessions into durable storage. All writes are
// best-effort: the game never stalls on storage. A nil hostUserID or userID
// records a guest.
type GameRecorder interface {
	CreateGame(ctx context.Context, quizID int64, hostUserID *int64) (int64, error)
	CreateGamePlayer(ctx context.Context, gameID int64, userID *int64, guestName string, isHost bool, score float64) (int64, error)
	UpdatePlayerScore(ctx context.Context, playerID int64, score float64) error
	FinishGame(ctx context.Context, gameID int64) error
}

// GameService drives the multiplayer session engine: room lifecycle, phase
// transitions, answer intake and scoring, host migration, persistence sync.
type GameService struct {
	registry  *Registry
	rooms     RoomStore
	snapshots SnapshotRepository
	recorder  GameRecorder
}

func NewGameService(registry *Registry, rooms RoomStore, snapshots SnapshotRepository, recorder GameRecorder) *GameService {
	return &GameService{registry: registry, rooms: rooms, snapshots: snapshots, recorder: recorder}
}

// Connect resolves a connection to its stable participant identity.
func (s *GameService) Connect(conn Conn, token, name string, userID *int64) *Participant {
	return s.registry.Resolve(conn, token, name, userID)
}

// CreateRoom registers a fresh room with the initiator as sole participant
// and host, then loads the quiz snapshot when a quiz was requested. Creation
// itself cannot fail; a snapshot-load miss leaves the room quizless and the
// host retries quiz selection.
func (s *GameService) CreateRoom(ctx context.Context, p *Participant, quizID *int64) string {
	if prev := s.registry.roomOf(p); prev != nil {
		s.departRoom(prev, p, nil)
	}

	var room *Room
	for {
		code := newRoomCode()
		room = newRoom(code)
		if s.rooms.PutIfAbsent(code, room) {
			break
		}
		log.Printf("room code %s collides with a live room, regenerating", code)
	}
	s.registry.setRoom(p, room)

	room.mu.Lock()
	room.addParticipantLocked(p, true)
	conn := p.conn
	if conn != nil {
		conn.Send(Event{Type: EventRoomCreated, Payload: RoomPayload{Code: room.code}})
	}
	room.broadcastLocked(Event{Type: EventPlayers, Payload: room.playersLocked()})
	room.mu.Unlock()
	log.Printf("room %s created by %s (%s)", room.code, p.name, p.Token)

	if quizID != nil {
		if err := s.SetQuiz(ctx, p, *quizID); err != nil {
			log.Printf("room %s: initial quiz %d load failed: %v", room.code, *quizID, err)
			if conn != nil {
				conn.Send(Event{Type: EventError, Payload: ErrorPayload{Message: err.Error()}})
			}
		}
	}
	return room.code
}

// JoinRoom admits a participant into a waiting room. Joining is rejected once
// play has started; there is no mid-game admission.
func (s *GameService) JoinRoom(p *Participant, code string) error {
	room, ok := s.rooms.Get(code)
	if !ok {
		return domain.ErrRoomNotFound
	}
	if prev := s.registry.roomOf(p); prev != nil {
		if prev == room {
			// Already a member; echo the join instead of duplicating the record.
			room.mu.Lock()
			conn := p.conn
			quiz := room.quiz
			room.mu.Unlock()
			if conn != nil {
				conn.Send(Event{Type: EventRoomJoined, Payload: RoomPayload{Code: code}})
				if quiz != nil {
					conn.Send(Event{Type: EventQuiz, Payload: quiz})
				}
			}
			return nil
		}
		s.departRoom(prev, p, nil)
	}

	room.mu.Lock()
	if room.closed {
		// Destroyed between the store lookup and taking the lock.
		room.mu.Unlock()
		return domain.ErrRoomNotFound
	}
	if room.phase != domain.PhaseWaiting {
		room.mu.Unlock()
		return domain.ErrRoomAlreadyStarted
	}
	room.addParticipantLocked(p, false)
	quiz := room.quiz
	conn := p.conn
	room.broadcastLocked(Event{Type: EventPlayers, Payload: room.playersLocked()})
	room.mu.Unlock()
	s.registry.setRoom(p, room)

	if conn != nil {
		conn.Send(Event{Type: EventRoomJoined, Payload: RoomPayload{Code: code}})
		if quiz != nil {
			conn.Send(Event{Type: EventQuiz, Payload: quiz})
		}
	}
	log.Printf("room %s: %s (%s) joined", code, p.name, p.Token)
	return nil
}

// SetQuiz replaces the room's snapshot and derives a fresh randomized
// question order. Only the host of an existing room may select a quiz.
func (s *GameService) SetQuiz(ctx context.Context, p *Participant, quizID int64) error {
	room := s.registry.roomOf(p)
	if room == nil {
		return domain.ErrNotHost
	}
	room.mu.Lock()
	isHost := p.host
	room.mu.Unlock()
	if !isHost {
		return domain.ErrNotHost
	}

	// Snapshot loading is a suspension point and runs outside the room lock.
	quiz, err := s.snapshots.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.ErrQuizNotFound
	}

	room.mu.Lock()
	room.installQuizLocked(&quiz)
	room.broadcastLocked(Event{Type: EventQuiz, Payload: &quiz})
	room.mu.Unlock()
	log.Printf("room %s: quiz %d set (%d questions)", room.code, quiz.ID, len(quiz.Questions))
	return nil
}

// GetQuiz echoes the current snapshot to the requester only. Silently ignored
// when the participant is roomless or no quiz is loaded.
func (s *GameService) GetQuiz(p *Participant) {
	room := s.registry.roomOf(p)
	if room == nil {
		return
	}
	room.mu.Lock()
	quiz := room.quiz
	conn := p.conn
	room.mu.Unlock()
	if quiz != nil && conn != nil {
		conn.Send(Event{Type: EventQuiz, Payload: quiz})
	}
}

// Advance is the central transition: it starts play, steps to the next
// question, or finishes the session. Advancing a finished room is a silent
// no-op. The leaderboard for the round just completed (all zero on start) is
// broadcast before every transition, and answered flags reset with it.
func (s *GameService) Advance(ctx context.Context, p *Participant) error {
	room := s.registry.roomOf(p)
	if room == nil {
		return domain.ErrNotHost
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if !p.host {
		return domain.ErrNotHost
	}
	if room.quiz == nil {
		return domain.ErrNoQuizLoaded
	}
	if room.phase == domain.PhaseFinished {
		return nil
	}

	room.broadcastLocked(Event{Type: EventLeaderboard, Payload: room.leaderboardLocked()})
	room.resetAnsweredLocked()

	switch {
	case room.phase == domain.PhaseWaiting:
		room.phase = domain.PhasePlaying
		room.cursor = 0
		room.broadcastLocked(Event{Type: EventState, Payload: room.statePayloadLocked()})
		quizID := room.quiz.ID
		hostUserID := p.userID
		members := append([]*Participant(nil), room.participants...)
		go s.persistSessionStart(room, quizID, hostUserID, members)
		log.Printf("room %s: game started with %d questions", room.code, len(room.order))

	case room.cursor < len(room.order)-1:
		room.cursor++
		room.broadcastLocked(Event{Type: EventState, Payload: room.statePayloadLocked()})

	default:
		room.phase = domain.PhaseFinished
		room.broadcastLocked(Event{Type: EventState, Payload: room.statePayloadLocked()})
		gameID := room.gameID
		finals := make([]playerFinal, 0, len(room.participants))
		for _, member := range room.participants {
			finals = append(finals, playerFinal{recordID: member.playerRecordID, score: member.score})
		}
		go s.persistSessionEnd(room.code, gameID, finals)
		log.Printf("room %s: game finished", room.code)
	}
	return nil
}

// SubmitAnswer records a participant's pick, rebroadcasts the live answer
// distribution, and applies the point award. The returned bool is false when
// the submission was ignored (roomless, not playing, bad question index);
// ignored submissions produce no events.
func (s *GameService) SubmitAnswer(p *Participant, questionIdx int, answerID int64) (float64, bool) {
	room := s.registry.roomOf(p)
	if room == nil {
		return 0, false
	}

	room.mu.Lock()
	if room.phase != domain.PhasePlaying || room.quiz == nil ||
		questionIdx < 0 || questionIdx >= len(room.quiz.Questions) {
		room.mu.Unlock()
		return 0, false
	}

	// Last write per question wins: answers may change until the round closes.
	p.answers[questionIdx] = answerID
	p.answered = true
	room.broadcastLocked(Event{Type: EventDistribution, Payload: room.distributionLocked(questionIdx)})

	question := room.quiz.Questions[questionIdx]
	unit := pointUnit(question)
	var chosen *domain.Answer
	for i := range question.Answers {
		if question.Answers[i].ID == answerID {
			chosen = &question.Answers[i]
			break
		}
	}

	awarded := 0.0
	if chosen != nil && chosen.Correct {
		p.score += unit
		awarded = unit
	} else if question.NegativePoints {
		p.score -= unit
	}

	recordID := p.playerRecordID
	score := p.score
	code := room.code
	room.mu.Unlock()

	if recordID != 0 {
		go func() {
			if err := s.recorder.UpdatePlayerScore(context.Background(), recordID, score); err != nil {
				log.Printf("room %s: score update for player record %d failed: %v", code, recordID, err)
			}
		}()
	}
	return awarded, true
}

// SetName updates the display name and refreshes the participant list.
func (s *GameService) SetName(p *Participant, name string) {
	if name == "" {
		return
	}
	room := s.registry.roomOf(p)
	if room == nil {
		s.registry.mu.Lock()
		p.name = name
		s.registry.mu.Unlock()
		return
	}
	room.mu.Lock()
	p.name = name
	room.broadcastLocked(Event{Type: EventPlayers, Payload: room.playersLocked()})
	room.mu.Unlock()
}

// Disconnect removes the participant behind a closed connection. A stale
// disconnect (the token already re-attached on a newer connection) is ignored
// so reconnects never tear down live state.
func (s *GameService) Disconnect(p *Participant, conn Conn) {
	if p == nil {
		return
	}
	room := s.registry.roomOf(p)
	if room == nil {
		if s.registry.detachIfCurrent(p, conn) {
			s.registry.Forget(p.Token)
		}
		return
	}
	if !s.departRoom(room, p, conn) {
		return
	}
	s.registry.Forget(p.Token)
	log.Printf("room %s: %s (%s) disconnected", room.code, p.name, p.Token)
}

// departRoom removes p from room, migrating host privilege to the earliest
// joined remaining participant or destroying the room when it empties. When
// requireConn is non-nil the removal only proceeds if it is still p's
// attached handle.
func (s *GameService) departRoom(room *Room, p *Participant, requireConn Conn) bool {
	room.mu.Lock()
	if requireConn != nil && p.conn != requireConn {
		room.mu.Unlock()
		return false
	}
	conn := p.conn
	wasHost := room.removeParticipantLocked(p)
	room.broadcastLocked(Event{Type: EventPlayers, Payload: room.playersLocked()})

	destroyed := false
	if wasHost {
		if len(room.participants) > 0 {
			next := room.participants[0]
			next.host = true
			room.host = next
			room.broadcastLocked(Event{Type: EventHostChanged, Payload: HostChangedPayload{ID: next.Token, Name: next.name}})
			log.Printf("room %s: host left, privilege moved to %s (%s)", room.code, next.name, next.Token)
		} else {
			destroyed = true
			room.closed = true
		}
	}
	room.mu.Unlock()

	s.registry.setRoom(p, nil)
	if destroyed {
		s.rooms.Delete(room.code)
		if conn != nil {
			conn.Send(Event{Type: EventRoomClosed})
		}
		log.Printf("room %s destroyed, last participant left", room.code)
	}
	return true
}

type playerFinal struct {
	recordID int64
	score    float64
}

// persistSessionStart creates the game row and one player row per member.
// Runs off the hot path; failures are logged and the live game continues.
func (s *GameService) persistSessionStart(room *Room, quizID int64, hostUserID *int64, members []*Participant) {
	ctx := context.Background()
	gameID, err := s.recorder.CreateGame(ctx, quizID, hostUserID)
	if err != nil {
		log.Printf("room %s: game record create failed: %v", room.code, err)
		return
	}
	room.mu.Lock()
	room.gameID = gameID
	room.mu.Unlock()

	for _, member := range members {
		room.mu.Lock()
		userID := member.userID
		name := member.name
		isHost := member.host
		score := member.score
		room.mu.Unlock()

		recordID, err := s.recorder.CreateGamePlayer(ctx, gameID, userID, name, isHost, score)
		if err != nil {
			log.Printf("room %s: player record create for %s failed: %v", room.code, member.Token, err)
			continue
		}
		room.mu.Lock()
		member.playerRecordID = recordID
		room.mu.Unlock()
	}
}

// persistSessionEnd stamps the game finished and writes final scores.
func (s *GameService) persistSessionEnd(code string, gameID int64, finals []playerFinal) {
	ctx := context.Background()
	if gameID == 0 {
		log.Printf("room %s: session-start write never landed, final scores not persisted", code)
		return
	}
	if err := s.recorder.FinishGame(ctx, gameID); err != nil {
		log.Printf("room %s: game finish stamp failed: %v", code, err)
	}
	for _, final := range finals {
		if final.recordID == 0 {
			continue
		}
		if err := s.recorder.UpdatePlayerScore(ctx, final.recordID, final.score); err != nil {
			log.Printf("room %s: final score for player record %d failed: %v", code, final.recordID, err)
		}
	}
}
