package memory

import (
	"context"
	"sync"
	"time"
)

// GameRecord is one persisted game session.
type GameRecord struct {
	ID         int64
	QuizID     int64
	HostUserID *int64
	StartedAt  time.Time
	FinishedAt *time.Time
}

// PlayerRecord is one persisted session player.
type PlayerRecord struct {
	ID        int64
	GameID    int64
	UserID    *int64
	GuestName string
	IsHost    bool
	Score     float64
	PlayedAt  time.Time
}

// GameRecorder keeps game and player records in memory. It backs the demo
// mode (no Postgres configured) and lets tests assert on persistence sync.
type GameRecorder struct {
	mu      sync.Mutex
	nextID  int64
	games   map[int64]*GameRecord
	players map[int64]*PlayerRecord
}

func NewGameRecorder() *GameRecorder {
	return &GameRecorder{
		nextID:  1,
		games:   make(map[int64]*GameRecord),
		players: make(map[int64]*PlayerRecord),
	}
}

func (r *GameRecorder) CreateGame(_ context.Context, quizID int64, hostUserID *int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.games[id] = &GameRecord{ID: id, QuizID: quizID, HostUserID: hostUserID, StartedAt: time.Now()}
	return id, nil
}

func (r *GameRecorder) CreateGamePlayer(_ context.Context, gameID int64, userID *int64, guestName string, isHost bool, score float64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.players[id] = &PlayerRecord{
		ID:        id,
		GameID:    gameID,
		UserID:    userID,
		GuestName: guestName,
		IsHost:    isHost,
		Score:     score,
		PlayedAt:  time.Now(),
	}
	return id, nil
}

func (r *GameRecorder) UpdatePlayerScore(_ context.Context, playerID int64, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.players[playerID]; ok {
		record.Score = score
	}
	return nil
}

func (r *GameRecorder) FinishGame(_ context.Context, gameID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.games[gameID]; ok {
		now := time.Now()
		record.FinishedAt = &now
	}
	return nil
}

// Game returns a copy of a persisted game record, if present.
func (r *GameRecorder) Game(id int64) (GameRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record, ok := r.games[id]; ok {
		return *record, true
	}
	return GameRecord{}, false
}

// Players returns copies of all player records for a game.
func (r *GameRecorder) Players(gameID int64) []PlayerRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]PlayerRecord, 0)
	for _, record := range r.players {
		if record.GameID == gameID {
			out = append(out, *record)
		}
	}
	return out
}

// Games returns copies of all game records.
func (r *GameRecorder) Games() []GameRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]GameRecord, 0, len(r.games))
	for _, record := range r.games {
		out = append(out, *record)
	}
	return out
}
