package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// GameRecorder mirrors live sessions into the games / game_players tables.
// Callers treat every write as best-effort; errors are returned for logging
// only and never reach the room.
type GameRecorder struct {
	pool *pgxpool.Pool
}

func NewGameRecorder(pool *pgxpool.Pool) *GameRecorder {
	return &GameRecorder{pool: pool}
}

func (r *GameRecorder) CreateGame(ctx context.Context, quizID int64, hostUserID *int64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO games (quiz_id, host_id, started_at) VALUES ($1, $2, now()) RETURNING id`,
		quizID, hostUserID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create game: %w", err)
	}
	return id, nil
}

func (r *GameRecorder) CreateGamePlayer(ctx context.Context, gameID int64, userID *int64, guestName string, isHost bool, score float64) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO game_players (game_id, user_id, guest_name, is_host, score, played_at)
		 VALUES ($1, $2, $3, $4, $5, now()) RETURNING id`,
		gameID, userID, guestName, isHost, score,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create game player: %w", err)
	}
	return id, nil
}

func (r *GameRecorder) UpdatePlayerScore(ctx context.Context, playerID int64, score float64) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE game_players SET score=$2 WHERE id=$1`,
		playerID, score,
	); err != nil {
		return fmt.Errorf("update player score: %w", err)
	}
	return nil
}

func (r *GameRecorder) FinishGame(ctx context.Context, gameID int64) error {
	if _, err := r.pool.Exec(ctx,
		`UPDATE games SET finished_at=now() WHERE id=$1`,
		gameID,
	); err != nil {
		return fmt.Errorf("finish game: %w", err)
	}
	return nil
}
