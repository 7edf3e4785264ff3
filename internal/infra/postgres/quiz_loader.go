package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-live-service/internal/domain"
)

// QuizLoader loads quiz snapshots from the relational schema shared with the
// authoring layer: one quiz row, its questions in order, their answers.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID int64) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := l.pool.QueryRow(ctx,
		`SELECT id, title, COALESCE(description, '') FROM quizzes WHERE id=$1`,
		quizID,
	).Scan(&quiz.ID, &quiz.Title, &quiz.Description)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}

	rows, err := l.pool.Query(ctx,
		`SELECT id, content, max_points, partial_points, negative_points
		 FROM questions WHERE quiz_id=$1 ORDER BY id`,
		quizID,
	)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	index := make(map[int64]int)
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.Content, &q.MaxPoints, &q.PartialPoints, &q.NegativePoints); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan question: %w", err)
		}
		index[q.ID] = len(quiz.Questions)
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("iterate questions: %w", err)
	}

	answerRows, err := l.pool.Query(ctx,
		`SELECT a.id, a.question_id, a.content, a.is_correct
		 FROM answers a JOIN questions q ON q.id = a.question_id
		 WHERE q.quiz_id=$1 ORDER BY a.id`,
		quizID,
	)
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load answers: %w", err)
	}
	defer answerRows.Close()

	for answerRows.Next() {
		var a domain.Answer
		var questionID int64
		if err := answerRows.Scan(&a.ID, &questionID, &a.Content, &a.Correct); err != nil {
			return domain.Quiz{}, fmt.Errorf("scan answer: %w", err)
		}
		if i, ok := index[questionID]; ok {
			quiz.Questions[i].Answers = append(quiz.Questions[i].Answers, a)
		}
	}
	if err := answerRows.Err(); err != nil {
		return domain.Quiz{}, fmt.Errorf("iterate answers: %w", err)
	}
	return quiz, nil
}
