package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiz-live-service/internal/app"
	pgloader "quiz-live-service/internal/infra/postgres"
	pgmigrations "quiz-live-service/internal/infra/postgres/migrations"
	infraredis "quiz-live-service/internal/infra/redis"
)

func TestFullGameEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	quizID, correctAnswerID := seedQuiz(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := pgloader.NewQuizLoader(pool)
	snapshots := infraredis.NewQuizRepository(redisClient, loader, 5*time.Minute)
	rooms := infraredis.NewRoomStore(redisClient, 5*time.Minute)
	recorder := pgloader.NewGameRecorder(pool)
	service := app.NewGameService(app.NewRegistry(), rooms, snapshots, recorder)

	hostConn := &captureConn{}
	host := service.Connect(hostConn, "", "Alice", nil)
	code := service.CreateRoom(ctx, host, &quizID)
	if code == "" {
		t.Fatalf("expected a room code")
	}

	playerConn := &captureConn{}
	player := service.Connect(playerConn, "", "Bob", nil)
	if err := service.JoinRoom(player, code); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := service.Advance(ctx, host); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if points, ok := service.SubmitAnswer(player, 0, correctAnswerID); !ok || points != 10 {
		t.Fatalf("expected 10 points, got %v ok=%v", points, ok)
	}
	if err := service.Advance(ctx, host); err != nil {
		t.Fatalf("final advance: %v", err)
	}

	// Persistence is fire-and-forget; poll until the records land.
	deadline := time.Now().Add(10 * time.Second)
	for {
		var finished *time.Time
		var score float64
		err := pool.QueryRow(ctx,
			`SELECT g.finished_at, gp.score
			 FROM games g JOIN game_players gp ON gp.game_id = g.id
			 WHERE g.quiz_id=$1 AND gp.is_host = FALSE`,
			quizID,
		).Scan(&finished, &score)
		if err == nil && finished != nil && score == 10 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("game records never landed: err=%v finished=%v score=%v", err, finished, score)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

type captureConn struct {
	mu     sync.Mutex
	events []app.Event
}

func (c *captureConn) Send(ev app.Event) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

// seedQuiz migrates the schema and inserts one quiz with a single
// 10-point question. Returns the quiz id and its correct answer id.
func seedQuiz(t *testing.T, ctx context.Context, dsn string) (int64, int64) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	var quizID int64
	if err := db.QueryRowContext(ctx,
		`INSERT INTO quizzes (title, description) VALUES ('Integration quiz', '') RETURNING id`,
	).Scan(&quizID); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}

	var questionID int64
	if err := db.QueryRowContext(ctx,
		`INSERT INTO questions (quiz_id, content, max_points) VALUES (?, 'What is 2 + 2?', 10) RETURNING id`,
		quizID,
	).Scan(&questionID); err != nil {
		t.Fatalf("insert question: %v", err)
	}

	var wrongID int64
	if err := db.QueryRowContext(ctx,
		`INSERT INTO answers (question_id, content, is_correct) VALUES (?, '3', FALSE) RETURNING id`,
		questionID,
	).Scan(&wrongID); err != nil {
		t.Fatalf("insert wrong answer: %v", err)
	}
	var correctID int64
	if err := db.QueryRowContext(ctx,
		`INSERT INTO answers (question_id, content, is_correct) VALUES (?, '4', TRUE) RETURNING id`,
		questionID,
	).Scan(&correctID); err != nil {
		t.Fatalf("insert correct answer: %v", err)
	}
	return quizID, correctID
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
