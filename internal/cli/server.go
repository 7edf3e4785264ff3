package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quiz-live-service/internal/app"
	"quiz-live-service/internal/config"
	"quiz-live-service/internal/domain"
	"quiz-live-service/internal/infra/memory"
	pgloader "quiz-live-service/internal/infra/postgres"
	redisinfra "quiz-live-service/internal/infra/redis"
	transport "quiz-live-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	roomTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
	if pool != nil {
		loader = pgloader.NewQuizLoader(pool)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var snapshots app.SnapshotRepository
	if redisClient != nil {
		snapshots = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		snapshots = memory.NewQuizRepository(loader, quizTTL)
	}

	var rooms app.RoomStore
	if redisClient != nil {
		rooms = redisinfra.NewRoomStore(redisClient, roomTTL)
	} else {
		rooms = memory.NewRoomStore()
	}

	var recorder app.GameRecorder = memory.NewGameRecorder()
	if pool != nil {
		recorder = pgloader.NewGameRecorder(pool)
	}

	service := app.NewGameService(app.NewRegistry(), rooms, snapshots, recorder)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz session service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes keeps the demo mode playable without Postgres; swap in the
// relational loader by configuring postgres.url.
func sampleQuizzes() map[int64]domain.Quiz {
	return map[int64]domain.Quiz{
		1: {
			ID:    1,
			Title: "Warm-up",
			Questions: []domain.Question{
				{
					ID:        1,
					Content:   "What is 2 + 2?",
					MaxPoints: 10,
					Answers: []domain.Answer{
						{ID: 1, Content: "3", Correct: false},
						{ID: 2, Content: "4", Correct: true},
						{ID: 3, Content: "5", Correct: false},
					},
				},
				{
					ID:             2,
					Content:        "Which numbers are prime?",
					MaxPoints:      9,
					PartialPoints:  true,
					NegativePoints: true,
					Answers: []domain.Answer{
						{ID: 4, Content: "2", Correct: true},
						{ID: 5, Content: "4", Correct: false},
						{ID: 6, Content: "5", Correct: true},
						{ID: 7, Content: "7", Correct: true},
					},
				},
			},
		},
	}
}
