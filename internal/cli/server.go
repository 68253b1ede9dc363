package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"quizflow/internal/app"
	"quizflow/internal/auth"
	"quizflow/internal/config"
	"quizflow/internal/domain"
	"quizflow/internal/infra/memory"
	"quizflow/internal/infra/postgres"
	infraredis "quizflow/internal/infra/redis"
	transport "quizflow/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores is the storage wiring picked from the config.
type stores struct {
	quizzes   app.QuizStore
	questions app.QuestionStore
	attempts  app.AttemptStore
	local     app.LocalStore
	sessions  app.SessionRepository
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
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	st := buildStores(cfg, pool, redisClient)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		glog.Warningf("auth.jwtSecret not set, using a random secret: no issued token will verify after restart")
		secret = uuid.NewString()
	}
	verifier := auth.NewVerifier(secret, cfg.Auth.Issuer)

	exams := app.NewExamService(st.quizzes, st.questions, st.attempts, st.local, app.ExamConfig{
		MinNameLength: cfg.Exam.MinNameLength,
		AutoClose:     config.TTLDuration(cfg.Exam.AutoClose, 45*time.Second),
	})
	quizzes := app.NewQuizService(st.quizzes, st.questions, st.attempts, st.local)

	router := transport.NewRouter(
		transport.NewAPIHandler(quizzes),
		transport.NewWSHandler(exams, st.sessions, verifier),
		verifier,
		os.Stdout,
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		glog.Infof("starting quizflow on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Errorf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		glog.Info("shutting down server...")
	case <-ctx.Done():
		glog.Info("context canceled, shutting down server...")
	}

	// pending redirects die with their sessions
	st.sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildStores prefers Postgres for quizzes, questions and attempts and Redis for
// the device-local data, caches and session markers; anything unconfigured runs in memory.
func buildStores(cfg config.Config, pool *pgxpool.Pool, client *redis.Client) stores {
	var st stores
	var backing app.QuestionStore

	switch {
	case pool != nil:
		st.quizzes = postgres.NewQuizStore(pool)
		backing = postgres.NewQuestionStore(pool)
		st.attempts = postgres.NewAttemptStore(pool)
	case client != nil:
		glog.Warning("postgres not configured, quizzes fall back to redis and questions/attempts stay in memory")
		st.quizzes = infraredis.NewQuizStore(client)
		backing = memory.NewQuestionStore()
		st.attempts = memory.NewAttemptStore()
	default:
		glog.Warning("no postgres or redis configured, serving the demo quiz from memory")
		st.quizzes = memory.NewQuizStoreWith(demoQuiz())
		backing = memory.NewStaticQuestionStore(map[string][]domain.Item{demoQuizID: demoItems()})
		st.attempts = memory.NewAttemptStore()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if client != nil {
		st.questions = infraredis.NewQuestionCache(client, backing, quizTTL)
		st.local = infraredis.NewLocalStore(client)
		st.sessions = infraredis.NewSessionStore(client, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		st.questions = memory.NewQuestionCache(backing, quizTTL)
		st.local = memory.NewLocalStore()
		st.sessions = memory.NewSessionStore()
	}
	return st
}

const demoQuizID = "demo"

func demoQuiz() domain.Quiz {
	desc := "A two-question warm-up."
	return domain.Quiz{
		ID:              demoQuizID,
		OwnerID:         "demo-teacher",
		Name:            "Warm-up",
		Description:     &desc,
		DurationMinutes: 5,
		QuestionType:    domain.QuizMixed,
		CreatedAt:       time.Now(),
	}
}

func demoItems() []domain.Item {
	return []domain.Item{
		{
			Question: domain.Question{ID: "demo-q1", QuizID: demoQuizID, Type: domain.MultipleChoice, Content: "What is 2 + 2?", Points: 1, OrderNo: 1},
			Options: []domain.Option{
				{ID: "demo-o1", QuestionID: "demo-q1", Content: "3", OrderNo: 1},
				{ID: "demo-o2", QuestionID: "demo-q1", Content: "4", IsCorrect: true, OrderNo: 2},
				{ID: "demo-o3", QuestionID: "demo-q1", Content: "5", OrderNo: 3},
			},
		},
		{Question: domain.Question{ID: "demo-q2", QuizID: demoQuizID, Type: domain.TrueFalse, Content: "Zero is an even number.", Points: 1, OrderNo: 2}},
	}
}
