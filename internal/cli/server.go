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

	"libras-quiz-service/internal/app"
	"libras-quiz-service/internal/auth"
	"libras-quiz-service/internal/config"
	"libras-quiz-service/internal/domain"
	"libras-quiz-service/internal/infra/memory"
	pgstore "libras-quiz-service/internal/infra/postgres"
	redisinfra "libras-quiz-service/internal/infra/redis"
	transport "libras-quiz-service/internal/transport/http"
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

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var (
		challenges app.ChallengeRepository
		questions  app.QuestionRepository
		progress   app.ProgressRepository
		profiles   app.ProfileRepository
		users      auth.UserRepository
	)
	if pool != nil {
		store := pgstore.NewStore(pool)
		challenges, questions, progress, profiles, users = store, store, store, store, store
	} else {
		store := memory.NewStore()
		store.Seed(sampleChallenges(), sampleQuestions())
		challenges, questions, progress, profiles, users = store, store, store, store, store
		log.Printf("no postgres configured, serving the built-in demo catalog")
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, questions, cacheTTL)
	} else {
		questions = memory.NewQuestionCache(questions, cacheTTL)
	}

	secret := cfg.Auth.TokenSecret
	if secret == "" {
		secret = os.Getenv("AUTH_TOKEN_SECRET")
	}
	if secret == "" {
		secret = "dev-only-secret"
		log.Printf("auth token secret not configured, using an insecure development secret")
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)

	tokens := auth.NewTokenManager(secret, tokenTTL)
	provider := auth.NewLocalProvider(users, profiles, auth.NewPasswordHasher(), tokens)
	sessionStore := auth.NewSessionStore(provider)
	defer sessionStore.Close()

	quizService := app.NewQuizService(challenges, questions, progress, profiles)
	catalogService := app.NewCatalogService(challenges)
	profileService := app.NewProfileService(profiles)

	router := transport.NewRouter(
		transport.NewAuthHandler(provider, sessionStore),
		transport.NewAPIHandler(catalogService, profileService),
		transport.NewWSHandler(quizService, catalogService, profileService),
		provider,
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting libras quiz service on :%s", finalPort)
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

// sampleChallenges provides a minimal demo catalog; production runs read the
// catalog from Postgres.
func sampleChallenges() []domain.Challenge {
	return []domain.Challenge{
		{ID: "letra-a", Title: "Letra A", Description: "Sinais da letra A", RequiredScore: 0},
		{ID: "letra-b", Title: "Letra B", Description: "Sinais da letra B", RequiredScore: 100},
	}
}

func sampleQuestions() map[string][]domain.Question {
	return map[string][]domain.Question{
		"letra-a": {
			{
				ID:          "q1",
				ChallengeID: "letra-a",
				Word:        "A",
				Options:     []string{"/letra-a/a.png", "/letra-b/b.png", "/letra-c/c.png", "/letra-d/d.png"},
			},
			{
				ID:          "q2",
				ChallengeID: "letra-a",
				Word:        "A",
				Image:       "/letra-a/a.png",
				Options:     []string{"A", "B", "C", "D"},
			},
		},
	}
}
