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

	"quizify-engine/internal/app"
	"quizify-engine/internal/config"
	"quizify-engine/internal/engine"
	"quizify-engine/internal/infra/memory"
	pgbank "quizify-engine/internal/infra/postgres"
	redisstate "quizify-engine/internal/infra/redis"
	"quizify-engine/internal/ratelimit"
	"quizify-engine/internal/report"
	transport "quizify-engine/internal/transport/http"
	"quizify-engine/internal/trivia"
)

// NewStartCmd builds the CLI subcommand to start the engine.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz session engine",
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

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	// Durable state: Redis when configured so limits and snapshots survive
	// restarts, in-memory otherwise.
	var stateStore interface {
		ratelimit.StateStore
		engine.SnapshotStore
		engine.ComparisonStore
	} = memory.NewStateStore()
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		stateStore = redisstate.NewStateStore(redisClient)
	}

	limiterOpts := []ratelimit.Option{}
	if cfg.RateLimit.MinInterval != "" || cfg.RateLimit.Window != "" || cfg.RateLimit.MaxPerWindow > 0 {
		minInterval := config.TTLDuration(cfg.RateLimit.MinInterval, ratelimit.DefaultMinInterval)
		window := config.TTLDuration(cfg.RateLimit.Window, ratelimit.DefaultWindow)
		maxPerWindow := cfg.RateLimit.MaxPerWindow
		if maxPerWindow <= 0 {
			maxPerWindow = ratelimit.DefaultMaxPerWindow
		}
		limiterOpts = append(limiterOpts, ratelimit.WithPolicy(minInterval, window, maxPerWindow))
	}
	limiter := ratelimit.New(stateStore, limiterOpts...)

	clientOpts := []trivia.ClientOption{trivia.WithMode(triviaMode(cfg.Trivia.Mode))}
	if cfg.Trivia.BaseURL != "" {
		clientOpts = append(clientOpts, trivia.WithBaseURL(cfg.Trivia.BaseURL))
	}
	if cfg.Trivia.CategoryURL != "" && cfg.Trivia.CountURL != "" {
		clientOpts = append(clientOpts, trivia.WithCategoryURLs(cfg.Trivia.CategoryURL, cfg.Trivia.CountURL))
	}

	// An operator-managed Postgres bank overrides the bundled one.
	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		bank, err := pgbank.NewBankLoader(pool).LoadBank(ctx)
		if err != nil {
			return err
		}
		if len(bank) > 0 {
			clientOpts = append(clientOpts, trivia.WithBank(bank))
		}
	}
	triviaClient := trivia.NewClient(limiter, clientOpts...)

	reportClient := report.NewClient(cfg.Report.BaseURL, cfg.Report.Token)

	serviceOpts := []app.ServiceOption{}
	if cfg.Timer.TotalSeconds > 0 {
		serviceOpts = append(serviceOpts, app.WithTotalSeconds(cfg.Timer.TotalSeconds))
	}
	service := app.NewQuizService(triviaClient, memory.NewSessionRegistry(), reportClient, stateStore, stateStore, serviceOpts...)

	handler := transport.NewHandler(service, reportClient)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz session engine on :%s", finalPort)
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

func triviaMode(raw string) trivia.Mode {
	switch raw {
	case "strict":
		return trivia.ModeStrict
	case "fallback":
		return trivia.ModeFallback
	}
	return trivia.ModeSmart
}
