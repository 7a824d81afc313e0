package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"streak-quiz-service/internal/config"
	"streak-quiz-service/internal/game"
	"streak-quiz-service/internal/infra/memory"
	pgloader "streak-quiz-service/internal/infra/postgres"
	redisstore "streak-quiz-service/internal/infra/redis"
	transport "streak-quiz-service/internal/transport/http"
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
	gameCfg := cfg.Game.WithDefaults()

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
	}

	var loader memory.ItemLoader = memory.NewStaticItemLoader(sampleItems())
	if pool != nil {
		loader = pgloader.NewItemLoader(pool)
	}
	itemTTL := config.Duration(cfg.Items.TTL, 10*time.Minute)
	catalog := memory.NewItemCatalog(loader, itemTTL)

	// A dataset that cannot load within the bound is fatal for startup.
	loadTimeout := config.Duration(cfg.Items.LoadTimeout, 10*time.Second)
	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	items, err := catalog.GetItems(loadCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("load item dataset: %w", err)
	}

	var scores game.ScoreStore
	if redisClient != nil {
		scores = redisstore.NewScoreStore(redisClient, gameCfg.LeaderboardSize)
	} else {
		scores = memory.NewScoreStore(gameCfg.LeaderboardSize)
	}

	comparison := game.ComparisonLenient
	if gameCfg.StrictMatching {
		comparison = game.ComparisonExact
	}
	wsHandler := transport.NewWSHandler(items, scores, transport.SessionConfig{
		Comparison:      comparison,
		MilestonePeriod: gameCfg.MilestonePeriod,
		Brackets:        gameBrackets(gameCfg),
		Delays: game.SettleDelays{
			Correct:    config.Duration(gameCfg.Delays.Correct, 1200*time.Millisecond),
			Milestone:  config.Duration(gameCfg.Delays.Milestone, 2*time.Second),
			Completion: config.Duration(gameCfg.Delays.Completion, 3500*time.Millisecond),
			Reset:      config.Duration(gameCfg.Delays.Reset, 2*time.Second),
		},
	})

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
		log.Printf("starting streak quiz service on :%s", finalPort)
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

// gameBrackets converts the YAML bracket table into the engine's form.
func gameBrackets(cfg config.Game) []game.Bracket {
	brackets := make([]game.Bracket, 0, len(cfg.Brackets))
	for _, b := range cfg.Brackets {
		brackets = append(brackets, game.Bracket{MaxStreak: b.MaxStreak, Weights: b.Weights})
	}
	return brackets
}
