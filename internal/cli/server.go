package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"framequiz-service/internal/app"
	"framequiz-service/internal/config"
	"framequiz-service/internal/domain"
	catalogclient "framequiz-service/internal/infra/catalog"
	"framequiz-service/internal/infra/memory"
	pgstore "framequiz-service/internal/infra/postgres"
	rediscache "framequiz-service/internal/infra/redis"
	transport "framequiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
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
	}

	var base app.TitleCatalog
	if cfg.Catalog.URL != "" {
		base = catalogclient.NewClient(cfg.Catalog.URL, config.Duration(cfg.Catalog.Timeout, 30*time.Second))
	} else {
		base = memory.NewStaticCatalog(sampleTitles(), sampleFrames())
	}

	cacheTTL := config.Duration(cfg.Cache.TTL, 10*time.Minute)
	var titles app.TitleCatalog
	if redisClient != nil {
		titles = rediscache.NewTitleCache(redisClient, base, cacheTTL)
	} else {
		titles = memory.NewTitleCache(base, cacheTTL)
	}

	var games app.GameRepository
	var items app.ItemSource
	if pool != nil {
		games = pgstore.NewGameRepository(pool)
		items = pgstore.NewItemSource(pool)
	} else {
		games = memory.NewGameRepository()
		items = memory.NewStaticItemSource(sampleItems())
	}

	service := app.NewGameService(games, items, titles)
	handler := transport.NewHandler(service)
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
		log.Printf("starting framequiz service on :%s", finalPort)
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

// sampleTitles is a minimal demo catalog; point catalog.url at a tmdb-sync
// instance in production.
func sampleTitles() []domain.Title {
	return []domain.Title{
		{ID: 101, Title: "The Godfather", ReleaseDate: "1972-03-24", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 19000},
		{ID: 102, Title: "Goodfellas", ReleaseDate: "1990-09-19", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 11000},
		{ID: 103, Title: "Casino", ReleaseDate: "1995-11-22", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 5200},
		{ID: 104, Title: "Scarface", ReleaseDate: "1983-12-09", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 9800},
		{ID: 105, Title: "Heat", ReleaseDate: "1995-12-15", GenreIDs: []int64{28, 80}, MediaType: "movie", VoteCount: 6400},
		{ID: 106, Title: "The Departed", ReleaseDate: "2006-10-06", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 13500},
	}
}

func sampleFrames() map[int64][]string {
	return map[int64][]string{
		101: {"/frames/101-1.jpg", "/frames/101-2.jpg"},
		102: {"/frames/102-1.jpg"},
		103: {"/frames/103-1.jpg", "/frames/103-2.jpg"},
		104: {"/frames/104-1.jpg"},
		105: {"/frames/105-1.jpg"},
		106: {"/frames/106-1.jpg"},
	}
}

func sampleItems() map[int64][]domain.Item {
	return map[int64][]domain.Item{
		1: {
			{Ord: 1, TitleID: 101, MediaType: "movie"},
			{Ord: 2, TitleID: 102, MediaType: "movie"},
			{Ord: 3, TitleID: 103, MediaType: "movie"},
		},
	}
}
