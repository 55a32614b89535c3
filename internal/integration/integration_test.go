package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"framequiz-service/internal/app"
	"framequiz-service/internal/domain"
	"framequiz-service/internal/infra/memory"
	pgstore "framequiz-service/internal/infra/postgres"
	pgmigrations "framequiz-service/internal/infra/postgres/migrations"
	infraredis "framequiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestGameLifecycleEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedCollection(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	titles := infraredis.NewTitleCache(redisClient, memory.NewStaticCatalog(sampleTitles(), sampleFrames()), 5*time.Minute)
	service := app.NewGameService(pgstore.NewGameRepository(pool), pgstore.NewItemSource(pool), titles)

	seed := int64(42)
	game, err := service.CreateGame(ctx, app.CreateGameParams{
		VersionID: 1,
		Mode:      domain.ModeOneFrameFourTitles,
		Seed:      &seed,
	})
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if game.TotalRounds != 3 {
		t.Fatalf("expected 3 rounds, got %d", game.TotalRounds)
	}

	for ord := 1; ord <= game.TotalRounds; ord++ {
		_, round, err := service.GetRound(ctx, game.ID, ord)
		if err != nil {
			t.Fatalf("round %d: %v", ord, err)
		}
		result, err := service.SubmitAnswer(ctx, game.ID, ord, round.CorrectIndex)
		if err != nil {
			t.Fatalf("submit round %d: %v", ord, err)
		}
		if !result.IsCorrect {
			t.Fatalf("round %d: expected correct answer", ord)
		}
		if last := ord == game.TotalRounds; result.FinishedNow != last {
			t.Fatalf("round %d: finishedNow=%v", ord, result.FinishedNow)
		}
	}

	state, err := service.GameState(ctx, game.ID)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !state.Finished || state.Score != 3 || state.Answered != 3 {
		t.Fatalf("unexpected final state: %+v", state)
	}

	// Replaying the last answer must not change anything.
	_, lastRound, _ := service.GetRound(ctx, game.ID, game.TotalRounds)
	replay, err := service.SubmitAnswer(ctx, game.ID, game.TotalRounds, (lastRound.CorrectIndex+1)%4)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if replay.FinishedNow || replay.Score != 3 || !replay.IsCorrect {
		t.Fatalf("replay changed outcome: %+v", replay)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "frames", "POSTGRES_PASSWORD": "framespass", "POSTGRES_DB": "framesdb"},
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
	dsn := fmt.Sprintf("postgres://frames:framespass@%s:%s/framesdb?sslmode=disable", host, port.Port())
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

func seedCollection(t *testing.T, ctx context.Context, dsn string) {
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

	if _, err := db.ExecContext(ctx,
		`INSERT INTO collection_versions (id, collection_id, version, size) VALUES (1, 1, 1, 3)`); err != nil {
		t.Fatalf("insert version: %v", err)
	}
	for ord, titleID := range []int64{101, 102, 103} {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO collection_items (version_id, ord, tmdb_id, media_type) VALUES (1, ?, ?, 'movie')`,
			ord+1, titleID); err != nil {
			t.Fatalf("insert item: %v", err)
		}
	}
}

func sampleTitles() []domain.Title {
	return []domain.Title{
		{ID: 101, Title: "The Godfather", ReleaseDate: "1972-03-24", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 19000},
		{ID: 102, Title: "Goodfellas", ReleaseDate: "1990-09-19", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 11000},
		{ID: 103, Title: "Casino", ReleaseDate: "1995-11-22", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 5200},
		{ID: 104, Title: "Scarface", ReleaseDate: "1983-12-09", GenreIDs: []int64{18, 80}, MediaType: "movie", VoteCount: 9800},
		{ID: 105, Title: "Heat", ReleaseDate: "1995-12-15", GenreIDs: []int64{28, 80}, MediaType: "movie", VoteCount: 6400},
	}
}

func sampleFrames() map[int64][]string {
	return map[int64][]string{
		101: {"/frames/101-1.jpg", "/frames/101-2.jpg"},
		102: {"/frames/102-1.jpg"},
		103: {"/frames/103-1.jpg"},
		104: {"/frames/104-1.jpg"},
		105: {"/frames/105-1.jpg"},
	}
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
