package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
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
	"trivia-client/internal/app"
	"trivia-client/internal/domain"
	"trivia-client/internal/infra/api"
	"trivia-client/internal/infra/memory"
	pgoutbox "trivia-client/internal/infra/postgres"
	pgmigrations "trivia-client/internal/infra/postgres/migrations"
	infraredis "trivia-client/internal/infra/redis"
)

func TestOutboxReplaysAfterOutage(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	migrateSchema(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	var up atomic.Bool
	var accepted atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/score/episode", func(w http.ResponseWriter, r *http.Request) {
		if !up.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		accepted.Add(1)
		_, _ = w.Write([]byte(`{"success":true,"is_new_record":true,"best_score":375}`))
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	client := api.New(api.Config{BaseURL: backend.URL})
	outbox := pgoutbox.NewOutbox(pool)
	submitter := app.NewSubmitter(client, memory.StaticIdentity{Name: "Alice"}, outbox, nil, nil)

	id := 2
	result := domain.RoundResult{Mode: domain.ModeEpisode, EpisodeID: &id, Score: 375, CorrectCount: 25,
		SpeedBonusCount: 25, QuestionsAnswered: 25, Cause: domain.CauseEpisodeComplete}

	outcome, err := submitter.Submit(ctx, result)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Confirmed || outcome.BestScore != 375 {
		t.Fatalf("expected local fallback, got %+v", outcome)
	}

	pending, err := outbox.Pending(ctx)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Player != "Alice" || pending[0].Result.Score != 375 {
		t.Fatalf("expected queued result, got %+v", pending)
	}
	if pending[0].Result.EpisodeID == nil || *pending[0].Result.EpisodeID != 2 {
		t.Fatalf("episode id lost in outbox: %+v", pending[0].Result)
	}

	up.Store(true)
	sent, err := submitter.Flush(ctx)
	if err != nil || sent != 1 {
		t.Fatalf("flush: sent=%d err=%v", sent, err)
	}
	if accepted.Load() != 1 {
		t.Fatalf("expected one accepted submission, got %d", accepted.Load())
	}
	if pending, _ := outbox.Pending(ctx); len(pending) != 0 {
		t.Fatalf("expected empty outbox, got %+v", pending)
	}
}

func TestRedisFeedCacheAcrossRounds(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()
	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/quiz/episode/1", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"episode_id":1,"episode_name":"Pilot","questions":[
			{"id":"q1","text":"What is 2 + 2?","options":{"A":"3","B":"4","C":"5"},"correct_answer":"B","difficulty":"kolay"},
			{"id":"q2","text":"Broken","options":{"A":"only"},"correct_answer":"A"}]}`))
	})
	backend := httptest.NewServer(mux)
	defer backend.Close()

	feed := infraredis.NewFeedCache(redisClient, api.New(api.Config{BaseURL: backend.URL}), 5*time.Minute)
	source := app.NewSourceAdapter(feed, nil, nil)

	for i := 0; i < 2; i++ {
		set, err := source.FetchEpisodeQuestions(ctx, 1, 25)
		if err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
		if len(set.Questions) != 1 || set.Questions[0].CorrectOptionID != "B" || set.Questions[0].BasePoints != 10 {
			t.Fatalf("unexpected normalized set %+v", set)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one upstream fetch, got %d", hits.Load())
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "trivia"},
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
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/trivia?sslmode=disable", host, port.Port())
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

func migrateSchema(t *testing.T, ctx context.Context, dsn string) {
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
