//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/CreativeC0der/nppd-care-connect-sub000/internal/platform/db"
)

// testEnv holds the containers shared by every integration test.
type testEnv struct {
	Pool     *pgxpool.Pool
	RedisURL string
	Redis    *redis.Client
}

var env *testEnv

func TestMain(m *testing.M) {
	ctx := context.Background()

	e, cleanup, err := setup(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up integration environment: %v\n", err)
		os.Exit(1)
	}
	env = e
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setup(ctx context.Context) (*testEnv, func(), error) {
	var terminate []testcontainers.Container
	cleanup := func() {
		for _, c := range terminate {
			_ = c.Terminate(context.Background())
		}
	}

	pg, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("ehrsync"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("start postgres container: %w", err)
	}
	terminate = append(terminate, pg)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("postgres connection string: %w", err)
	}

	rd, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("start redis container: %w", err)
	}
	terminate = append(terminate, rd)

	redisURL, err := rd.ConnectionString(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("redis connection string: %w", err)
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pool, err := db.NewPool(ctx, db.PoolConfig{URL: connStr, MaxConns: 10, AppName: "ehr-sync-it"})
	if err != nil {
		_ = client.Close()
		cleanup()
		return nil, nil, err
	}
	if _, err := db.NewMigrator(pool, findMigrationsDir()).Up(ctx); err != nil {
		pool.Close()
		_ = client.Close()
		cleanup()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return &testEnv{Pool: pool, RedisURL: redisURL, Redis: client}, func() {
		pool.Close()
		_ = client.Close()
		cleanup()
	}, nil
}

// findMigrationsDir locates the migrations directory relative to this test file.
func findMigrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// reset empties every synchronized table and the cache.
func reset(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	rows, err := env.Pool.Query(ctx,
		`SELECT tablename FROM pg_tables WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`)
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			t.Fatalf("scan table name: %v", err)
		}
		tables = append(tables, name)
	}
	rows.Close()

	for _, tbl := range tables {
		if _, err := env.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", tbl)); err != nil {
			t.Fatalf("truncate %s: %v", tbl, err)
		}
	}
	if err := env.Redis.FlushAll(ctx).Err(); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
}

func count(t *testing.T, table string) int {
	t.Helper()
	var n int
	if err := env.Pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
