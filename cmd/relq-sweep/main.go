// Command relq-sweep runs a standalone orphan-reclamation daemon against a
// configured relq backend. It loads its settings from the environment,
// connects to the configured backend, and reclaims orphaned messages on a
// ticker until it receives SIGINT or SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/relqio/relq"
	"github.com/relqio/relq/pgqueue"
	"github.com/relqio/relq/pkg/config"
	"github.com/relqio/relq/pkg/logger"
	"github.com/relqio/relq/pkg/pg"
	"github.com/relqio/relq/pkg/redis"
	"github.com/relqio/relq/redisqueue"
)

// healthChecker is satisfied by both pgqueue.Queue and redisqueue.Queue.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func main() {
	backend := flag.String("backend", "postgres", "backend to sweep: postgres or redis")
	migrate := flag.Bool("migrate", false, "apply pending postgres migrations before starting (postgres backend only)")
	flag.Parse()

	log := logger.New()

	var relqCfg relq.Config
	config.MustLoad(&relqCfg)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *migrate && *backend == "postgres" {
		if err := runMigrations(ctx, log); err != nil {
			log.Error("failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	queue, closeQueue, err := openQueue(ctx, *backend)
	if err != nil {
		log.Error("failed to open queue", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeQueue()

	if hc, ok := queue.(healthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			log.Error("backend failed health check", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	sweeper, err := relq.NewSweeper[uuid.UUID](queue,
		relq.WithSweepInterval[uuid.UUID](relqCfg.SweepInterval),
		relq.WithOrphanThreshold[uuid.UUID](relqCfg.OrphanThreshold),
		relq.WithSweeperLogger[uuid.UUID](log))
	if err != nil {
		log.Error("failed to build sweeper", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := sweeper.Start(ctx); err != nil {
		log.Error("failed to start sweeper", slog.String("error", err.Error()))
		os.Exit(1)
	}

	<-ctx.Done()
	_ = sweeper.Stop()
}

// runMigrations applies the relq_queue/relq_queue_ephemeral schema via a
// short-lived pool, independent of the pool the sweeper itself connects
// with afterward.
func runMigrations(ctx context.Context, log *slog.Logger) error {
	var pgCfg pg.Config
	config.MustLoad(&pgCfg)
	if _, set := os.LookupEnv("PG_MIGRATIONS_PATH"); !set {
		pgCfg.MigrationsPath = "internal/relational/migrations"
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return fmt.Errorf("connect for migrations: %w", err)
	}
	defer pool.Close()

	return pg.Migrate(ctx, pool, pgCfg, log)
}

func openQueue(ctx context.Context, backend string) (relq.Queue[uuid.UUID], func(), error) {
	switch backend {
	case "postgres":
		var pgCfg pg.Config
		config.MustLoad(&pgCfg)

		var qCfg pgqueue.Config
		config.MustLoad(&qCfg)

		q, err := pgqueue.Connect[uuid.UUID](ctx, pgCfg, pgqueue.UUIDCodec{},
			pgqueue.WithTableName[uuid.UUID](qCfg.TableName),
			pgqueue.WithTableNameEphemeral[uuid.UUID](qCfg.TableNameEphemeral),
			pgqueue.WithOrphanBatchSize[uuid.UUID](qCfg.OrphanBatchSize))
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return q, func() { _ = q.Close() }, nil

	case "redis":
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		var qCfg redisqueue.Config
		config.MustLoad(&qCfg)

		q, err := redisqueue.Connect[uuid.UUID](ctx, redisCfg, redisqueue.UUIDCodec{},
			redisqueue.WithHashName[uuid.UUID](qCfg.HashName),
			redisqueue.WithListName[uuid.UUID](qCfg.ListName),
			redisqueue.WithSortedSetName[uuid.UUID](qCfg.SortedSetName),
			redisqueue.WithOrphanBatchSize[uuid.UUID](qCfg.OrphanBatchSize))
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return q, func() { _ = q.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q, want postgres or redis", backend)
	}
}
