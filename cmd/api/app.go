package main

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mergington/activities-api/internal/adapters/httpapi"
	memactivityrepo "github.com/mergington/activities-api/internal/adapters/memory/activityrepo"
	memidempotency "github.com/mergington/activities-api/internal/adapters/memory/idempotency"
	postgres "github.com/mergington/activities-api/internal/adapters/postgres"
	pgactivityrepo "github.com/mergington/activities-api/internal/adapters/postgres/activityrepo"
	redisidempotency "github.com/mergington/activities-api/internal/adapters/redis/idempotency"
	"github.com/mergington/activities-api/internal/app/activities"
	"github.com/mergington/activities-api/internal/domain"
	"github.com/mergington/activities-api/internal/platform/config"
	"github.com/mergington/activities-api/internal/platform/metrics"
	activityrepoport "github.com/mergington/activities-api/internal/ports/out/activityrepo"
	idempotencyport "github.com/mergington/activities-api/internal/ports/out/idempotency"
)

// app is the wired dependency graph behind the HTTP handler.
type app struct {
	Handler http.Handler

	cleanups []func()
}

func (a *app) Close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
}

func buildApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	a := &app{}

	var repo activityrepoport.Repository
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("invalid postgres config: %w", err)
		}
		a.cleanups = append(a.cleanups, pool.Close)
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			a.Close()
			return nil, err
		}
		repo = pgactivityrepo.NewRepo(pool)
	default:
		repo = memactivityrepo.NewRepo()
	}
	// Every start begins from the seed set, whatever the backend.
	if err := repo.Seed(ctx, domain.SeedActivities()); err != nil {
		a.Close()
		return nil, fmt.Errorf("seed activities: %w", err)
	}

	var idemStore idempotencyport.Store
	switch cfg.IdempotencyBackend {
	case config.BackendRedis:
		client := redisidempotency.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		a.cleanups = append(a.cleanups, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		idemStore = redisidempotency.NewStore(client, cfg.IdempotencyTTL)
	default:
		idemStore = memidempotency.NewStore(cfg.IdempotencyTTL)
	}

	svc := activities.NewService(repo, log)
	svc.EnforceCapacity = cfg.EnforceCapacity

	m := metrics.New()
	api := httpapi.NewServer(svc, idemStore)
	api.Log = log
	api.Metrics = m

	a.Handler = httpapi.NewRouterWithOptions(api, httpapi.RouterOptions{
		Logger:  log,
		Metrics: m,
	})
	return a, nil
}
