package main

import (
	"context"
	"fmt"

	"github.com/bryanwahyu/medreport/internal/config"
	domain "github.com/bryanwahyu/medreport/internal/domain/analysis"
	"github.com/bryanwahyu/medreport/internal/infra/cache"
	"github.com/bryanwahyu/medreport/internal/infra/db/jsonfile"
	mysqlp "github.com/bryanwahyu/medreport/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/medreport/internal/infra/db/postgres"
	"github.com/bryanwahyu/medreport/internal/infra/db/sqlite"
	"github.com/bryanwahyu/medreport/internal/middleware"
)

// openBackend builds the history persister named by cfg.History.Backend and
// registers its health check. The returned func releases the backend.
func openBackend(ctx context.Context, cfg *config.Config, checkers map[string]middleware.HealthChecker) (domain.Persister, func(), error) {
	noop := func() {}

	switch cfg.History.Backend {
	case "file":
		f := jsonfile.NewHistoryFile(cfg.History.Path)
		checkers["history"] = f
		return f, noop, nil

	case "sqlite":
		repo, err := sqlite.Open(ctx, cfg.History.Path)
		if err != nil {
			return nil, noop, err
		}
		checkers["history"] = repo
		return repo, func() { repo.Close() }, nil

	case "mysql":
		repo, err := mysqlp.Open(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, noop, err
		}
		checkers["history"] = repo
		return repo, func() { repo.Close() }, nil

	case "postgres":
		repo, err := pgp.Open(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, noop, err
		}
		checkers["history"] = repo
		return repo, func() { repo.Close() }, nil

	case "redis":
		r, err := cache.NewRedisHistory(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, noop, err
		}
		checkers["history"] = r
		return r, func() { r.Close() }, nil
	}
	return nil, noop, fmt.Errorf("unknown history backend %q", cfg.History.Backend)
}
