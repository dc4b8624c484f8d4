package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/db"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/repo/postgres"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/prometheus/client_golang/prometheus"
)

// migrate applies the embedded schema and, with -seed-admin, creates the
// configured admin account. It exits without starting the API.
func main() {
	seedAdmin := flag.Bool("seed-admin", false, "create ADMIN_EMAIL/ADMIN_PASSWORD if missing")
	flag.Parse()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DBURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	log.Info("migrations applied")

	if !*seedAdmin {
		return
	}

	repo := postgres.NewUsersRepo(pool, observability.NewProm(prometheus.NewRegistry()))

	created, err := db.EnsureAdminUser(ctx, repo, security.NewHasher(cfg.BcryptCost), cfg)
	if err != nil {
		log.Error("seed admin failed", "err", err)
		os.Exit(1)
	}

	log.Info("admin seed finished", "email", cfg.AdminEmail, "created", created)
}
