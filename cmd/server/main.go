package main

import (
	"database/sql"
	"log/slog"
	"net/http"
	"os"

	"github.com/Simplici0/tradeassist/internal/actorconfig"
	"github.com/Simplici0/tradeassist/internal/catalog"
	"github.com/Simplici0/tradeassist/internal/config"
	"github.com/Simplici0/tradeassist/internal/db"
	"github.com/Simplici0/tradeassist/internal/migrations"
	"github.com/Simplici0/tradeassist/internal/seed"
	"github.com/Simplici0/tradeassist/internal/store"
)

type server struct {
	auth    *authService
	world   *catalog.Catalog
	stores  *store.Repository
	configs *actorconfig.Repository
	passes  *passLimiter
}

func newServer(world *catalog.Catalog, database *sql.DB, sessionSecret string) *server {
	return &server{
		auth:    newAuthService(sessionSecret),
		world:   world,
		stores:  store.NewRepository(database),
		configs: actorconfig.NewRepository(database),
		passes:  newPassLimiter(passesPerMinute, passBurst),
	}
}

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	world, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "path", cfg.CatalogPath, "items", len(world.Items()), "actors", len(world.Actors()))

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		slog.Error("failed to run database migrations", "error", err)
		os.Exit(1)
	}

	srv := newServer(world, database, cfg.SessionSecret)

	if cfg.IsDev() {
		for _, a := range world.Actors() {
			stats, err := seed.Run(database, seed.Config{ActorID: a.ID})
			if err != nil {
				slog.Error("failed to seed demo data", "actor", a.Name, "error", err)
				os.Exit(1)
			}
			slog.Info("demo data seeded", "actor", a.Name, "inserts", stats.Inserts, "updates", stats.Updates)
			slog.Debug("actor token", "actor", a.Name, "id", a.ID, "token", srv.auth.issueToken(a.ID))
		}
	}

	addr := ":" + cfg.Port
	slog.Info("listening", "addr", addr, "env", cfg.Env)
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
