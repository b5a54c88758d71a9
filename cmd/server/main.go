package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"questionnaire/internal/config"
	"questionnaire/internal/server"
	"questionnaire/internal/service"
	"questionnaire/internal/storage"
	"questionnaire/internal/storage/memstore"
	"questionnaire/internal/storage/providers"
	httptransport "questionnaire/internal/transport/http"
)

func main() {
	cfg := config.MustLoad()
	setupLogger(cfg.Env)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var store service.TemplateProvider
	switch cfg.Storage {
	case config.StorageMemory:
		slog.Warn("using in-memory storage, templates are lost on exit")
		store = memstore.New()
	default:
		if cfg.MigrateOnStart {
			if err := storage.Migrate(cfg.DatabaseUrl); err != nil {
				log.Fatalf("failed to apply migrations: %v", err)
			}
		}

		db, err := storage.InitDB(cfg.DatabaseUrl, storage.PoolConfig{
			MaxConns: cfg.Pool.MaxConns,
			MinConns: cfg.Pool.MinConns,
		})
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()

		allProviders, err := providers.New(db, cfg.Cache.Size)
		if err != nil {
			log.Fatalf("failed to create providers: %v", err)
		}
		store = allProviders.TemplateProvider
	}

	templates := service.NewTemplateService(store, cfg.Retry.Policy(), nil)
	router := httptransport.Router(templates, cfg)

	if err := server.Start(ctx, cfg.Server, router); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	slog.Info("server stopped")
}

func setupLogger(env string) {
	var handler slog.Handler
	switch env {
	case "local":
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}
