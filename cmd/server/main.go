// Command server is the entry point for the recommender service: it loads
// configuration, opens the repository, starts the Model Server's live
// slot, arms the daily training Scheduler, and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Betucciny/predictive-module/internal/api"
	"github.com/Betucciny/predictive-module/internal/artifact"
	"github.com/Betucciny/predictive-module/internal/catalog"
	"github.com/Betucciny/predictive-module/internal/config"
	"github.com/Betucciny/predictive-module/internal/logging"
	"github.com/Betucciny/predictive-module/internal/matrixbuilder"
	"github.com/Betucciny/predictive-module/internal/modelserver"
	"github.com/Betucciny/predictive-module/internal/repository"
	"github.com/Betucciny/predictive-module/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	logging.Info().Msg("starting recommender service")

	repo, err := repository.New(cfg.Database.Type, repository.SQLiteConfig{
		DSN:                     cfg.Database.DSN,
		TableInventoryMovements: cfg.Database.TableInventoryMovements,
		TableClients:            cfg.Database.TableClients,
		TableProducts:           cfg.Database.TableProducts,
		ExcludedClients:         cfg.Database.ExcludedClients,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open repository")
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing repository")
		}
	}()

	if sqliteRepo, ok := repo.(*repository.SQLite); ok {
		if err := sqliteRepo.Migrate(context.Background()); err != nil {
			logging.Fatal().Err(err).Msg("failed to migrate repository schema")
		}
	}

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid scheduler timezone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cat := catalog.New(repo)
	store := artifact.New(cfg.Model.ArtifactPath)
	server := modelserver.New(store, cat)
	if err := server.Start(ctx); err != nil {
		logging.Fatal().Err(err).Msg("failed to start model server")
	}
	defer func() {
		if err := server.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing model server")
		}
	}()

	builder := matrixbuilder.New(repo)
	sched := scheduler.New(builder, store, server, loc)

	if _, err := store.Load(); errors.Is(err, os.ErrNotExist) {
		logging.Info().Msg("no artifact found, running initial training in background")
		go sched.RunNow(ctx)
	}

	go sched.Run(ctx)

	router := api.NewRouter(server, cat)
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Error().Err(err).Msg("error during HTTP server shutdown")
		}
	}()

	logging.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal().Err(err).Msg("HTTP server error")
	}

	logging.Info().Msg("recommender service stopped gracefully")
}
