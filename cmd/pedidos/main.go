package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mgiraudo/pedidos/internal/backend"
	"github.com/mgiraudo/pedidos/internal/catalog"
	"github.com/mgiraudo/pedidos/internal/connectivity"
	"github.com/mgiraudo/pedidos/internal/draft"
	"github.com/mgiraudo/pedidos/internal/httpapi"
	"github.com/mgiraudo/pedidos/internal/pending"
	"github.com/mgiraudo/pedidos/internal/reconcile"
	"github.com/mgiraudo/pedidos/internal/storage"
	"github.com/mgiraudo/pedidos/internal/submit"
)

func main() {
	cfg := loadConfig()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	kv, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open local storage")
	}
	defer kv.Close()

	if err := kv.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()

	drafts, err := draft.NewStore(ctx, kv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to rehydrate draft")
	}
	snapshots := draft.NewSnapshotManager(kv, drafts)
	queue := pending.NewQueue(kv)
	monitor := connectivity.NewMonitor(cfg.StartOnline)

	client := backend.NewClient(cfg.BackendBaseURL, cfg.BackendTimeout)

	pageCache, err := catalog.NewLRUPageCache(cfg.CatalogCacheSz)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build catalog cache")
	}
	catalogSvc := catalog.NewService(client, pageCache)
	monitor.Subscribe(func(online bool) {
		log.Info().Bool("online", online).Msg("connectivity changed")
		if online {
			catalogSvc.Invalidate()
		}
	})

	pipeline := submit.NewPipeline(drafts, queue, client, monitor)
	orders := reconcile.NewService(client, queue, monitor)

	if ok, errSnap := snapshots.HasRecoverableSnapshot(ctx); errSnap != nil {
		log.Warn().Err(errSnap).Msg("could not check for a recoverable snapshot")
	} else if ok {
		log.Info().Msg("recoverable draft snapshot found; waiting for restore or discard")
	}

	handlers := httpapi.Handlers{
		Draft:   httpapi.NewDraftHandler(drafts, snapshots, pipeline, cfg.RequestTimeout),
		Orders:  httpapi.NewOrdersHandler(orders, client, cfg.RequestTimeout),
		Catalog: httpapi.NewCatalogHandler(catalogSvc, cfg.RequestTimeout),
		Auth:    httpapi.NewAuthHandler(client, cfg.RequestTimeout),
		System:  httpapi.NewSystemHandler(monitor, snapshots, cfg.RequestTimeout),
	}

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: httpapi.NewRouter(handlers, cfg.RequestTimeout, cfg.AllowedOrigins),
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("pedidos client starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// A last snapshot before going away, same as the browser hide event.
	if err := snapshots.TakeSnapshotIfSignificant(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to snapshot draft on shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
