package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cinecard/api"
	"cinecard/config"
	"cinecard/handlers"
	"cinecard/internal/logging"
	"cinecard/internal/metrics"
	"cinecard/services/export"
	"cinecard/services/metadata"
	"cinecard/services/review"
	"cinecard/utils"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP server exposing the metadata proxy, card sessions and PNG export.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.ListenAddr = serveAddr
	}
	closer := setupLogging(cfg)
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup := newServer(ctx, cfg, afero.NewOsFs())
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[server] cinecard %s listening on %s", handlers.BuildVersion(), cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("[server] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func setupLogging(cfg *config.Config) io.Closer {
	return logging.Setup(logging.Options{
		FilePath:   cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
}

// newServer wires every service into the router. The card sweeper runs until
// ctx is done; cleanup releases the export resources.
func newServer(ctx context.Context, cfg *config.Config, fs afero.Fs) (http.Handler, func()) {
	meta := metadata.NewService(cfg, fs)
	if !cfg.MetadataConfigured() {
		log.Printf("[metadata] TMDB_BEARER_TOKEN not set; metadata requests will return empty results")
	}

	store := review.NewStore(cfg.CardIdleTTL)
	go store.Run(ctx)

	exporter, closeExporter := export.New(ctx, cfg)
	limiter := api.PerMinute(cfg.ExportRatePerMinute)

	r := utils.NewRouter(cfg.AppOrigin)
	r.Use(middleware.RequestID, api.AccessLog, api.Recovery, metrics.Middleware)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	handlers.NewMetadataHandler(meta).Register(r)
	handlers.NewDetailsBundleHandler(meta).Register(r)
	handlers.NewCardsHandler(store, meta, exporter, limiter, cfg.DefaultReviewer).Register(r)
	handlers.NewVersionHandler().Register(r)

	return r, func() {
		limiter.Close()
		closeExporter()
	}
}
