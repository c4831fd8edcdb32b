package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"laune/reader/internal/client"
	"laune/reader/internal/config"
	"laune/reader/internal/database"
	"laune/reader/internal/metrics"
	"laune/reader/internal/querycache"
	"laune/reader/internal/server/storage"
	"laune/reader/internal/server/web"
)

// selectionRetention is how long an unused bulk fetch selection is kept.
const selectionRetention = 30 * 24 * time.Hour

// New builds the reader's HTTP handler: the pages, /health and /metrics
// behind the request logging middleware.
func New(cfg *config.Config, db *database.DB, logger zerolog.Logger) (http.Handler, error) {
	api, err := client.New(cfg.BackendURL,
		client.WithTimeout(cfg.RequestTimeout),
		client.WithSummaryInterval(cfg.SummaryInterval),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	cached := querycache.NewCachedClient(api, querycache.New(cfg.CacheSize, cfg.CacheTTL))

	sessions, err := web.NewSessions(cfg.SessionCapacity, cached, logger, cfg.SecureCookies)
	if err != nil {
		return nil, err
	}
	pages, err := web.NewHandler(cached, sessions, storage.NewRepository(db), web.Options{
		DefaultPageSize: cfg.DefaultPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create page handler: %w", err)
	}

	mux := http.NewServeMux()
	pages.Register(mux)
	mux.HandleFunc("GET /health", healthCheckHandler(db))
	mux.Handle("GET /metrics", metrics.Handler())

	// Set up middleware chain for logging and request tracking
	h := hlog.NewHandler(logger)(mux)
	h = hlog.MethodHandler("method")(h)
	h = hlog.URLHandler("url")(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	h = hlog.UserAgentHandler("user_agent")(h)
	h = hlog.RequestIDHandler("req_id", "Request-Id")(h)
	h = hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		idReq, _ := hlog.IDFromRequest(r)

		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Str("req_id", idReq.String()).
			Msg("HTTP Request")
	})(h)

	return h, nil
}

// RunServer starts the HTTP server with graceful shutdown support.
// It sets up routes, middleware, and handles OS signals for clean termination.
func RunServer(cfg *config.Config, db *database.DB, logger zerolog.Logger) error {
	logger = logger.With().Str("service", "laune-reader").Logger()

	handler, err := New(cfg, db, logger)
	if err != nil {
		return err
	}

	pruned, err := storage.NewRepository(db).PruneSelections(context.Background(), time.Now().Add(-selectionRetention))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to prune stale selections")
	} else if pruned > 0 {
		logger.Info().Int64("count", pruned).Msg("Pruned stale selections")
	}

	listenAddr := cfg.ListenAddr()
	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// A bulk fetch page is rendered after the backend answers.
		WriteTimeout: cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", listenAddr).
			Str("backend", cfg.BackendURL).
			Msg("Reader server starting")
		err := httpServer.ListenAndServe()
		if !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)

	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("HTTP server shutdown error")
			if err := httpServer.Close(); err != nil {
				logger.Error().Err(err).Msg("HTTP server force close error")
			}
		} else {
			logger.Info().Msg("HTTP server shutdown complete.")
		}
		if err := <-serverErr; err != nil {
			logger.Error().Err(err).Msg("ListenAndServe error during shutdown")
		}
	}

	logger.Info().Msg("Server exiting.")
	return nil
}

// healthCheckHandler responds with 200 OK while the state database answers.
func healthCheckHandler(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := hlog.FromRequest(r)
		log.Debug().Msg("Health check request received")

		if err := db.PingContext(r.Context()); err != nil {
			log.Error().Err(err).Msg("State database unavailable")
			http.Error(w, "State database unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		n, err := w.Write([]byte("OK"))
		if err != nil {
			log.Error().Err(err).Msg("Error writing health check response")
		} else {
			log.Debug().Int("bytes_written", n).Msg("Health check response sent")
		}
	}
}
