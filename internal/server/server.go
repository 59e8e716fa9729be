package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rpattn/staffing/internal/auth"
	"github.com/rpattn/staffing/internal/config"
	"github.com/rpattn/staffing/internal/export"
	"github.com/rpattn/staffing/internal/ingestion"
	"github.com/rpattn/staffing/internal/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"golang.org/x/sync/errgroup"
)

// Dependencies are the services mounted by NewHandler.
type Dependencies struct {
	Config  config.Config
	Log     logrus.FieldLogger
	Imports *ingestion.Service
	Exports *export.Service
	// Ready backs /healthz. A nil Ready always reports healthy.
	Ready func(ctx context.Context) error
}

// NewHandler builds the HTTP surface: health and metrics endpoints plus the
// import and export API behind the identity middleware.
func NewHandler(deps Dependencies) (http.Handler, error) {
	cfg := deps.Config

	rate, err := limiter.NewRateFromFormatted(cfg.RateLimit.Imports)
	if err != nil {
		return nil, fmt.Errorf("invalid import rate limit %q: %w", cfg.RateLimit.Imports, err)
	}
	uploads := stdlib.NewMiddleware(limiter.New(memory.NewStore(), rate))

	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthz(deps.Ready)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.NewRoute().Subrouter()
	api.Use(auth.HeaderMiddleware(cfg.Auth.UserHeader))
	imports := ingestion.NewHTTPHandler(deps.Imports, cfg.Upload.MaxBytes)
	imports.RegisterUploadRoutes(api, uploads.Handler)
	imports.RegisterHistoryRoutes(api, gziphandler.GzipHandler)
	export.NewHTTPHandler(deps.Exports).RegisterRoutes(api, gziphandler.GzipHandler)

	var handler http.Handler = router
	handler = middleware.LoggingMiddleware(deps.Log)(handler)
	handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
	}).Handler(handler)
	return handler, nil
}

func healthz(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}

// Run serves handler until ctx is cancelled, then shuts down gracefully
// within the configured timeout.
func Run(ctx context.Context, cfg config.ServerConfig, handler http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", cfg.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		log.Info("http server stopped")
		return nil
	})
	return g.Wait()
}
