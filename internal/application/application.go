package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/RPwnage/EA-Software-sub002/internal/config"
	"github.com/RPwnage/EA-Software-sub002/internal/handler"
	"github.com/RPwnage/EA-Software-sub002/internal/router"
	"github.com/RPwnage/EA-Software-sub002/internal/service"
	"github.com/RPwnage/EA-Software-sub002/internal/store"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// API is the mock session-directory application.
type API struct {
	cfg       *config.Config
	srv       *http.Server
	hub       *service.EventHub
	dir       *service.Directory
	scheduler gocron.Scheduler
}

// NewAPI creates the application: validates config, builds the directory
// service and router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	hub := service.NewEventHub(cfg.WSReadBufferSize, cfg.WSWriteBufferSize, logger)
	metrics := service.NewMetrics(logger, cfg.ReportEveryOps)
	dir := service.NewDirectory(store.New(), metrics, hub, logger, cfg.VerboseLogging)

	sessionHandler := handler.NewSessionHandler(dir)
	handlesHandler := handler.NewHandlesHandler(dir)
	eventsHandler := handler.NewEventsHandler(hub, logger)
	health := handler.NewHealthHandler()

	r := router.New(sessionHandler, handlesHandler, eventsHandler, health)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	api := &API{cfg: cfg, srv: srv, hub: hub, dir: dir}

	if cfg.ReportIntervalSec > 0 {
		sched, err := gocron.NewScheduler()
		if err != nil {
			return nil, fmt.Errorf("scheduler: %w", err)
		}
		_, err = sched.NewJob(
			gocron.DurationJob(time.Duration(cfg.ReportIntervalSec)*time.Second),
			gocron.NewTask(dir.ReportSummary),
		)
		if err != nil {
			return nil, fmt.Errorf("scheduler: %w", err)
		}
		api.scheduler = sched
	}

	return api, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled; then shuts
// down gracefully.
func (a *API) Run(ctx context.Context) error {
	addr := a.srv.Addr
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", addr)
	log.Printf("  Health:    %s/health", base)
	log.Printf("  Sessions:  %s/serviceconfigs/{scid}/sessiontemplates/{templateName}/sessions/{sessionName}", base)
	log.Printf("  Handles:   %s/handles", base)
	log.Printf("  Events:    ws://%s:%s/ws/events", host, a.cfg.HTTPPort)

	if a.scheduler != nil {
		a.scheduler.Start()
	}

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	if a.scheduler != nil {
		_ = a.scheduler.Shutdown()
	}
	a.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
