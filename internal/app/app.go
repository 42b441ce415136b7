package app

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"bsiwatch/internal/config"
	"bsiwatch/internal/repositories"
	"bsiwatch/internal/scheduler"
	"bsiwatch/internal/services/scraping"
)

type App struct {
	Config        *config.Config
	Pool          *pgxpool.Pool
	Repo          repositories.GroupRepository
	Notifier      scraping.Notifier
	Scrapers      []scraping.SiteScraper
	Store         scraping.ArtifactStore
	Publisher     scraping.Publisher
	ScrapeService *scraping.Service
	Scheduler     *scheduler.Scheduler
	Server        *http.Server

	ownsPool bool
}

// Start launches the cron scheduler and the HTTP server for daemon mode.
func (a *App) Start() error {
	if err := a.Scheduler.Start(); err != nil {
		return err
	}

	go func() {
		log.Printf("HTTP server listening on %s", a.Server.Addr)
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	return nil
}

// RunOnce executes a single pipeline run, for the one-shot entrypoint.
func (a *App) RunOnce(ctx context.Context) error {
	return a.ScrapeService.RunOnce(ctx)
}

func (a *App) Shutdown(ctx context.Context) error {
	a.Scheduler.Stop()
	if err := a.Server.Shutdown(ctx); err != nil {
		return err
	}
	// Let queued alerts drain before the process exits.
	if closer, ok := a.Notifier.(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(ctx); err != nil {
			log.Printf("notifier close error: %v", err)
		}
	}
	if a.ownsPool && a.Pool != nil {
		a.Pool.Close()
	}
	return nil
}
