package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bsiwatch/internal/artifact"
	"bsiwatch/internal/config"
	"bsiwatch/internal/db"
	"bsiwatch/internal/gitrepo"
	"bsiwatch/internal/httpapi"
	"bsiwatch/internal/model"
	"bsiwatch/internal/providers/apt"
	"bsiwatch/internal/providers/common"
	"bsiwatch/internal/providers/crime"
	"bsiwatch/internal/repositories"
	"bsiwatch/internal/repositories/postgres"
	"bsiwatch/internal/scheduler"
	"bsiwatch/internal/services/scraping"
	"bsiwatch/internal/telegram"
)

type Builder struct {
	cfg          *config.Config
	basePath     string
	ensureSchema bool

	pool      *pgxpool.Pool
	repo      repositories.GroupRepository
	notifier  scraping.Notifier
	scrapers  []scraping.SiteScraper
	store     scraping.ArtifactStore
	publisher scraping.Publisher

	scheduler *scheduler.Scheduler
	server    *http.Server
}

type BuilderOption func(*Builder)

func NewBuilder(cfg *config.Config, options ...BuilderOption) *Builder {
	builder := &Builder{
		cfg:          cfg,
		ensureSchema: true,
	}
	for _, option := range options {
		option(builder)
	}
	return builder
}

func WithBasePath(basePath string) BuilderOption {
	return func(b *Builder) {
		b.basePath = basePath
	}
}

func WithEnsureSchema(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.ensureSchema = enabled
	}
}

func WithDBPool(pool *pgxpool.Pool) BuilderOption {
	return func(b *Builder) {
		b.pool = pool
	}
}

func WithRepository(repo repositories.GroupRepository) BuilderOption {
	return func(b *Builder) {
		b.repo = repo
	}
}

func WithNotifier(notifier scraping.Notifier) BuilderOption {
	return func(b *Builder) {
		b.notifier = notifier
	}
}

func WithScrapers(scrapers []scraping.SiteScraper) BuilderOption {
	return func(b *Builder) {
		b.scrapers = scrapers
	}
}

func WithArtifactStore(store scraping.ArtifactStore) BuilderOption {
	return func(b *Builder) {
		b.store = store
	}
}

func WithPublisher(publisher scraping.Publisher) BuilderOption {
	return func(b *Builder) {
		b.publisher = publisher
	}
}

func WithScheduler(scheduler *scheduler.Scheduler) BuilderOption {
	return func(b *Builder) {
		b.scheduler = scheduler
	}
}

func WithHTTPServer(server *http.Server) BuilderOption {
	return func(b *Builder) {
		b.server = server
	}
}

func (b *Builder) Build(ctx context.Context) (*App, error) {
	if b.cfg == nil {
		return nil, errors.New("config is required")
	}

	basePath := b.basePath
	if basePath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		basePath = wd
	}
	basePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	app := &App{Config: b.cfg}

	if b.repo == nil {
		if b.cfg.DBEnabled {
			if b.pool == nil {
				pool, err := db.NewPool(ctx, b.cfg.PostgresDSN())
				if err != nil {
					return nil, err
				}
				b.pool = pool
				app.ownsPool = true
			}
			if b.ensureSchema {
				if err := db.EnsureSchema(ctx, b.pool, basePath); err != nil {
					return nil, err
				}
			}
			b.repo = postgres.NewGroupRepository(b.pool)
		} else {
			log.Printf("database disabled; groups are not persisted")
			b.repo = repositories.Discard{}
		}
	}
	app.Pool = b.pool
	app.Repo = b.repo

	if b.notifier == nil {
		if b.cfg.TelegramEnabled() {
			b.notifier = telegram.NewSender(b.cfg.TelegramToken, b.cfg.TelegramChat, b.cfg.TelegramThreadID)
		} else {
			log.Printf("telegram not configured; alerts disabled")
			b.notifier = discardNotifier{}
		}
	}
	app.Notifier = b.notifier

	if b.scrapers == nil {
		client := common.NewClient()
		b.scrapers = []scraping.SiteScraper{
			apt.NewScraper(client),
			crime.NewScraper(client),
		}
	}
	app.Scrapers = b.scrapers

	if b.store == nil {
		dataDir := b.cfg.DataDir
		if !filepath.IsAbs(dataDir) {
			dataDir = filepath.Join(basePath, dataDir)
		}
		b.store = artifact.NewStore(dataDir)
	}
	app.Store = b.store

	if b.publisher == nil && b.cfg.GitEnabled {
		if _, err := git.PlainOpenWithOptions(basePath, &git.PlainOpenOptions{DetectDotGit: true}); err != nil {
			log.Printf("git publishing disabled: %v", err)
		} else {
			b.publisher = gitrepo.NewPublisher(basePath, b.cfg.GitAuthorName, b.cfg.GitAuthorEmail, b.cfg.GitPush)
		}
	}
	app.Publisher = b.publisher

	app.ScrapeService = scraping.NewService(app.Repo, app.Notifier, app.Store, app.Publisher, app.Scrapers)

	if b.scheduler == nil {
		b.scheduler = scheduler.New(b.cfg.CronSpec, app.ScrapeService)
	}
	app.Scheduler = b.scheduler

	if b.server == nil {
		handler := httpapi.NewHandler(app.ScrapeService)
		b.server = &http.Server{
			Addr:              ":" + b.cfg.HTTPPort,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}
	app.Server = b.server

	return app, nil
}

type discardNotifier struct{}

func (discardNotifier) SendAlert(model.StoredGroup, string) {}
