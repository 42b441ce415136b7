package scraping

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bsiwatch/internal/model"
	"bsiwatch/internal/repositories"
)

type Service struct {
	repo      repositories.GroupRepository
	notifier  Notifier
	store     ArtifactStore
	publisher Publisher
	scrapers  []SiteScraper

	mu      sync.Mutex
	running bool
}

func NewService(repo repositories.GroupRepository, notifier Notifier, store ArtifactStore, publisher Publisher, scrapers []SiteScraper) *Service {
	return &Service{
		repo:      repo,
		notifier:  notifier,
		store:     store,
		publisher: publisher,
		scrapers:  scrapers,
	}
}

// Run executes the pipeline and logs failures. Used by the scheduler and the
// HTTP dispatch endpoint, which fire and forget.
func (s *Service) Run(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		log.Printf("scrape error: %v", err)
	}
}

// RunOnce executes the pipeline and returns its error, for one-shot callers
// that need an exit code. A run requested while another is in flight is
// skipped.
func (s *Service) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Println("scrape already running; skipping")
		return nil
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	return s.scrape(ctx)
}

func (s *Service) scrape(ctx context.Context) error {
	log.Printf("Scraping started")
	startedAt := time.Now()

	snapshots := make(chan *model.Snapshot, len(s.scrapers))
	group, gctx := errgroup.WithContext(ctx)

	for _, scraper := range s.scrapers {
		sc := scraper
		group.Go(func() error {
			log.Printf("[%s] scraping...", sc.Source())
			snapshot, err := sc.Scrape(gctx)
			if err != nil {
				return fmt.Errorf("[%s] scrape: %w", sc.Source(), err)
			}
			snapshots <- snapshot
			return nil
		})
	}

	scrapeErr := group.Wait()
	close(snapshots)

	changed := []string{}
	for snapshot := range snapshots {
		stats := s.persist(ctx, snapshot)

		path, dirty, err := s.store.Write(snapshot)
		if err != nil {
			log.Printf("[%s] artifact write failed: %v", snapshot.Source, err)
			if scrapeErr == nil {
				scrapeErr = err
			}
		} else if dirty {
			log.Printf("[%s] artifact updated: %s", snapshot.Source, path)
			changed = append(changed, path)
		}

		report := model.RunReport{
			Source:     snapshot.Source,
			Fetched:    snapshot.Len(),
			Saved:      stats.saved,
			Duplicates: stats.duplicates,
			StartedAt:  startedAt,
			FinishedAt: time.Now(),
		}
		if err := s.repo.RecordRun(ctx, report); err != nil {
			log.Printf("[%s] record run failed: %v", snapshot.Source, err)
		}

		log.Printf("[%s] summary: fetched=%d saved=%d duplicates=%d",
			snapshot.Source, report.Fetched, report.Saved, report.Duplicates)
	}

	// A failed scraper halts the pipeline before the commit step, the same
	// way a failed workflow step would.
	if scrapeErr != nil {
		log.Printf("publish skipped: %v", scrapeErr)
		return scrapeErr
	}

	if len(changed) == 0 {
		log.Printf("no artifact changes; nothing to publish")
		return nil
	}
	if s.publisher == nil {
		log.Printf("publishing disabled; %d changed artifact(s) left uncommitted", len(changed))
		return nil
	}
	if err := s.publisher.Publish(ctx, changed); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

type scrapeStats struct {
	saved      int
	duplicates int
}

func (s *Service) persist(ctx context.Context, snapshot *model.Snapshot) scrapeStats {
	var stats scrapeStats

	records, err := snapshot.Records()
	if err != nil {
		log.Printf("[%s] flatten failed: %v", snapshot.Source, err)
		return stats
	}

	for _, record := range records {
		stored, created, err := s.repo.CreateIfNotExists(ctx, record)
		if err != nil {
			log.Printf("[%s] insert failed for %q: %v", record.Source, record.Name, err)
			continue
		}
		if !created {
			stats.duplicates++
			continue
		}
		stats.saved++
		log.Printf("[%s] new group: %s", record.Source, record.Name)
		if s.notifier != nil {
			s.notifier.SendAlert(stored, record.Link)
		}
	}
	return stats
}
