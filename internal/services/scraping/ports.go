package scraping

import (
	"context"

	"bsiwatch/internal/model"
)

type SiteScraper interface {
	Source() string
	Scrape(ctx context.Context) (*model.Snapshot, error)
}

type Notifier interface {
	SendAlert(group model.StoredGroup, link string)
}

// ArtifactStore persists a snapshot as a file and reports whether the file
// content changed.
type ArtifactStore interface {
	Write(snapshot *model.Snapshot) (path string, changed bool, err error)
}

// Publisher commits changed artifact files back to the repository.
type Publisher interface {
	Publish(ctx context.Context, paths []string) error
}
