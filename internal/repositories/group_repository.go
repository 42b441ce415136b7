package repositories

import (
	"context"
	"errors"

	"bsiwatch/internal/model"
)

var ErrNotFound = errors.New("record not found")

type GroupRepository interface {
	// CreateIfNotExists inserts the group unless a row with the same source
	// and name already exists. The bool reports whether a row was created.
	CreateIfNotExists(ctx context.Context, record model.GroupRecord) (model.StoredGroup, bool, error)

	// RecordRun stores the summary of one scraper's share of a pipeline run.
	RecordRun(ctx context.Context, report model.RunReport) error
}

// Discard is the repository used when persistence is disabled. Nothing is
// stored and no group is ever reported as new, so disabling the database also
// silences new-group alerts.
type Discard struct{}

func (Discard) CreateIfNotExists(_ context.Context, record model.GroupRecord) (model.StoredGroup, bool, error) {
	return model.StoredGroup{Source: record.Source, Name: record.Name, Aliases: record.Aliases}, false, nil
}

func (Discard) RecordRun(context.Context, model.RunReport) error {
	return nil
}
