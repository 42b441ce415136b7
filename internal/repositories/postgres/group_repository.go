package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bsiwatch/internal/model"
)

type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

const createGroupQuery = `
INSERT INTO threat_groups (source, group_name, aliases, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (source, group_name) DO NOTHING
RETURNING id, source, group_name, aliases, first_seen
`

func (r *GroupRepository) CreateIfNotExists(ctx context.Context, record model.GroupRecord) (model.StoredGroup, bool, error) {
	row := r.pool.QueryRow(ctx, createGroupQuery, record.Source, record.Name, record.Aliases, record.Payload)

	var group model.StoredGroup
	err := row.Scan(&group.ID, &group.Source, &group.Name, &group.Aliases, &group.FirstSeen)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict: the group is already known.
		return model.StoredGroup{}, false, nil
	}
	if err != nil {
		return model.StoredGroup{}, false, err
	}
	return group, true, nil
}

const recordRunQuery = `
INSERT INTO scrape_runs (source, fetched, saved, duplicates, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6)
`

func (r *GroupRepository) RecordRun(ctx context.Context, report model.RunReport) error {
	_, err := r.pool.Exec(ctx, recordRunQuery,
		report.Source, report.Fetched, report.Saved, report.Duplicates,
		report.StartedAt, report.FinishedAt,
	)
	return err
}
