// Package store persists pipeline runs, stage outcomes, and fetch audit
// events. SQLite is the default backend; Postgres is available for shared
// deployments, and NullStore serves runs that need no persistence.
package store

import (
	"context"

	"github.com/openlead/leadscout/internal/model"
)

// RunFilter narrows a run listing.
type RunFilter struct {
	State  model.RunState `json:"state,omitempty"`
	Limit  int            `json:"limit,omitempty"`
	Offset int            `json:"offset,omitempty"`
}

// Store is the persistence boundary of the pipeline. Every method is safe
// for concurrent use.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, runID string) (*model.Run, error)
	UpdateRunState(ctx context.Context, runID string, state model.RunState) error
	CompleteRun(ctx context.Context, runID string, state model.RunState, summary []byte) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Stages
	RecordStage(ctx context.Context, runID string, stage model.StageResult) error

	// Audit trail
	RecordAudit(ctx context.Context, runID string, ev model.AuditEvent) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// NullStore discards everything. Used when persistence is disabled.
type NullStore struct{}

func (NullStore) CreateRun(_ context.Context, runID string) (*model.Run, error) {
	return &model.Run{ID: runID, State: model.RunIdle}, nil
}

func (NullStore) UpdateRunState(context.Context, string, model.RunState) error { return nil }

func (NullStore) CompleteRun(context.Context, string, model.RunState, []byte) error { return nil }

func (NullStore) GetRun(context.Context, string) (*model.Run, error) { return nil, nil }

func (NullStore) ListRuns(context.Context, RunFilter) ([]model.Run, error) { return nil, nil }

func (NullStore) RecordStage(context.Context, string, model.StageResult) error { return nil }

func (NullStore) RecordAudit(context.Context, string, model.AuditEvent) error { return nil }

func (NullStore) Migrate(context.Context) error { return nil }

func (NullStore) Close() error { return nil }
