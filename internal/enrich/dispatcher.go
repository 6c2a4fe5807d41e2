// Package enrich runs optional per-entity enrichment tasks: tech stack
// detection, hiring signals, and domain resolution. Every task is
// best-effort; a failed or timed-out task leaves its slot marked and the
// entity moves on.
package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openlead/leadscout/internal/model"
	"github.com/openlead/leadscout/internal/resilience"
)

// Task is one enrichment dimension. Run reads the entity and returns its
// result; it must not write to the entity itself, the dispatcher owns the
// Enrichment map.
type Task interface {
	Name() string
	Run(ctx context.Context, entity *model.CanonicalEntity) (model.EnrichmentResult, error)
}

// Config controls the dispatcher.
type Config struct {
	// Concurrency bounds in-flight task executions across all entities.
	// Default: 8.
	Concurrency int

	// TaskTimeout bounds a single task on a single entity. Default: 20s.
	TaskTimeout time.Duration
}

// Dispatcher fans enrichment tasks out over entities.
type Dispatcher struct {
	tasks []Task
	cfg   Config
}

func NewDispatcher(cfg Config, tasks ...Task) *Dispatcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = 20 * time.Second
	}
	return &Dispatcher{tasks: tasks, cfg: cfg}
}

// Enrich runs every task against every entity on a bounded pool. Task
// failures never fail the batch; each failure is recorded in the entity's
// enrichment slot and counted in the returned tally (task name → count).
// The error return is reserved for context cancellation.
func (d *Dispatcher) Enrich(ctx context.Context, entities []model.CanonicalEntity) (map[string]int, error) {
	failures := make(map[string]int)
	if len(d.tasks) == 0 || len(entities) == 0 {
		return failures, nil
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Concurrency)

	for i := range entities {
		entity := &entities[i]
		for _, task := range d.tasks {
			g.Go(func() error {
				res := d.runOne(ctx, task, entity)
				mu.Lock()
				if entity.Enrichment == nil {
					entity.Enrichment = make(map[string]model.EnrichmentResult)
				}
				entity.Enrichment[task.Name()] = res
				if res.Status != model.EnrichOK {
					failures[task.Name()]++
				}
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return failures, eris.Wrap(err, "enrich: wait")
	}
	return failures, ctx.Err()
}

// runOne executes a single task under its timeout and converts any failure
// into a result carrying the failure kind.
func (d *Dispatcher) runOne(ctx context.Context, task Task, entity *model.CanonicalEntity) model.EnrichmentResult {
	taskCtx, cancel := context.WithTimeout(ctx, d.cfg.TaskTimeout)
	defer cancel()

	res, err := task.Run(taskCtx, entity)
	if err == nil {
		res.Task = task.Name()
		if res.Status == "" {
			res.Status = model.EnrichOK
		}
		return res
	}

	zap.L().Debug("enrichment task failed",
		zap.String("task", task.Name()),
		zap.String("entity", entity.Name),
		zap.Error(err),
	)

	status := model.EnrichError
	if taskCtx.Err() == context.DeadlineExceeded {
		status = model.EnrichTimeout
	}
	// Wrapper failures keep their kind; a task's own fault is its own kind.
	kind := resilience.KindEnrichment
	var fe *resilience.FetchError
	if errors.As(err, &fe) {
		kind = fe.Kind
	}
	return model.EnrichmentResult{
		Task:        task.Name(),
		Status:      status,
		FailureKind: string(kind),
	}
}
