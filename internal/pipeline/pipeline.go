// Package pipeline orchestrates a full lead run: collect, dedupe, enrich,
// score. Stages run strictly in order; inside the collection and
// enrichment stages work fans out over bounded pools.
package pipeline

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/openlead/leadscout/internal/collector"
	"github.com/openlead/leadscout/internal/dedup"
	"github.com/openlead/leadscout/internal/enrich"
	"github.com/openlead/leadscout/internal/model"
	"github.com/openlead/leadscout/internal/resilience"
	"github.com/openlead/leadscout/internal/score"
	"github.com/openlead/leadscout/internal/store"
)

// Config holds the orchestration knobs.
type Config struct {
	// CollectConcurrency bounds how many collectors run at once.
	// Default: 4.
	CollectConcurrency int

	// Deadline bounds the whole run. On expiry in-flight work is
	// cancelled and the run proceeds with whatever completed. Zero means
	// no deadline.
	Deadline time.Duration

	// MinScore drops scored entities below the floor from the result.
	MinScore int
}

// Request is one run's input. RunID may be pre-assigned so collaborators
// (like the audit recorder) can bind to the run before it starts; empty
// means the orchestrator generates one.
type Request struct {
	RunID   string
	Query   collector.Query
	Sources []string
}

// Result is a finished run: scored entities sorted by composite descending
// plus the full summary. Every entity carries a non-nil score.
type Result struct {
	RunID    string                  `json:"run_id"`
	Entities []model.CanonicalEntity `json:"entities"`
	Summary  *model.RunSummary       `json:"summary"`
}

// Orchestrator wires the stages together over a store-backed run record.
type Orchestrator struct {
	cfg      Config
	registry *collector.Registry
	deduper  *dedup.Engine
	enricher *enrich.Dispatcher
	scorer   *score.Scorer
	store    store.Store
}

func New(cfg Config, reg *collector.Registry, deduper *dedup.Engine, enricher *enrich.Dispatcher, scorer *score.Scorer, st store.Store) *Orchestrator {
	if cfg.CollectConcurrency <= 0 {
		cfg.CollectConcurrency = 4
	}
	if st == nil {
		st = store.NullStore{}
	}
	return &Orchestrator{
		cfg:      cfg,
		registry: reg,
		deduper:  deduper,
		enricher: enricher,
		scorer:   scorer,
		store:    st,
	}
}

// Run executes the pipeline once. Non-fatal failures (a collector dying, a
// task timing out) are recorded in the summary; the only fatal outcome is
// zero entities reaching the scoring stage.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := zap.L().With(zap.String("run_id", runID))

	if o.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Deadline)
		defer cancel()
	}

	summary := &model.RunSummary{
		RunID:     runID,
		State:     model.RunIdle,
		StartedAt: time.Now().UTC(),
	}
	if _, err := o.store.CreateRun(ctx, runID); err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	setState := func(state model.RunState) {
		summary.State = state
		if err := o.store.UpdateRunState(ctx, runID, state); err != nil {
			log.Warn("state update failed", zap.Error(err))
		}
	}

	trackStage := func(name string, state model.RunState, fn func() error) error {
		setState(state)
		start := time.Now()
		err := fn()
		stage := model.StageResult{
			Name:       name,
			Status:     model.StageComplete,
			DurationMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			stage.Status = model.StageFailed
			stage.Error = err.Error()
			log.Error("stage failed", zap.String("stage", name), zap.Error(err))
		} else {
			log.Info("stage complete",
				zap.String("stage", name),
				zap.Int64("duration_ms", stage.DurationMS),
			)
		}
		if storeErr := o.store.RecordStage(ctx, runID, stage); storeErr != nil {
			log.Warn("stage record failed", zap.String("stage", name), zap.Error(storeErr))
		}
		return err
	}

	fail := func(reason string) (*Result, error) {
		summary.State = model.RunFailed
		summary.FailReason = reason
		summary.FinishedAt = time.Now().UTC()
		o.persistSummary(ctx, runID, summary, log)
		return &Result{RunID: runID, Summary: summary}, eris.Errorf("pipeline: run failed: %s", reason)
	}

	// Collect.
	pool := &recordPool{}
	err := trackStage("collect", model.RunCollecting, func() error {
		return o.collect(ctx, req, pool, summary, log)
	})
	if err != nil {
		return fail(err.Error())
	}

	// Dedupe runs single-threaded over the full pool.
	var entities []model.CanonicalEntity
	err = trackStage("dedupe", model.RunDeduping, func() error {
		var dedupeErr error
		entities, dedupeErr = o.deduper.Dedupe(pool.snapshot())
		summary.EntitiesMerged = len(entities)
		return dedupeErr
	})
	if err != nil {
		return fail(err.Error())
	}

	// Enrich. Failures isolate per task; deadline expiry keeps finished
	// slots.
	_ = trackStage("enrich", model.RunEnriching, func() error {
		if o.enricher == nil {
			return nil
		}
		failures, enrichErr := o.enricher.Enrich(ctx, entities)
		for task, n := range failures {
			for i := 0; i < n; i++ {
				summary.RecordFailure(task, string(resilience.KindEnrichment))
			}
		}
		if enrichErr != nil && ctx.Err() != nil {
			log.Warn("enrichment cut short by deadline", zap.Error(enrichErr))
			return nil
		}
		return enrichErr
	})

	// Score.
	var scored []model.CanonicalEntity
	err = trackStage("score", model.RunScoring, func() error {
		if len(entities) == 0 {
			return eris.New(string(resilience.KindNoData))
		}
		for i := range entities {
			rec := o.scorer.Score(&entities[i])
			entities[i].Score = rec
			if rec.Composite >= o.cfg.MinScore {
				scored = append(scored, entities[i])
			}
		}
		summary.EntitiesScored = len(scored)
		if len(scored) == 0 {
			return eris.New(string(resilience.KindNoData))
		}
		return nil
	})
	if err != nil {
		return fail(string(resilience.KindNoData))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.Composite > scored[j].Score.Composite
	})

	summary.State = model.RunCompleted
	summary.FinishedAt = time.Now().UTC()
	o.persistSummary(ctx, runID, summary, log)

	log.Info("run complete",
		zap.Int("records", summary.RecordsCollected),
		zap.Int("entities", summary.EntitiesMerged),
		zap.Int("scored", summary.EntitiesScored),
		zap.Int("failures", summary.TotalFailures()),
	)
	return &Result{RunID: runID, Entities: scored, Summary: summary}, nil
}

// collect fans registered collectors out over a bounded pool. A collector
// failure is recorded, never fatal to the run.
func (o *Orchestrator) collect(ctx context.Context, req Request, pool *recordPool, summary *model.RunSummary, log *zap.Logger) error {
	collectors, err := o.registry.Select(req.Sources)
	if err != nil {
		return err
	}
	if len(collectors) == 0 {
		return eris.New("pipeline: no collectors registered")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.CollectConcurrency)

	for _, c := range collectors {
		g.Go(func() error {
			emit := func(rec model.RawRecord) bool {
				pool.add(rec)
				if rec.Status == model.StatusPartial {
					summary.RecordFailure(c.Name(), "partial")
				}
				return gctx.Err() == nil
			}
			if collectErr := c.Collect(gctx, req.Query, emit); collectErr != nil {
				log.Warn("collector failed",
					zap.String("source", c.Name()),
					zap.Error(collectErr),
				)
				summary.RecordFailure(c.Name(), string(resilience.KindOf(collectErr)))
			}
			// Collector failures never abort sibling collectors.
			return nil
		})
	}
	_ = g.Wait()

	summary.RecordsCollected = pool.len()
	for _, rec := range pool.snapshot() {
		if rec.Status == model.StatusPartial {
			summary.RecordsPartial++
		}
	}
	return nil
}

func (o *Orchestrator) persistSummary(ctx context.Context, runID string, summary *model.RunSummary, log *zap.Logger) {
	data, err := json.Marshal(summary)
	if err != nil {
		log.Warn("summary marshal failed", zap.Error(err))
		return
	}
	// Persist even when the deadline killed the context.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := o.store.CompleteRun(storeCtx, runID, summary.State, data); err != nil {
		log.Warn("summary persist failed", zap.Error(err))
	}
}
