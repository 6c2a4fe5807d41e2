package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/collector"
	"github.com/openlead/leadscout/internal/dedup"
	"github.com/openlead/leadscout/internal/enrich"
	"github.com/openlead/leadscout/internal/fetch"
	"github.com/openlead/leadscout/internal/pipeline"
	"github.com/openlead/leadscout/internal/resilience"
	"github.com/openlead/leadscout/internal/score"
	"github.com/openlead/leadscout/internal/store"
)

// initStore opens the configured persistence backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	case "none":
		return store.NullStore{}, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initFetchClient builds the resilience wrapper from config.
func initFetchClient(sink fetch.AuditSink) (*fetch.Client, error) {
	fc := fetch.Config{
		PerHostDelay:  cfg.Fetch.PerHostDelay(),
		MaxAttempts:   cfg.Fetch.MaxAttempts,
		BackoffBase:   time.Duration(cfg.Fetch.BackoffBaseMS) * time.Millisecond,
		BackoffCap:    time.Duration(cfg.Fetch.BackoffCapMS) * time.Millisecond,
		Timeout:       time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		UserAgents:    cfg.Fetch.UserAgents,
		RespectRobots: cfg.Fetch.RespectRobots,
	}
	if cfg.Fetch.BreakerEnabled {
		bc := resilience.DefaultCircuitConfig()
		if cfg.Fetch.BreakerThreshold > 0 {
			bc.FailureThreshold = cfg.Fetch.BreakerThreshold
		}
		if cfg.Fetch.BreakerResetSecs > 0 {
			bc.ResetTimeout = time.Duration(cfg.Fetch.BreakerResetSecs) * time.Second
		}
		fc.Breaker = &bc
	}
	return fetch.NewClient(fc, sink)
}

// initRegistry builds collectors from the configured sources.
func initRegistry(client *fetch.Client) (*collector.Registry, error) {
	reg := collector.NewRegistry()
	for _, src := range cfg.Sources {
		switch src.Type {
		case "jsondir", "":
			c, err := collector.NewJSONDir(src.Name, src.Endpoint, client)
			if err != nil {
				return nil, err
			}
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		default:
			return nil, eris.Errorf("unknown source type %q for %q", src.Type, src.Name)
		}
	}
	return reg, nil
}

// initTasks builds the enabled enrichment tasks.
func initTasks(client *fetch.Client) ([]enrich.Task, error) {
	tasks := make([]enrich.Task, 0, len(cfg.Enrich.Tasks))
	for _, name := range cfg.Enrich.Tasks {
		switch name {
		case "techstack":
			tasks = append(tasks, enrich.NewTechStackTask(client))
		case "hiring":
			tasks = append(tasks, enrich.NewHiringTask(client))
		case "domain":
			tasks = append(tasks, enrich.NewDomainTask())
		default:
			return nil, eris.Errorf("unknown enrichment task %q", name)
		}
	}
	return tasks, nil
}

// initScorer builds the scoring engine, loading rules when configured.
func initScorer() (*score.Scorer, error) {
	var rules []score.Rule
	if cfg.Scoring.RulesFile != "" {
		var err error
		rules, err = score.LoadRules(cfg.Scoring.RulesFile)
		if err != nil {
			return nil, err
		}
	}
	return score.New(score.Config{
		Weights:    cfg.Scoring.Weights,
		Thresholds: cfg.Scoring.Thresholds,
		Rules:      rules,
	})
}

// env bundles everything a run needs.
type env struct {
	store        store.Store
	orchestrator *pipeline.Orchestrator
}

func (e *env) Close() {
	_ = e.store.Close()
}

// initEnv wires the full pipeline for the given run ID.
func initEnv(ctx context.Context, runID string) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	sink := fetch.MultiSink{fetch.ZapSink{}, store.NewAuditRecorder(st, runID)}
	client, err := initFetchClient(sink)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	reg, err := initRegistry(client)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	tasks, err := initTasks(client)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	scorer, err := initScorer()
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	deduper, err := dedup.New(dedup.Config{
		Threshold:      cfg.Dedup.Threshold,
		SourcePriority: cfg.Dedup.SourcePriority,
	})
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	dispatcher := enrich.NewDispatcher(enrich.Config{
		Concurrency: cfg.Enrich.Concurrency,
		TaskTimeout: time.Duration(cfg.Enrich.TaskTimeoutSecs) * time.Second,
	}, tasks...)

	orch := pipeline.New(pipeline.Config{
		CollectConcurrency: cfg.Collect.Concurrency,
		Deadline:           time.Duration(cfg.Pipeline.DeadlineSecs) * time.Second,
		MinScore:           cfg.Scoring.MinScore,
	}, reg, deduper, dispatcher, scorer, st)

	return &env{store: st, orchestrator: orch}, nil
}
