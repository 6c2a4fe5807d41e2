package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlead/leadscout/internal/collector"
	"github.com/openlead/leadscout/internal/dedup"
	"github.com/openlead/leadscout/internal/enrich"
	"github.com/openlead/leadscout/internal/model"
	"github.com/openlead/leadscout/internal/score"
	"github.com/openlead/leadscout/internal/store"
)

// stubCollector emits a fixed batch of records.
type stubCollector struct {
	name    string
	records []model.RawRecord
	err     error
	block   bool
}

func (s *stubCollector) Name() string { return s.name }

func (s *stubCollector) Collect(ctx context.Context, _ collector.Query, emit collector.EmitFunc) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	for _, rec := range s.records {
		rec.Source = s.name
		if !emit(rec) {
			return nil
		}
	}
	return s.err
}

// stubEnrichTask returns a canned result.
type stubEnrichTask struct {
	name   string
	result model.EnrichmentResult
	err    error
}

func (s *stubEnrichTask) Name() string { return s.name }

func (s *stubEnrichTask) Run(context.Context, *model.CanonicalEntity) (model.EnrichmentResult, error) {
	return s.result, s.err
}

// techForDomainTask attaches a tech stack only to the matching domain.
type techForDomainTask struct {
	domain string
	techs  []string
}

func (s *techForDomainTask) Name() string { return model.TaskTechStack }

func (s *techForDomainTask) Run(_ context.Context, e *model.CanonicalEntity) (model.EnrichmentResult, error) {
	result := model.EnrichmentResult{Status: model.EnrichOK, Tech: &model.TechStack{}}
	if e.Domain == s.domain {
		result.Tech.Technologies = s.techs
	}
	return result, nil
}

// stateStore records state transitions on top of a NullStore.
type stateStore struct {
	store.NullStore
	mu        sync.Mutex
	states    []model.RunState
	stages    []model.StageResult
	completed model.RunState
	summary   []byte
}

func (s *stateStore) UpdateRunState(_ context.Context, _ string, state model.RunState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
	return nil
}

func (s *stateStore) RecordStage(_ context.Context, _ string, stage model.StageResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = append(s.stages, stage)
	return nil
}

func (s *stateStore) CompleteRun(_ context.Context, _ string, state model.RunState, summary []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = state
	s.summary = summary
	return nil
}

func newOrchestrator(t *testing.T, cfg Config, st store.Store, tasks []enrich.Task, collectors ...collector.Collector) *Orchestrator {
	t.Helper()
	reg := collector.NewRegistry()
	for _, c := range collectors {
		require.NoError(t, reg.Register(c))
	}
	deduper, err := dedup.New(dedup.Config{})
	require.NoError(t, err)
	scorer, err := score.New(score.Config{})
	require.NoError(t, err)

	var dispatcher *enrich.Dispatcher
	if len(tasks) > 0 {
		dispatcher = enrich.NewDispatcher(enrich.Config{}, tasks...)
	}
	return New(cfg, reg, deduper, dispatcher, scorer, st)
}

func successRec(name, url string) model.RawRecord {
	return model.RawRecord{
		Status:    model.StatusSuccess,
		Name:      name,
		URL:       url,
		FetchedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestRunMergesAcrossSources(t *testing.T) {
	a := &stubCollector{name: "alpha", records: []model.RawRecord{
		successRec("Acme Corp", "https://acme.example"),
		successRec("Borealis", "https://borealis.example"),
	}}
	b := &stubCollector{name: "beta", records: []model.RawRecord{
		successRec("ACME Inc", "https://www.acme.example"),
	}}

	st := &stateStore{}
	o := newOrchestrator(t, Config{}, st, nil, a, b)

	res, err := o.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)

	// Three records collapse to two entities, all scored.
	assert.Equal(t, 3, res.Summary.RecordsCollected)
	assert.Equal(t, 2, res.Summary.EntitiesMerged)
	assert.Equal(t, 2, res.Summary.EntitiesScored)
	require.Len(t, res.Entities, 2)
	for _, e := range res.Entities {
		require.NotNil(t, e.Score)
	}
	// Sorted by composite descending.
	assert.GreaterOrEqual(t, res.Entities[0].Score.Composite, res.Entities[1].Score.Composite)

	assert.Equal(t, model.RunCompleted, res.Summary.State)
	assert.Equal(t, model.RunCompleted, st.completed)
	assert.NotEmpty(t, st.summary)
	assert.Equal(t, []model.RunState{
		model.RunCollecting, model.RunDeduping, model.RunEnriching, model.RunScoring,
	}, st.states)
}

func TestRunCollectorFailureIsNonFatal(t *testing.T) {
	good := &stubCollector{name: "good", records: []model.RawRecord{
		successRec("Acme", "https://acme.example"),
	}}
	bad := &stubCollector{name: "bad", err: assert.AnError}

	o := newOrchestrator(t, Config{}, nil, nil, good, bad)

	res, err := o.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.RecordsCollected)
	assert.Equal(t, 1, res.Summary.TotalFailures())
}

func TestRunFailsWithNoData(t *testing.T) {
	empty := &stubCollector{name: "empty"}

	st := &stateStore{}
	o := newOrchestrator(t, Config{}, st, nil, empty)

	res, err := o.Run(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_data")
	assert.Equal(t, model.RunFailed, res.Summary.State)
	assert.Equal(t, "no_data", res.Summary.FailReason)
	assert.Equal(t, model.RunFailed, st.completed)
}

func TestRunMinScoreFilter(t *testing.T) {
	c := &stubCollector{name: "src", records: []model.RawRecord{
		successRec("Acme", "https://acme.example"),
	}}

	o := newOrchestrator(t, Config{MinScore: 99}, nil, nil, c)

	res, err := o.Run(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_data")
	assert.Empty(t, res.Entities)
}

func TestRunEnrichmentAttached(t *testing.T) {
	c := &stubCollector{name: "src", records: []model.RawRecord{
		successRec("Acme", "https://acme.example"),
	}}
	task := &stubEnrichTask{
		name: model.TaskHiring,
		result: model.EnrichmentResult{
			Status: model.EnrichOK,
			Hiring: &model.HiringSignal{IsHiring: true, OpenRoles: 4},
		},
	}

	o := newOrchestrator(t, Config{}, nil, []enrich.Task{task}, c)

	res, err := o.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, res.Entities, 1)

	e := res.Entities[0]
	require.Contains(t, e.Enrichment, model.TaskHiring)
	assert.Positive(t, e.Score.Intent)
}

func TestRunTechEnrichmentRaisesTechScore(t *testing.T) {
	a := &stubCollector{name: "alpha", records: []model.RawRecord{
		successRec("Acme Corp", "https://acme.example"),
		successRec("Borealis", "https://borealis.example"),
	}}
	b := &stubCollector{name: "beta", records: []model.RawRecord{
		successRec("ACME Inc", "https://www.acme.example"),
	}}
	task := &techForDomainTask{
		domain: "acme.example",
		techs:  []string{"React", "AWS", "PostgreSQL"},
	}

	o := newOrchestrator(t, Config{}, nil, []enrich.Task{task}, a, b)

	res, err := o.Run(context.Background(), Request{})
	require.NoError(t, err)
	require.Len(t, res.Entities, 2)

	byDomain := make(map[string]model.CanonicalEntity, 2)
	for _, e := range res.Entities {
		require.NotNil(t, e.Score)
		byDomain[e.Domain] = e
	}
	acme, ok := byDomain["acme.example"]
	require.True(t, ok)
	borealis, ok := byDomain["borealis.example"]
	require.True(t, ok)

	// The tech-enriched entity outscores the bare one on the Tech dimension
	// within the same run.
	assert.Greater(t, acme.Score.Tech, borealis.Score.Tech)
	assert.Zero(t, borealis.Score.Tech)
	assert.GreaterOrEqual(t, acme.Score.Tech, 40.0)
}

func TestRunEnrichmentFailureCounted(t *testing.T) {
	c := &stubCollector{name: "src", records: []model.RawRecord{
		successRec("Acme", "https://acme.example"),
	}}
	task := &stubEnrichTask{name: "flaky", err: assert.AnError}

	o := newOrchestrator(t, Config{}, nil, []enrich.Task{task}, c)

	res, err := o.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.FailureCount("flaky", "enrichment_error"))
	// The run still completes: enrichment failures are task-local.
	assert.Equal(t, model.RunCompleted, res.Summary.State)
}

func TestRunDeadlineKeepsCompletedWork(t *testing.T) {
	fast := &stubCollector{name: "fast", records: []model.RawRecord{
		successRec("Acme", "https://acme.example"),
	}}
	slow := &stubCollector{name: "slow", block: true}

	o := newOrchestrator(t, Config{Deadline: 100 * time.Millisecond}, nil, nil, fast, slow)

	start := time.Now()
	res, err := o.Run(context.Background(), Request{})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)

	// The fast collector's record survived the expired deadline.
	assert.Equal(t, 1, res.Summary.RecordsCollected)
	require.Len(t, res.Entities, 1)
	assert.Equal(t, model.RunCompleted, res.Summary.State)
}

func TestRunUnknownSource(t *testing.T) {
	c := &stubCollector{name: "src"}
	o := newOrchestrator(t, Config{}, nil, nil, c)

	res, err := o.Run(context.Background(), Request{Sources: []string{"nope"}})
	require.Error(t, err)
	assert.Equal(t, model.RunFailed, res.Summary.State)
}
