package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlead/leadscout/internal/fetch"
	"github.com/openlead/leadscout/internal/model"
	"github.com/openlead/leadscout/internal/resilience"
)

type stubTask struct {
	name  string
	run   func(ctx context.Context, e *model.CanonicalEntity) (model.EnrichmentResult, error)
	calls atomic.Int32
}

func (s *stubTask) Name() string { return s.name }

func (s *stubTask) Run(ctx context.Context, e *model.CanonicalEntity) (model.EnrichmentResult, error) {
	s.calls.Add(1)
	return s.run(ctx, e)
}

func makeEntities(names ...string) []model.CanonicalEntity {
	out := make([]model.CanonicalEntity, len(names))
	for i, name := range names {
		out[i] = model.CanonicalEntity{
			ID:         name,
			Name:       name,
			Fields:     map[string]model.FieldValue{},
			Enrichment: map[string]model.EnrichmentResult{},
		}
	}
	return out
}

func TestDispatcherRunsEveryTaskOnEveryEntity(t *testing.T) {
	ok := func(context.Context, *model.CanonicalEntity) (model.EnrichmentResult, error) {
		return model.EnrichmentResult{Status: model.EnrichOK}, nil
	}
	a := &stubTask{name: "a", run: ok}
	b := &stubTask{name: "b", run: ok}

	entities := makeEntities("one", "two", "three")
	d := NewDispatcher(Config{Concurrency: 2}, a, b)

	failures, err := d.Enrich(context.Background(), entities)
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, int32(3), a.calls.Load())
	assert.Equal(t, int32(3), b.calls.Load())

	for _, e := range entities {
		assert.Contains(t, e.Enrichment, "a")
		assert.Contains(t, e.Enrichment, "b")
		assert.Equal(t, model.EnrichOK, e.Enrichment["a"].Status)
	}
}

func TestDispatcherIsolatesTaskFailure(t *testing.T) {
	good := &stubTask{name: "good", run: func(context.Context, *model.CanonicalEntity) (model.EnrichmentResult, error) {
		return model.EnrichmentResult{Status: model.EnrichOK}, nil
	}}
	bad := &stubTask{name: "bad", run: func(context.Context, *model.CanonicalEntity) (model.EnrichmentResult, error) {
		return model.EnrichmentResult{}, assert.AnError
	}}

	entities := makeEntities("one", "two")
	d := NewDispatcher(Config{}, good, bad)

	failures, err := d.Enrich(context.Background(), entities)
	require.NoError(t, err)
	assert.Equal(t, 2, failures["bad"])
	assert.Zero(t, failures["good"])

	res := entities[0].Enrichment["bad"]
	assert.Equal(t, model.EnrichError, res.Status)
	assert.Equal(t, string(resilience.KindEnrichment), res.FailureKind)
	assert.Equal(t, model.EnrichOK, entities[0].Enrichment["good"].Status)
}

func TestDispatcherTimesOutSlowTask(t *testing.T) {
	slow := &stubTask{name: "slow", run: func(ctx context.Context, _ *model.CanonicalEntity) (model.EnrichmentResult, error) {
		<-ctx.Done()
		return model.EnrichmentResult{}, ctx.Err()
	}}

	entities := makeEntities("one")
	d := NewDispatcher(Config{TaskTimeout: 20 * time.Millisecond}, slow)

	failures, err := d.Enrich(context.Background(), entities)
	require.NoError(t, err)
	assert.Equal(t, 1, failures["slow"])
	assert.Equal(t, model.EnrichTimeout, entities[0].Enrichment["slow"].Status)
}

func TestDispatcherKeepsWrapperFailureKind(t *testing.T) {
	blocked := &stubTask{name: "blocked", run: func(context.Context, *model.CanonicalEntity) (model.EnrichmentResult, error) {
		return model.EnrichmentResult{}, resilience.NewFetchError(resilience.KindPolicyBlocked, "https://x.example", 0, nil)
	}}

	entities := makeEntities("one")
	d := NewDispatcher(Config{}, blocked)

	_, err := d.Enrich(context.Background(), entities)
	require.NoError(t, err)
	assert.Equal(t, string(resilience.KindPolicyBlocked), entities[0].Enrichment["blocked"].FailureKind)
}

func TestDetectTech(t *testing.T) {
	body := `<html><script src="https://cdn.example/_next/static/app.js"></script>
	<script>gtag('config', 'G-1');</script>
	<link href="https://d1234.cloudfront.net/style.css">
	powered by PostgreSQL</html>`

	techs := DetectTech(body)
	assert.Contains(t, techs, "Next.js")
	assert.Contains(t, techs, "Google Analytics")
	assert.Contains(t, techs, "AWS")
	assert.Contains(t, techs, "PostgreSQL")
	assert.True(t, sortedStrings(techs))

	assert.Empty(t, DetectTech("plain static page"))
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}

func TestTechStackTaskFetchesHomepage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<script src="/wp-content/x.js"></script>`)) //nolint:errcheck
	}))
	defer srv.Close()

	client, err := fetch.NewClient(fetch.Config{PerHostDelay: time.Millisecond}, nil)
	require.NoError(t, err)

	entity := model.CanonicalEntity{
		Name:   "Acme",
		Fields: map[string]model.FieldValue{model.FieldURL: {Value: srv.URL}},
	}
	res, err := NewTechStackTask(client).Run(context.Background(), &entity)
	require.NoError(t, err)
	require.NotNil(t, res.Tech)
	assert.Equal(t, []string{"WordPress"}, res.Tech.Technologies)
}

func TestHiringTaskFallsBackToJobs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/careers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`We're hiring! Software Engineer (posted today). Senior Engineer. Apply now.`)) //nolint:errcheck
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := fetch.NewClient(fetch.Config{PerHostDelay: time.Millisecond}, nil)
	require.NoError(t, err)

	entity := model.CanonicalEntity{
		Name:   "Acme",
		Fields: map[string]model.FieldValue{model.FieldURL: {Value: srv.URL}},
	}
	res, err := NewHiringTask(client).Run(context.Background(), &entity)
	require.NoError(t, err)
	require.NotNil(t, res.Hiring)
	assert.True(t, res.Hiring.IsHiring)
	assert.GreaterOrEqual(t, res.Hiring.OpenRoles, 2)
	assert.GreaterOrEqual(t, res.Hiring.RecentPostings, 1)
}

func TestHiringTaskNoCareersPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := fetch.NewClient(fetch.Config{PerHostDelay: time.Millisecond}, nil)
	require.NoError(t, err)

	entity := model.CanonicalEntity{
		Name:   "Acme",
		Fields: map[string]model.FieldValue{model.FieldURL: {Value: srv.URL}},
	}
	_, err = NewHiringTask(client).Run(context.Background(), &entity)
	assert.Error(t, err)
}

func TestAnalyzeCareersPage(t *testing.T) {
	sig := analyzeCareersPage("Join our team. No openings right now.")
	assert.True(t, sig.IsHiring)
	assert.Zero(t, sig.OpenRoles)

	sig = analyzeCareersPage("About us. Contact.")
	assert.False(t, sig.IsHiring)
}

func TestDomainTaskRequiresDomain(t *testing.T) {
	entity := model.CanonicalEntity{Name: "Acme"}
	_, err := NewDomainTask().Run(context.Background(), &entity)
	assert.Error(t, err)
}

func TestDomainTaskResolvesLocalhost(t *testing.T) {
	entity := model.CanonicalEntity{Name: "Acme", Domain: "localhost"}
	result, err := NewDomainTask().Run(context.Background(), &entity)
	require.NoError(t, err)
	assert.Equal(t, model.EnrichOK, result.Status)
	require.NotNil(t, result.Domain)
	assert.True(t, result.Domain.Resolves)
	assert.NotEmpty(t, result.Domain.Addr)
}
