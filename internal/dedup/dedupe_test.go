package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlead/leadscout/internal/model"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "acme"},
		{"ACME Corporation", "acme"},
		{"Acme, Inc.", "acme"},
		{"Acme Holdings LLC", "acme"},
		{"Ben & Jerry's", "ben and jerrys"},
		{"  Spaced   Out  Ltd ", "spaced out"},
		{"Straße GmbH", "strasse"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), "input %q", tt.in)
	}
}

func TestNormalizeDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.acme.example/about?x=1", "acme.example"},
		{"http://acme.example:8080/", "acme.example"},
		{"acme.example", "acme.example"},
		{"WWW.ACME.EXAMPLE", "acme.example"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDomain(tt.in), "input %q", tt.in)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("acme labs", "labs acme"))
	assert.Greater(t, Similarity("acme analytics", "acme analytic"), 0.9)
	assert.Less(t, Similarity("acme", "borealis"), 0.5)
	assert.Equal(t, 0.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("acme", ""))
}

func rawRec(source, name, url string, fetched time.Time) model.RawRecord {
	return model.RawRecord{
		Source:    source,
		Status:    model.StatusSuccess,
		Name:      name,
		URL:       url,
		FetchedAt: fetched,
	}
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func TestDedupeMergesVariants(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []model.RawRecord{
		rawRec("alpha", "Acme Corp", "https://acme.example", base),
		rawRec("beta", "ACME Corporation", "https://www.acme.example/about", base.Add(time.Hour)),
		rawRec("alpha", "Borealis", "https://borealis.example", base),
	}

	e := newEngine(t, Config{})
	entities, err := e.Dedupe(records)
	require.NoError(t, err)
	require.Len(t, entities, 2)

	// Sorted by canonical key, acme first.
	acme := entities[0]
	assert.Equal(t, "acme", acme.NormalizedName)
	assert.Equal(t, "acme.example", acme.Domain)
	assert.Equal(t, []string{"alpha", "beta"}, acme.Sources)
	// Newest fetch wins the display name.
	assert.Equal(t, "ACME Corporation", acme.Name)

	assert.Equal(t, "borealis", entities[1].NormalizedName)
}

func TestDedupeOrderIndependent(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []model.RawRecord{
		rawRec("alpha", "Acme Corp", "https://acme.example", base),
		rawRec("beta", "Acme Inc", "", base.Add(time.Minute)),
		rawRec("gamma", "Northwind Traders", "https://northwind.example", base),
		rawRec("beta", "Northwind Traders Ltd", "", base.Add(2*time.Minute)),
	}
	reversed := make([]model.RawRecord, len(records))
	for i, r := range records {
		reversed[len(records)-1-i] = r
	}

	e := newEngine(t, Config{})
	forward, err := e.Dedupe(records)
	require.NoError(t, err)
	backward, err := e.Dedupe(reversed)
	require.NoError(t, err)

	require.Equal(t, len(forward), len(backward))
	for i := range forward {
		assert.Equal(t, forward[i].Key(), backward[i].Key())
		assert.Equal(t, forward[i].Name, backward[i].Name)
		assert.Equal(t, forward[i].Sources, backward[i].Sources)
		assert.Equal(t, forward[i].Fields, backward[i].Fields)
	}
}

func TestDedupeIdempotent(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []model.RawRecord{
		rawRec("alpha", "Acme Corp", "https://acme.example", base),
		rawRec("beta", "ACME Inc", "https://acme.example", base.Add(time.Hour)),
	}

	e := newEngine(t, Config{})
	first, err := e.Dedupe(records)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Rebuild records from the merged output and dedupe again.
	rebuilt := []model.RawRecord{rawRec("merged", first[0].Name, "https://"+first[0].Domain, base)}
	second, err := e.Dedupe(rebuilt)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].NormalizedName, second[0].NormalizedName)
	assert.Equal(t, first[0].Domain, second[0].Domain)
}

func TestDedupeDomainShortCircuit(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []model.RawRecord{
		rawRec("alpha", "Completely Different", "https://acme.example", base),
		rawRec("beta", "Acme", "https://acme.example/team", base),
	}

	e := newEngine(t, Config{})
	entities, err := e.Dedupe(records)
	require.NoError(t, err)
	assert.Len(t, entities, 1)
}

func TestDedupeEmptyNamesNeverMergeOnName(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []model.RawRecord{
		rawRec("alpha", "", "", base),
		rawRec("beta", "", "", base),
	}

	e := newEngine(t, Config{})
	entities, err := e.Dedupe(records)
	require.NoError(t, err)
	assert.Len(t, entities, 2)
}

func TestDedupeExcludesFailedRecords(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	records := []model.RawRecord{
		rawRec("alpha", "Acme", "https://acme.example", base),
		{Source: "beta", Status: model.StatusFailed, Name: "Acme", FetchedAt: base},
	}

	e := newEngine(t, Config{})
	entities, err := e.Dedupe(records)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, []string{"alpha"}, entities[0].Sources)
}

func TestDedupeFieldPrecedence(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	older := rawRec("alpha", "Acme Corp", "https://acme.example", base)
	older.Description = "old description"
	older.LocationRaw = "Phoenix, AZ"
	newer := rawRec("beta", "Acme Inc", "https://acme.example", base.Add(time.Hour))
	newer.Description = "new description"

	e := newEngine(t, Config{})
	entities, err := e.Dedupe([]model.RawRecord{older, newer})
	require.NoError(t, err)
	require.Len(t, entities, 1)

	desc := entities[0].Fields[model.FieldDescription]
	assert.Equal(t, "new description", desc.Value)
	assert.Equal(t, "beta", desc.Source)

	// Fields absent on the newer record fall back to the older one, with
	// provenance pointing at where the value came from.
	loc := entities[0].Fields[model.FieldLocation]
	assert.Equal(t, "Phoenix, AZ", loc.Value)
	assert.Equal(t, "alpha", loc.Source)
}

func TestDedupeSourcePriorityBreaksTies(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	a := rawRec("low", "Acme Corp", "https://acme.example", base)
	a.Description = "from low"
	b := rawRec("high", "Acme Inc", "https://acme.example", base)
	b.Description = "from high"

	e := newEngine(t, Config{SourcePriority: []string{"high", "low"}})
	entities, err := e.Dedupe([]model.RawRecord{a, b})
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.Equal(t, "from high", entities[0].Fields[model.FieldDescription].Value)
}

func TestDedupeThresholdValidation(t *testing.T) {
	_, err := New(Config{Threshold: 1.5})
	assert.Error(t, err)
	_, err = New(Config{Threshold: -0.1})
	assert.Error(t, err)
}

func TestDedupeEmptyInput(t *testing.T) {
	e := newEngine(t, Config{})
	entities, err := e.Dedupe(nil)
	require.NoError(t, err)
	assert.Empty(t, entities)
}
