package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openlead/leadscout/internal/fetch"
	"github.com/openlead/leadscout/internal/model"
)

const sampleListing = `[
	{"name": "Acme Corp", "url": "https://acme.example", "description": "Roadrunner logistics", "employees": "120", "funding": "Series B", "location": "Phoenix, AZ", "listed_at": "2026-08-01"},
	{"company": "Borealis", "website": "https://borealis.example", "summary": "Northern analytics"},
	"just a string",
	{"url": "https://nameless.example"}
]`

func listingServer(t *testing.T, body string) (*httptest.Server, *fetch.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body)) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	client, err := fetch.NewClient(fetch.Config{PerHostDelay: time.Millisecond}, nil)
	require.NoError(t, err)
	return srv, client
}

func collectAll(t *testing.T, c Collector, q Query) []model.RawRecord {
	t.Helper()
	var out []model.RawRecord
	err := c.Collect(context.Background(), q, func(rec model.RawRecord) bool {
		out = append(out, rec)
		return true
	})
	require.NoError(t, err)
	return out
}

func TestJSONDirCollect(t *testing.T) {
	srv, client := listingServer(t, sampleListing)
	c, err := NewJSONDir("directory", srv.URL+"/companies", client)
	require.NoError(t, err)

	recs := collectAll(t, c, Query{})
	require.Len(t, recs, 4)

	assert.Equal(t, "Acme Corp", recs[0].Name)
	assert.Equal(t, "https://acme.example", recs[0].URL)
	assert.Equal(t, "120", recs[0].SizeRaw)
	assert.Equal(t, "Series B", recs[0].FundingRaw)
	assert.Equal(t, model.StatusSuccess, recs[0].Status)
	assert.Equal(t, "directory", recs[0].Source)

	// Alternate key spellings map onto the same fields.
	assert.Equal(t, "Borealis", recs[1].Name)
	assert.Equal(t, "https://borealis.example", recs[1].URL)
	assert.Equal(t, "Northern analytics", recs[1].Description)

	// Malformed and nameless items survive as partial records.
	assert.Equal(t, model.StatusPartial, recs[2].Status)
	assert.Equal(t, model.StatusPartial, recs[3].Status)
	assert.Equal(t, "https://nameless.example", recs[3].URL)
}

func TestJSONDirMaxItems(t *testing.T) {
	srv, client := listingServer(t, sampleListing)
	c, err := NewJSONDir("directory", srv.URL, client)
	require.NoError(t, err)

	recs := collectAll(t, c, Query{MaxItems: 2})
	assert.Len(t, recs, 2)
}

func TestJSONDirEmitStops(t *testing.T) {
	srv, client := listingServer(t, sampleListing)
	c, err := NewJSONDir("directory", srv.URL, client)
	require.NoError(t, err)

	var seen int
	err = c.Collect(context.Background(), Query{}, func(model.RawRecord) bool {
		seen++
		return false
	})
	require.NoError(t, err)
	assert.Equal(t, 1, seen)
}

func TestJSONDirKeywords(t *testing.T) {
	srv, client := listingServer(t, sampleListing)
	c, err := NewJSONDir("directory", srv.URL, client)
	require.NoError(t, err)

	recs := collectAll(t, c, Query{Keywords: "analytics"})
	// Partial records bypass the keyword filter; only Borealis matches.
	names := make([]string, 0, len(recs))
	for _, r := range recs {
		if r.Status == model.StatusSuccess {
			names = append(names, r.Name)
		}
	}
	assert.Equal(t, []string{"Borealis"}, names)
}

func TestJSONDirLookback(t *testing.T) {
	srv, client := listingServer(t, sampleListing)
	c, err := NewJSONDir("directory", srv.URL, client)
	require.NoError(t, err)

	recs := collectAll(t, c, Query{Lookback: time.Hour})
	for _, r := range recs {
		assert.NotEqual(t, "Acme Corp", r.Name)
	}
}

func TestJSONDirBadListing(t *testing.T) {
	srv, client := listingServer(t, `{"not": "an array"}`)
	c, err := NewJSONDir("directory", srv.URL, client)
	require.NoError(t, err)

	err = c.Collect(context.Background(), Query{}, func(model.RawRecord) bool { return true })
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	srv, client := listingServer(t, "[]")
	a, err := NewJSONDir("alpha", srv.URL, client)
	require.NoError(t, err)
	b, err := NewJSONDir("beta", srv.URL, client)
	require.NoError(t, err)

	reg := NewRegistry()
	require.NoError(t, reg.Register(b))
	require.NoError(t, reg.Register(a))
	assert.Error(t, reg.Register(a))

	assert.Equal(t, []string{"alpha", "beta"}, reg.Names())

	got, err := reg.Get("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Name())

	_, err = reg.Get("missing")
	assert.Error(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Name())

	sel, err := reg.Select([]string{"beta"})
	require.NoError(t, err)
	require.Len(t, sel, 1)
	assert.Equal(t, "beta", sel[0].Name())
}
