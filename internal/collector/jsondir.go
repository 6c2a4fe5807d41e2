package collector

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openlead/leadscout/internal/fetch"
	"github.com/openlead/leadscout/internal/model"
)

// jsonItem is one entry of a listing endpoint. Unknown keys are ignored;
// alternate key spellings common in company directories are accepted.
type jsonItem struct {
	Name        string `json:"name"`
	Company     string `json:"company"`
	URL         string `json:"url"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Summary     string `json:"summary"`
	Size        string `json:"size"`
	Employees   string `json:"employees"`
	Funding     string `json:"funding"`
	Location    string `json:"location"`
	ListedAt    string `json:"listed_at"`
}

func (it jsonItem) name() string        { return firstNonEmpty(it.Name, it.Company) }
func (it jsonItem) website() string     { return firstNonEmpty(it.URL, it.Website) }
func (it jsonItem) description() string { return firstNonEmpty(it.Description, it.Summary) }
func (it jsonItem) size() string        { return firstNonEmpty(it.Size, it.Employees) }

// JSONDir collects from a JSON listing endpoint: a URL whose body is an
// array of company objects. It is the simplest full implementation of the
// collector contract and the vehicle for exercising the pipeline without
// HTML scraping.
type JSONDir struct {
	name     string
	endpoint string
	client   *fetch.Client
}

// NewJSONDir builds a listing collector. name becomes the source tag on
// every emitted record.
func NewJSONDir(name, endpoint string, client *fetch.Client) (*JSONDir, error) {
	if name == "" {
		return nil, eris.New("collector: jsondir needs a source name")
	}
	if endpoint == "" {
		return nil, eris.Errorf("collector: jsondir %q needs an endpoint", name)
	}
	return &JSONDir{name: name, endpoint: endpoint, client: client}, nil
}

func (j *JSONDir) Name() string { return j.name }

// Collect fetches the listing once through the resilience wrapper and
// emits each item. Items that fail to decode individually are emitted as
// partial records so the run summary can count them.
func (j *JSONDir) Collect(ctx context.Context, q Query, emit EmitFunc) error {
	resp, err := j.client.Get(ctx, j.endpoint)
	if err != nil {
		return eris.Wrapf(err, "collector %s: fetch listing", j.name)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		return eris.Wrapf(err, "collector %s: decode listing", j.name)
	}

	now := time.Now().UTC()
	emitted := 0
	for _, raw := range items {
		if q.MaxItems > 0 && emitted >= q.MaxItems {
			return nil
		}

		var it jsonItem
		rec := model.RawRecord{
			Source:    j.name,
			SourceURL: j.endpoint,
			FetchedAt: now,
		}
		if err := json.Unmarshal(raw, &it); err != nil {
			zap.L().Debug("unparseable listing item",
				zap.String("source", j.name), zap.Error(err))
			rec.Status = model.StatusPartial
			rec.Name = scrapeName(raw)
		} else {
			if q.Keywords != "" && !matchesKeywords(it, q.Keywords) {
				continue
			}
			if q.Lookback > 0 && tooOld(it.ListedAt, now, q.Lookback) {
				continue
			}
			rec.Status = model.StatusSuccess
			rec.Name = it.name()
			rec.URL = it.website()
			rec.Description = it.description()
			rec.SizeRaw = it.size()
			rec.FundingRaw = it.Funding
			rec.LocationRaw = it.Location
			if rec.Name == "" {
				rec.Status = model.StatusPartial
			}
		}

		emitted++
		if !emit(rec) {
			return nil
		}
	}
	return nil
}

// scrapeName pulls a best-effort name out of an item that failed to decode
// as an object, so the partial record still identifies something.
func scrapeName(raw json.RawMessage) string {
	var loose map[string]any
	if json.Unmarshal(raw, &loose) != nil {
		return ""
	}
	for _, key := range []string{"name", "company", "title"} {
		if v, ok := loose[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func matchesKeywords(it jsonItem, keywords string) bool {
	hay := strings.ToLower(it.name() + " " + it.description() + " " + it.Location)
	for _, word := range strings.Fields(strings.ToLower(keywords)) {
		if strings.Contains(hay, word) {
			return true
		}
	}
	return false
}

func tooOld(listedAt string, now time.Time, lookback time.Duration) bool {
	if listedAt == "" {
		return false
	}
	ts, err := time.Parse(time.RFC3339, listedAt)
	if err != nil {
		if ts, err = time.Parse("2006-01-02", listedAt); err != nil {
			return false
		}
	}
	return now.Sub(ts) > lookback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
