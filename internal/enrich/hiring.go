package enrich

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/fetch"
	"github.com/openlead/leadscout/internal/model"
	"github.com/openlead/leadscout/internal/resilience"
)

// careerPaths are probed in order; the first page that loads is used.
var careerPaths = []string{"/careers", "/jobs"}

// roleMarkers are lowercase phrases that indicate an open position. Counts
// are heuristic: a marker appearing five times usually means five listings,
// but any non-zero count is a hiring signal.
var roleMarkers = []string{
	"software engineer",
	"senior engineer",
	"staff engineer",
	"engineering manager",
	"product manager",
	"data scientist",
	"data engineer",
	"designer",
	"devops",
	"site reliability",
	"account executive",
	"sales development",
	"customer success",
	"marketing manager",
	"full-time",
	"apply now",
}

// recentMarkers hint that postings are fresh.
var recentMarkers = []string{"posted today", "posted yesterday", "days ago", "this week", "new!"}

// HiringTask probes careers pages for open-role signals.
type HiringTask struct {
	client *fetch.Client
}

func NewHiringTask(client *fetch.Client) *HiringTask {
	return &HiringTask{client: client}
}

func (t *HiringTask) Name() string { return model.TaskHiring }

func (t *HiringTask) Run(ctx context.Context, entity *model.CanonicalEntity) (model.EnrichmentResult, error) {
	site := entity.Website()
	if site == "" {
		return model.EnrichmentResult{}, eris.New("hiring: entity has no website")
	}
	site = strings.TrimSuffix(site, "/")

	var lastErr error
	for _, path := range careerPaths {
		resp, err := t.client.Get(ctx, site+path)
		if err != nil {
			lastErr = err
			// A permanent miss on /careers just means try /jobs. Policy
			// blocks and cancellations end the probe.
			switch resilience.KindOf(err) {
			case resilience.KindPolicyBlocked:
				return model.EnrichmentResult{}, err
			}
			if ctx.Err() != nil {
				return model.EnrichmentResult{}, ctx.Err()
			}
			continue
		}
		return model.EnrichmentResult{
			Status: model.EnrichOK,
			Hiring: analyzeCareersPage(string(resp.Body)),
		}, nil
	}
	return model.EnrichmentResult{}, eris.Wrap(lastErr, "hiring: no careers page")
}

// analyzeCareersPage counts role and freshness markers. Partial counts are
// valid data: a page we could read but not fully parse still signals.
func analyzeCareersPage(body string) *model.HiringSignal {
	lower := strings.ToLower(body)
	sig := &model.HiringSignal{}
	for _, marker := range roleMarkers {
		sig.OpenRoles += strings.Count(lower, marker)
	}
	for _, marker := range recentMarkers {
		sig.RecentPostings += strings.Count(lower, marker)
	}
	sig.IsHiring = sig.OpenRoles > 0 ||
		strings.Contains(lower, "we're hiring") ||
		strings.Contains(lower, "we are hiring") ||
		strings.Contains(lower, "join our team") ||
		strings.Contains(lower, "open positions")
	return sig
}
