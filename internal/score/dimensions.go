package score

import (
	"github.com/openlead/leadscout/internal/model"
)

// intentScore measures buying-intent signals, dominated by hiring activity.
// No hiring enrichment means no evidence: the dimension scores 0, it is not
// defaulted.
func intentScore(e *model.CanonicalEntity) float64 {
	h := e.HiringResult()
	if h == nil {
		return 0
	}

	score := 0.0
	if h.IsHiring {
		score += 30
	}
	score += minf(5*float64(h.OpenRoles), 30)
	score += minf(10*float64(h.RecentPostings), 20)
	if h.OpenRoles >= 10 {
		score += 10
	}
	return clampf(score)
}

// sizeFit maps size buckets to base fit. Mid-size companies fit best; very
// large ones buy slowly and very small ones buy little.
var sizeFit = map[model.Size]float64{
	model.SizeStartup:    70,
	model.SizeSmall:      80,
	model.SizeMedium:     90,
	model.SizeLarge:      70,
	model.SizeEnterprise: 50,
	model.SizeUnknown:    40,
}

var fundingFit = map[model.FundingStage]float64{
	model.FundingBootstrapped: 50,
	model.FundingPreSeed:      55,
	model.FundingSeed:         65,
	model.FundingSeriesA:      80,
	model.FundingSeriesB:      85,
	model.FundingSeriesC:      75,
	model.FundingSeriesDPlus:  65,
	model.FundingIPO:          50,
	model.FundingAcquired:     40,
}

// fitScore measures ICP fit from size and funding stage. An entity with no
// size or funding data sits at the unknown baseline of 40.
func fitScore(e *model.CanonicalEntity) float64 {
	size, count := model.ParseSize(e.Field(model.FieldSize))
	score := sizeFit[size]

	stage := model.ParseFundingStage(e.Field(model.FieldFunding))
	if funding, ok := fundingFit[stage]; ok {
		score = 0.6*score + 0.4*funding
	}

	// Sweet spot: established enough to pay, small enough to move.
	if count >= 20 && count <= 500 {
		score += 10
	}
	return clampf(score)
}

var (
	modernFrameworks = []string{"React", "Next.js", "Vue", "Nuxt", "Angular", "Svelte"}
	cloudPlatforms   = []string{"AWS", "Google Cloud", "Azure", "Vercel", "Netlify", "Heroku", "Cloudflare", "Kubernetes"}
	modernDatabases  = []string{"PostgreSQL", "MongoDB", "Redis", "Elasticsearch"}
	analyticsTools   = []string{"Google Analytics", "Segment", "Mixpanel", "Amplitude", "Hotjar"}
)

// techScore measures technology maturity. Missing or empty detection
// scores 0: tech is evidence-only.
func techScore(e *model.CanonicalEntity) float64 {
	t := e.TechStackResult()
	if t == nil || len(t.Technologies) == 0 {
		return 0
	}

	score := 40.0
	if hasAny(t, modernFrameworks) {
		score += 20
	}
	if hasAny(t, cloudPlatforms) {
		score += 15
	}
	if hasAny(t, modernDatabases) {
		score += 15
	}
	if hasAny(t, analyticsTools) {
		score += 10
	}
	return clampf(score)
}

func hasAny(t *model.TechStack, names []string) bool {
	for _, name := range names {
		if t.Has(name) {
			return true
		}
	}
	return false
}

// engagementScore measures how reachable and established an entity looks.
// Fully computable without enrichment; domain resolution adds on top when
// that task ran.
func engagementScore(e *model.CanonicalEntity) float64 {
	score := 0.0
	if e.Website() != "" {
		score += 30
	}
	if e.Field(model.FieldDescription) != "" {
		score += 20
	}
	if e.Field(model.FieldLocation) != "" {
		score += 10
	}
	if e.Field(model.FieldSize) != "" {
		score += 10
	}
	if e.Field(model.FieldFunding) != "" {
		score += 10
	}
	if r, ok := e.Enrichment[model.TaskDomain]; ok && r.Status == model.EnrichOK && r.Domain != nil && r.Domain.Resolves {
		score += 20
	}
	return clampf(score)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
