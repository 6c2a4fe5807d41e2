package enrich

import (
	"context"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/fetch"
	"github.com/openlead/leadscout/internal/model"
)

// techSignatures maps lowercase page fingerprints to technology names.
// Fingerprints are matched as plain substrings of the homepage body; a
// technology is reported once no matter how many of its fingerprints hit.
var techSignatures = []struct {
	needle string
	tech   string
}{
	{"react", "React"},
	{"_next/static", "Next.js"},
	{"nuxt", "Nuxt"},
	{"vue", "Vue"},
	{"ng-version", "Angular"},
	{"angular", "Angular"},
	{"svelte", "Svelte"},
	{"wp-content", "WordPress"},
	{"shopify", "Shopify"},
	{"squarespace", "Squarespace"},
	{"webflow", "Webflow"},
	{"hubspot", "HubSpot"},
	{"salesforce", "Salesforce"},
	{"cloudfront.net", "AWS"},
	{"amazonaws", "AWS"},
	{"googleapis.com", "Google Cloud"},
	{"azureedge", "Azure"},
	{"cloudflare", "Cloudflare"},
	{"vercel", "Vercel"},
	{"netlify", "Netlify"},
	{"heroku", "Heroku"},
	{"postgres", "PostgreSQL"},
	{"mongodb", "MongoDB"},
	{"redis", "Redis"},
	{"elasticsearch", "Elasticsearch"},
	{"google-analytics", "Google Analytics"},
	{"gtag(", "Google Analytics"},
	{"segment.com", "Segment"},
	{"mixpanel", "Mixpanel"},
	{"amplitude", "Amplitude"},
	{"hotjar", "Hotjar"},
	{"intercom", "Intercom"},
	{"stripe", "Stripe"},
	{"graphql", "GraphQL"},
	{"kubernetes", "Kubernetes"},
	{"django", "Django"},
	{"rails", "Ruby on Rails"},
	{"laravel", "Laravel"},
}

// TechStackTask detects technologies from homepage content.
type TechStackTask struct {
	client *fetch.Client
}

func NewTechStackTask(client *fetch.Client) *TechStackTask {
	return &TechStackTask{client: client}
}

func (t *TechStackTask) Name() string { return model.TaskTechStack }

func (t *TechStackTask) Run(ctx context.Context, entity *model.CanonicalEntity) (model.EnrichmentResult, error) {
	site := entity.Website()
	if site == "" {
		return model.EnrichmentResult{}, eris.New("techstack: entity has no website")
	}

	resp, err := t.client.Get(ctx, site)
	if err != nil {
		return model.EnrichmentResult{}, eris.Wrap(err, "techstack: fetch homepage")
	}

	return model.EnrichmentResult{
		Status: model.EnrichOK,
		Tech:   &model.TechStack{Technologies: DetectTech(string(resp.Body))},
	}, nil
}

// DetectTech scans page content against the signature table and returns the
// matched technology names sorted and deduplicated.
func DetectTech(body string) []string {
	lower := strings.ToLower(body)
	seen := make(map[string]bool)
	for _, sig := range techSignatures {
		if strings.Contains(lower, sig.needle) {
			seen[sig.tech] = true
		}
	}
	techs := make([]string, 0, len(seen))
	for tech := range seen {
		techs = append(techs, tech)
	}
	sort.Strings(techs)
	return techs
}
