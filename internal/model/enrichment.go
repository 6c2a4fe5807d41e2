package model

import (
	"regexp"
	"strconv"
	"strings"
)

// Built-in enrichment task names.
const (
	TaskTechStack = "techstack"
	TaskHiring    = "hiring"
	TaskDomain    = "domain"
)

// EnrichStatus is the terminal state of one enrichment task for one entity.
type EnrichStatus string

const (
	EnrichOK      EnrichStatus = "ok"
	EnrichTimeout EnrichStatus = "timeout"
	EnrichError   EnrichStatus = "error"
)

// EnrichmentResult is the outcome of one enrichment task against one entity.
// Tasks are independent; a failed result never invalidates sibling tasks.
type EnrichmentResult struct {
	Task   string       `json:"task"`
	Status EnrichStatus `json:"status"`

	// FailureKind carries the underlying fetch failure classification when
	// Status is error (e.g. "transient", "exhausted", "policy_blocked").
	FailureKind string `json:"failure_kind,omitempty"`

	Tech   *TechStack    `json:"tech,omitempty"`
	Hiring *HiringSignal `json:"hiring,omitempty"`
	Domain *DomainInfo   `json:"domain,omitempty"`
}

// TechStack is the set of technologies detected on an entity's website.
// Order is not significant.
type TechStack struct {
	Technologies []string `json:"technologies"`
}

// Has reports whether the given technology was detected.
func (t *TechStack) Has(name string) bool {
	if t == nil {
		return false
	}
	for _, tech := range t.Technologies {
		if tech == name {
			return true
		}
	}
	return false
}

// HiringSignal summarizes hiring-intent signals from an entity's careers
// pages. Partial counts are valid data, not errors.
type HiringSignal struct {
	OpenRoles      int  `json:"open_roles"`
	RecentPostings int  `json:"recent_postings"`
	IsHiring       bool `json:"is_hiring"`
}

// DomainInfo holds DNS-level facts about an entity's domain.
type DomainInfo struct {
	Resolves bool     `json:"resolves"`
	Addr     string   `json:"addr,omitempty"`
	Hosts    []string `json:"hosts,omitempty"`
}

// Size buckets a company by headcount.
type Size string

const (
	SizeStartup    Size = "startup"    // 1-10
	SizeSmall      Size = "small"      // 11-50
	SizeMedium     Size = "medium"     // 51-200
	SizeLarge      Size = "large"      // 201-1000
	SizeEnterprise Size = "enterprise" // 1000+
	SizeUnknown    Size = "unknown"
)

var employeeCountRe = regexp.MustCompile(`\d[\d,]*`)

// ParseSize derives a size bucket from a free-form size string as collectors
// report it ("51-200 employees", "1,200", "medium", ...). The first number
// found wins; named buckets pass through.
func ParseSize(raw string) (Size, int) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return SizeUnknown, 0
	}

	switch Size(s) {
	case SizeStartup, SizeSmall, SizeMedium, SizeLarge, SizeEnterprise:
		return Size(s), 0
	}

	m := employeeCountRe.FindString(s)
	if m == "" {
		return SizeUnknown, 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil || n <= 0 {
		return SizeUnknown, 0
	}
	return SizeForCount(n), n
}

// SizeForCount maps an employee count to its size bucket.
func SizeForCount(n int) Size {
	switch {
	case n <= 0:
		return SizeUnknown
	case n <= 10:
		return SizeStartup
	case n <= 50:
		return SizeSmall
	case n <= 200:
		return SizeMedium
	case n <= 1000:
		return SizeLarge
	default:
		return SizeEnterprise
	}
}

// FundingStage buckets a company's funding maturity.
type FundingStage string

const (
	FundingBootstrapped FundingStage = "bootstrapped"
	FundingPreSeed      FundingStage = "pre_seed"
	FundingSeed         FundingStage = "seed"
	FundingSeriesA      FundingStage = "series_a"
	FundingSeriesB      FundingStage = "series_b"
	FundingSeriesC      FundingStage = "series_c"
	FundingSeriesDPlus  FundingStage = "series_d_plus"
	FundingIPO          FundingStage = "ipo"
	FundingAcquired     FundingStage = "acquired"
	FundingUnknown      FundingStage = "unknown"
)

// ParseFundingStage derives a funding stage from free-form text.
func ParseFundingStage(raw string) FundingStage {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return FundingUnknown
	case strings.Contains(s, "bootstrap"):
		return FundingBootstrapped
	case strings.Contains(s, "pre-seed"), strings.Contains(s, "pre seed"), strings.Contains(s, "pre_seed"):
		return FundingPreSeed
	case strings.Contains(s, "seed"):
		return FundingSeed
	case strings.Contains(s, "series a"), strings.Contains(s, "series_a"):
		return FundingSeriesA
	case strings.Contains(s, "series b"), strings.Contains(s, "series_b"):
		return FundingSeriesB
	case strings.Contains(s, "series c"), strings.Contains(s, "series_c"):
		return FundingSeriesC
	case strings.Contains(s, "series d"), strings.Contains(s, "series e"), strings.Contains(s, "series_d"):
		return FundingSeriesDPlus
	case strings.Contains(s, "ipo"), strings.Contains(s, "public"):
		return FundingIPO
	case strings.Contains(s, "acquired"), strings.Contains(s, "acquisition"):
		return FundingAcquired
	default:
		return FundingUnknown
	}
}
