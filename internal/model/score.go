package model

// Priority classifies a scored entity for outreach ordering.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ScoreRecord is the scoring engine's output for one entity: the bounded
// composite, its per-dimension sub-scores, and the rules that fired. Written
// atomically: an entity either has a complete record or none.
type ScoreRecord struct {
	// Composite is the weighted total in [0,100], rounded to the nearest
	// integer.
	Composite int `json:"composite"`

	// Sub-scores, each normalized to [0,100] before weighting.
	Intent     float64 `json:"intent"`
	Fit        float64 `json:"fit"`
	Tech       float64 `json:"tech"`
	Engagement float64 `json:"engagement"`

	MatchedRules []string `json:"matched_rules,omitempty"`
	Tags         []string `json:"tags,omitempty"`

	Priority Priority `json:"priority"`
}
