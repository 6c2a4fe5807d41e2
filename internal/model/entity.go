package model

import (
	"time"
)

// FieldValue is a merged field with provenance: which source supplied the
// value that survived the merge, and when it was fetched.
type FieldValue struct {
	Value     string    `json:"value"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// CanonicalEntity is the deduplicated, merged representation of one
// real-world company across all sources that mentioned it. Created by the
// deduplication engine; after merge it is mutated only by enrichment
// (attaching per-task results) and scoring (attaching one ScoreRecord).
type CanonicalEntity struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	Domain         string `json:"domain,omitempty"`

	// Sources is the set of contributing source identifiers. Never empty.
	Sources []string `json:"sources"`

	// Fields holds the merged raw fields with per-field provenance.
	Fields map[string]FieldValue `json:"fields"`

	// Enrichment holds per-task results keyed by task name. Partial
	// enrichment is a valid terminal state.
	Enrichment map[string]EnrichmentResult `json:"enrichment,omitempty"`

	Score *ScoreRecord `json:"score,omitempty"`
}

// Key returns the canonical key (normalized name + domain), unique within a
// pipeline run.
func (e *CanonicalEntity) Key() string {
	return e.NormalizedName + "|" + e.Domain
}

// Field returns the merged value for the given field key, or "".
func (e *CanonicalEntity) Field(key string) string {
	return e.Fields[key].Value
}

// Website returns the best URL to fetch for this entity: the merged url
// field, falling back to the canonical domain.
func (e *CanonicalEntity) Website() string {
	if u := e.Field(FieldURL); u != "" {
		return u
	}
	if e.Domain != "" {
		return "https://" + e.Domain
	}
	return ""
}

// TechStackResult returns the tech-stack payload if that task completed ok.
func (e *CanonicalEntity) TechStackResult() *TechStack {
	if r, ok := e.Enrichment[TaskTechStack]; ok && r.Status == EnrichOK {
		return r.Tech
	}
	return nil
}

// HiringResult returns the hiring-signal payload if that task completed ok.
func (e *CanonicalEntity) HiringResult() *HiringSignal {
	if r, ok := e.Enrichment[TaskHiring]; ok && r.Status == EnrichOK {
		return r.Hiring
	}
	return nil
}
