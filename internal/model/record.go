// Package model defines the core data types exchanged between pipeline stages.
package model

import (
	"time"
)

// FetchStatus describes the outcome of producing a single raw record.
type FetchStatus string

const (
	// StatusSuccess means the record was fully parsed from the source.
	StatusSuccess FetchStatus = "success"
	// StatusPartial means the page was reached but only best-effort fields
	// could be extracted. Partial records still flow downstream so they can
	// be counted and reported.
	StatusPartial FetchStatus = "partial"
	// StatusFailed means the fetch itself failed; the record carries the
	// target identity only.
	StatusFailed FetchStatus = "failed"
)

// RawRecord is one business listing as produced by a collector. It is
// immutable once emitted; the collection stage owns it until the
// deduplication engine consumes it.
type RawRecord struct {
	Source    string      `json:"source"`
	SourceURL string      `json:"source_url,omitempty"`
	FetchedAt time.Time   `json:"fetched_at"`
	Status    FetchStatus `json:"status"`

	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	SizeRaw     string `json:"size_raw,omitempty"`
	FundingRaw  string `json:"funding_raw,omitempty"`
	LocationRaw string `json:"location_raw,omitempty"`
}

// Field keys used in the canonical entity field map. Collectors populate the
// matching RawRecord columns; the dedup engine merges them under these keys.
const (
	FieldName        = "name"
	FieldURL         = "url"
	FieldDescription = "description"
	FieldSize        = "size"
	FieldFunding     = "funding"
	FieldLocation    = "location"
)

// Fields returns the record's mergeable fields keyed by canonical field name.
// Empty values are omitted.
func (r RawRecord) Fields() map[string]string {
	out := make(map[string]string, 6)
	put := func(key, val string) {
		if val != "" {
			out[key] = val
		}
	}
	put(FieldName, r.Name)
	put(FieldURL, r.URL)
	put(FieldDescription, r.Description)
	put(FieldSize, r.SizeRaw)
	put(FieldFunding, r.FundingRaw)
	put(FieldLocation, r.LocationRaw)
	return out
}
