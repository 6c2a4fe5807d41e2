// Package collector defines the contract every lead source implements and
// a registry that runs them in a stable order. Collectors emit raw records
// through a callback; they never dedupe, enrich, or score.
package collector

import (
	"context"
	"time"

	"github.com/openlead/leadscout/internal/model"
)

// Query is the search the pipeline hands each collector.
type Query struct {
	// Keywords narrows the search. Empty means the source's full listing.
	Keywords string

	// MaxItems caps how many records a single collector may emit. Zero
	// means no cap.
	MaxItems int

	// Lookback drops items older than now minus the window. Zero means
	// no age filter.
	Lookback time.Duration
}

// EmitFunc receives one raw record at a time. A false return tells the
// collector to stop: the caller has all it wants.
type EmitFunc func(model.RawRecord) bool

// Collector is a single lead source. Collect pushes records to emit as it
// finds them and returns when the source is drained, the emit callback
// declines more, or the context ends. A collector failure never carries
// partial replay state: the pipeline treats the source as done either way.
type Collector interface {
	// Name is the stable source identifier recorded on every record.
	Name() string

	// Collect streams raw records for the query. Items that fail to parse
	// are emitted with StatusPartial rather than dropped, so provenance
	// survives into the failure summary.
	Collect(ctx context.Context, q Query, emit EmitFunc) error
}
