package pipeline

import (
	"sync"

	"github.com/openlead/leadscout/internal/model"
)

// recordPool is the append-only accumulator the collection stage writes
// into. Collectors run concurrently; the pool is the only shared write
// target, so one mutex covers it.
type recordPool struct {
	mu      sync.Mutex
	records []model.RawRecord
}

func (p *recordPool) add(rec model.RawRecord) {
	p.mu.Lock()
	p.records = append(p.records, rec)
	p.mu.Unlock()
}

func (p *recordPool) snapshot() []model.RawRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.RawRecord, len(p.records))
	copy(out, p.records)
	return out
}

func (p *recordPool) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}
