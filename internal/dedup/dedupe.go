package dedup

import (
	"sort"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/openlead/leadscout/internal/model"
)

// Config controls matching and merge precedence.
type Config struct {
	// Threshold is the minimum name similarity for a match, in (0, 1].
	// Domain equality matches regardless of name similarity.
	Threshold float64

	// SourcePriority orders sources for merge tie-breaking: earlier wins
	// when two records carry the same timestamp. Unlisted sources rank
	// after listed ones.
	SourcePriority []string
}

// DefaultThreshold is the matching threshold used when none is configured.
const DefaultThreshold = 0.90

// Engine clusters raw records and merges each cluster into one canonical
// entity. It holds no state between calls; Dedupe is a pure function of
// its input and the config.
type Engine struct {
	cfg      Config
	priority map[string]int
}

func New(cfg Config) (*Engine, error) {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, eris.Errorf("dedup: threshold %v outside (0, 1]", cfg.Threshold)
	}
	priority := make(map[string]int, len(cfg.SourcePriority))
	for i, src := range cfg.SourcePriority {
		priority[src] = i
	}
	return &Engine{cfg: cfg, priority: priority}, nil
}

// prepared caches the normalized keys for one input record.
type prepared struct {
	rec    model.RawRecord
	name   string
	domain string
}

// Dedupe merges records describing the same company. Failed-status records
// are excluded from clustering. Output is sorted by canonical key, so the
// result is independent of input order, and running Dedupe over records
// reconstructed from its own output changes nothing.
func (e *Engine) Dedupe(records []model.RawRecord) ([]model.CanonicalEntity, error) {
	var items []prepared
	for _, rec := range records {
		if rec.Status == model.StatusFailed {
			continue
		}
		items = append(items, prepared{
			rec:    rec,
			name:   NormalizeName(rec.Name),
			domain: NormalizeDomain(rec.URL),
		})
	}
	if len(items) == 0 {
		return nil, nil
	}

	uf := newUnionFind(len(items))
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if e.matches(items[i], items[j]) {
				uf.union(i, j)
			}
		}
	}

	clusters := make(map[int][]prepared)
	for i, it := range items {
		root := uf.find(i)
		clusters[root] = append(clusters[root], it)
	}

	entities := make([]model.CanonicalEntity, 0, len(clusters))
	for _, members := range clusters {
		entities = append(entities, e.merge(members))
	}
	sort.Slice(entities, func(i, j int) bool {
		return entities[i].Key() < entities[j].Key()
	})

	zap.L().Debug("dedupe complete",
		zap.Int("records", len(items)),
		zap.Int("entities", len(entities)),
	)
	return entities, nil
}

// matches applies the pairwise rule: same domain always matches; otherwise
// name similarity must clear the threshold. Records without a name never
// match on name alone.
func (e *Engine) matches(a, b prepared) bool {
	if a.domain != "" && a.domain == b.domain {
		return true
	}
	if a.name == "" || b.name == "" {
		return false
	}
	return Similarity(a.name, b.name) >= e.cfg.Threshold
}

// merge collapses a cluster into one entity. Members are visited in a
// canonical order (newest fetch first, then source priority, then name) and
// the first non-empty value wins per field, so the outcome does not depend
// on how the cluster was assembled.
func (e *Engine) merge(members []prepared) model.CanonicalEntity {
	sort.Slice(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if !a.rec.FetchedAt.Equal(b.rec.FetchedAt) {
			return a.rec.FetchedAt.After(b.rec.FetchedAt)
		}
		if pa, pb := e.sourceRank(a.rec.Source), e.sourceRank(b.rec.Source); pa != pb {
			return pa < pb
		}
		return a.name < b.name
	})

	entity := model.CanonicalEntity{
		ID:         uuid.NewString(),
		Fields:     make(map[string]model.FieldValue),
		Enrichment: make(map[string]model.EnrichmentResult),
	}

	seenSources := make(map[string]bool)
	for _, m := range members {
		if entity.Name == "" && m.rec.Name != "" {
			entity.Name = m.rec.Name
			entity.NormalizedName = m.name
		}
		if entity.Domain == "" && m.domain != "" {
			entity.Domain = m.domain
		}
		if !seenSources[m.rec.Source] {
			seenSources[m.rec.Source] = true
			entity.Sources = append(entity.Sources, m.rec.Source)
		}
		for key, value := range m.rec.Fields() {
			if _, ok := entity.Fields[key]; ok {
				continue
			}
			entity.Fields[key] = model.FieldValue{
				Value:     value,
				Source:    m.rec.Source,
				FetchedAt: m.rec.FetchedAt,
			}
		}
	}
	sort.Strings(entity.Sources)
	return entity
}

func (e *Engine) sourceRank(src string) int {
	if rank, ok := e.priority[src]; ok {
		return rank
	}
	return len(e.priority)
}

// unionFind is a classic disjoint-set with path halving.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		u.parent[rb] = ra
	}
}
