package score

import (
	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/model"
)

// Predicate tests an entity together with its freshly computed record.
type Predicate func(*model.CanonicalEntity, *model.ScoreRecord) bool

// Effect is what a matching rule does: raise the composite floor, pin the
// priority tier, attach tags. Zero values are no-ops.
type Effect struct {
	MinScore  int
	ForceTier model.Priority
	AddTags   []string
}

// Rule is one business override. Rules are evaluated in order; within a
// category only the first matching rule applies, while tags from every
// applied rule accumulate.
type Rule struct {
	ID       string
	Category string
	When     Predicate
	Effect   Effect
}

func validateRules(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.ID == "" {
			return eris.New("score: rule without id")
		}
		if seen[r.ID] {
			return eris.Errorf("score: duplicate rule id %q", r.ID)
		}
		seen[r.ID] = true
		if r.When == nil {
			return eris.Errorf("score: rule %q has no predicate", r.ID)
		}
	}
	return nil
}

// applyRules walks the rule list top to bottom, honoring first-match-wins
// per category, and returns the forced tier if any matching rule pinned
// one.
func applyRules(rules []Rule, e *model.CanonicalEntity, rec *model.ScoreRecord) model.Priority {
	var forced model.Priority
	matchedCategory := make(map[string]bool)
	tagSeen := make(map[string]bool)

	for _, r := range rules {
		if r.Category != "" && matchedCategory[r.Category] {
			continue
		}
		if !r.When(e, rec) {
			continue
		}
		if r.Category != "" {
			matchedCategory[r.Category] = true
		}
		rec.MatchedRules = append(rec.MatchedRules, r.ID)

		if r.Effect.MinScore > rec.Composite {
			rec.Composite = clamp(r.Effect.MinScore, 0, 100)
		}
		if r.Effect.ForceTier != "" && forced == "" {
			forced = r.Effect.ForceTier
		}
		for _, tag := range r.Effect.AddTags {
			if !tagSeen[tag] {
				tagSeen[tag] = true
				rec.Tags = append(rec.Tags, tag)
			}
		}
	}
	return forced
}
