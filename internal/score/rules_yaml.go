package score

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/openlead/leadscout/internal/model"
)

// ruleFile is the YAML schema for data-driven rules:
//
//	rules:
//	  - id: hot-hiring
//	    category: tier
//	    when: {field: open_roles, op: gte, value: 10}
//	    effect: {min_score: 80, force_tier: high, add_tags: [hot]}
type ruleFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	ID       string     `yaml:"id"`
	Category string     `yaml:"category"`
	When     condition  `yaml:"when"`
	Effect   effectSpec `yaml:"effect"`
}

type condition struct {
	Field string `yaml:"field"`
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`
}

type effectSpec struct {
	MinScore  int      `yaml:"min_score"`
	ForceTier string   `yaml:"force_tier"`
	AddTags   []string `yaml:"add_tags"`
}

// LoadRules reads business rules from a YAML file. Conditions are compiled
// to predicates at load time so evaluation stays allocation-free.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "score: read rules file")
	}
	return ParseRules(data)
}

// ParseRules compiles YAML rule definitions.
func ParseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "score: parse rules yaml")
	}

	rules := make([]Rule, 0, len(file.Rules))
	for _, spec := range file.Rules {
		pred, err := compileCondition(spec.When)
		if err != nil {
			return nil, eris.Wrapf(err, "score: rule %q", spec.ID)
		}
		tier, err := parseTier(spec.Effect.ForceTier)
		if err != nil {
			return nil, eris.Wrapf(err, "score: rule %q", spec.ID)
		}
		rules = append(rules, Rule{
			ID:       spec.ID,
			Category: spec.Category,
			When:     pred,
			Effect: Effect{
				MinScore:  spec.Effect.MinScore,
				ForceTier: tier,
				AddTags:   spec.Effect.AddTags,
			},
		})
	}
	if err := validateRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func parseTier(s string) (model.Priority, error) {
	switch model.Priority(s) {
	case "", model.PriorityHigh, model.PriorityMedium, model.PriorityLow:
		return model.Priority(s), nil
	default:
		return "", eris.Errorf("unknown tier %q", s)
	}
}

// compileCondition turns a field/op/value triple into a predicate over the
// entity and its computed record.
func compileCondition(c condition) (Predicate, error) {
	get, numeric, err := fieldAccessor(c.Field)
	if err != nil {
		return nil, err
	}

	switch c.Op {
	case "gte", "lte":
		if !numeric {
			return nil, eris.Errorf("op %q needs a numeric field, %q is not", c.Op, c.Field)
		}
		want, ok := toFloat(c.Value)
		if !ok {
			return nil, eris.Errorf("op %q needs a numeric value, got %v", c.Op, c.Value)
		}
		gte := c.Op == "gte"
		return func(e *model.CanonicalEntity, rec *model.ScoreRecord) bool {
			got, _ := toFloat(get(e, rec))
			if gte {
				return got >= want
			}
			return got <= want
		}, nil
	case "eq":
		return func(e *model.CanonicalEntity, rec *model.ScoreRecord) bool {
			return equalLoose(get(e, rec), c.Value)
		}, nil
	case "contains":
		want, ok := c.Value.(string)
		if !ok {
			return nil, eris.Errorf("op contains needs a string value, got %v", c.Value)
		}
		want = strings.ToLower(want)
		return func(e *model.CanonicalEntity, rec *model.ScoreRecord) bool {
			got, _ := get(e, rec).(string)
			return strings.Contains(strings.ToLower(got), want)
		}, nil
	default:
		return nil, eris.Errorf("unknown op %q", c.Op)
	}
}

// fieldAccessor resolves a condition field name. The returned bool marks
// numeric fields.
func fieldAccessor(name string) (func(*model.CanonicalEntity, *model.ScoreRecord) any, bool, error) {
	switch name {
	case "composite":
		return func(_ *model.CanonicalEntity, rec *model.ScoreRecord) any { return rec.Composite }, true, nil
	case "intent":
		return func(_ *model.CanonicalEntity, rec *model.ScoreRecord) any { return rec.Intent }, true, nil
	case "fit":
		return func(_ *model.CanonicalEntity, rec *model.ScoreRecord) any { return rec.Fit }, true, nil
	case "tech":
		return func(_ *model.CanonicalEntity, rec *model.ScoreRecord) any { return rec.Tech }, true, nil
	case "engagement":
		return func(_ *model.CanonicalEntity, rec *model.ScoreRecord) any { return rec.Engagement }, true, nil
	case "tech_count":
		return func(e *model.CanonicalEntity, _ *model.ScoreRecord) any {
			if t := e.TechStackResult(); t != nil {
				return len(t.Technologies)
			}
			return 0
		}, true, nil
	case "open_roles":
		return func(e *model.CanonicalEntity, _ *model.ScoreRecord) any {
			if h := e.HiringResult(); h != nil {
				return h.OpenRoles
			}
			return 0
		}, true, nil
	case "is_hiring":
		return func(e *model.CanonicalEntity, _ *model.ScoreRecord) any {
			h := e.HiringResult()
			return h != nil && h.IsHiring
		}, false, nil
	case "domain":
		return func(e *model.CanonicalEntity, _ *model.ScoreRecord) any { return e.Domain }, false, nil
	case "name":
		return func(e *model.CanonicalEntity, _ *model.ScoreRecord) any { return e.Name }, false, nil
	case "source":
		return func(e *model.CanonicalEntity, _ *model.ScoreRecord) any {
			return strings.Join(e.Sources, ",")
		}, false, nil
	default:
		return nil, false, eris.Errorf("unknown field %q", name)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func equalLoose(got, want any) bool {
	if gf, ok := toFloat(got); ok {
		if wf, ok := toFloat(want); ok {
			return gf == wf
		}
	}
	if gs, ok := got.(string); ok {
		if ws, ok := want.(string); ok {
			return strings.EqualFold(gs, ws)
		}
	}
	if gb, ok := got.(bool); ok {
		if wb, ok := want.(bool); ok {
			return gb == wb
		}
	}
	return false
}
