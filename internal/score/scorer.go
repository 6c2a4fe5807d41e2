// Package score turns enriched entities into prioritized leads. Scoring is
// a pure function of entity state: the same entity always produces the same
// record, and a scored entity is never re-fetched.
package score

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/model"
)

// Weights are the per-dimension multipliers. They must sum to 1.0 within a
// small tolerance.
type Weights struct {
	Intent     float64 `mapstructure:"intent" yaml:"intent"`
	Fit        float64 `mapstructure:"fit" yaml:"fit"`
	Tech       float64 `mapstructure:"tech" yaml:"tech"`
	Engagement float64 `mapstructure:"engagement" yaml:"engagement"`
}

// DefaultWeights mirror the standard lead model: intent dominates, raw
// tech signal matters least.
var DefaultWeights = Weights{Intent: 0.35, Fit: 0.30, Tech: 0.20, Engagement: 0.15}

const weightTolerance = 0.01

// Validate rejects weight sets that do not sum to 1.0 ± tolerance or carry
// a negative component.
func (w Weights) Validate() error {
	if w.Intent < 0 || w.Fit < 0 || w.Tech < 0 || w.Engagement < 0 {
		return eris.New("score: weights must be non-negative")
	}
	sum := w.Intent + w.Fit + w.Tech + w.Engagement
	if math.Abs(sum-1.0) > weightTolerance {
		return eris.Errorf("score: weights sum to %.3f, want 1.0", sum)
	}
	return nil
}

// Thresholds set the priority tier cutoffs on the composite score.
type Thresholds struct {
	High   int `mapstructure:"high" yaml:"high"`
	Medium int `mapstructure:"medium" yaml:"medium"`
}

var DefaultThresholds = Thresholds{High: 70, Medium: 40}

// Config assembles a scorer.
type Config struct {
	Weights    Weights
	Thresholds Thresholds
	Rules      []Rule
}

// Scorer computes score records. Safe for concurrent use: it never mutates
// its own state after construction.
type Scorer struct {
	cfg Config
}

func New(cfg Config) (*Scorer, error) {
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if cfg.Thresholds == (Thresholds{}) {
		cfg.Thresholds = DefaultThresholds
	}
	if cfg.Thresholds.Medium > cfg.Thresholds.High {
		return nil, eris.Errorf("score: medium threshold %d above high %d",
			cfg.Thresholds.Medium, cfg.Thresholds.High)
	}
	if err := validateRules(cfg.Rules); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Score computes the record for one entity. The entity is read, never
// written; attaching the record is the caller's move.
func (s *Scorer) Score(entity *model.CanonicalEntity) *model.ScoreRecord {
	rec := &model.ScoreRecord{
		Intent:     intentScore(entity),
		Fit:        fitScore(entity),
		Tech:       techScore(entity),
		Engagement: engagementScore(entity),
	}

	w := s.cfg.Weights
	composite := w.Intent*rec.Intent + w.Fit*rec.Fit + w.Tech*rec.Tech + w.Engagement*rec.Engagement
	rec.Composite = clamp(int(math.Round(composite)), 0, 100)

	forced := applyRules(s.cfg.Rules, entity, rec)
	rec.Priority = s.priority(rec.Composite)
	if forced != "" {
		rec.Priority = forced
	}
	return rec
}

func (s *Scorer) priority(composite int) model.Priority {
	switch {
	case composite >= s.cfg.Thresholds.High:
		return model.PriorityHigh
	case composite >= s.cfg.Thresholds.Medium:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampf(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
