package model

import (
	"sync"
	"time"
)

// RunState tracks a pipeline run through its stages.
type RunState string

const (
	RunIdle       RunState = "idle"
	RunCollecting RunState = "collecting"
	RunDeduping   RunState = "deduping"
	RunEnriching  RunState = "enriching"
	RunScoring    RunState = "scoring"
	RunCompleted  RunState = "completed"
	RunFailed     RunState = "failed"
)

// Terminal reports whether the state is a terminal one.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// StageStatus is the outcome of one pipeline stage.
type StageStatus string

const (
	StageComplete StageStatus = "complete"
	StageFailed   StageStatus = "failed"
	StageSkipped  StageStatus = "skipped"
)

// StageResult records one stage's outcome for the run report.
type StageResult struct {
	Name       string      `json:"name"`
	Status     StageStatus `json:"status"`
	DurationMS int64       `json:"duration_ms"`
	Error      string      `json:"error,omitempty"`
}

// RunSummary aggregates the run-level outcome, including every non-fatal
// failure by kind and origin. Failures are data, not silent drops.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	State      RunState  `json:"state"`
	FailReason string    `json:"fail_reason,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`

	RecordsCollected int `json:"records_collected"`
	RecordsPartial   int `json:"records_partial"`
	EntitiesMerged   int `json:"entities_merged"`
	EntitiesScored   int `json:"entities_scored"`

	// Failures counts non-fatal failures per origin (a source name or an
	// enrichment task name) per failure kind.
	Failures map[string]map[string]int `json:"failures,omitempty"`

	mu sync.Mutex
}

// RecordFailure increments the failure counter for the given origin and kind.
// Safe for concurrent use.
func (s *RunSummary) RecordFailure(origin, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Failures == nil {
		s.Failures = make(map[string]map[string]int)
	}
	if s.Failures[origin] == nil {
		s.Failures[origin] = make(map[string]int)
	}
	s.Failures[origin][kind]++
}

// FailureCount returns the recorded count for the given origin and kind.
func (s *RunSummary) FailureCount(origin, kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Failures[origin][kind]
}

// TotalFailures returns the number of non-fatal failures across all origins.
func (s *RunSummary) TotalFailures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, kinds := range s.Failures {
		for _, n := range kinds {
			total += n
		}
	}
	return total
}

// Run is a stored pipeline run row.
type Run struct {
	ID         string     `json:"id"`
	State      RunState   `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Summary    []byte     `json:"summary,omitempty"` // serialized RunSummary
}

// AuditEvent is one structured record of an outbound request attempt group,
// emitted by the resilience wrapper and consumed by a logging collaborator.
type AuditEvent struct {
	Target    string    `json:"target"`
	Outcome   string    `json:"outcome"`
	Attempts  int       `json:"attempts"`
	Timestamp time.Time `json:"timestamp"`
}
