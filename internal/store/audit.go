package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/openlead/leadscout/internal/model"
)

// AuditRecorder adapts a Store to the fetch wrapper's audit sink. Emit is
// fire-and-forget: a failed write is logged, never surfaced to the fetch
// path.
type AuditRecorder struct {
	store Store
	runID string
}

func NewAuditRecorder(s Store, runID string) *AuditRecorder {
	return &AuditRecorder{store: s, runID: runID}
}

func (r *AuditRecorder) Emit(ev model.AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.store.RecordAudit(ctx, r.runID, ev); err != nil {
		zap.L().Warn("audit write failed", zap.String("run_id", r.runID), zap.Error(err))
	}
}
