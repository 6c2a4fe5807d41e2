package fetch

import (
	"go.uber.org/zap"

	"github.com/openlead/leadscout/internal/model"
)

// AuditSink receives one event per governed request. Implementations must
// be safe for concurrent use.
type AuditSink interface {
	Emit(model.AuditEvent)
}

// ZapSink logs audit events through the global logger. It is the default
// sink when no store-backed recorder is wired in.
type ZapSink struct{}

func (ZapSink) Emit(ev model.AuditEvent) {
	zap.L().Info("fetch",
		zap.String("target", ev.Target),
		zap.String("outcome", ev.Outcome),
		zap.Int("attempts", ev.Attempts),
	)
}

// MultiSink fans an event out to every sink.
type MultiSink []AuditSink

func (m MultiSink) Emit(ev model.AuditEvent) {
	for _, s := range m {
		s.Emit(ev)
	}
}
