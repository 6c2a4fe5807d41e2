package enrich

import (
	"context"
	"net"
	"time"

	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/model"
	"github.com/openlead/leadscout/internal/resilience"
)

// DomainTask checks whether an entity's domain resolves and records its
// first address and reverse hosts. Uses the stdlib resolver directly; DNS
// lookups are not HTTP and bypass the fetch wrapper on purpose.
type DomainTask struct {
	resolver *net.Resolver
}

func NewDomainTask() *DomainTask {
	return &DomainTask{resolver: net.DefaultResolver}
}

func (t *DomainTask) Name() string { return model.TaskDomain }

func (t *DomainTask) Run(ctx context.Context, entity *model.CanonicalEntity) (model.EnrichmentResult, error) {
	if entity.Domain == "" {
		return model.EnrichmentResult{}, eris.New("domain: entity has no domain")
	}

	info := &model.DomainInfo{}
	// One retry absorbs transient resolver hiccups before the domain is
	// recorded as non-resolving.
	var addrs []string
	err := resilience.Do(ctx, resilience.RetryConfig{
		MaxAttempts: 2,
		BackoffBase: 200 * time.Millisecond,
		BackoffCap:  time.Second,
	}, func(ctx context.Context) error {
		var lookupErr error
		addrs, lookupErr = t.resolver.LookupHost(ctx, entity.Domain)
		return lookupErr
	})
	if err != nil || len(addrs) == 0 {
		// A non-resolving domain is a finding, not a task failure.
		return model.EnrichmentResult{Status: model.EnrichOK, Domain: info}, nil
	}

	info.Resolves = true
	info.Addr = addrs[0]
	if hosts, err := t.resolver.LookupAddr(ctx, info.Addr); err == nil {
		info.Hosts = hosts
	}
	return model.EnrichmentResult{Status: model.EnrichOK, Domain: info}, nil
}
