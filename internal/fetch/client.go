// Package fetch implements the resilience wrapper that governs every
// outbound request: per-host rate limiting, crawl-permission checks,
// user-agent rotation, retry with exponential backoff, and audit events.
// Collectors and enrichment tasks never talk to the network directly.
package fetch

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/openlead/leadscout/internal/model"
	"github.com/openlead/leadscout/internal/resilience"
)

// maxBodyBytes limits how much of a response body is kept.
const maxBodyBytes = 1 << 20 // 1 MB

// defaultUserAgents is the rotation pool used when none is configured.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:127.0) Gecko/20100101 Firefox/127.0",
}

// Config controls the resilience wrapper.
type Config struct {
	// PerHostDelay is the minimum delay between requests to the same host.
	// Must be > 0; the constructor rejects a zero or negative delay.
	PerHostDelay time.Duration

	// MaxAttempts is the total attempt budget per request (including the
	// first try). Default: 3.
	MaxAttempts int

	// BackoffBase and BackoffCap bound the exponential backoff between
	// retries. Defaults: 500ms / 30s.
	BackoffBase time.Duration
	BackoffCap  time.Duration

	// Timeout bounds a single HTTP exchange. Default: 15s.
	Timeout time.Duration

	// UserAgents is the rotation pool. Rotation is stateless: each request
	// picks uniformly at random. Empty uses a built-in pool.
	UserAgents []string

	// RespectRobots enables the crawl-permission check. Default behavior is
	// set by the caller's configuration, not here.
	RespectRobots bool

	// Breaker optionally enables a per-host circuit breaker. Nil disables.
	Breaker *resilience.CircuitConfig
}

// Response is the successful outcome of a governed request.
type Response struct {
	StatusCode int
	Body       []byte
	FinalURL   string
}

// Client executes requests under the resilience contract. One Client is
// shared by all collectors and enrichment tasks in a run; its per-host
// limiter map is the single mandatory mutual-exclusion point in the system.
type Client struct {
	http *http.Client
	cfg  Config
	sink AuditSink

	limiters *hostLimiters
	robots   *robotsCache
	breakers *resilience.HostBreakers
}

// NewClient creates a resilience wrapper. A PerHostDelay of zero is a
// configuration error, not a default: politeness pacing is mandatory.
func NewClient(cfg Config, sink AuditSink) (*Client, error) {
	if cfg.PerHostDelay <= 0 {
		return nil, eris.Errorf("fetch: per-host delay must be > 0, got %s", cfg.PerHostDelay)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 500 * time.Millisecond
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	if sink == nil {
		sink = ZapSink{}
	}

	c := &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cfg:      cfg,
		sink:     sink,
		limiters: newHostLimiters(cfg.PerHostDelay),
	}
	c.robots = newRobotsCache(c)
	if cfg.Breaker != nil {
		c.breakers = resilience.NewHostBreakers(*cfg.Breaker)
	}
	return c, nil
}

// Get executes a governed GET against rawURL. Failures are always returned
// as *resilience.FetchError carrying the failure kind and attempt count.
// Exactly one audit event is emitted per call.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		fe := resilience.NewFetchError(resilience.KindPermanent, rawURL, 0, eris.Wrap(err, "fetch: parse url"))
		c.audit(rawURL, string(fe.Kind), 0)
		return nil, fe
	}

	// Crawl-permission check happens before any request to the target; a
	// disallowed path costs zero outbound calls to it.
	if c.cfg.RespectRobots {
		if !c.robots.Allowed(ctx, u) {
			fe := resilience.NewFetchError(resilience.KindPolicyBlocked, rawURL, 0, nil)
			c.audit(rawURL, string(fe.Kind), 0)
			return nil, fe
		}
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.MaxAttempts = c.cfg.MaxAttempts
	retryCfg.BackoffBase = c.cfg.BackoffBase
	retryCfg.BackoffCap = c.cfg.BackoffCap
	retryCfg.OnRetry = resilience.RetryLogger("fetch", rawURL)

	attempts := 0
	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*Response, error) {
		attempts++
		return c.do(ctx, u)
	})
	if err == nil {
		c.audit(rawURL, "success", attempts)
		return resp, nil
	}

	fe := c.classify(rawURL, attempts, err)
	c.audit(rawURL, string(fe.Kind), attempts)
	return nil, fe
}

// do performs a single attempt: breaker gate, rate-limit wait, request,
// status classification.
func (c *Client) do(ctx context.Context, u *url.URL) (*Response, error) {
	var cb *resilience.CircuitBreaker
	if c.breakers != nil {
		cb = c.breakers.Get(u.Host)
		if allowErr := cb.Allow(); allowErr != nil {
			// Open circuit surfaces as a transient fault: no network call.
			return nil, resilience.NewFetchError(resilience.KindTransient, u.String(), 0, allowErr)
		}
	}

	if err := c.limiters.wait(ctx, u.Host); err != nil {
		return nil, eris.Wrap(err, "fetch: rate limiter wait")
	}

	resp, err := c.request(ctx, u.String())
	if cb != nil {
		cb.Record(err)
	}
	return resp, err
}

// request issues the HTTP exchange for a single attempt.
func (c *Client) request(ctx context.Context, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, resilience.NewFetchError(resilience.KindPermanent, target, 0, err)
	}
	req.Header.Set("User-Agent", c.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		// Raw transport errors keep their chain so transient classification
		// can inspect net.Error and syscall errno.
		return nil, eris.Wrap(err, "fetch: do request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if readErr != nil {
			return nil, resilience.NewFetchError(resilience.KindTransient, target, resp.StatusCode, readErr)
		}
		return &Response{
			StatusCode: resp.StatusCode,
			Body:       body,
			FinalURL:   resp.Request.URL.String(),
		}, nil
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewFetchError(resilience.KindTransient, target, resp.StatusCode, nil)
	case resilience.IsPermanentHTTPStatus(resp.StatusCode):
		return nil, resilience.NewFetchError(resilience.KindPermanent, target, resp.StatusCode, nil)
	default:
		// Statuses outside the explicit taxonomy are not worth a retry.
		return nil, resilience.NewFetchError(resilience.KindPermanent, target, resp.StatusCode, nil)
	}
}

// classify converts a terminal attempt error into the final FetchError.
func (c *Client) classify(target string, attempts int, err error) *resilience.FetchError {
	var fe *resilience.FetchError
	if errors.As(err, &fe) {
		switch fe.Kind {
		case resilience.KindPermanent, resilience.KindPolicyBlocked:
			fe.Attempts = attempts
			return fe
		}
	}

	if resilience.IsTransient(err) && attempts >= c.cfg.MaxAttempts {
		return &resilience.FetchError{
			Kind:     resilience.KindExhausted,
			Target:   target,
			Attempts: attempts,
			Err:      err,
		}
	}

	// Cancelled mid-retry or an unclassified fault: report transient.
	return &resilience.FetchError{
		Kind:     resilience.KindTransient,
		Target:   target,
		Attempts: attempts,
		Err:      err,
	}
}

func (c *Client) userAgent() string {
	return c.cfg.UserAgents[rand.IntN(len(c.cfg.UserAgents))]
}

func (c *Client) audit(target, outcome string, attempts int) {
	c.sink.Emit(model.AuditEvent{
		Target:    target,
		Outcome:   outcome,
		Attempts:  attempts,
		Timestamp: time.Now().UTC(),
	})
}
