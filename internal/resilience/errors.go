// Package resilience provides the fetch failure taxonomy, retry with
// exponential backoff, and circuit breaker patterns for outbound calls.
package resilience

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// FailureKind classifies why an operation failed. Only NoData is fatal to a
// pipeline run; everything else is recorded and tolerated.
type FailureKind string

const (
	// KindPolicyBlocked means crawl-permission rules forbid the target.
	// Never retried.
	KindPolicyBlocked FailureKind = "policy_blocked"
	// KindTransient is a retryable network or server fault (429, 5xx,
	// timeout, connection reset).
	KindTransient FailureKind = "transient"
	// KindPermanent is a non-retryable client fault (401, 403, 404).
	KindPermanent FailureKind = "permanent"
	// KindExhausted means the retry budget was used up on transient faults.
	KindExhausted FailureKind = "exhausted"
	// KindEnrichment is one enrichment task's failure, isolated to that task.
	KindEnrichment FailureKind = "enrichment_error"
	// KindNoData means nothing survived to scoring. Fatal to the run.
	KindNoData FailureKind = "no_data"
)

// FetchError is the typed failure returned by the resilience wrapper.
type FetchError struct {
	Kind     FailureKind
	Target   string
	Status   int // HTTP status when applicable
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.Target, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (http %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError builds a FetchError for the given target and kind.
func NewFetchError(kind FailureKind, target string, status int, err error) *FetchError {
	return &FetchError{Kind: kind, Target: target, Status: status, Err: err}
}

// KindOf extracts the failure kind from an error chain. Errors without an
// explicit kind are classified as transient or permanent by inspection.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if IsTransient(err) {
		return KindTransient
	}
	return KindPermanent
}

// IsTransient returns true if the error (or any error in its chain) carries
// the transient kind, or if it matches common transient network patterns
// (timeouts, connection resets, DNS failures).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind == KindTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry: 408, 429, and the
// whole 5xx range (including non-standard codes like Cloudflare's 52x).
func IsTransientHTTPStatus(statusCode int) bool {
	return statusCode == 408 ||
		statusCode == 429 ||
		(statusCode >= 500 && statusCode <= 599)
}

// IsPermanentHTTPStatus returns true for client faults that must not be
// retried.
func IsPermanentHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 401, 403, 404:
		return true
	default:
		return false
	}
}
