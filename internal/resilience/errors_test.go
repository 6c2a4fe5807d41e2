package resilience

import (
	"fmt"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"nil", nil, ""},
		{"fetch error", NewFetchError(KindPolicyBlocked, "https://example.com", 0, nil), KindPolicyBlocked},
		{"wrapped fetch error", eris.Wrap(NewFetchError(KindExhausted, "https://example.com", 503, nil), "collector: fetch"), KindExhausted},
		{"transient by message", fmt.Errorf("read tcp: connection reset by peer"), KindTransient},
		{"plain error", eris.New("something else"), KindPermanent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.True(t, IsTransient(fmt.Errorf("dial tcp: i/o timeout")))
	assert.True(t, IsTransient(fmt.Errorf("lookup example.com: no such host")))
	assert.False(t, IsTransient(eris.New("invalid argument")))

	// A typed kind always wins over message heuristics.
	fe := NewFetchError(KindPermanent, "https://example.com", 404, fmt.Errorf("i/o timeout"))
	assert.False(t, IsTransient(fe))
	assert.True(t, IsTransient(NewFetchError(KindTransient, "https://example.com", 503, nil)))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	// The whole 5xx range is retryable, not just the common gateway codes.
	for _, code := range []int{408, 429, 500, 501, 502, 503, 504, 505, 507, 520, 526, 599} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 418, 499, 600} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}

func TestIsPermanentHTTPStatus(t *testing.T) {
	for _, code := range []int{401, 403, 404} {
		assert.True(t, IsPermanentHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 400, 410, 500, 503} {
		assert.False(t, IsPermanentHTTPStatus(code), "status %d", code)
	}
}

func TestFetchErrorMessage(t *testing.T) {
	fe := NewFetchError(KindPermanent, "https://example.com/page", 404, eris.New("not found"))
	msg := fe.Error()
	assert.Contains(t, msg, "https://example.com/page")
	assert.Contains(t, msg, "permanent")
	assert.Contains(t, msg, "http 404")

	require.ErrorIs(t, fmt.Errorf("outer: %w", fe), fe)
}
