package trace

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderConstants(t *testing.T) {
	assert.Equal(t, "X-Request-ID", HeaderXRequestID)
}

func TestEnsureRequestID_UsesExisting(t *testing.T) {
	ctx := WithRequestID(context.Background(), "existing-request-id")
	got := EnsureRequestID(ctx)
	assert.Equal(t, "existing-request-id", got)
}

func TestEnsureRequestID_GeneratesWhenMissing(t *testing.T) {
	got := EnsureRequestID(context.Background())
	// UUID v4 format: 36 chars with hyphens
	re := regexp.MustCompile(`^[a-f0-9\-]{36}$`)
	assert.True(t, re.MatchString(strings.ToLower(got)))
}

func TestRequestIDFromContext(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, ok := RequestIDFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("empty value is treated as missing", func(t *testing.T) {
		_, ok := RequestIDFromContext(WithRequestID(context.Background(), ""))
		assert.False(t, ok)
	})

	t.Run("round trip", func(t *testing.T) {
		id, ok := RequestIDFromContext(WithRequestID(context.Background(), "abc"))
		require.True(t, ok)
		assert.Equal(t, "abc", id)
	})
}

func TestNewRequestIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewRequestID(), NewRequestID())
}

func TestSanitizeRequestID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "req-1", want: "req-1"},
		{name: "trimmed", in: "  req-2  ", want: "req-2"},
		{name: "empty", in: "   ", want: ""},
		{name: "control characters", in: "req\n3", want: ""},
		{name: "too long", in: strings.Repeat("a", 129), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeRequestID(tt.in))
		})
	}
}
