package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Free", "free", "free"},
		{"Premium", "premium", "premium"},
		{"Pro", "pro", "pro"},
		{"Uppercase", "PREMIUM", "premium"},
		{"Whitespace", " pro ", "pro"},
		{"Unknown", "gold", "free"},
		{"Empty", "", "free"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, normalizeTier(tt.input))
		})
	}
}

func TestTierRank(t *testing.T) {
	assert.Equal(t, 2, tierRank("pro"))
	assert.Equal(t, 1, tierRank("premium"))
	assert.Equal(t, 0, tierRank("free"))
	assert.Equal(t, 0, tierRank("nonsense"))
	assert.Greater(t, tierRank("pro"), tierRank("premium"))
	assert.Greater(t, tierRank("premium"), tierRank("free"))
}

func TestNormalizeInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"month", "month"},
		{"year", "year"},
		{"MONTH", "month"},
		{" year ", "year"},
		{"week", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, normalizeInterval(tt.input), "input %q", tt.input)
	}
}

func TestIsEntitlingStatus(t *testing.T) {
	entitling := []string{"active", "trialing", "past_due", "ACTIVE", " trialing "}
	for _, s := range entitling {
		assert.True(t, isEntitlingStatus(s), "status %q should entitle", s)
	}

	notEntitling := []string{"canceled", "incomplete", "incomplete_expired", "unpaid", "paused", ""}
	for _, s := range notEntitling {
		assert.False(t, isEntitlingStatus(s), "status %q should not entitle", s)
	}
}
