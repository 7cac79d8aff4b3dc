package entitlements

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDailyLimit(t *testing.T) {
	tests := []struct {
		name     string
		tier     Tier
		expected int
	}{
		{"Free", TierFree, 1},
		{"Premium", TierPremium, 10},
		{"Pro", TierPro, 50},
		{"Unknown falls back to free", Tier("enterprise"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DailyLimit(tt.tier))
		})
	}
}

func TestNormalizeTier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Tier
	}{
		{"Exact free", "free", TierFree},
		{"Exact premium", "premium", TierPremium},
		{"Exact pro", "pro", TierPro},
		{"Uppercase", "PRO", TierPro},
		{"Whitespace", "  premium ", TierPremium},
		{"Empty", "", TierFree},
		{"Garbage", "platinum", TierFree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTier(tt.input))
		})
	}
}

func TestEntitlement_Check(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)
	earlierToday := now.Add(-2 * time.Hour)

	tests := []struct {
		name     string
		ent      Entitlement
		expected DenyReason
	}{
		{
			name:     "No credits",
			ent:      Entitlement{CreditsRemaining: 0, Tier: TierFree},
			expected: DenyNoCredits,
		},
		{
			name:     "Negative credits",
			ent:      Entitlement{CreditsRemaining: -1, Tier: TierPro},
			expected: DenyNoCredits,
		},
		{
			name: "Credits checked before daily limit",
			ent: Entitlement{
				CreditsRemaining:     0,
				DailyGenerationsUsed: 1,
				LastGenerationDate:   &earlierToday,
				Tier:                 TierFree,
			},
			expected: DenyNoCredits,
		},
		{
			name: "Free tier at daily limit",
			ent: Entitlement{
				CreditsRemaining:     5,
				DailyGenerationsUsed: 1,
				LastGenerationDate:   &earlierToday,
				Tier:                 TierFree,
			},
			expected: DenyDailyLimitReached,
		},
		{
			name: "Counter from yesterday is reset",
			ent: Entitlement{
				CreditsRemaining:     5,
				DailyGenerationsUsed: 1,
				LastGenerationDate:   &yesterday,
				Tier:                 TierFree,
			},
			expected: DenyNone,
		},
		{
			name:     "Never generated before",
			ent:      Entitlement{CreditsRemaining: 1, Tier: TierFree},
			expected: DenyNone,
		},
		{
			name: "Premium under limit",
			ent: Entitlement{
				CreditsRemaining:     3,
				DailyGenerationsUsed: 9,
				LastGenerationDate:   &earlierToday,
				Tier:                 TierPremium,
			},
			expected: DenyNone,
		},
		{
			name: "Premium at limit",
			ent: Entitlement{
				CreditsRemaining:     3,
				DailyGenerationsUsed: 10,
				LastGenerationDate:   &earlierToday,
				Tier:                 TierPremium,
			},
			expected: DenyDailyLimitReached,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ent.Check(now))
		})
	}
}

func TestSameCalendarDay(t *testing.T) {
	base := time.Date(2025, 6, 15, 23, 59, 0, 0, time.Local)

	assert.True(t, SameCalendarDay(base, base.Add(-12*time.Hour).Add(12*time.Hour)))
	assert.True(t, SameCalendarDay(base, time.Date(2025, 6, 15, 0, 0, 1, 0, time.Local)))
	// Two minutes apart but across midnight is a different day.
	assert.False(t, SameCalendarDay(base, base.Add(2*time.Minute)))
	assert.False(t, SameCalendarDay(base, base.AddDate(-1, 0, 0)))
}

func TestNextResetAt(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 45, 0, time.Local)
	reset := NextResetAt(now)

	assert.Equal(t, time.Date(2025, 6, 16, 0, 0, 0, 0, time.Local), reset)
	assert.True(t, reset.After(now))
}

func TestMonthlyCredits(t *testing.T) {
	assert.Equal(t, 300, MonthlyCredits(TierPro))
	assert.Equal(t, 50, MonthlyCredits(TierPremium))
	assert.Equal(t, 1, MonthlyCredits(TierFree))
}
