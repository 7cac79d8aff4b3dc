package billing

import (
	"strings"

	"github.com/wizerunkowo/wizerunkowo/internal/pkg/entitlements"
)

func normalizeTier(tier string) string {
	return string(entitlements.NormalizeTier(tier))
}

func tierRank(tier string) int {
	switch normalizeTier(tier) {
	case string(entitlements.TierPro):
		return 2
	case string(entitlements.TierPremium):
		return 1
	default:
		return 0
	}
}

func normalizeInterval(interval string) string {
	i := strings.ToLower(strings.TrimSpace(interval))
	switch i {
	case "month", "year":
		return i
	default:
		return "unknown"
	}
}

func isEntitlingStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "active", "trialing", "past_due":
		return true
	default:
		return false
	}
}
