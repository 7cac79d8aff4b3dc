package entitlements

import (
	"strings"
	"time"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierPro     Tier = "pro"
)

// DailyLimit returns how many generations a tier may run per calendar day.
func DailyLimit(tier Tier) int {
	switch tier {
	case TierPro:
		return 50
	case TierPremium:
		return 10
	default:
		return 1
	}
}

// MonthlyCredits returns the credit grant a subscription tier receives per
// billing period.
func MonthlyCredits(tier Tier) int {
	switch tier {
	case TierPro:
		return 300
	case TierPremium:
		return 50
	default:
		return 1
	}
}

// NormalizeTier maps arbitrary input to a known tier, defaulting to free.
func NormalizeTier(tier string) Tier {
	switch Tier(strings.ToLower(strings.TrimSpace(tier))) {
	case TierPremium:
		return TierPremium
	case TierPro:
		return TierPro
	default:
		return TierFree
	}
}

// DenyReason explains why a generation request was not allowed.
type DenyReason string

const (
	DenyNone              DenyReason = ""
	DenyNoCredits         DenyReason = "no_credits"
	DenyDailyLimitReached DenyReason = "daily_limit_reached"
)

// Entitlement is the per-user snapshot the generation workflow checks
// before submitting work to the prediction provider.
type Entitlement struct {
	CreditsRemaining     int
	DailyGenerationsUsed int
	LastGenerationDate   *time.Time
	Tier                 Tier
}

// SameCalendarDay compares two instants by calendar day in server-local
// time, mirroring the daily-limit bookkeeping the ledger uses.
func SameCalendarDay(a, b time.Time) bool {
	al, bl := a.Local(), b.Local()
	return al.Year() == bl.Year() && al.YearDay() == bl.YearDay()
}

// EffectiveDailyUsed returns the daily usage counter after applying the
// calendar-day reset: the counter restarts at zero the first time it is
// observed on a day later than the last recorded generation.
func (e Entitlement) EffectiveDailyUsed(now time.Time) int {
	if e.LastGenerationDate == nil || !SameCalendarDay(*e.LastGenerationDate, now) {
		return 0
	}
	return e.DailyGenerationsUsed
}

// Check decides whether a new generation may start right now. Credits are
// checked before the daily limit so an out-of-credits user always sees the
// credit denial first.
func (e Entitlement) Check(now time.Time) DenyReason {
	if e.CreditsRemaining <= 0 {
		return DenyNoCredits
	}
	if e.EffectiveDailyUsed(now) >= DailyLimit(e.Tier) {
		return DenyDailyLimitReached
	}
	return DenyNone
}

// NextResetAt returns midnight of the following day in server-local time,
// the instant at which the daily counter resets.
func NextResetAt(now time.Time) time.Time {
	l := now.Local()
	return time.Date(l.Year(), l.Month(), l.Day()+1, 0, 0, 0, 0, l.Location())
}
