package repository

import (
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/wizerunkowo/wizerunkowo/app/models"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/entitlements"
)

// CreditLedger backs generation credit checks with the user repository. The
// debit itself is a single conditional UPDATE, so concurrent submissions
// contending for the last credit resolve to exactly one winner.
type CreditLedger struct {
	users UserRepository
	usage UsageLogRepository
}

// NewCreditLedger creates a ledger over the given repositories.
func NewCreditLedger(users UserRepository, usage UsageLogRepository) *CreditLedger {
	return &CreditLedger{users: users, usage: usage}
}

// GetEntitlement loads the user's current credit and daily-limit state.
func (l *CreditLedger) GetEntitlement(userID uint) (entitlements.Entitlement, error) {
	user, err := l.users.GetByID(userID)
	if err != nil {
		return entitlements.Entitlement{}, err
	}
	return entitlements.Entitlement{
		Tier:                 entitlements.NormalizeTier(user.SubscriptionTier),
		CreditsRemaining:     user.CreditsRemaining,
		DailyGenerationsUsed: user.DailyGenerationsUsed,
		LastGenerationDate:   user.LastGenerationDate,
	}, nil
}

// DebitForGeneration spends one credit for the user, if available. The
// daily limit is looked up from the user's tier at debit time.
func (l *CreditLedger) DebitForGeneration(userID uint, now time.Time) (bool, error) {
	ent, err := l.GetEntitlement(userID)
	if err != nil {
		return false, err
	}
	debited, err := l.users.DebitForGeneration(userID, entitlements.DailyLimit(ent.Tier), now)
	if err != nil || !debited {
		return debited, err
	}
	l.recordDebit(userID)
	return true, nil
}

// recordDebit appends the usage log entry for a spent credit. The debit
// already committed, so a logging failure is reported but not propagated.
func (l *CreditLedger) recordDebit(userID uint) {
	user, err := l.users.GetByID(userID)
	if err != nil {
		fiberlog.Errorf("[Ledger] Could not reload user %d for usage log: %v", userID, err)
		return
	}
	entry := &models.UsageLog{
		UserID:       userID,
		Action:       models.UsageActionGeneration,
		CreditsDelta: -1,
		BalanceAfter: user.CreditsRemaining,
	}
	if err := l.usage.Create(entry); err != nil {
		fiberlog.Errorf("[Ledger] Could not write usage log for user %d: %v", userID, err)
	}
}
