package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/wizerunkowo/wizerunkowo/app/models"
	"github.com/wizerunkowo/wizerunkowo/app/repository"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/entitlements"
)

// Service provides provider-neutral billing synchronization: subscription
// state maps to a tier, one-time payments map to credit grants.
type Service struct {
	repo  Repository
	users repository.UserRepository
	usage repository.UsageLogRepository
}

// NewService creates a billing service from injected repositories.
func NewService(repo Repository, users repository.UserRepository, usage repository.UsageLogRepository) *Service {
	return &Service{repo: repo, users: users, usage: usage}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	repos := repository.NewRepositories(db)
	return NewService(NewRepository(db), repos.User, repos.UsageLog)
}

// ResolveMappedTier resolves provider plan references to an internal tier.
func (s *Service) ResolveMappedTier(ctx context.Context, provider, providerPlanRef, interval string) (string, error) {
	_ = ctx
	p := strings.ToLower(strings.TrimSpace(provider))
	ref := strings.TrimSpace(providerPlanRef)
	i := normalizeInterval(interval)
	if p == "" || ref == "" {
		return string(entitlements.TierFree), errors.New("provider and provider plan ref are required")
	}

	// Prefer exact interval match.
	m, err := s.repo.FindActivePlanMapping(p, ref, i)
	if err == nil {
		return normalizeTier(m.InternalTier), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	// Fallback for mappings that intentionally use "unknown".
	m, err = s.repo.FindActivePlanMapping(p, ref, "unknown")
	if err == nil {
		return normalizeTier(m.InternalTier), nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return string(entitlements.TierFree), gorm.ErrRecordNotFound
	}
	return "", err
}

// SyncSubscription upserts provider subscription data and reconciles the
// user's tier from all of their subscriptions.
func (s *Service) SyncSubscription(ctx context.Context, in NormalizedSubscription) (*models.BillingSubscription, string, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if in.UserID == 0 || provider == "" || strings.TrimSpace(in.ProviderSubscriptionID) == "" {
		return nil, "", errors.New("user_id, provider and provider_subscription_id are required")
	}

	interval := normalizeInterval(in.BillingInterval)
	status := strings.ToLower(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.BillingStatusActive
	}

	internalTier, err := s.ResolveMappedTier(ctx, provider, in.ProviderPlanRef, interval)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	if internalTier == "" {
		internalTier = string(entitlements.TierFree)
	}

	sub := &models.BillingSubscription{
		UserID:                 in.UserID,
		Provider:               provider,
		ProviderSubscriptionID: strings.TrimSpace(in.ProviderSubscriptionID),
		ProviderPlanRef:        strings.TrimSpace(in.ProviderPlanRef),
		InternalTier:           internalTier,
		BillingInterval:        interval,
		Status:                 status,
		CurrentPeriodStart:     in.CurrentPeriodStart,
		CurrentPeriodEnd:       in.CurrentPeriodEnd,
		CancelAtPeriodEnd:      in.CancelAtPeriodEnd,
		RawPayloadJSON:         in.RawPayloadJSON,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return nil, "", err
	}

	effectiveTier, err := s.ReconcileUserTier(ctx, in.UserID)
	if err != nil {
		return sub, "", err
	}
	return sub, effectiveTier, nil
}

// ReconcileUserTier computes and writes the best effective tier for a user.
// On an upgrade the tier's monthly credits are granted immediately.
func (s *Service) ReconcileUserTier(ctx context.Context, userID uint) (string, error) {
	_ = ctx
	if userID == 0 {
		return "", errors.New("user_id is required")
	}

	subs, err := s.repo.ListSubscriptionsByUser(userID)
	if err != nil {
		return "", err
	}

	best := string(entitlements.TierFree)
	for _, sub := range subs {
		if !isEntitlingStatus(sub.Status) {
			continue
		}
		candidate := normalizeTier(sub.InternalTier)
		if tierRank(candidate) > tierRank(best) {
			best = candidate
		}
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", err
	}
	current := normalizeTier(user.SubscriptionTier)
	if current == best {
		return best, nil
	}

	if err := s.users.SetTier(userID, best); err != nil {
		return "", err
	}
	s.logUsage(userID, models.UsageActionTierChange, 0, fmt.Sprintf("%s -> %s", current, best))

	if tierRank(best) > tierRank(current) {
		credits := entitlements.MonthlyCredits(entitlements.Tier(best))
		if err := s.users.AddCredits(userID, credits); err != nil {
			return "", err
		}
		s.logUsage(userID, models.UsageActionCreditsAdded, credits, "tier upgrade grant")
	}
	return best, nil
}

// ApplyCreditPurchase grants credits for a completed one-time payment.
func (s *Service) ApplyCreditPurchase(ctx context.Context, in CreditPurchase) error {
	_ = ctx
	if in.UserID == 0 || in.Credits <= 0 {
		return errors.New("user_id and a positive credit amount are required")
	}
	if err := s.users.AddCredits(in.UserID, in.Credits); err != nil {
		return err
	}
	detail := in.PlanName
	if in.PaymentID != "" {
		detail = fmt.Sprintf("%s (%s)", in.PlanName, in.PaymentID)
	}
	s.logUsage(in.UserID, models.UsageActionCreditsAdded, in.Credits, detail)
	return nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	return s.repo.CreateWebhookEventIfNotExists(event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

func (s *Service) logUsage(userID uint, action string, delta int, detail string) {
	balance := 0
	if user, err := s.users.GetByID(userID); err == nil {
		balance = user.CreditsRemaining
	}
	entry := &models.UsageLog{
		UserID:       userID,
		Action:       action,
		CreditsDelta: delta,
		BalanceAfter: balance,
		Detail:       detail,
	}
	_ = s.usage.Create(entry)
}
