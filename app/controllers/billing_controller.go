package controllers

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/wizerunkowo/wizerunkowo/internal/pkg/billing"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/cache"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/database"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/env"
)

const billingProvider = "stripe"

const pricingCacheKey = "billing:pricing"
const pricingCacheTTL = 10 * time.Minute

// webhookEvent is the subset of the provider event envelope we act on.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// HandleBillingWebhook ingests provider webhook events. Events are recorded
// idempotently before processing; replays are acknowledged without side
// effects.
func HandleBillingWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	signatureValid := billing.VerifyWebhookSignature(payload, c.Get("Stripe-Signature"), secret, time.Now())
	if !signatureValid {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid signature"})
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid payload"})
	}

	service := billing.NewServiceFromDB(database.GetDB())
	created, stored, err := service.RecordWebhookEvent(c.Context(), billing.WebhookEventInput{
		Provider:        billingProvider,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(payload),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		fiberlog.Errorf("[BillingController] Could not record webhook event: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook processing failed"})
	}
	if !created {
		// Duplicate delivery
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true, "duplicate": true})
	}

	processErr := dispatchWebhookEvent(c, service, event)
	if err := service.MarkWebhookProcessed(c.Context(), stored.ID, processErr); err != nil {
		fiberlog.Errorf("[BillingController] Could not mark event %d processed: %v", stored.ID, err)
	}
	if processErr != nil {
		fiberlog.Errorf("[BillingController] Webhook %s (%s) failed: %v", event.ID, event.Type, processErr)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}

func dispatchWebhookEvent(c *fiber.Ctx, service *billing.Service, event webhookEvent) error {
	switch event.Type {
	case "payment_intent.succeeded", "checkout.session.completed":
		return applyPaymentEvent(c, service, event)
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		return syncSubscriptionEvent(c, service, event)
	case "invoice.payment_succeeded":
		// Renewals arrive as subscription updates too; nothing extra to do
		return nil
	default:
		fiberlog.Debugf("[BillingController] Unhandled event type: %s", event.Type)
		return nil
	}
}

// applyPaymentEvent grants purchased credits based on checkout metadata.
func applyPaymentEvent(c *fiber.Ctx, service *billing.Service, event webhookEvent) error {
	var object struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return fmt.Errorf("invalid payment object: %w", err)
	}

	userID, err := strconv.ParseUint(object.Metadata["user_id"], 10, 32)
	if err != nil {
		return fmt.Errorf("payment %s has no user_id metadata", object.ID)
	}
	credits, err := strconv.Atoi(object.Metadata["credits"])
	if err != nil || credits <= 0 {
		return fmt.Errorf("payment %s has no credits metadata", object.ID)
	}

	return service.ApplyCreditPurchase(c.Context(), billing.CreditPurchase{
		UserID:    uint(userID),
		Credits:   credits,
		PlanName:  object.Metadata["plan_name"],
		PaymentID: object.ID,
	})
}

// syncSubscriptionEvent mirrors subscription state and reconciles the tier.
func syncSubscriptionEvent(c *fiber.Ctx, service *billing.Service, event webhookEvent) error {
	var object struct {
		ID                 string            `json:"id"`
		Status             string            `json:"status"`
		CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
		CurrentPeriodStart int64             `json:"current_period_start"`
		CurrentPeriodEnd   int64             `json:"current_period_end"`
		Metadata           map[string]string `json:"metadata"`
		Items              struct {
			Data []struct {
				Price struct {
					ID        string `json:"id"`
					Recurring *struct {
						Interval string `json:"interval"`
					} `json:"recurring"`
				} `json:"price"`
			} `json:"data"`
		} `json:"items"`
	}
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return fmt.Errorf("invalid subscription object: %w", err)
	}

	userID, err := strconv.ParseUint(object.Metadata["user_id"], 10, 32)
	if err != nil {
		return fmt.Errorf("subscription %s has no user_id metadata", object.ID)
	}

	planRef := ""
	interval := ""
	if len(object.Items.Data) > 0 {
		planRef = object.Items.Data[0].Price.ID
		if object.Items.Data[0].Price.Recurring != nil {
			interval = object.Items.Data[0].Price.Recurring.Interval
		}
	}

	status := object.Status
	if strings.HasSuffix(event.Type, ".deleted") {
		status = "canceled"
	}

	sub := billing.NormalizedSubscription{
		UserID:                 uint(userID),
		Provider:               billingProvider,
		ProviderSubscriptionID: object.ID,
		ProviderPlanRef:        planRef,
		BillingInterval:        interval,
		Status:                 status,
		CancelAtPeriodEnd:      object.CancelAtPeriodEnd,
		RawPayloadJSON:         string(event.Data.Object),
	}
	if object.CurrentPeriodStart > 0 {
		t := time.Unix(object.CurrentPeriodStart, 0)
		sub.CurrentPeriodStart = &t
	}
	if object.CurrentPeriodEnd > 0 {
		t := time.Unix(object.CurrentPeriodEnd, 0)
		sub.CurrentPeriodEnd = &t
	}

	_, _, err = service.SyncSubscription(c.Context(), sub)
	return err
}

// HandleGetPricing returns the purchasable plan catalog. The provider
// response is cached briefly to keep the endpoint cheap.
func HandleGetPricing(c *fiber.Ctx) error {
	if cached, err := cache.Get(pricingCacheKey); err == nil && cached != "" {
		c.Set("Content-Type", "application/json")
		return c.Status(fiber.StatusOK).SendString(cached)
	}

	client, err := billing.NewPricingClientFromEnv()
	if err != nil {
		fiberlog.Errorf("[BillingController] Pricing client unavailable: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "pricing is not configured"})
	}

	plans, err := client.ListPlans(c.Context())
	if err != nil {
		fiberlog.Errorf("[BillingController] Pricing fetch failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "failed to fetch pricing"})
	}

	body, err := json.Marshal(fiber.Map{"plans": plans})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to encode pricing"})
	}
	if err := cache.Set(pricingCacheKey, string(body), pricingCacheTTL); err != nil {
		fiberlog.Warnf("[BillingController] Could not cache pricing: %v", err)
	}

	c.Set("Content-Type", "application/json")
	return c.Status(fiber.StatusOK).Send(body)
}
