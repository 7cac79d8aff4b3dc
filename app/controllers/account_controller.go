package controllers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/wizerunkowo/wizerunkowo/app/repository"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/entitlements"
)

// HandleGetAccountLimits returns the authenticated user's credit balance and
// daily generation allowance.
func HandleGetAccountLimits(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	repos := repository.GetGlobalRepositories()
	ledger := repository.NewCreditLedger(repos.User, repos.UsageLog)
	ent, err := ledger.GetEntitlement(userID)
	if err != nil {
		fiberlog.Errorf("[AccountController] Entitlement lookup failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
	}

	now := time.Now()
	dailyLimit := entitlements.DailyLimit(ent.Tier)
	dailyUsed := ent.EffectiveDailyUsed(now)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"can_generate":           ent.Check(now) == entitlements.DenyNone,
		"subscription_tier":      string(ent.Tier),
		"credits_remaining":      ent.CreditsRemaining,
		"daily_generations_used": dailyUsed,
		"daily_limit":            dailyLimit,
		"daily_remaining":        max(dailyLimit-dailyUsed, 0),
		"daily_reset_at":         entitlements.NextResetAt(now),
	})
}

// HandleGetUsage returns the authenticated user's usage log, newest first.
func HandleGetUsage(c *fiber.Ctx) error {
	userID, ok := requireUserID(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	repos := repository.GetGlobalRepositories()
	entries, err := repos.UsageLog.GetByUserID(userID, offset, limit)
	if err != nil {
		fiberlog.Errorf("[AccountController] Usage lookup failed for user %d: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"entries": entries,
		"offset":  offset,
		"limit":   limit,
	})
}
