package models

import (
	"time"
)

// Usage log actions.
const (
	UsageActionGeneration   = "generation"
	UsageActionCreditsAdded = "credits_added"
	UsageActionTierChange   = "tier_change"
)

// UsageLog records credit movements and generation activity per user.
type UsageLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Action       string    `gorm:"type:varchar(50);not null;index" json:"action"`
	CreditsDelta int       `gorm:"not null;default:0" json:"credits_delta"`
	BalanceAfter int       `gorm:"not null;default:0" json:"balance_after"`
	Detail       string    `gorm:"type:varchar(255)" json:"detail,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}
