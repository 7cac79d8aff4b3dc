package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/wizerunkowo/wizerunkowo/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByAPIKeyHash(hash string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)

	// DebitForGeneration spends one credit and bumps the daily counter in a
	// single conditional update. It reports false without changing the row
	// when the user has no credits left or already hit dailyLimit today.
	DebitForGeneration(userID uint, dailyLimit int, now time.Time) (bool, error)
	AddCredits(userID uint, amount int) error
	SetTier(userID uint, tier string) error
}

// GenerationRepository defines the interface for generation request rows
type GenerationRepository interface {
	Create(g *models.Generation) error
	GetByID(id uint) (*models.Generation, error)
	GetByUUID(uuid string) (*models.Generation, error)
	GetByUserID(userID uint, offset, limit int) ([]models.Generation, error)
	Update(g *models.Generation) error
	CountByUserID(userID uint) (int64, error)
	CountByUserIDSince(userID uint, since time.Time) (int64, error)
}

// UsageLogRepository records credit movements and account changes
type UsageLogRepository interface {
	Create(entry *models.UsageLog) error
	GetByUserID(userID uint, offset, limit int) ([]models.UsageLog, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User       UserRepository
	Generation GenerationRepository
	UsageLog   UsageLogRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Generation: NewGenerationRepository(db),
		UsageLog:   NewUsageLogRepository(db),
	}
}
