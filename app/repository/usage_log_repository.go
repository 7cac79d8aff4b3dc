package repository

import (
	"gorm.io/gorm"

	"github.com/wizerunkowo/wizerunkowo/app/models"
)

// usageLogRepository implements the UsageLogRepository interface
type usageLogRepository struct {
	db *gorm.DB
}

// NewUsageLogRepository creates a new usage log repository instance
func NewUsageLogRepository(db *gorm.DB) UsageLogRepository {
	return &usageLogRepository{db: db}
}

// Create appends a usage log entry
func (r *usageLogRepository) Create(entry *models.UsageLog) error {
	return r.db.Create(entry).Error
}

// GetByUserID retrieves a paginated list of a user's usage entries
func (r *usageLogRepository) GetByUserID(userID uint, offset, limit int) ([]models.UsageLog, error) {
	var entries []models.UsageLog
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error
	return entries, err
}
