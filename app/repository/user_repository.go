package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/wizerunkowo/wizerunkowo/app/models"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by their ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email address
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByAPIKeyHash resolves an API key hash to its user.
func (r *userRepository) GetByAPIKeyHash(hash string) (*models.User, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user models.User
	err := r.db.Where("api_key_hash = ? AND api_key_hash <> ''", trimmed).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an existing user in the database
func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

// Delete soft deletes a user by their ID
func (r *userRepository) Delete(id uint) error {
	return r.db.Delete(&models.User{}, id).Error
}

// Count returns the total number of users
func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Count(&count).Error
	return count, err
}

// DebitForGeneration performs the credit debit as one conditional UPDATE so
// two concurrent requests can never both spend the last credit. The daily
// counter restarts when the stored last generation date is an older
// calendar day than now.
func (r *userRepository) DebitForGeneration(userID uint, dailyLimit int, now time.Time) (bool, error) {
	day := now.Format("2006-01-02")
	result := r.db.Exec(`
		UPDATE users SET
			credits_remaining = credits_remaining - 1,
			daily_generations_used = CASE
				WHEN last_generation_date IS NULL OR DATE(last_generation_date) <> ? THEN 1
				ELSE daily_generations_used + 1
			END,
			last_generation_date = ?
		WHERE id = ?
			AND deleted_at IS NULL
			AND credits_remaining > 0
			AND (
				last_generation_date IS NULL
				OR DATE(last_generation_date) <> ?
				OR daily_generations_used < ?
			)`,
		day, now, userID, day, dailyLimit,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AddCredits grants credits to a user (billing top-ups, plan renewals).
func (r *userRepository) AddCredits(userID uint, amount int) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("credits_remaining", gorm.Expr("credits_remaining + ?", amount)).Error
}

// SetTier changes the user's subscription tier.
func (r *userRepository) SetTier(userID uint, tier string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("subscription_tier", tier).Error
}
