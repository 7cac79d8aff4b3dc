package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/wizerunkowo/wizerunkowo/app/models"
)

// generationRepository implements the GenerationRepository interface
type generationRepository struct {
	db *gorm.DB
}

// NewGenerationRepository creates a new generation repository instance
func NewGenerationRepository(db *gorm.DB) GenerationRepository {
	return &generationRepository{db: db}
}

// Create creates a new generation row in the database
func (r *generationRepository) Create(g *models.Generation) error {
	return r.db.Create(g).Error
}

// GetByID retrieves a generation by its ID
func (r *generationRepository) GetByID(id uint) (*models.Generation, error) {
	var g models.Generation
	err := r.db.First(&g, id).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByUUID retrieves a generation by its public UUID
func (r *generationRepository) GetByUUID(uuid string) (*models.Generation, error) {
	var g models.Generation
	err := r.db.Where("uuid = ?", uuid).First(&g).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetByUserID retrieves a paginated list of a user's generations
func (r *generationRepository) GetByUserID(userID uint, offset, limit int) ([]models.Generation, error) {
	var generations []models.Generation
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&generations).Error
	return generations, err
}

// Update updates an existing generation in the database
func (r *generationRepository) Update(g *models.Generation) error {
	return r.db.Save(g).Error
}

// CountByUserID returns the number of generations for the given user
func (r *generationRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Generation{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// CountByUserIDSince counts a user's generations created after since
func (r *generationRepository) CountByUserIDSince(userID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Generation{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	return count, err
}
