package repository

import (
	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/wizerunkowo/wizerunkowo/app/models"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/generation"
)

// GenerationRecorder persists generation state transitions and mirrors the
// current status into the cache for cheap status lookups.
type GenerationRecorder struct {
	generations GenerationRepository
}

// NewGenerationRecorder creates a recorder over the generation repository.
func NewGenerationRecorder(generations GenerationRepository) *GenerationRecorder {
	return &GenerationRecorder{generations: generations}
}

// Create stores the initial row and seeds the cached status.
func (r *GenerationRecorder) Create(g *models.Generation) error {
	if err := r.generations.Create(g); err != nil {
		return err
	}
	r.mirror(g)
	return nil
}

// Update stores a state transition and refreshes the cached status.
func (r *GenerationRecorder) Update(g *models.Generation) error {
	if err := r.generations.Update(g); err != nil {
		return err
	}
	r.mirror(g)
	return nil
}

func (r *GenerationRecorder) mirror(g *models.Generation) {
	if err := generation.SetGenerationStatus(g.UUID, g.Status); err != nil {
		fiberlog.Warnf("[Generation] Could not cache status for %s: %v", g.UUID, err)
	}
}
