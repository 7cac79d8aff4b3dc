package jobqueue

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/wizerunkowo/wizerunkowo/app/models"
	"github.com/wizerunkowo/wizerunkowo/app/repository"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/database"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/generation"
)

// staleGenerationAge is how long a generation may sit in a non-terminal
// state before reconciliation finalizes it. Polling is bounded at 5 minutes,
// so anything older was interrupted by a crash or restart.
const staleGenerationAge = 15 * time.Minute

// ReconcileStaleGenerations finalizes generations that were interrupted
// mid-flight. Their credit stays spent; the row is closed out as timed out
// so clients stop polling a request that will never finish.
func (q *Queue) ReconcileStaleGenerations() error {
	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	cutoff := time.Now().Add(-staleGenerationAge)
	var stale []models.Generation
	err := db.Where("status IN ? AND updated_at < ?", []string{
		models.GenerationStatusValidating,
		models.GenerationStatusSubmitted,
		models.GenerationStatusPolling,
	}, cutoff).Find(&stale).Error
	if err != nil {
		return fmt.Errorf("failed to scan for stale generations: %w", err)
	}

	if len(stale) == 0 {
		return nil
	}

	log.Warnf("[JobQueue] Reconciling %d stale generations", len(stale))
	repos := repository.GetGlobalRepositories()
	for i := range stale {
		g := &stale[i]
		now := time.Now()
		g.Status = models.GenerationStatusTimedOut
		g.ErrorKind = string(generation.ErrTimedOut)
		g.ErrorDetail = "Generation timed out"
		g.CompletedAt = &now
		if err := repos.Generation.Update(g); err != nil {
			log.Errorf("[JobQueue] Could not reconcile generation %s: %v", g.UUID, err)
			continue
		}
		if err := generation.SetGenerationStatus(g.UUID, g.Status); err != nil {
			log.Warnf("[JobQueue] Could not cache status for %s: %v", g.UUID, err)
		}
	}

	return nil
}
