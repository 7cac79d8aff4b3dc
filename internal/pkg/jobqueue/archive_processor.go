package jobqueue

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/wizerunkowo/wizerunkowo/app/repository"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/archive"
)

// processResultArchiveJob copies a succeeded generation result into object
// storage. Provider URLs expire after a short while, so this runs promptly
// after success and is retried by the queue on failure.
func (q *Queue) processResultArchiveJob(ctx context.Context, job *Job) error {
	log.Infof("[JobQueue] Processing result archive job %s", job.ID)

	// Parse the payload
	payload, err := ResultArchiveJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse result archive payload: %w", err)
	}

	client, err := archive.GetClient()
	if err != nil {
		// Archiving disabled or misconfigured; nothing to do
		log.Debugf("[JobQueue] Skipping archive for %s: %v", payload.GenerationUUID, err)
		return nil
	}

	result, err := client.ArchiveResult(payload.GenerationUUID, payload.ResultURL)
	if err != nil {
		return fmt.Errorf("archive failed for %s: %w", payload.GenerationUUID, err)
	}

	repos := repository.GetGlobalRepositories()
	g, err := repos.Generation.GetByUUID(payload.GenerationUUID)
	if err != nil {
		return fmt.Errorf("failed to load generation %s: %w", payload.GenerationUUID, err)
	}
	g.ArchiveKey = result.ObjectKey
	g.ThumbnailKey = result.ThumbnailKey
	if err := repos.Generation.Update(g); err != nil {
		return fmt.Errorf("failed to record archive keys for %s: %w", payload.GenerationUUID, err)
	}

	log.Infof("[JobQueue] Result archive completed for %s", payload.GenerationUUID)
	return nil
}
