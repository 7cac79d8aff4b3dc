package jobqueue

import (
	"context"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/log"

	"github.com/wizerunkowo/wizerunkowo/app/repository"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/database"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/generation"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/replicate"
)

// processGenerationJob runs an asynchronously submitted generation to its
// terminal state. The outcome is recorded on the generation row, so the job
// itself completes even when the generation fails.
func (q *Queue) processGenerationJob(ctx context.Context, job *Job) error {
	log.Infof("[JobQueue] Processing generation job %s", job.ID)

	// Parse the payload
	payload, err := GenerationJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse generation payload: %w", err)
	}

	db := database.GetDB()
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	repos := repository.GetGlobalRepositories()

	imageData, err := os.ReadFile(payload.FilePath)
	if err != nil {
		return fmt.Errorf("staged source image not found for %s: %w", payload.GenerationUUID, err)
	}

	client, err := replicate.NewClientFromEnv()
	if err != nil {
		return fmt.Errorf("provider client unavailable: %w", err)
	}

	orchestrator := generation.NewOrchestrator(
		client,
		repository.NewCreditLedger(repos.User, repos.UsageLog),
		repository.NewGenerationRecorder(repos.Generation),
	)

	outcome := orchestrator.Submit(ctx, generation.Request{
		UUID:     payload.GenerationUUID,
		UserID:   payload.UserID,
		Image:    imageData,
		MimeType: payload.MimeType,
		Style:    generation.Style(payload.Style),
	})

	// The staged file is only needed for this run
	if err := os.Remove(payload.FilePath); err != nil {
		log.Warnf("[JobQueue] Could not remove staged file %s: %v", payload.FilePath, err)
	}

	if !outcome.OK {
		log.Infof("[JobQueue] Generation %s ended without result (%s)", payload.GenerationUUID, outcome.ErrorKind)
		return nil
	}

	q.enqueueResultArchive(payload.GenerationUUID, payload.UserID, outcome.ResultURL)
	return nil
}

// enqueueResultArchive schedules archiving of a succeeded generation.
func (q *Queue) enqueueResultArchive(generationUUID string, userID uint, resultURL string) {
	repos := repository.GetGlobalRepositories()
	g, err := repos.Generation.GetByUUID(generationUUID)
	if err != nil {
		log.Errorf("[JobQueue] Could not load generation %s for archiving: %v", generationUUID, err)
		return
	}

	archivePayload := ResultArchiveJobPayload{
		GenerationID:   g.ID,
		GenerationUUID: generationUUID,
		UserID:         userID,
		ResultURL:      resultURL,
	}
	if _, err := q.EnqueueJob(JobTypeResultArchive, archivePayload.ToMap()); err != nil {
		log.Errorf("[JobQueue] Could not enqueue archive job for %s: %v", generationUUID, err)
	}
}
