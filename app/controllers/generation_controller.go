package controllers

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wizerunkowo/wizerunkowo/app/models"
	"github.com/wizerunkowo/wizerunkowo/app/repository"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/env"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/generation"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/jobqueue"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/replicate"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/upload"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/usercontext"
)

// HandleCreateGeneration runs a generation synchronously and returns the
// final outcome. The request blocks until the image is ready or the
// generation reaches a terminal failure.
func HandleCreateGeneration(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	imageData, mimeType, style, err := parseGenerationForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	client, err := replicate.NewClientFromEnv()
	if err != nil {
		fiberlog.Errorf("[GenerationController] Provider client unavailable: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "image generation is not configured"})
	}

	repos := repository.GetGlobalRepositories()
	orchestrator := generation.NewOrchestrator(
		client,
		repository.NewCreditLedger(repos.User, repos.UsageLog),
		repository.NewGenerationRecorder(repos.Generation),
	)

	outcome := orchestrator.Submit(c.Context(), generation.Request{
		UserID:   user.UserID,
		Image:    imageData,
		MimeType: mimeType,
		Style:    generation.Style(style),
	})

	if outcome.OK {
		enqueueArchive(outcome.UUID, user.UserID, outcome.ResultURL)
		return c.Status(fiber.StatusOK).JSON(outcome)
	}
	return c.Status(statusForErrorKind(outcome.ErrorKind)).JSON(outcome)
}

// HandleCreateGenerationAsync accepts a generation, stages the source image
// and hands the work to the job queue. The response carries the UUID the
// client polls on.
func HandleCreateGenerationAsync(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	imageData, mimeType, style, err := parseGenerationForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	// Reject obviously invalid input before enqueueing
	if err := upload.ValidateSourceImage(mimeType, int64(len(imageData))); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":      err.Error(),
			"error_kind": string(generation.ErrInvalidInput),
		})
	}

	generationUUID := uuid.New().String()
	stagingPath, err := stageSourceImage(generationUUID, imageData)
	if err != nil {
		fiberlog.Errorf("[GenerationController] Could not stage source image: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not accept upload"})
	}

	// The worker creates the database row; until then the cached status is
	// the only record of this request.
	if err := generation.SetGenerationStatus(generationUUID, models.GenerationStatusValidating); err != nil {
		fiberlog.Warnf("[GenerationController] Could not seed status for %s: %v", generationUUID, err)
	}

	payload := jobqueue.GenerationJobPayload{
		GenerationUUID: generationUUID,
		UserID:         user.UserID,
		Style:          style,
		FilePath:       stagingPath,
		MimeType:       mimeType,
		FileSize:       int64(len(imageData)),
	}
	queue := jobqueue.GetManager().GetQueue()
	if _, err := queue.EnqueueJob(jobqueue.JobTypeGeneration, payload.ToMap()); err != nil {
		os.Remove(stagingPath)
		fiberlog.Errorf("[GenerationController] Could not enqueue generation %s: %v", generationUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not queue generation"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"uuid":   generationUUID,
		"status": models.GenerationStatusValidating,
	})
}

// HandleGetGeneration returns the current state of a generation. Only the
// owner can read it.
func HandleGetGeneration(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	generationUUID := c.Params("uuid")
	if generationUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uuid missing"})
	}

	repos := repository.GetGlobalRepositories()
	g, err := repos.Generation.GetByUUID(generationUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Async submissions exist only in the cache until a worker
			// picks them up.
			if status, cacheErr := generation.GetGenerationStatus(generationUUID); cacheErr == nil && status != "" {
				return c.Status(fiber.StatusOK).JSON(fiber.Map{
					"uuid":   generationUUID,
					"status": status,
				})
			}
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "generation not found"})
		}
		fiberlog.Errorf("[GenerationController] Lookup failed for %s: %v", generationUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
	}

	if g.UserID != user.UserID && !user.IsAdmin {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "generation not found"})
	}

	return c.Status(fiber.StatusOK).JSON(g)
}

// HandleListGenerations returns the authenticated user's generations,
// newest first.
func HandleListGenerations(c *fiber.Ctx) error {
	user := usercontext.GetUserContext(c)
	if !user.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	repos := repository.GetGlobalRepositories()
	generations, err := repos.Generation.GetByUserID(user.UserID, offset, limit)
	if err != nil {
		fiberlog.Errorf("[GenerationController] List failed for user %d: %v", user.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup failed"})
	}
	total, err := repos.Generation.CountByUserID(user.UserID)
	if err != nil {
		total = int64(len(generations))
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"generations": generations,
		"total":       total,
		"offset":      offset,
		"limit":       limit,
	})
}

// parseGenerationForm extracts the source image and style from a multipart
// submission.
func parseGenerationForm(c *fiber.Ctx) ([]byte, string, string, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, "", "", fmt.Errorf("image file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", "", fmt.Errorf("could not read uploaded file")
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		return nil, "", "", fmt.Errorf("could not read uploaded file")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	style := c.FormValue("style", string(generation.StyleLinkedIn))
	return imageData, mimeType, style, nil
}

// stageSourceImage writes the upload to the staging directory for the
// worker to pick up.
func stageSourceImage(generationUUID string, data []byte) (string, error) {
	dir := env.GetEnv("STAGING_DIR", "uploads/staging")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, generationUUID)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

func enqueueArchive(generationUUID string, userID uint, resultURL string) {
	repos := repository.GetGlobalRepositories()
	g, err := repos.Generation.GetByUUID(generationUUID)
	if err != nil {
		fiberlog.Errorf("[GenerationController] Could not load generation %s for archiving: %v", generationUUID, err)
		return
	}
	payload := jobqueue.ResultArchiveJobPayload{
		GenerationID:   g.ID,
		GenerationUUID: generationUUID,
		UserID:         userID,
		ResultURL:      resultURL,
	}
	queue := jobqueue.GetManager().GetQueue()
	if _, err := queue.EnqueueJob(jobqueue.JobTypeResultArchive, payload.ToMap()); err != nil {
		fiberlog.Errorf("[GenerationController] Could not enqueue archive for %s: %v", generationUUID, err)
	}
}

// statusForErrorKind maps terminal error kinds to HTTP status codes.
func statusForErrorKind(kind generation.ErrorKind) int {
	switch kind {
	case generation.ErrInvalidInput:
		return fiber.StatusBadRequest
	case generation.ErrNoCredits:
		return fiber.StatusPaymentRequired
	case generation.ErrDailyLimitReached:
		return fiber.StatusTooManyRequests
	case generation.ErrTimedOut:
		return fiber.StatusRequestTimeout
	default:
		return fiber.StatusBadGateway
	}
}
