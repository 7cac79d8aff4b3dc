package generation

import (
	"fmt"
	"time"

	"github.com/wizerunkowo/wizerunkowo/app/models"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/cache"
	"github.com/wizerunkowo/wizerunkowo/internal/pkg/database"
)

// Cache key formats for generation status lookups
const (
	GenerationStatusKeyFormat          = "generation:status:%s"           // Format: generation:status:<uuid>
	GenerationStatusTimestampKeyFormat = "generation:status:timestamp:%s" // Format: generation:status:timestamp:<uuid>
)

// SetGenerationStatus mirrors the current status of a generation in the
// cache so status endpoints do not hit the database on every poll.
func SetGenerationStatus(generationUUID string, status string) error {
	key := fmt.Sprintf(GenerationStatusKeyFormat, generationUUID)
	SetGenerationStatusTimestamp(generationUUID, time.Now())
	return cache.Set(key, status, 24*time.Hour)
}

// SetGenerationStatusTimestamp sets the timestamp when the status was set
func SetGenerationStatusTimestamp(generationUUID string, timestamp time.Time) error {
	cacheKey := fmt.Sprintf(GenerationStatusTimestampKeyFormat, generationUUID)
	return cache.Set(cacheKey, timestamp.Format(time.RFC3339), 24*time.Hour)
}

// GetGenerationStatus retrieves the status of a generation from the cache
func GetGenerationStatus(generationUUID string) (string, error) {
	key := fmt.Sprintf(GenerationStatusKeyFormat, generationUUID)
	return cache.Get(key)
}

// GetGenerationStatusTimestamp gets the timestamp when the status was set
func GetGenerationStatusTimestamp(generationUUID string) (time.Time, error) {
	cacheKey := fmt.Sprintf(GenerationStatusTimestampKeyFormat, generationUUID)
	timestampStr, err := cache.Get(cacheKey)
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, timestampStr)
}

// IsGenerationComplete reports whether a generation has reached a terminal
// state. The cache is checked first; on a miss the database row decides and
// the cache is refreshed.
func IsGenerationComplete(generationUUID string) bool {
	status, err := GetGenerationStatus(generationUUID)
	if err == nil && isTerminalStatus(status) {
		return true
	}

	db := database.GetDB()
	g, err := models.FindGenerationByUUID(db, generationUUID)
	if err != nil {
		return false
	}
	if g.IsTerminal() {
		SetGenerationStatus(generationUUID, g.Status)
		return true
	}
	return false
}

func isTerminalStatus(status string) bool {
	switch status {
	case models.GenerationStatusRejected,
		models.GenerationStatusSucceeded,
		models.GenerationStatusFailed,
		models.GenerationStatusTimedOut:
		return true
	}
	return false
}
