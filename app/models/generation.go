package models

import (
	"time"

	"gorm.io/gorm"
)

// Generation status values. A generation only ever moves forward:
// validating -> rejected | submitted -> polling -> succeeded | failed | timed_out
const (
	GenerationStatusValidating = "validating"
	GenerationStatusRejected   = "rejected"
	GenerationStatusSubmitted  = "submitted"
	GenerationStatusPolling    = "polling"
	GenerationStatusSucceeded  = "succeeded"
	GenerationStatusFailed     = "failed"
	GenerationStatusTimedOut   = "timed_out"
)

// Generation is one user-submitted photo generation request. The source
// image itself is never persisted, only its metadata and the outcome.
type Generation struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UUID         string         `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UserID       uint           `gorm:"index;not null" json:"user_id"`
	User         User           `gorm:"foreignKey:UserID" json:"-"`
	Style        string         `gorm:"type:varchar(50);not null" json:"style"`
	Status       string         `gorm:"type:varchar(50);not null;default:'validating';index" json:"status"`
	PredictionID string         `gorm:"type:varchar(100);index" json:"prediction_id,omitempty"`
	ResultURL    string         `gorm:"type:text" json:"result_url,omitempty"`
	ArchiveKey   string         `gorm:"type:varchar(255)" json:"archive_key,omitempty"`
	ThumbnailKey string         `gorm:"type:varchar(255)" json:"thumbnail_key,omitempty"`
	ErrorKind    string         `gorm:"type:varchar(50)" json:"error_kind,omitempty"`
	ErrorDetail  string         `gorm:"type:text" json:"error_detail,omitempty"`
	AttemptsMade int            `gorm:"not null;default:0" json:"attempts_made"`
	SourceMIME   string         `gorm:"type:varchar(50)" json:"source_mime"`
	SourceBytes  int64          `gorm:"not null;default:0" json:"source_bytes"`
	SubmittedAt  *time.Time     `gorm:"type:timestamp;default:null" json:"submitted_at,omitempty"`
	CompletedAt  *time.Time     `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsTerminal reports whether the generation reached a final state.
func (g *Generation) IsTerminal() bool {
	switch g.Status {
	case GenerationStatusRejected, GenerationStatusSucceeded,
		GenerationStatusFailed, GenerationStatusTimedOut:
		return true
	}
	return false
}

// FindGenerationByUUID loads a generation by its public UUID.
func FindGenerationByUUID(db *gorm.DB, uuid string) (*Generation, error) {
	var g Generation
	if err := db.Where("uuid = ?", uuid).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}
