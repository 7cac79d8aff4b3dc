package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeGeneration    JobType = "generation"
	JobTypeResultArchive JobType = "result_archive"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// GenerationJobPayload contains the payload for async generation jobs.
// The source image is staged on disk so the queue entry stays small.
type GenerationJobPayload struct {
	GenerationUUID string `json:"generation_uuid"`
	UserID         uint   `json:"user_id"`
	Style          string `json:"style"`
	FilePath       string `json:"file_path"` // Staged source image path
	MimeType       string `json:"mime_type"`
	FileSize       int64  `json:"file_size"`
}

// ToMap converts the payload to a map for storage
func (p GenerationJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"generation_uuid": p.GenerationUUID,
		"user_id":         p.UserID,
		"style":           p.Style,
		"file_path":       p.FilePath,
		"mime_type":       p.MimeType,
		"file_size":       p.FileSize,
	}
}

// FromMap creates a payload from a map
func GenerationJobPayloadFromMap(data map[string]interface{}) (*GenerationJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload GenerationJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// ResultArchiveJobPayload contains the payload for result archive jobs.
// Provider result URLs expire, so succeeded generations are copied into
// object storage and a thumbnail is produced.
type ResultArchiveJobPayload struct {
	GenerationID   uint   `json:"generation_id"`
	GenerationUUID string `json:"generation_uuid"`
	UserID         uint   `json:"user_id"`
	ResultURL      string `json:"result_url"`
}

// ToMap converts the payload to a map for storage
func (p ResultArchiveJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"generation_id":   p.GenerationID,
		"generation_uuid": p.GenerationUUID,
		"user_id":         p.UserID,
		"result_url":      p.ResultURL,
	}
}

// FromMap creates a payload from a map
func ResultArchiveJobPayloadFromMap(data map[string]interface{}) (*ResultArchiveJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload ResultArchiveJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
