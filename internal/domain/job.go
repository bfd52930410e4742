package domain

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// AnonymousUserID is the owner recorded for unauthenticated submissions
const AnonymousUserID = "anonymous"

// Job is one text-to-note processing request and its lifecycle state.
// The orchestrator exclusively owns status mutations; everything else
// only reads the record or triggers transitions through the orchestrator.
type Job struct {
	ID     int64  `db:"id"`
	JobID  string `db:"job_id"`
	UserID string `db:"user_id"`

	// Input
	OriginalText string   `db:"original_text"`
	Category     Category `db:"category"`
	Priority     Priority `db:"priority"`
	Tags         string   `db:"tags"` // JSON array

	// Derived output
	ProcessedMarkdown sql.NullString `db:"processed_markdown"`
	AIResponse        sql.NullString `db:"ai_response"`
	ExtractedMetadata sql.NullString `db:"extracted_metadata"` // JSON object
	WordCount         sql.NullInt64  `db:"word_count"`
	CharCount         sql.NullInt64  `db:"char_count"`

	// Status and control
	Status       Status         `db:"status"`
	ErrorMessage sql.NullString `db:"error_message"`
	RetryCount   int            `db:"retry_count"`

	// File linkage
	VaultFilePath sql.NullString `db:"vault_file_path"`

	// Processing details
	AIModelUsed           sql.NullString  `db:"ai_model_used"`
	ProcessingTimeSeconds sql.NullFloat64 `db:"processing_time_seconds"`

	// Timestamps
	CreatedAt   time.Time    `db:"created_at"`
	ProcessedAt sql.NullTime `db:"processed_at"`
	SyncedAt    sql.NullTime `db:"synced_at"`
	UpdatedAt   time.Time    `db:"updated_at"`
}

// NewJob builds a queued job for the given input
func NewJob(userID, text string, category Category, priority Priority, tags []string) *Job {
	now := time.Now().UTC()
	j := &Job{
		JobID:        GenerateJobID(now),
		UserID:       userID,
		OriginalText: text,
		Category:     category,
		Priority:     priority,
		Status:       StatusQueued,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	j.SetTags(tags)
	return j
}

// GenerateJobID produces an opaque job identifier, distinct from the row id
func GenerateJobID(now time.Time) string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "job_" + now.Format("20060102150405") + "_" + hex.EncodeToString(buf)
}

// GetTags returns the tag set, or nil when absent or unreadable
func (j *Job) GetTags() []string {
	if j.Tags == "" {
		return nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(j.Tags), &tags); err != nil {
		return nil
	}
	return tags
}

// SetTags stores the tag set as a JSON array
func (j *Job) SetTags(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	data, _ := json.Marshal(tags)
	j.Tags = string(data)
}

// GetMetadata returns the extracted metadata, or an empty map when absent
func (j *Job) GetMetadata() map[string]any {
	if !j.ExtractedMetadata.Valid || j.ExtractedMetadata.String == "" {
		return map[string]any{}
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(j.ExtractedMetadata.String), &meta); err != nil {
		return map[string]any{}
	}
	return meta
}

// SetMetadata stores the extracted metadata as a JSON object
func (j *Job) SetMetadata(meta map[string]any) {
	if meta == nil {
		meta = map[string]any{}
	}
	data, _ := json.Marshal(meta)
	j.ExtractedMetadata = sql.NullString{String: string(data), Valid: true}
}

// MarkProcessing moves the job into processing
func (j *Job) MarkProcessing() {
	j.Status = StatusProcessing
	j.UpdatedAt = time.Now().UTC()
}

// MarkProcessed records the adapter output and moves the job into processed
func (j *Job) MarkProcessed(markdown, rawResponse string, metadata map[string]any) {
	now := time.Now().UTC()
	j.Status = StatusProcessed
	j.ProcessedMarkdown = sql.NullString{String: markdown, Valid: true}
	j.AIResponse = sql.NullString{String: rawResponse, Valid: true}
	j.SetMetadata(metadata)
	j.WordCount = sql.NullInt64{Int64: int64(len(strings.Fields(markdown))), Valid: true}
	j.CharCount = sql.NullInt64{Int64: int64(len(markdown)), Valid: true}
	j.ProcessedAt = sql.NullTime{Time: now, Valid: true}
	j.UpdatedAt = now
}

// MarkSyncing moves the job into syncing
func (j *Job) MarkSyncing() {
	j.Status = StatusSyncing
	j.UpdatedAt = time.Now().UTC()
}

// MarkSynced records the written file path and moves the job into synced
func (j *Job) MarkSynced(filePath string) {
	now := time.Now().UTC()
	j.Status = StatusSynced
	j.VaultFilePath = sql.NullString{String: filePath, Valid: true}
	j.SyncedAt = sql.NullTime{Time: now, Valid: true}
	j.UpdatedAt = now
}

// MarkFailed records the error and bumps the retry counter
func (j *Job) MarkFailed(errMsg string) {
	j.Status = StatusFailed
	j.ErrorMessage = sql.NullString{String: errMsg, Valid: true}
	j.RetryCount++
	j.UpdatedAt = time.Now().UTC()
}

// MarkCancelled moves the job into its cancelled terminal state
func (j *Job) MarkCancelled() {
	j.Status = StatusCancelled
	j.UpdatedAt = time.Now().UTC()
}

// ResetForRetry re-queues a failed job and clears its error message
func (j *Job) ResetForRetry() {
	j.Status = StatusQueued
	j.ErrorMessage = sql.NullString{}
	j.UpdatedAt = time.Now().UTC()
}

// CanCancel reports whether the job is still in a cancellable state
func (j *Job) CanCancel() bool {
	return j.Status == StatusQueued || j.Status == StatusProcessing
}

// CanRetry reports whether the job is failed and within the retry budget
func (j *Job) CanRetry() bool {
	return j.Status == StatusFailed && j.RetryCount < MaxRetries
}
