package dto

// SubmitTextRequest is the body for POST /api/processing/text
type SubmitTextRequest struct {
	Text     string   `json:"text"`
	Category string   `json:"category"`
	Priority string   `json:"priority"`
	Tags     []string `json:"tags"`
}

// SubmitResponse acknowledges an accepted submission
type SubmitResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobDTO is the public view of a processing job
type JobDTO struct {
	JobID                 string         `json:"job_id"`
	Status                string         `json:"status"`
	Category              string         `json:"category"`
	Priority              string         `json:"priority"`
	Tags                  []string       `json:"tags"`
	ProcessedMarkdown     string         `json:"processed_markdown,omitempty"`
	Metadata              map[string]any `json:"metadata,omitempty"`
	WordCount             int64          `json:"word_count,omitempty"`
	CharCount             int64          `json:"char_count,omitempty"`
	ErrorMessage          string         `json:"error_message,omitempty"`
	RetryCount            int            `json:"retry_count"`
	VaultFilePath         string         `json:"vault_file_path,omitempty"`
	AIModelUsed           string         `json:"ai_model_used,omitempty"`
	ProcessingTimeSeconds float64        `json:"processing_time_seconds,omitempty"`
	CreatedAt             string         `json:"created_at"`
	ProcessedAt           string         `json:"processed_at,omitempty"`
	SyncedAt              string         `json:"synced_at,omitempty"`
	UpdatedAt             string         `json:"updated_at"`
}

// ListJobsResponse is the paged job listing
type ListJobsResponse struct {
	Jobs   []JobDTO `json:"jobs"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// ActionResponse acknowledges a cancel, retry, or sync action
type ActionResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the uniform error body
type ErrorResponse struct {
	Error string `json:"error"`
}
