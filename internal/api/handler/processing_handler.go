package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lmartins/obsidian-sync/internal/api/dto"
	"github.com/lmartins/obsidian-sync/internal/domain"
	"github.com/lmartins/obsidian-sync/internal/extract"
	"github.com/lmartins/obsidian-sync/internal/orchestrator"
	"github.com/lmartins/obsidian-sync/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	timeFormat = time.RFC3339
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser plugin runs on a different origin than the API
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SubmitText handles POST /api/processing/text
// Validates the input, creates a queued job, and returns immediately;
// processing happens in the background.
func (h *ProcessingHandler) SubmitText(c *gin.Context) {
	var req dto.SubmitTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	h.submit(c, req.Text, req.Category, req.Priority, req.Tags)
}

// SubmitFile handles POST /api/processing/file
// Extracts text from an uploaded document and submits it through the
// same pipeline as raw text.
func (h *ProcessingHandler) SubmitFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "file field is required"})
		return
	}

	if fileHeader.Size > h.limits.MaxUploadBytes {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "file too large"})
		return
	}

	if !extract.Supported(fileHeader.Filename) {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{
			Error: "unsupported file type (supported: " + strings.Join(extract.SupportedExtensions, ", ") + ")",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to read upload"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.limits.MaxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to read upload"})
		return
	}
	if int64(len(data)) > h.limits.MaxUploadBytes {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "file too large"})
		return
	}

	text, err := extract.Text(fileHeader.Filename, data)
	if err != nil {
		h.logger.Warn("Text extraction failed",
			slog.String("filename", fileHeader.Filename),
			slog.Any("error", err),
		)
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: err.Error()})
		return
	}

	var tags []string
	if raw := c.PostForm("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				tags = append(tags, trimmed)
			}
		}
	}

	h.submit(c, text, c.PostForm("category"), c.PostForm("priority"), tags)
}

// submit is the shared validation and submission path
func (h *ProcessingHandler) submit(c *gin.Context, text, category, priority string, tags []string) {
	userID := currentUserID(c)

	var defaultCategory string
	var defaultTags []string
	if cfg, err := h.configs.Get(c.Request.Context(), userID); err == nil && cfg != nil {
		defaultCategory = cfg.DefaultCategory
		defaultTags = cfg.GetDefaultTags()
	}

	validated, errMsg := h.validateSubmission(text, category, priority, tags, defaultCategory)
	if errMsg != "" {
		c.JSON(http.StatusUnprocessableEntity, dto.ErrorResponse{Error: errMsg})
		return
	}

	validated.Tags = appendDefaultTags(validated.Tags, defaultTags, h.limits.MaxTags)

	job, err := h.orchestrator.Submit(c.Request.Context(), orchestrator.SubmitInput{
		UserID:   userID,
		Text:     validated.Text,
		Category: validated.Category,
		Priority: validated.Priority,
		Tags:     validated.Tags,
	})
	if err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to create job"})
		return
	}

	c.JSON(http.StatusOK, dto.SubmitResponse{
		Success: true,
		JobID:   job.JobID,
		Status:  job.Status.String(),
		Message: "Text queued for processing",
	})
}

// GetStatus handles GET /api/processing/status/:job_id
func (h *ProcessingHandler) GetStatus(c *gin.Context) {
	jobID := c.Param("job_id")
	userID := currentUserID(c)

	job, err := h.jobs.Get(c.Request.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Job not found"})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get job"})
		return
	}

	c.JSON(http.StatusOK, jobToDTO(job))
}

// ListJobs handles GET /api/processing/jobs
// Lists the caller's jobs newest first with limit/offset paging and an
// optional status filter.
func (h *ProcessingHandler) ListJobs(c *gin.Context) {
	userID := currentUserID(c)

	limit := defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	offset := 0
	if raw := c.Query("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "offset must be a non-negative integer"})
			return
		}
		offset = parsed
	}

	filter := storage.JobFilter{Limit: limit, Offset: offset}
	if raw := c.Query("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unknown status: " + raw})
			return
		}
		filter.Status = status
	}

	jobs, total, err := h.jobs.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list jobs"})
		return
	}

	response := dto.ListJobsResponse{
		Jobs:   make([]dto.JobDTO, len(jobs)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for i := range jobs {
		response.Jobs[i] = jobToDTO(&jobs[i])
	}

	c.JSON(http.StatusOK, response)
}

// CancelJob handles DELETE /api/processing/jobs/:job_id
func (h *ProcessingHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("job_id")
	userID := currentUserID(c)

	job, err := h.orchestrator.Cancel(c.Request.Context(), jobID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Job not found"})
		case errors.Is(err, domain.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		default:
			h.logger.Error("Failed to cancel job", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to cancel job"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ActionResponse{
		Success: true,
		JobID:   job.JobID,
		Status:  job.Status.String(),
		Message: "Job cancelled",
	})
}

// RetryJob handles POST /api/processing/jobs/:job_id/retry
func (h *ProcessingHandler) RetryJob(c *gin.Context) {
	jobID := c.Param("job_id")
	userID := currentUserID(c)

	job, err := h.orchestrator.Retry(c.Request.Context(), jobID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Job not found"})
		case errors.Is(err, domain.ErrRetryNotAllowed):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		default:
			h.logger.Error("Failed to retry job", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to retry job"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ActionResponse{
		Success: true,
		JobID:   job.JobID,
		Status:  job.Status.String(),
		Message: "Job re-queued for retry",
	})
}

// StreamUpdates handles GET /api/processing/ws
// Upgrades the connection and registers it with the status hub. The read
// loop exists only to detect disconnects; clients never send messages.
func (h *ProcessingHandler) StreamUpdates(c *gin.Context) {
	userID := currentUserID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.hub.Register(conn, userID)

	go func() {
		defer h.hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// appendDefaultTags merges the user's default tags after the request tags,
// bounded by the tag limit
func appendDefaultTags(tags, defaults []string, maxTags int) []string {
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		seen[tag] = struct{}{}
	}

	for _, tag := range defaults {
		if len(tags) >= maxTags {
			break
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}

	return tags
}

// jobToDTO maps a job record to its public view. The original text is
// intentionally not exposed.
func jobToDTO(job *domain.Job) dto.JobDTO {
	d := dto.JobDTO{
		JobID:      job.JobID,
		Status:     job.Status.String(),
		Category:   job.Category.String(),
		Priority:   job.Priority.String(),
		Tags:       job.GetTags(),
		RetryCount: job.RetryCount,
		CreatedAt:  job.CreatedAt.Format(timeFormat),
		UpdatedAt:  job.UpdatedAt.Format(timeFormat),
	}

	if job.ProcessedMarkdown.Valid {
		d.ProcessedMarkdown = job.ProcessedMarkdown.String
		d.Metadata = job.GetMetadata()
	}
	if job.WordCount.Valid {
		d.WordCount = job.WordCount.Int64
	}
	if job.CharCount.Valid {
		d.CharCount = job.CharCount.Int64
	}
	if job.ErrorMessage.Valid {
		d.ErrorMessage = job.ErrorMessage.String
	}
	if job.VaultFilePath.Valid {
		d.VaultFilePath = job.VaultFilePath.String
	}
	if job.AIModelUsed.Valid {
		d.AIModelUsed = job.AIModelUsed.String
	}
	if job.ProcessingTimeSeconds.Valid {
		d.ProcessingTimeSeconds = job.ProcessingTimeSeconds.Float64
	}
	if job.ProcessedAt.Valid {
		d.ProcessedAt = job.ProcessedAt.Time.Format(timeFormat)
	}
	if job.SyncedAt.Valid {
		d.SyncedAt = job.SyncedAt.Time.Format(timeFormat)
	}

	return d
}
