package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lmartins/obsidian-sync/internal/domain"
	"github.com/lmartins/obsidian-sync/internal/storage"
)

// Processor turns job text into a note draft. Implementations must absorb
// provider failures and return a degraded draft instead of an error for
// anything short of a truly unexpected condition.
type Processor interface {
	ProcessWithFallback(ctx context.Context, text string, category domain.Category, prefs *domain.AIPreferences) (*domain.NoteDraft, error)
}

// NoteWriter persists a draft into the owner's vault
type NoteWriter interface {
	CreateNote(vaultPath string, draft *domain.NoteDraft, category domain.Category, userID string) (string, error)
}

// Scheduler hands a queued job off for asynchronous execution
type Scheduler interface {
	Schedule(ctx context.Context, jobID, userID string) error
}

// Notifier observes job status changes. Optional; used for the websocket
// status stream.
type Notifier interface {
	NotifyJobUpdate(job *domain.Job)
}

// Orchestrator drives jobs through the processing state machine:
// queued -> processing -> processed -> syncing -> synced, with failed and
// cancelled as the off-ramps. It is the only component that mutates job
// status; every Run/Sync error is recorded on the job so nothing is ever
// left stuck in an in-progress state.
type Orchestrator struct {
	jobs      storage.JobStore
	configs   storage.ConfigStore
	processor Processor
	writer    NoteWriter
	scheduler Scheduler
	notifier  Notifier
	logger    *slog.Logger
}

// Config holds the orchestrator's collaborators
type Config struct {
	Jobs      storage.JobStore
	Configs   storage.ConfigStore
	Processor Processor
	Writer    NoteWriter
	Notifier  Notifier
	Logger    *slog.Logger
}

// New creates an orchestrator. The scheduler is attached afterwards via
// SetScheduler because the in-process scheduler needs the orchestrator
// to exist first.
func New(cfg *Config) *Orchestrator {
	return &Orchestrator{
		jobs:      cfg.Jobs,
		configs:   cfg.Configs,
		processor: cfg.Processor,
		writer:    cfg.Writer,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
	}
}

// SetScheduler attaches the execution scheduler
func (o *Orchestrator) SetScheduler(s Scheduler) {
	o.scheduler = s
}

// SubmitInput carries a validated submission
type SubmitInput struct {
	UserID   string
	Text     string
	Category domain.Category
	Priority domain.Priority
	Tags     []string
}

// Submit creates a queued job, persists it, and schedules asynchronous
// execution. It returns immediately; all AI and file work happens off the
// request path. A scheduling failure leaves the job queued and is only
// logged, so the submission itself never fails on downstream issues.
func (o *Orchestrator) Submit(ctx context.Context, in SubmitInput) (*domain.Job, error) {
	job := domain.NewJob(in.UserID, in.Text, in.Category, in.Priority, in.Tags)

	if err := o.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	o.logger.Info("Job submitted",
		slog.String("job_id", job.JobID),
		slog.String("user_id", job.UserID),
		slog.String("category", job.Category.String()),
	)

	o.notify(job)

	if o.scheduler != nil {
		if err := o.scheduler.Schedule(ctx, job.JobID, job.UserID); err != nil {
			o.logger.Error("Failed to schedule job, leaving it queued",
				slog.String("job_id", job.JobID),
				slog.Any("error", err),
			)
		}
	}

	return job, nil
}

// Execute runs the full pipeline for one job: Run, then Sync when the
// owner has auto-sync enabled. This is the entry point schedulers invoke.
// It returns an error only for failures outside any job context (store
// unavailable); job-level failures are recorded on the job itself.
func (o *Orchestrator) Execute(ctx context.Context, jobID, userID string) error {
	if err := o.Run(ctx, jobID, userID); err != nil {
		return err
	}

	job, err := o.jobs.Get(ctx, jobID, userID)
	if err != nil {
		return err
	}

	if job.Status != domain.StatusProcessed {
		return nil
	}

	cfg, err := o.configs.Get(ctx, userID)
	if err != nil {
		return err
	}

	if cfg == nil || !cfg.AutoSyncEnabled {
		o.logger.Debug("Auto-sync disabled, job rests at processed",
			slog.String("job_id", jobID),
		)
		return nil
	}

	return o.Sync(ctx, jobID, userID)
}

// Run transitions a queued job through processing. On adapter success the
// job lands in processed with output content, merged tags, metadata, and
// word/char counts persisted; on adapter error it lands in failed with the
// error recorded and the retry counter incremented.
func (o *Orchestrator) Run(ctx context.Context, jobID, userID string) error {
	job, err := o.jobs.Get(ctx, jobID, userID)
	if err != nil {
		return err
	}

	if job.Status != domain.StatusQueued {
		// Covers jobs cancelled while waiting in the queue
		o.logger.Info("Skipping job not in queued status",
			slog.String("job_id", jobID),
			slog.String("status", job.Status.String()),
		)
		return nil
	}

	job.MarkProcessing()
	if err := o.persist(ctx, job); err != nil {
		return err
	}

	prefs := o.loadPreferences(ctx, userID)

	draft, err := o.processor.ProcessWithFallback(ctx, job.OriginalText, job.Category, prefs)
	if err != nil {
		// Rare given the adapter's internal fallback, but the job must
		// never be left stuck in processing
		o.fail(ctx, job, err.Error())
		return nil
	}

	job.MarkProcessed(draft.Content, rawResponse(draft), draft.Metadata)
	job.SetTags(mergeTags(job.GetTags(), draft.Tags))
	job.AIModelUsed.String = draft.Processing.AIModelUsed
	job.AIModelUsed.Valid = true
	job.ProcessingTimeSeconds.Float64 = draft.Processing.ProcessingTimeSeconds
	job.ProcessingTimeSeconds.Valid = true

	if err := o.persist(ctx, job); err != nil {
		return err
	}

	o.logger.Info("Job processed",
		slog.String("job_id", jobID),
		slog.String("model", draft.Processing.AIModelUsed),
	)

	return nil
}

// Sync writes a processed job's note into the owner's vault. It is a no-op
// for jobs in any other status. A missing vault path is a configuration
// gap, not a processing failure: the job stays processed and a warning is
// logged. A write failure marks the job failed.
func (o *Orchestrator) Sync(ctx context.Context, jobID, userID string) error {
	job, err := o.jobs.Get(ctx, jobID, userID)
	if err != nil {
		return err
	}

	if job.Status != domain.StatusProcessed {
		o.logger.Debug("Sync skipped, job not in processed status",
			slog.String("job_id", jobID),
			slog.String("status", job.Status.String()),
		)
		return nil
	}

	cfg, err := o.configs.Get(ctx, userID)
	if err != nil {
		return err
	}

	if cfg == nil || cfg.VaultPath == "" {
		o.logger.Warn("Vault path not configured, job stays processed",
			slog.String("job_id", jobID),
			slog.String("user_id", userID),
		)
		return nil
	}

	job.MarkSyncing()
	if err := o.persist(ctx, job); err != nil {
		return err
	}

	filePath, err := o.writer.CreateNote(cfg.VaultPath, draftFromJob(job), job.Category, userID)
	if err != nil {
		o.fail(ctx, job, fmt.Sprintf("sync failed: %s", err.Error()))
		return nil
	}

	job.MarkSynced(filePath)
	if err := o.persist(ctx, job); err != nil {
		return err
	}

	o.logger.Info("Job synced to vault",
		slog.String("job_id", jobID),
		slog.String("file_path", filePath),
	)

	return nil
}

// Cancel marks a queued or processing job cancelled. Cancellation is
// cooperative: an in-flight model call is not interrupted, but the job
// will not sync or retry afterwards.
func (o *Orchestrator) Cancel(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	job, err := o.jobs.Get(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}

	if !job.CanCancel() {
		return nil, fmt.Errorf("%w: cannot cancel job in status %s", domain.ErrInvalidTransition, job.Status)
	}

	job.MarkCancelled()
	if err := o.persist(ctx, job); err != nil {
		return nil, err
	}

	o.logger.Info("Job cancelled", slog.String("job_id", jobID))

	return job, nil
}

// Retry re-queues a failed job within the retry budget and schedules it
func (o *Orchestrator) Retry(ctx context.Context, jobID, userID string) (*domain.Job, error) {
	job, err := o.jobs.Get(ctx, jobID, userID)
	if err != nil {
		return nil, err
	}

	if !job.CanRetry() {
		return nil, fmt.Errorf("%w: status %s, retry count %d", domain.ErrRetryNotAllowed, job.Status, job.RetryCount)
	}

	job.ResetForRetry()
	if err := o.persist(ctx, job); err != nil {
		return nil, err
	}

	o.logger.Info("Job re-queued for retry",
		slog.String("job_id", jobID),
		slog.Int("retry_count", job.RetryCount),
	)

	if o.scheduler != nil {
		if err := o.scheduler.Schedule(ctx, job.JobID, job.UserID); err != nil {
			o.logger.Error("Failed to schedule retried job",
				slog.String("job_id", jobID),
				slog.Any("error", err),
			)
		}
	}

	return job, nil
}

// loadPreferences reads the owner's AI preferences, tolerating a missing
// configuration row
func (o *Orchestrator) loadPreferences(ctx context.Context, userID string) *domain.AIPreferences {
	cfg, err := o.configs.Get(ctx, userID)
	if err != nil {
		o.logger.Warn("Failed to load user configuration, using defaults",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return nil
	}
	if cfg == nil {
		return nil
	}
	return cfg.GetAIPreferences()
}

// persist updates the job row and notifies observers
func (o *Orchestrator) persist(ctx context.Context, job *domain.Job) error {
	if err := o.jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to update job %s: %w", job.JobID, err)
	}
	o.notify(job)
	return nil
}

// fail records an error on the job and moves it to failed. An update
// failure here is logged but not propagated; the job row keeps its
// previous state for the next retry or manual inspection.
func (o *Orchestrator) fail(ctx context.Context, job *domain.Job, errMsg string) {
	job.MarkFailed(errMsg)

	if err := o.jobs.Update(ctx, job); err != nil {
		o.logger.Error("Failed to record job failure",
			slog.String("job_id", job.JobID),
			slog.String("job_error", errMsg),
			slog.Any("error", err),
		)
		return
	}

	o.notify(job)

	o.logger.Warn("Job failed",
		slog.String("job_id", job.JobID),
		slog.String("error", errMsg),
		slog.Int("retry_count", job.RetryCount),
	)
}

func (o *Orchestrator) notify(job *domain.Job) {
	if o.notifier != nil {
		o.notifier.NotifyJobUpdate(job)
	}
}

// draftFromJob rebuilds a writable draft from a processed job record
func draftFromJob(job *domain.Job) *domain.NoteDraft {
	markdown := job.ProcessedMarkdown.String

	title := "Note"
	if firstLine, _, _ := strings.Cut(strings.TrimSpace(markdown), "\n"); firstLine != "" {
		title = strings.TrimSpace(strings.TrimPrefix(firstLine, "# "))
	}

	return &domain.NoteDraft{
		Title:    title,
		Content:  markdown,
		Tags:     job.GetTags(),
		Category: job.Category,
		Metadata: job.GetMetadata(),
		Processing: domain.ProcessingMetadata{
			ProcessingTimeSeconds: job.ProcessingTimeSeconds.Float64,
			AIModelUsed:           job.AIModelUsed.String,
			CategoryUsed:          job.Category.String(),
			TextLength:            int(job.CharCount.Int64),
			WordCount:             int(job.WordCount.Int64),
		},
	}
}

// rawResponse keeps the unparsed model output on the job, or a serialized
// draft when the fallback path produced no raw payload
func rawResponse(draft *domain.NoteDraft) string {
	if draft.RawResponse != "" {
		return draft.RawResponse
	}
	data, _ := json.Marshal(draft)
	return string(data)
}

// mergeTags unions input tags with adapter-extracted tags, preserving order
func mergeTags(existing, extracted []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(extracted))
	merged := make([]string, 0, len(existing)+len(extracted))

	for _, tag := range append(existing, extracted...) {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}

	return merged
}
