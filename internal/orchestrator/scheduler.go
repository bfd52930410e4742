package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// JobMessage is the payload exchanged between the API service and the
// worker service for queued jobs
type JobMessage struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
}

// LocalScheduler executes jobs on in-process goroutines. It is the default
// deployment mode: a single binary with background execution and no broker.
type LocalScheduler struct {
	orchestrator *Orchestrator
	jobTimeout   time.Duration
	logger       *slog.Logger
	wg           sync.WaitGroup
}

// NewLocalScheduler creates an in-process scheduler. jobTimeout bounds a
// single job execution end to end, including retries inside the AI call.
func NewLocalScheduler(orch *Orchestrator, jobTimeout time.Duration, logger *slog.Logger) *LocalScheduler {
	return &LocalScheduler{
		orchestrator: orch,
		jobTimeout:   jobTimeout,
		logger:       logger,
	}
}

// Schedule spawns a goroutine to execute the job. The execution context is
// detached from the request context so an HTTP disconnect does not kill
// the job.
func (s *LocalScheduler) Schedule(ctx context.Context, jobID, userID string) error {
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()

		execCtx := context.Background()
		if s.jobTimeout > 0 {
			var cancel context.CancelFunc
			execCtx, cancel = context.WithTimeout(execCtx, s.jobTimeout)
			defer cancel()
		}

		if err := s.orchestrator.Execute(execCtx, jobID, userID); err != nil {
			s.logger.Error("Background job execution failed",
				slog.String("job_id", jobID),
				slog.Any("error", err),
			)
		}
	}()

	return nil
}

// Wait blocks until all in-flight jobs finish. Called during shutdown
// after the HTTP server stops accepting requests.
func (s *LocalScheduler) Wait() {
	s.wg.Wait()
}

// Publisher sends a message to the job queue
type Publisher interface {
	PublishWithRetry(ctx context.Context, body []byte, contentType string) error
}

// AMQPScheduler hands jobs to the worker service through RabbitMQ. Used
// when the broker is enabled; execution then happens out of process.
type AMQPScheduler struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewAMQPScheduler creates a broker-backed scheduler
func NewAMQPScheduler(publisher Publisher, logger *slog.Logger) *AMQPScheduler {
	return &AMQPScheduler{publisher: publisher, logger: logger}
}

// Schedule publishes the job reference to the queue. Only the identifiers
// travel on the wire; the worker re-reads the job row for the payload.
func (s *AMQPScheduler) Schedule(ctx context.Context, jobID, userID string) error {
	body, err := json.Marshal(JobMessage{JobID: jobID, UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to marshal job message: %w", err)
	}

	if err := s.publisher.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish job %s: %w", jobID, err)
	}

	s.logger.Debug("Job published to queue", slog.String("job_id", jobID))

	return nil
}
