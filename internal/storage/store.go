package storage

import (
	"context"

	"github.com/lmartins/obsidian-sync/internal/domain"
)

// JobFilter narrows and pages job listings. A zero Status means no filter.
type JobFilter struct {
	Status domain.Status
	Limit  int
	Offset int
}

// JobStore is the durable record of processing jobs. All lookups are scoped
// by owner so one user can never read or mutate another user's jobs.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, jobID, userID string) (*domain.Job, error)
	List(ctx context.Context, userID string, filter JobFilter) ([]domain.Job, int, error)
	Update(ctx context.Context, job *domain.Job) error
}

// ConfigStore persists per-user configuration. Get returns (nil, nil) when
// the user has no stored configuration yet.
type ConfigStore interface {
	Get(ctx context.Context, userID string) (*domain.UserConfiguration, error)
	Upsert(ctx context.Context, cfg *domain.UserConfiguration) error
}
