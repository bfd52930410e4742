package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/lmartins/obsidian-sync/internal/domain"
)

// MemoryJobStore is an in-memory JobStore used by tests and by the
// single-process development mode. Safe for concurrent use.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]domain.Job // keyed by job_id
	seq  int64
}

// NewMemoryJobStore creates an empty in-memory job store
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]domain.Job)}
}

func (s *MemoryJobStore) Create(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	job.ID = s.seq
	s.jobs[job.JobID] = *job
	return nil
}

func (s *MemoryJobStore) Get(_ context.Context, jobID, userID string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok || job.UserID != userID {
		return nil, domain.ErrJobNotFound
	}

	copied := job
	return &copied, nil
}

func (s *MemoryJobStore) List(_ context.Context, userID string, filter JobFilter) ([]domain.Job, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Job
	for _, job := range s.jobs {
		if job.UserID != userID {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		matched = append(matched, job)
	}

	// Newest first, row id as tiebreaker
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)

	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]

	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}

	return matched, total, nil
}

func (s *MemoryJobStore) Update(_ context.Context, job *domain.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.jobs[job.JobID]
	if !ok || existing.UserID != job.UserID {
		return domain.ErrJobNotFound
	}

	s.jobs[job.JobID] = *job
	return nil
}

// MemoryConfigStore is an in-memory ConfigStore used by tests
type MemoryConfigStore struct {
	mu      sync.RWMutex
	configs map[string]domain.UserConfiguration
	seq     int64
}

// NewMemoryConfigStore creates an empty in-memory configuration store
func NewMemoryConfigStore() *MemoryConfigStore {
	return &MemoryConfigStore{configs: make(map[string]domain.UserConfiguration)}
}

func (s *MemoryConfigStore) Get(_ context.Context, userID string) (*domain.UserConfiguration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, ok := s.configs[userID]
	if !ok {
		return nil, nil
	}

	copied := cfg
	return &copied, nil
}

func (s *MemoryConfigStore) Upsert(_ context.Context, cfg *domain.UserConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.configs[cfg.UserID]; ok {
		cfg.ID = existing.ID
	} else {
		s.seq++
		cfg.ID = s.seq
	}

	s.configs[cfg.UserID] = *cfg
	return nil
}
