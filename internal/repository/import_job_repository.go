package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/edu-erp-api/internal/models"
	appErrors "github.com/noah-isme/edu-erp-api/pkg/errors"
)

// ErrImportJobNotFound is returned when an import job id does not resolve.
var ErrImportJobNotFound = errors.New("import job not found")

// MemoryImportJobRepository keeps import job status records in process memory.
type MemoryImportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ImportJob
}

// NewMemoryImportJobRepository constructs an empty status store.
func NewMemoryImportJobRepository() *MemoryImportJobRepository {
	return &MemoryImportJobRepository{jobs: make(map[string]models.ImportJob)}
}

// Save upserts the job record.
func (r *MemoryImportJobRepository) Save(ctx context.Context, job *models.ImportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

// Get returns the job with the given id.
func (r *MemoryImportJobRepository) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrImportJobNotFound
	}
	return &job, nil
}

type keyValueStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RedisImportJobRepository keeps import job status records in Redis so every API replica
// can answer status polls.
type RedisImportJobRepository struct {
	kv  keyValueStore
	ttl time.Duration
}

// NewRedisImportJobRepository constructs a Redis backed status store.
func NewRedisImportJobRepository(kv keyValueStore, ttl time.Duration) *RedisImportJobRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisImportJobRepository{kv: kv, ttl: ttl}
}

func importJobKey(id string) string {
	return "crm:imports:" + id
}

// Save upserts the job record.
func (r *RedisImportJobRepository) Save(ctx context.Context, job *models.ImportJob) error {
	return r.kv.Set(ctx, importJobKey(job.ID), job, r.ttl)
}

// Get returns the job with the given id.
func (r *RedisImportJobRepository) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := r.kv.Get(ctx, importJobKey(id), &job); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, ErrImportJobNotFound
		}
		return nil, err
	}
	return &job, nil
}
