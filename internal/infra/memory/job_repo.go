// Package memory provides in-process implementations of the repository
// ports with the same lifecycle guarantees as the Postgres versions.
// Used in dev mode and by tests; not suitable for multi-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"ai-tools-platform/internal/domain"
	"ai-tools-platform/internal/domain/model"
	"ai-tools-platform/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*JobRepo)(nil)

type JobRepo struct {
	mu   sync.Mutex
	jobs map[string]*model.Job
}

func NewJobRepo() *JobRepo {
	return &JobRepo{jobs: map[string]*model.Job{}}
}

func (r *JobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return domain.ErrInvalidArgument
	}
	cp := cloneJob(job)
	r.jobs[job.ID] = cp
	return nil
}

func (r *JobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneJob(job), nil
}

func (r *JobRepo) Update(ctx context.Context, id string, u model.JobUpdate) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	job.Apply(u)
	return cloneJob(job), nil
}

func (r *JobRepo) FetchAndMarkProcessing(ctx context.Context) (*model.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var queued []*model.Job
	for _, j := range r.jobs {
		if j.Status == model.JobStatusQueued {
			queued = append(queued, j)
		}
	}
	if len(queued) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(queued, func(i, k int) bool { return queued[i].CreatedAt.Before(queued[k].CreatedAt) })

	job := queued[0]
	status := model.JobStatusProcessing
	job.Apply(model.JobUpdate{
		Status:   &status,
		Metadata: map[string]any{"processing_started_at": time.Now().Format(time.RFC3339)},
	})
	return cloneJob(job), nil
}

func (r *JobRepo) FailStale(ctx context.Context, deadline time.Duration, jerr model.JobError) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-deadline)
	var ids []string
	for id, j := range r.jobs {
		if j.Terminal() {
			continue
		}
		if !j.UpdatedAt.Before(cutoff) {
			continue
		}
		status := model.JobStatusFailed
		e := jerr
		j.Apply(model.JobUpdate{Status: &status, Error: &e})
		ids = append(ids, id)
	}
	return ids, nil
}

func cloneJob(j *model.Job) *model.Job {
	cp := *j
	cp.Options = cloneStringMap(j.Options)
	cp.Result = cloneAnyMap(j.Result)
	cp.Metadata = cloneAnyMap(j.Metadata)
	if j.Error != nil {
		e := *j.Error
		cp.Error = &e
	}
	return &cp
}

func cloneStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
