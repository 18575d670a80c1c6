package cron

import (
	"context"
	"fmt"
	"strings"
)

// Job is a unit of periodic work run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds uniquely named jobs in registration order.
type Registry struct {
	jobs  []Job
	index map[string]int
}

// NewRegistry registers jobs in order and fails on the first bad entry.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{index: map[string]int{}}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds job. Nil jobs, blank names and repeated names are rejected.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return fmt.Errorf("cron: nil job")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return fmt.Errorf("cron: job %T has no name", job)
	}
	if r.index == nil {
		r.index = map[string]int{}
	}
	if _, taken := r.index[name]; taken {
		return fmt.Errorf("cron: job %q registered twice", name)
	}
	r.index[name] = len(r.jobs)
	r.jobs = append(r.jobs, job)
	return nil
}

// Select narrows the registry to the named jobs, keeping registration order.
// No names selects everything.
func (r *Registry) Select(names ...string) (*Registry, error) {
	if len(names) == 0 {
		return r, nil
	}
	wanted := map[string]bool{}
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := r.index[name]; !ok {
			return nil, fmt.Errorf("cron: unknown job %q", name)
		}
		wanted[name] = true
	}

	out := &Registry{index: map[string]int{}}
	for _, job := range r.jobs {
		if wanted[job.Name()] {
			_ = out.Register(job)
		}
	}
	return out, nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	return append([]Job(nil), r.jobs...)
}
