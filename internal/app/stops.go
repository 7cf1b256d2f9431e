package app

import (
	"sync"

	"github.com/cesargomez89/openkaraoke/internal/separation"
)

// StopRegistry tracks the stop flag of every job a worker is executing.
type StopRegistry struct {
	flags map[string]*separation.StopFlag
	mu    sync.Mutex
}

func NewStopRegistry() *StopRegistry {
	return &StopRegistry{flags: make(map[string]*separation.StopFlag)}
}

// Register returns the flag for jobID, creating it if needed.
func (r *StopRegistry) Register(jobID string) *separation.StopFlag {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.flags[jobID]; ok {
		return f
	}
	f := &separation.StopFlag{}
	r.flags[jobID] = f
	return f
}

func (r *StopRegistry) Release(jobID string) {
	r.mu.Lock()
	delete(r.flags, jobID)
	r.mu.Unlock()
}

// Stop raises the flag of a running job. It reports false when no worker holds the job.
func (r *StopRegistry) Stop(jobID string) bool {
	r.mu.Lock()
	f, ok := r.flags[jobID]
	r.mu.Unlock()
	if ok {
		f.Stop()
	}
	return ok
}
