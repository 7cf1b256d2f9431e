package worker

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cesargomez89/openkaraoke/internal/app"
	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/separation"
)

// Task is one execution attempt of a job handed to a JobHandler.
type Task struct {
	Job    *domain.Job
	ID     string
	Stop   *separation.StopFlag
	Logger *slog.Logger

	jobs *app.JobService

	mu          sync.Mutex
	lastWrite   time.Time
	lastPercent float64
	lastMessage string
	interval    time.Duration
}

func newTask(job *domain.Job, id string, jobs *app.JobService, stop *separation.StopFlag, log *slog.Logger) *Task {
	return &Task{
		Job:         job,
		ID:          id,
		Stop:        stop,
		Logger:      log,
		jobs:        jobs,
		interval:    constants.ProgressUpdateFreq,
		lastPercent: -1,
	}
}

// Progress records progress on the job row and broadcasts it. Writes are
// throttled unless the message changes or the step finishes.
func (t *Task) Progress(percent float64, message string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	t.mu.Lock()
	now := time.Now()
	due := now.Sub(t.lastWrite) >= t.interval || message != t.lastMessage || percent >= 100
	if !due || (percent == t.lastPercent && message == t.lastMessage) {
		t.mu.Unlock()
		return
	}
	t.lastWrite, t.lastPercent, t.lastMessage = now, percent, message
	t.mu.Unlock()

	if err := t.jobs.Repo.UpdateJobProgress(t.Job.ID, percent, message); err != nil {
		t.Logger.Warn("Failed to update job progress", "error", err)
		return
	}
	t.jobs.Publish(t.Job.ID)
}
