// Package worker runs queued download and separation jobs in the background.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/openkaraoke/internal/app"
	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/metrics"
	"github.com/cesargomez89/openkaraoke/internal/separation"
)

const stopPollInterval = 250 * time.Millisecond

type Worker struct {
	ctx           context.Context
	Jobs          *app.JobService
	dispatcher    *Dispatcher
	Logger        *logger.Logger
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	MaxConcurrent int
	PollInterval  time.Duration
}

func NewWorker(jobs *app.JobService, dispatcher *Dispatcher, maxConcurrent int, log *logger.Logger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if log == nil {
		log = logger.Default()
	}
	if maxConcurrent <= 0 {
		maxConcurrent = constants.DefaultConcurrency
	}

	return &Worker{
		Jobs:          jobs,
		dispatcher:    dispatcher,
		MaxConcurrent: maxConcurrent,
		PollInterval:  constants.DefaultPollInterval,
		Logger:        log.WithComponent("worker"),
		ctx:           ctx,
		cancel:        cancel,
	}
}

func (w *Worker) Start() {
	w.Logger.Info("Starting worker", "max_concurrent", w.MaxConcurrent)

	w.wg.Add(1)
	go w.processJobs()
}

// Stop cancels running jobs and waits for every goroutine to return.
func (w *Worker) Stop() {
	w.Logger.Info("Stopping worker")
	w.cancel()
	w.wg.Wait()
}

func (w *Worker) processJobs() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.MaxConcurrent)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.poll(sem)
		}
	}
}

// poll claims as many pending jobs as there are free slots.
func (w *Worker) poll(sem chan struct{}) {
	free := cap(sem) - len(sem)
	if free <= 0 {
		return
	}

	jobs, err := w.Jobs.Repo.ListPendingJobs(free)
	if err != nil {
		w.Logger.Error("Failed to list jobs", "error", err)
		return
	}

	for _, job := range jobs {
		select {
		case sem <- struct{}{}:
		default:
			return
		}

		taskID := uuid.New().String()
		claimed, err := w.Jobs.Repo.StartJob(job.ID, taskID)
		if err != nil || !claimed {
			if err != nil {
				w.Logger.Error("Failed to claim job", "job_id", job.ID, "error", err)
			}
			<-sem
			continue
		}
		job.Status = domain.JobStatusProcessing
		job.TaskID = taskID

		w.wg.Add(1)
		go func(j *domain.Job) {
			defer w.wg.Done()
			defer func() { <-sem }()
			w.runJob(w.ctx, j)
		}(job)
	}
}

func (w *Worker) runJob(ctx context.Context, job *domain.Job) {
	log := w.Logger.WithJob(job.ID, string(job.Type)).With("song_id", job.SongID, "task_id", job.TaskID)
	done := metrics.JobStarted(string(job.Type))

	stop := w.Jobs.Stops.Register(job.ID)
	defer w.Jobs.Stops.Release(job.ID)

	// a cancel that landed before the flag existed only shows in the row
	if !w.Jobs.CanComplete(job.ID) {
		log.Info("Job cancelled before start")
		done(string(domain.JobStatusCancelled))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic in job", "panic", r)
			w.fail(job, fmt.Sprintf("Panic: %v", r))
			done(string(domain.JobStatusFailed))
		}
	}()

	log.Info("Running job")
	w.Jobs.Publish(job.ID)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go watchStop(jobCtx, stop, cancel)

	task := newTask(job, job.TaskID, w.Jobs, stop, log)
	err := w.dispatcher.Dispatch(jobCtx, task)

	switch {
	case err == nil && !w.Jobs.CanComplete(job.ID):
		log.Info("Job finished after it was cancelled")
		done(string(domain.JobStatusCancelled))

	case err == nil:
		if cErr := w.Jobs.Repo.CompleteJob(job.ID); cErr != nil {
			log.Warn("Failed to complete job", "error", cErr)
		} else {
			log.Info("Job completed")
		}
		w.Jobs.Publish(job.ID)
		done(string(domain.JobStatusCompleted))

	case stop.Stopped():
		log.Info("Job cancelled")
		done(string(domain.JobStatusCancelled))

	case ctx.Err() != nil:
		log.Warn("Job interrupted by shutdown")
		w.fail(job, constants.MsgInterrupted)
		done(string(domain.JobStatusFailed))

	case errors.Is(err, domain.ErrStopProcessing):
		log.Info("Job cancelled")
		w.Jobs.Publish(job.ID)
		done(string(domain.JobStatusCancelled))

	default:
		log.Error("Job failed", "error", err)
		w.fail(job, err.Error())
		done(string(domain.JobStatusFailed))
	}
}

// fail records the error on the job and marks its song failed unless it already has stems.
func (w *Worker) fail(job *domain.Job, message string) {
	if err := w.Jobs.Repo.FailJob(job.ID, message); err != nil && !errors.Is(err, domain.ErrJobTerminal) {
		w.Logger.Error("Failed to mark job failed", "job_id", job.ID, "error", err)
	}
	if song, err := w.Jobs.Repo.GetSong(job.SongID); err == nil && !song.HasStems() {
		_ = w.Jobs.Repo.UpdateSongStatus(song.ID, domain.SongStatusFailed)
	}
	w.Jobs.Publish(job.ID)
}

// watchStop cancels the job context once the stop flag is raised.
func watchStop(ctx context.Context, stop *separation.StopFlag, cancel context.CancelFunc) {
	ticker := time.NewTicker(stopPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if stop.Stopped() {
				cancel()
				return
			}
		}
	}
}
