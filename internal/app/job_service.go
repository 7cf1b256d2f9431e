package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/store"
)

// JobEvents receives job lifecycle notifications.
type JobEvents interface {
	PublishJob(event string, job *domain.Job)
}

type nopEvents struct{}

func (nopEvents) PublishJob(string, *domain.Job) {}

// JobDetails is a job plus the files produced for its song once it completed.
type JobDetails struct {
	*domain.Job
	VocalsPath       string `json:"vocals_path,omitempty"`
	InstrumentalPath string `json:"instrumental_path,omitempty"`
	OriginalPath     string `json:"original_path,omitempty"`
}

type JobService struct {
	Repo   *store.DB
	Logger *logger.Logger
	Events JobEvents
	Stops  *StopRegistry
}

func NewJobService(repo *store.DB, log *logger.Logger) *JobService {
	return &JobService{
		Repo:   repo,
		Logger: log.WithComponent("jobs"),
		Events: nopEvents{},
		Stops:  NewStopRegistry(),
	}
}

// SetEvents installs the job event sink.
func (s *JobService) SetEvents(e JobEvents) {
	if e == nil {
		e = nopEvents{}
	}
	s.Events = e
}

// Enqueue creates a pending job for song unless one of the same type is already active.
func (s *JobService) Enqueue(jobType domain.JobType, song *domain.Song, filename string) (*domain.Job, error) {
	return s.enqueue(jobType, song, filename, "Queued")
}

// EnqueueSeparation queues the separation step that follows a finished download.
func (s *JobService) EnqueueSeparation(song *domain.Song, filename string) (*domain.Job, error) {
	return s.enqueue(domain.JobTypeSeparation, song, filename, constants.MsgSeparationQueued)
}

func (s *JobService) enqueue(jobType domain.JobType, song *domain.Song, filename, message string) (*domain.Job, error) {
	existing, err := s.Repo.GetActiveJobForSong(song.ID, jobType)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existing job: %w", err)
	}
	if existing != nil {
		s.Logger.Info("Job already exists", "job_id", existing.ID, "song_id", song.ID, "type", jobType)
		return existing, nil
	}

	job := &domain.Job{
		ID:            uuid.New().String(),
		Type:          jobType,
		Status:        domain.JobStatusPending,
		SongID:        song.ID,
		Filename:      filename,
		Title:         song.Title,
		Artist:        song.Artist,
		StatusMessage: message,
		CreatedAt:     time.Now(),
	}
	if err := s.Repo.CreateJob(job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	s.Logger.Info("Job enqueued", "job_id", job.ID, "song_id", song.ID, "type", jobType)
	s.Events.PublishJob(domain.EventJobCreated, job)
	return job, nil
}

func (s *JobService) List(includeDismissed bool) ([]*domain.Job, error) {
	return s.Repo.ListJobs(constants.MaxJobsListed, includeDismissed)
}

func (s *JobService) Get(id string) (*JobDetails, error) {
	job, err := s.Repo.GetJob(id)
	if err != nil {
		return nil, err
	}
	details := &JobDetails{Job: job}
	if job.Status != domain.JobStatusCompleted || job.SongID == "" {
		return details, nil
	}

	song, err := s.Repo.GetSong(job.SongID)
	if errors.Is(err, domain.ErrNotFound) {
		return details, nil
	}
	if err != nil {
		return nil, err
	}
	details.VocalsPath = song.VocalsPath
	details.InstrumentalPath = song.InstrumentalPath
	details.OriginalPath = song.OriginalPath
	return details, nil
}

// Cancel stops a pending or processing job. A running worker notices the
// stop flag on its next progress tick.
func (s *JobService) Cancel(id string) (*domain.Job, error) {
	job, err := s.Repo.GetJob(id)
	if err != nil {
		return nil, err
	}
	if !job.Status.CanTransition(domain.JobStatusCancelled) {
		return nil, &domain.ConflictError{Message: fmt.Sprintf("job %s is already %s", id, job.Status), Err: domain.ErrJobTerminal}
	}

	if err := s.Repo.CancelJob(id, constants.MsgCancelledByUser); err != nil {
		if errors.Is(err, domain.ErrJobTerminal) {
			return nil, &domain.ConflictError{Message: fmt.Sprintf("job %s already finished", id), Err: err}
		}
		return nil, err
	}
	s.Stops.Stop(id)

	if song, err := s.Repo.GetSong(job.SongID); err == nil && !song.HasStems() {
		if err := s.Repo.UpdateSongStatus(song.ID, domain.SongStatusFailed); err != nil {
			s.Logger.Warn("Failed to mark song failed after cancel", "song_id", song.ID, "error", err)
		}
	}

	s.Logger.Info("Job cancelled", "job_id", id)
	return s.Publish(id), nil
}

// CanComplete reports whether job id may still move to completed. It is
// false once the job was cancelled or failed by someone else.
func (s *JobService) CanComplete(id string) bool {
	job, err := s.Repo.GetJob(id)
	return err == nil && job.Status.CanTransition(domain.JobStatusCompleted)
}

// Dismiss hides a finished job from the default listing.
func (s *JobService) Dismiss(id string) error {
	job, err := s.Repo.GetJob(id)
	if err != nil {
		return err
	}
	if !job.Status.IsTerminal() {
		return &domain.ConflictError{Message: fmt.Sprintf("job %s is still %s", id, job.Status)}
	}
	return s.Repo.DismissJob(id)
}

func (s *JobService) Stats() (*store.JobStats, error) {
	return s.Repo.GetJobStats()
}

// DismissFinished dismisses every terminal job. Dismissed jobs stay
// readable by id and through List(true).
func (s *JobService) DismissFinished() (int64, error) {
	n, err := s.Repo.DismissFinishedJobs()
	if err != nil {
		return 0, fmt.Errorf("failed to dismiss finished jobs: %w", err)
	}
	if n > 0 {
		s.Logger.Info("Dismissed finished jobs", "count", n)
	}
	return n, nil
}

// RecoverStuck fails jobs left pending or processing by a previous process.
func (s *JobService) RecoverStuck() (int64, error) {
	n, err := s.Repo.MarkStuckJobsFailed(constants.MsgInterrupted)
	if err != nil {
		return 0, fmt.Errorf("failed to recover stuck jobs: %w", err)
	}
	if n > 0 {
		s.Logger.Warn("Marked interrupted jobs as failed", "count", n)
	}
	return n, nil
}

// Publish reloads a job and broadcasts the event matching its status.
func (s *JobService) Publish(id string) *domain.Job {
	job, err := s.Repo.GetJob(id)
	if err != nil {
		s.Logger.Warn("Failed to load job for event", "job_id", id, "error", err)
		return nil
	}
	s.Events.PublishJob(domain.JobEventFor(job.Status), job)
	return job
}
