package app

import (
	"errors"
	"testing"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
)

func TestJobService_Enqueue(t *testing.T) {
	env := setupEnv(t)
	song := env.createSong(t, "s1", "Song", "Artist")

	job, err := env.jobs.Enqueue(domain.JobTypeSeparation, song, "song.mp3")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if job.Status != domain.JobStatusPending || job.SongID != "s1" || job.Title != "Song" {
		t.Errorf("unexpected job: %+v", job)
	}

	again, err := env.jobs.Enqueue(domain.JobTypeSeparation, song, "song.mp3")
	if err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	if again.ID != job.ID {
		t.Errorf("expected dedup to return %s, got %s", job.ID, again.ID)
	}

	other, _ := env.jobs.Enqueue(domain.JobTypeDownload, song, "song.mp3")
	if other.ID == job.ID {
		t.Error("different job type should create a new job")
	}

	if got := env.rec.names(); len(got) != 2 || got[0] != domain.EventJobCreated {
		t.Errorf("events = %v, want two job_created", got)
	}
}

func TestJobService_Cancel(t *testing.T) {
	env := setupEnv(t)
	song := env.createSong(t, "s1", "Song", "Artist")
	job, _ := env.jobs.Enqueue(domain.JobTypeSeparation, song, "f")

	if _, err := env.db.StartJob(job.ID, "task"); err != nil {
		t.Fatal(err)
	}
	flag := env.jobs.Stops.Register(job.ID)

	cancelled, err := env.jobs.Cancel(job.ID)
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if cancelled.Status != domain.JobStatusCancelled || cancelled.ErrorMessage() != constants.MsgCancelledByUser {
		t.Errorf("unexpected cancelled job: %+v", cancelled)
	}
	if cancelled.CompletedAt == nil {
		t.Error("completed_at should be set on cancel")
	}
	if !flag.Stopped() {
		t.Error("running worker was not signalled")
	}

	s, _ := env.db.GetSong("s1")
	if s.Status != domain.SongStatusFailed {
		t.Errorf("song status = %s, want failed", s.Status)
	}

	_, err = env.jobs.Cancel(job.ID)
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) || !errors.Is(err, domain.ErrJobTerminal) {
		t.Errorf("second Cancel = %v, want conflict", err)
	}

	if _, err := env.jobs.Cancel("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Cancel(missing) = %v, want not found", err)
	}

	events := env.rec.names()
	if events[len(events)-1] != domain.EventJobCancelled {
		t.Errorf("last event = %s, want job_cancelled", events[len(events)-1])
	}
}

func TestJobService_CanComplete(t *testing.T) {
	env := setupEnv(t)
	song := env.createSong(t, "s1", "Song", "Artist")
	job, _ := env.jobs.Enqueue(domain.JobTypeSeparation, song, "f")

	if env.jobs.CanComplete(job.ID) {
		t.Error("pending job can complete")
	}
	if ok, err := env.db.StartJob(job.ID, "task-1"); err != nil || !ok {
		t.Fatalf("StartJob = %v, %v", ok, err)
	}
	if !env.jobs.CanComplete(job.ID) {
		t.Error("processing job cannot complete")
	}
	if _, err := env.jobs.Cancel(job.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if env.jobs.CanComplete(job.ID) {
		t.Error("cancelled job can complete")
	}
	if env.jobs.CanComplete("missing") {
		t.Error("missing job can complete")
	}
}

func TestJobService_Dismiss(t *testing.T) {
	env := setupEnv(t)
	song := env.createSong(t, "s1", "Song", "Artist")
	job, _ := env.jobs.Enqueue(domain.JobTypeSeparation, song, "f")

	var conflict *domain.ConflictError
	if err := env.jobs.Dismiss(job.ID); !errors.As(err, &conflict) {
		t.Errorf("Dismiss(active) = %v, want conflict", err)
	}

	_ = env.db.FailJob(job.ID, "boom")
	if err := env.jobs.Dismiss(job.ID); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}
	jobs, _ := env.jobs.List(false)
	if len(jobs) != 0 {
		t.Errorf("dismissed job still listed")
	}
	jobs, _ = env.jobs.List(true)
	if len(jobs) != 1 {
		t.Errorf("includeDismissed listing = %d jobs", len(jobs))
	}
}

func TestJobService_DismissFinished(t *testing.T) {
	env := setupEnv(t)
	song := env.createSong(t, "s1", "Song", "Artist")
	job, _ := env.jobs.Enqueue(domain.JobTypeSeparation, song, "f")
	if _, err := env.jobs.Cancel(job.ID); err != nil {
		t.Fatal(err)
	}

	n, err := env.jobs.DismissFinished()
	if err != nil || n != 1 {
		t.Fatalf("DismissFinished = %d, %v; want 1", n, err)
	}
	if jobs, _ := env.jobs.List(false); len(jobs) != 0 {
		t.Errorf("dismissed job still listed")
	}
	if jobs, _ := env.jobs.List(true); len(jobs) != 1 {
		t.Errorf("includeDismissed listing = %d jobs, want 1", len(jobs))
	}
	details, err := env.jobs.Get(job.ID)
	if err != nil || !details.Dismissed {
		t.Errorf("Get after dismiss = %+v, %v", details, err)
	}
}

func TestJobService_GetAddsPaths(t *testing.T) {
	env := setupEnv(t)
	song := env.createSong(t, "s1", "Song", "Artist")
	job, _ := env.jobs.Enqueue(domain.JobTypeSeparation, song, "f")

	details, err := env.jobs.Get(job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if details.VocalsPath != "" {
		t.Error("pending job should not expose paths")
	}

	_ = env.db.UpdateSongPaths("s1", storeSongPaths("s1"))
	_, _ = env.db.StartJob(job.ID, "t")
	_ = env.db.CompleteJob(job.ID)

	details, _ = env.jobs.Get(job.ID)
	if details.VocalsPath != "s1/vocals.mp3" || details.InstrumentalPath != "s1/instrumental.mp3" {
		t.Errorf("paths not added: %+v", details)
	}
}

func TestJobService_RecoverStuck(t *testing.T) {
	env := setupEnv(t)
	song := env.createSong(t, "s1", "Song", "Artist")
	job, _ := env.jobs.Enqueue(domain.JobTypeSeparation, song, "f")

	n, err := env.jobs.RecoverStuck()
	if err != nil || n != 1 {
		t.Fatalf("RecoverStuck = %d, %v", n, err)
	}
	j, _ := env.db.GetJob(job.ID)
	if j.Status != domain.JobStatusFailed || j.ErrorMessage() != constants.MsgInterrupted {
		t.Errorf("job not recovered: %+v", j)
	}
}

func TestStopRegistry(t *testing.T) {
	r := NewStopRegistry()
	if r.Stop("nope") {
		t.Error("Stop on unknown job should report false")
	}
	f := r.Register("j")
	if r.Register("j") != f {
		t.Error("Register should return the existing flag")
	}
	if !r.Stop("j") || !f.Stopped() {
		t.Error("Stop did not raise the flag")
	}
	r.Release("j")
	if r.Stop("j") {
		t.Error("released job should be gone")
	}
}
