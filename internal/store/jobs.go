package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cesargomez89/openkaraoke/internal/domain"
)

const jobColumns = `id, type, status, filename, song_id, title, artist, progress, status_message, task_id,
	dismissed, created_at, updated_at, started_at, completed_at, error`

const activeStatuses = `('pending', 'processing')`

func (db *DB) CreateJob(job *domain.Job) error {
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	job.UpdatedAt = job.CreatedAt

	query := `INSERT INTO jobs (id, type, status, filename, song_id, title, artist, progress, status_message,
		task_id, dismissed, created_at, updated_at, started_at, completed_at, error)
		VALUES (:id, :type, :status, :filename, :song_id, :title, :artist, :progress, :status_message,
		:task_id, :dismissed, :created_at, :updated_at, :started_at, :completed_at, :error)`

	_, err := db.NamedExec(query, job)
	return err
}

func (db *DB) GetJob(id string) (*domain.Job, error) {
	job := &domain.Job{}
	err := db.Get(job, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("job", id)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs returns jobs newest first.
func (db *DB) ListJobs(limit int, includeDismissed bool) ([]*domain.Job, error) {
	where := " WHERE dismissed = 0"
	if includeDismissed {
		where = ""
	}
	query := `SELECT ` + jobColumns + ` FROM jobs` + where + ` ORDER BY created_at DESC, rowid DESC LIMIT ?`

	jobs := []*domain.Job{}
	err := db.Select(&jobs, query, limit)
	return jobs, err
}

// ListPendingJobs returns pending jobs oldest first.
func (db *DB) ListPendingJobs(limit int) ([]*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC, rowid ASC LIMIT ?`

	jobs := []*domain.Job{}
	err := db.Select(&jobs, query, limit)
	return jobs, err
}

func (db *DB) CountJobsByStatus(status domain.JobStatus) (int, error) {
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM jobs WHERE status = ?`, status)
	return n, err
}

func (db *DB) GetActiveJobForSong(songID string, jobType domain.JobType) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs
		WHERE song_id = ? AND type = ? AND status IN ` + activeStatuses + `
		LIMIT 1`

	job := &domain.Job{}
	err := db.Get(job, query, songID, jobType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// StartJob claims a pending job. It returns false when the job was no longer pending.
func (db *DB) StartJob(id, taskID string) (bool, error) {
	now := time.Now()
	result, err := db.Exec(`UPDATE jobs SET status = ?, task_id = ?, started_at = ?, updated_at = ?
		WHERE id = ? AND status = 'pending'`,
		domain.JobStatusProcessing, taskID, now, now, id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// UpdateJobProgress records progress for a processing job; terminal jobs are left untouched.
func (db *DB) UpdateJobProgress(id string, progress float64, message string) error {
	_, err := db.Exec(`UPDATE jobs SET progress = ?, status_message = ?, updated_at = ?
		WHERE id = ? AND status = 'processing'`,
		progress, message, time.Now(), id)
	return err
}

func (db *DB) CompleteJob(id string) error {
	return db.finishJob(id, domain.JobStatusCompleted, nil, "Completed")
}

func (db *DB) FailJob(id, errorMsg string) error {
	return db.finishJob(id, domain.JobStatusFailed, &errorMsg, "Failed")
}

func (db *DB) CancelJob(id, reason string) error {
	return db.finishJob(id, domain.JobStatusCancelled, &reason, "Cancelled")
}

// finishJob moves a non-terminal job into a terminal status. Only processing jobs can complete.
func (db *DB) finishJob(id string, status domain.JobStatus, errorMsg *string, message string) error {
	now := time.Now()
	progressExpr, from := "progress", activeStatuses
	if status == domain.JobStatusCompleted {
		progressExpr, from = "100", "('processing')"
	}
	query := fmt.Sprintf(`UPDATE jobs SET status = ?, error = ?, status_message = ?, progress = %s,
		completed_at = ?, updated_at = ?
		WHERE id = ? AND status IN %s`, progressExpr, from)

	result, err := db.Exec(query, status, errorMsg, message, now, now, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := db.GetJob(id); getErr != nil {
			return getErr
		}
		return domain.ErrJobTerminal
	}
	return nil
}

// DismissJob hides a finished job from default listings.
func (db *DB) DismissJob(id string) error {
	result, err := db.Exec(`UPDATE jobs SET dismissed = 1, updated_at = ?
		WHERE id = ? AND status NOT IN `+activeStatuses, time.Now(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, getErr := db.GetJob(id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("job %s is still active", id)
	}
	return nil
}

// MarkStuckJobsFailed fails every non-terminal job and returns how many were touched.
func (db *DB) MarkStuckJobsFailed(reason string) (int64, error) {
	now := time.Now()
	result, err := db.Exec(`UPDATE jobs SET status = ?, error = ?, status_message = 'Failed',
		completed_at = ?, updated_at = ?
		WHERE status IN `+activeStatuses,
		domain.JobStatusFailed, reason, now, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DismissFinishedJobs hides every terminal job and returns how many changed.
func (db *DB) DismissFinishedJobs() (int64, error) {
	result, err := db.Exec(`UPDATE jobs SET dismissed = 1, updated_at = ?
		WHERE dismissed = 0 AND status NOT IN `+activeStatuses, time.Now())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type JobStats struct {
	Total      int `db:"total" json:"total"`
	Pending    int `db:"pending" json:"pending"`
	Processing int `db:"processing" json:"processing"`
	Completed  int `db:"completed" json:"completed"`
	Failed     int `db:"failed" json:"failed"`
	Cancelled  int `db:"cancelled" json:"cancelled"`
}

func (db *DB) GetJobStats() (*JobStats, error) {
	query := `SELECT
		COUNT(*) as total,
		COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) as pending,
		COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0) as processing,
		COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0) as completed,
		COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) as failed,
		COALESCE(SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END), 0) as cancelled
	FROM jobs`

	stats := &JobStats{}
	err := db.Get(stats, query)
	return stats, err
}
