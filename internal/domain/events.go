package domain

// Job lifecycle events pushed to realtime clients.
const (
	EventJobCreated   = "job_created"
	EventJobUpdated   = "job_updated"
	EventJobCompleted = "job_completed"
	EventJobFailed    = "job_failed"
	EventJobCancelled = "job_cancelled"
)

// JobEventFor returns the event matching the job's current status.
func JobEventFor(status JobStatus) string {
	switch status {
	case JobStatusCompleted:
		return EventJobCompleted
	case JobStatusFailed:
		return EventJobFailed
	case JobStatusCancelled:
		return EventJobCancelled
	}
	return EventJobUpdated
}
