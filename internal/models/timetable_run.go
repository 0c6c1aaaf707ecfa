package models

import "time"

// TimetableRunStatus tracks an asynchronous generation request.
type TimetableRunStatus string

const (
	TimetableRunQueued    TimetableRunStatus = "QUEUED"
	TimetableRunRunning   TimetableRunStatus = "RUNNING"
	TimetableRunSucceeded TimetableRunStatus = "SUCCEEDED"
	TimetableRunFailed    TimetableRunStatus = "FAILED"
)

// TimetableRun is the externally visible state of a background generation.
type TimetableRun struct {
	ID          string             `json:"id"`
	TermID      string             `json:"term_id"`
	Status      TimetableRunStatus `json:"status"`
	RequestedBy string             `json:"requested_by,omitempty"`
	Error       string             `json:"error,omitempty"`
	QueuedAt    time.Time          `json:"queued_at"`
	FinishedAt  *time.Time         `json:"finished_at,omitempty"`
}
