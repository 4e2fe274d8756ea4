package domain

import "time"

// Job states
const (
	JobStateQueued    = "queued"
	JobStateRunning   = "running"
	JobStateSucceeded = "succeeded"
	JobStateFailed    = "failed"
)

// JobStatus is the polled lifecycle record of one import job
type JobStatus struct {
	State         string     `json:"state"`
	ListID        string     `json:"listId,omitempty"`
	Error         string     `json:"error,omitempty"`
	ProcessedRows int64      `json:"processedRows"`
	StartedAt     *time.Time `json:"startedAt,omitempty"`
	FinishedAt    *time.Time `json:"finishedAt,omitempty"`
}

// IsTerminal reports whether the job has finished, successfully or not
func (s *JobStatus) IsTerminal() bool {
	return s != nil && (s.State == JobStateSucceeded || s.State == JobStateFailed)
}

// StatusUpdate carries the fields to merge into a JobStatus. Nil fields keep
// their previous value.
type StatusUpdate struct {
	State         *string
	ListID        *string
	Error         *string
	ProcessedRows *int64
	StartedAt     *time.Time
	FinishedAt    *time.Time
}

// Apply merges u into s
func (u StatusUpdate) Apply(s *JobStatus) {
	if u.State != nil {
		s.State = *u.State
	}
	if u.ListID != nil {
		s.ListID = *u.ListID
	}
	if u.Error != nil {
		s.Error = *u.Error
	}
	if u.ProcessedRows != nil {
		s.ProcessedRows = *u.ProcessedRows
	}
	if u.StartedAt != nil {
		t := *u.StartedAt
		s.StartedAt = &t
	}
	if u.FinishedAt != nil {
		t := *u.FinishedAt
		s.FinishedAt = &t
	}
}
