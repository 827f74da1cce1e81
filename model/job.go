package model

import "time"

type JobStatus string

const (
	JobPending  JobStatus = "pending"
	JobRunning  JobStatus = "running"
	JobFinished JobStatus = "finished"
	JobAborted  JobStatus = "aborted"
)

// ResultCode tells the caller of a step how the step ended.
type ResultCode int

const (
	ResultOK                  ResultCode = 200
	ResultBusy                ResultCode = 409
	ResultFailed              ResultCode = 500
	ResultUnsupportedCurrency ResultCode = 501
	ResultNoProductsFound     ResultCode = 503
)

// JobState is the persisted progress of an export. Its presence in the state store
// also marks an export as running.
type JobState struct {
	JobID      string       `json:"job_id"`
	Step       uint         `json:"step"`
	TotalSteps uint         `json:"total_steps"`
	Currency   CurrencyCode `json:"currency"`
	File       string       `json:"file"`
	Offset     int64        `json:"offset"` // Length of the working file after the last saved step
	Status     JobStatus    `json:"status"`
	Offers     int          `json:"offers"`
	StartedAt  time.Time    `json:"started_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// IsNew reports whether the state is the (0,0) starting point.
func (s JobState) IsNew() bool {
	return s.Step == 0 && s.TotalSteps == 0
}

type StepResult struct {
	JobID      string     `json:"job_id"`
	Step       uint       `json:"step"`
	TotalSteps uint       `json:"total_steps"`
	Finished   bool       `json:"finished"`
	File       string     `json:"file"`
	Code       ResultCode `json:"code"`
}

// ExportRun is the history record of one export job.
type ExportRun struct {
	RunID      string     `json:"run_id"`
	Status     JobStatus  `json:"status"`
	Steps      uint       `json:"steps"`
	Offers     int        `json:"offers"`
	File       string     `json:"file"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
