package models

import "time"

// GenerationJob is an asynchronous generate_all request carried over the
// job stream.
type GenerationJob struct {
	ID        string
	AdminID   int64
	RequestID string
	QueuedAt  time.Time
}

type JobStage string

const (
	JobStageQueued    JobStage = "queued"
	JobStageStarted   JobStage = "started"
	JobStageCategory  JobStage = "category"
	JobStageCompleted JobStage = "completed"
	JobStageFailed    JobStage = "failed"
)

// JobEvent is a progress update published while a job runs.
type JobEvent struct {
	JobID       string    `json:"job_id"`
	Stage       JobStage  `json:"stage"`
	Dirname     *string   `json:"dirname,omitempty"`
	Comparisons int       `json:"comparisons"`
	Error       string    `json:"error,omitempty"`
	At          time.Time `json:"at"`
}
