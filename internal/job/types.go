package job

import "time"

// Status is the state of a translation job.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one translation run started from a workbench.
type Job struct {
	ID          string     `json:"id"`
	AdminID     int64      `json:"admin_id"`
	Engine      string     `json:"engine"`
	SourceLang  string     `json:"source_lang"`
	TargetLang  string     `json:"target_lang"`
	Status      Status     `json:"status"`
	Progress    float64    `json:"progress"`
	InputLines  int        `json:"input_lines"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
