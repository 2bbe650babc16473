// Package state records evaluation runs in SQLite: which model and design
// were evaluated, how the tests went and the values of the performance
// parameters.
package state

import "time"

// RunStatus is the outcome of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one evaluation of a model.
type Run struct {
	ID          string
	Command     string
	Model       string
	Design      string
	Status      RunStatus
	TestsPassed int
	TestsTotal  int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}

// Value is a parameter value recorded with a run. Min and Max are nil for
// values that are not numeric.
type Value struct {
	Ref     string
	Name    string
	Display string
	Min     *float64
	Max     *float64
}

// Store persists run history.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	CreateRun(command, model, design string) (*Run, error)
	CompleteRun(id string, status RunStatus, passed, total int, errMsg string) error
	RecordValues(runID string, values []Value) error
	GetRun(id string) (*Run, error)
	ListRuns(model string, limit int) ([]*Run, error)
	GetRunValues(runID string) ([]Value, error)
}

var _ Store = (*SQLiteStore)(nil)
