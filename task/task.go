// Package task defines the unit of work submitted to the team and the FIFO
// backlog it waits in. Tasks are mutated exclusively by the orchestrator;
// everything else sees immutable snapshots.
package task

import "time"

// Status represents the lifecycle state of a task.
type Status int

const (
	// StatusPending is the initial state: created but not yet dispatched.
	StatusPending Status = iota
	// StatusInProgress means the task has been dispatched to a team member.
	StatusInProgress
	// StatusCompleted is terminal: the backend produced a result.
	StatusCompleted
	// StatusFailed is terminal: the exchange failed or the run was cancelled.
	StatusFailed
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Task is one unit of work: a customer request to be answered by a team
// member. IDs are assigned at creation and increase monotonically.
type Task struct {
	// ID uniquely identifies the task within the process.
	ID int64
	// Description is the customer request text.
	Description string
	// AssignedTo is the ID of the team member working the task, 0 until dispatched.
	AssignedTo int
	// Status is the lifecycle state. Only the orchestrator transitions it.
	Status Status
	// Result holds the generated text once the task completes.
	Result string
	// ErrDetail holds the failure reason, populated only on failure.
	ErrDetail string
	// CreatedAt is when the task was created.
	CreatedAt time.Time
	// StartedAt is when the task was dispatched, zero until then.
	StartedAt time.Time
	// CompletedAt is when the task reached a terminal state.
	CompletedAt time.Time
}

// New creates a pending task with the given ID and description.
func New(id int64, description string) *Task {
	return &Task{
		ID:          id,
		Description: description,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}
}

// Snapshot is an immutable copy of a task's state, safe to hand to
// notification consumers without exposing the authoritative record.
type Snapshot struct {
	ID          int64
	Description string
	AssignedTo  int
	Status      Status
	Result      string
	ErrDetail   string
	CreatedAt   time.Time
	StartedAt   time.Time
	CompletedAt time.Time
}

// Snapshot returns a copy of the task's current state.
func (t *Task) Snapshot() Snapshot {
	return Snapshot{
		ID:          t.ID,
		Description: t.Description,
		AssignedTo:  t.AssignedTo,
		Status:      t.Status,
		Result:      t.Result,
		ErrDetail:   t.ErrDetail,
		CreatedAt:   t.CreatedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
	}
}
