// Package team models the named workers that turn customer requests into
// results by calling the generation backend.
package team

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/showfloor-ai/showfloor/ollama"
	"github.com/showfloor-ai/showfloor/task"
)

// ErrMemberBusy is returned when Process is called on a member that is
// already working a task. The orchestrator never triggers this under correct
// use; it indicates a dispatch bug.
var ErrMemberBusy = errors.New("team member is already working a task")

// Status represents the lifecycle state of a team member.
type Status int

const (
	// StatusIdle means the member is available for dispatch.
	StatusIdle Status = iota
	// StatusWorking means the member holds an in-progress task.
	StatusWorking
	// StatusCompleted mirrors the last task finishing successfully. Transient
	// until the orchestrator releases the member back to idle.
	StatusCompleted
	// StatusError mirrors the last task failing. Transient like StatusCompleted.
	StatusError
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusWorking:
		return "working"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is the outcome of processing one task.
type Result struct {
	// Text is the generated response, empty on failure.
	Text string
	// Err is the failure reason, nil on success.
	Err error
	// Latency is the duration of the backend exchange.
	Latency time.Duration
}

// Member is one named team member. Its status is written by Process (idle to
// working) and by the orchestrator (everything else), never concurrently for
// the same transition.
type Member struct {
	// ID uniquely identifies the member, stable for the process lifetime.
	ID int
	// Name is the display name.
	Name string
	// Role is the role label, e.g. "Sales Consultant".
	Role string
	// Persona is the free-text capability description folded into the system prompt.
	Persona string

	generator ollama.Generator

	mu            sync.Mutex
	status        Status
	currentTaskID int64
	interactions  int64
}

// NewMember creates an idle member backed by the given generator
func NewMember(id int, name, role, persona string, generator ollama.Generator) *Member {
	return &Member{
		ID:        id,
		Name:      name,
		Role:      role,
		Persona:   persona,
		generator: generator,
		status:    StatusIdle,
	}
}

// SystemPrompt composes the member's role context for generation requests.
func (m *Member) SystemPrompt() string {
	return fmt.Sprintf("You are %s, a %s. %s", m.Name, m.Role, m.Persona)
}

// Reserve claims the member for the given task before Process is called. The
// transition to working happens here, under the member mutex, so a dispatcher
// that reserves synchronously can never hand the same member two tasks. A
// member already working returns ErrMemberBusy without touching any state.
func (m *Member) Reserve(taskID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusWorking {
		return ErrMemberBusy
	}
	m.status = StatusWorking
	m.currentTaskID = taskID
	return nil
}

// Process works a single task by delegating to the generation backend. The
// member must be idle or reserved for exactly this task; a member working
// anything else returns ErrMemberBusy without touching any state. Process
// moves the member to working but never back: releasing the member is the
// orchestrator's job, keeping a single writer for every other transition.
func (m *Member) Process(ctx context.Context, t *task.Task) Result {
	m.mu.Lock()
	switch {
	case m.status == StatusWorking && m.currentTaskID == t.ID:
		// Reserved for this task; nothing to claim.
	case m.status == StatusWorking:
		m.mu.Unlock()
		return Result{Err: ErrMemberBusy}
	default:
		m.status = StatusWorking
		m.currentTaskID = t.ID
	}
	m.mu.Unlock()

	result, err := m.generator.Generate(ctx, ollama.GenerateRequest{
		System: m.SystemPrompt(),
		Prompt: t.Description,
	})

	// One exchange ran to an outcome, success or not.
	m.mu.Lock()
	m.interactions++
	m.mu.Unlock()

	if err != nil {
		return Result{Err: err}
	}
	return Result{Text: result.Text, Latency: result.Latency}
}

// Status returns the member's current status.
func (m *Member) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// CurrentTask returns the ID of the task the member holds, 0 if none.
func (m *Member) CurrentTask() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTaskID
}

// Interactions returns how many backend exchanges the member has completed.
func (m *Member) Interactions() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interactions
}

// Finish records the outcome of the member's current task. Called by the
// orchestrator when a result comes back.
func (m *Member) Finish(success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if success {
		m.status = StatusCompleted
	} else {
		m.status = StatusError
	}
}

// Release returns the member to idle and clears its task reference. Called by
// the orchestrator once it has acknowledged the outcome.
func (m *Member) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = StatusIdle
	m.currentTaskID = 0
}

// Snapshot is an immutable copy of a member's state for external display.
type Snapshot struct {
	ID           int
	Name         string
	Role         string
	Status       Status
	CurrentTask  int64
	Interactions int64
}

// Snapshot returns a copy of the member's current state.
func (m *Member) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		ID:           m.ID,
		Name:         m.Name,
		Role:         m.Role,
		Status:       m.status,
		CurrentTask:  m.currentTaskID,
		Interactions: m.interactions,
	}
}
