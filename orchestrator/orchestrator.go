// Package orchestrator owns the team and the task backlog. A single dispatch
// goroutine assigns pending tasks to idle members, collects outcomes, performs
// every status transition, and reports progress through a NotificationSink.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/showfloor-ai/showfloor/log"
	"github.com/showfloor-ai/showfloor/task"
	"github.com/showfloor-ai/showfloor/team"
)

// DefaultGracePeriod bounds how long in-flight exchanges may run on after the
// caller cancels a run.
const DefaultGracePeriod = 5 * time.Second

// ErrCancelled is the failure reason recorded on tasks that were still
// pending or in flight when the caller cancelled the run.
var ErrCancelled = errors.New("cancelled")

// TaskResult is the terminal outcome of one task, in submission order.
type TaskResult struct {
	TaskID      int64
	Description string
	MemberID    int
	MemberName  string
	Status      task.Status
	Text        string
	Err         error
	Duration    time.Duration
}

// Options configures an Orchestrator.
type Options struct {
	// GracePeriod bounds in-flight work after cancellation.
	// Zero means DefaultGracePeriod.
	GracePeriod time.Duration
}

// completion travels from a member's runner goroutine back to the dispatch loop.
type completion struct {
	member *team.Member
	t      *task.Task
	res    team.Result
}

// Orchestrator dispatches tasks to idle team members and owns every Task and
// Member transition. Results come back in task-submission order even though
// members finish out of order.
type Orchestrator struct {
	members []*team.Member
	queue   *task.Queue
	sink    NotificationSink
	grace   time.Duration

	mu       sync.Mutex
	nextID   int64
	tasks    map[int64]*task.Task
	finished []TaskResult
	draining bool
	metrics  Metrics
}

// New creates an orchestrator over the given members. Members are dispatched
// lowest-ID-first when several are idle, which keeps assignment deterministic.
func New(members []*team.Member, sink NotificationSink, opts Options) (*Orchestrator, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("at least one team member is required")
	}
	if sink == nil {
		sink = NoopSink{}
	}

	sorted := make([]*team.Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].ID == sorted[i-1].ID {
			return nil, fmt.Errorf("duplicate team member ID %d", sorted[i].ID)
		}
	}

	grace := opts.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	return &Orchestrator{
		members: sorted,
		queue:   task.NewQueue(),
		sink:    sink,
		grace:   grace,
		tasks:   make(map[int64]*task.Task),
	}, nil
}

// Submit creates a pending task for the given description and enqueues it.
// The returned snapshot carries the assigned task ID.
func (o *Orchestrator) Submit(description string) task.Snapshot {
	o.mu.Lock()
	o.nextID++
	t := task.New(o.nextID, description)
	o.tasks[t.ID] = t
	o.metrics.Submitted++
	o.mu.Unlock()

	o.queue.Enqueue(t)
	log.InfoLog.Printf("task %d submitted: %.60s", t.ID, description)
	return t.Snapshot()
}

// Run submits a batch of task descriptions and drains the backlog. Results
// are returned in submission order once every task is terminal. The only
// error condition is a concurrent drain already running; individual task
// failures are reported per result, never as a run error.
func (o *Orchestrator) Run(ctx context.Context, descriptions []string) ([]TaskResult, error) {
	for _, d := range descriptions {
		o.Submit(d)
	}
	return o.Drain(ctx)
}

// Drain processes the backlog until every submitted task is terminal, then
// returns the results accumulated since the previous drain, ordered by task
// ID. On cancellation, in-flight exchanges get the configured grace period
// and everything still pending fails with ErrCancelled; no task is ever left
// non-terminal.
func (o *Orchestrator) Drain(ctx context.Context) ([]TaskResult, error) {
	o.mu.Lock()
	if o.draining {
		o.mu.Unlock()
		return nil, fmt.Errorf("drain already in progress")
	}
	o.draining = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.draining = false
		o.mu.Unlock()
	}()

	// Work context is detached from the run context so that cancellation can
	// grant in-flight exchanges a grace period instead of killing them with
	// the run.
	workCtx, workCancel := context.WithCancel(context.Background())
	defer workCancel()

	completions := make(chan completion)
	inFlight := 0
	cancelled := false

	dispatch := func() {
		for !cancelled {
			m := o.idleMember()
			if m == nil {
				return
			}
			t, ok := o.queue.Next()
			if !ok {
				return
			}
			// Claim the member before the runner goroutine exists. The
			// idle->working transition must be visible to the next loop
			// iteration, or the same member gets picked twice.
			if err := m.Reserve(t.ID); err != nil {
				log.ErrorLog.Printf("dispatch bug: member %d rejected task %d: %v", m.ID, t.ID, err)
				o.failTask(t, m.ID, err)
				continue
			}
			o.startTask(m, t)
			inFlight++
			go func(m *team.Member, t *task.Task) {
				res := m.Process(workCtx, t)
				completions <- completion{member: m, t: t, res: res}
			}(m, t)
		}
	}

	dispatch()

	var graceTimer <-chan time.Time
	done := ctx.Done()
	for inFlight > 0 || (!cancelled && o.queue.Len() > 0) {
		select {
		case c := <-completions:
			inFlight--
			o.finishTask(c)
			if !cancelled {
				dispatch()
			}

		case <-done:
			done = nil
			cancelled = true
			o.failPending()
			graceTimer = time.After(o.grace)
			notify(func() { o.sink.OnLog(fmt.Sprintf("run cancelled, waiting up to %v for %d in-flight tasks", o.grace, inFlight)) })

		case <-graceTimer:
			// Grace period elapsed; abort whatever is still running. The
			// aborted exchanges come back through completions as failures.
			workCancel()
			graceTimer = nil
		}
	}

	o.mu.Lock()
	results := o.finished
	o.finished = nil
	o.mu.Unlock()

	sort.Slice(results, func(i, j int) bool { return results[i].TaskID < results[j].TaskID })
	return results, nil
}

// idleMember returns the idle member with the lowest ID, or nil.
func (o *Orchestrator) idleMember() *team.Member {
	for _, m := range o.members {
		if m.Status() == team.StatusIdle {
			return m
		}
	}
	return nil
}

// startTask transitions a task to in-progress and announces the dispatch.
func (o *Orchestrator) startTask(m *team.Member, t *task.Task) {
	o.mu.Lock()
	t.Status = task.StatusInProgress
	t.AssignedTo = m.ID
	t.StartedAt = time.Now()
	o.mu.Unlock()

	log.InfoLog.Printf("task %d dispatched to %s (member %d)", t.ID, m.Name, m.ID)
	notify(func() { o.sink.OnDispatch(m.ID, t.ID) })
}

// finishTask records a terminal outcome, moves the member through its
// transient completed/error state and releases it back to idle.
func (o *Orchestrator) finishTask(c completion) {
	m, t, res := c.member, c.t, c.res

	if errors.Is(res.Err, team.ErrMemberBusy) {
		// Contract violation: the dispatch loop handed a task to a busy
		// member. The busy guard never mutated the member, so only fail
		// the task; Finish/Release here would reset a member that is
		// still working its real task.
		log.ErrorLog.Printf("dispatch bug: member %d was busy when task %d arrived", m.ID, t.ID)
		o.failTask(t, m.ID, res.Err)
		return
	}

	success := res.Err == nil
	reason := ""
	wasCancelled := false
	if !success {
		reason = res.Err.Error()
		if errors.Is(res.Err, context.Canceled) {
			res.Err = ErrCancelled
			reason = ErrCancelled.Error()
			wasCancelled = true
		}
	}

	o.mu.Lock()
	if success {
		t.Status = task.StatusCompleted
		t.Result = res.Text
		o.metrics.Completed++
	} else {
		t.Status = task.StatusFailed
		t.ErrDetail = reason
		o.metrics.Failed++
		if wasCancelled {
			o.metrics.Cancelled++
		}
	}
	t.CompletedAt = time.Now()
	o.finished = append(o.finished, TaskResult{
		TaskID:      t.ID,
		Description: t.Description,
		MemberID:    m.ID,
		MemberName:  m.Name,
		Status:      t.Status,
		Text:        res.Text,
		Err:         res.Err,
		Duration:    res.Latency,
	})
	o.mu.Unlock()

	m.Finish(success)
	if success {
		log.InfoLog.Printf("task %d completed by %s in %v", t.ID, m.Name, res.Latency)
		notify(func() { o.sink.OnComplete(m.ID, t.ID, res.Text) })
	} else {
		log.WarningLog.Printf("task %d failed on %s: %s", t.ID, m.Name, reason)
		notify(func() { o.sink.OnError(m.ID, t.ID, reason) })
	}
	m.Release()
}

// failTask records a terminal failure for a task without touching any member
// state.
func (o *Orchestrator) failTask(t *task.Task, memberID int, reason error) {
	o.mu.Lock()
	t.Status = task.StatusFailed
	t.ErrDetail = reason.Error()
	t.CompletedAt = time.Now()
	o.metrics.Failed++
	o.finished = append(o.finished, TaskResult{
		TaskID:      t.ID,
		Description: t.Description,
		MemberID:    memberID,
		Status:      task.StatusFailed,
		Err:         reason,
	})
	o.mu.Unlock()

	notify(func() { o.sink.OnError(memberID, t.ID, reason.Error()) })
}

// failPending fails out every task still waiting in the backlog after a
// cancellation.
func (o *Orchestrator) failPending() {
	for _, t := range o.queue.Drain() {
		o.mu.Lock()
		t.Status = task.StatusFailed
		t.ErrDetail = ErrCancelled.Error()
		t.CompletedAt = time.Now()
		o.metrics.Failed++
		o.metrics.Cancelled++
		o.finished = append(o.finished, TaskResult{
			TaskID:      t.ID,
			Description: t.Description,
			Status:      task.StatusFailed,
			Err:         ErrCancelled,
		})
		o.mu.Unlock()

		log.InfoLog.Printf("task %d cancelled before dispatch", t.ID)
		notify(func() { o.sink.OnError(0, t.ID, ErrCancelled.Error()) })
	}
}

// Task returns a snapshot of a submitted task by ID.
func (o *Orchestrator) Task(id int64) (task.Snapshot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.tasks[id]
	if !ok {
		return task.Snapshot{}, false
	}
	return t.Snapshot(), true
}

// TeamSnapshot returns copies of every member's state, ordered by ID.
func (o *Orchestrator) TeamSnapshot() []team.Snapshot {
	snapshots := make([]team.Snapshot, 0, len(o.members))
	for _, m := range o.members {
		snapshots = append(snapshots, m.Snapshot())
	}
	return snapshots
}

// TaskSummary returns snapshots of every submitted task ordered by ID.
func (o *Orchestrator) TaskSummary() []task.Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	summary := make([]task.Snapshot, 0, len(o.tasks))
	for _, t := range o.tasks {
		summary = append(summary, t.Snapshot())
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].ID < summary[j].ID })
	return summary
}
