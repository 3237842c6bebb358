package task

import "sync"

// Queue is the ordered backlog of pending tasks. Dequeue order equals enqueue
// order; Next never blocks. Safe for concurrent use, though the orchestrator
// is the only writer in practice.
type Queue struct {
	mu    sync.Mutex
	tasks []*Task
}

// NewQueue creates an empty queue
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a task to the backlog.
func (q *Queue) Enqueue(t *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
}

// Next removes and returns the oldest pending task. The second return value
// is false when the queue is drained.
func (q *Queue) Next() (*Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}

	t := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return t, true
}

// Len returns the number of tasks waiting in the backlog.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drain removes and returns all pending tasks in order. Used when a run is
// cancelled and the backlog must be failed out.
func (q *Queue) Drain() []*Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := q.tasks
	q.tasks = nil
	return drained
}
