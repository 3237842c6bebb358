package orchestrator

// Metrics aggregates run counters. Cancelled tasks are counted in Failed as
// well, since cancellation is a failure reason rather than a separate
// terminal state.
type Metrics struct {
	Submitted int64
	Completed int64
	Failed    int64
	Cancelled int64
}

// Pending returns how many submitted tasks have not reached a terminal state.
func (m Metrics) Pending() int64 {
	return m.Submitted - m.Completed - m.Failed
}

// Metrics returns a copy of the current run counters.
func (o *Orchestrator) Metrics() Metrics {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.metrics
}
