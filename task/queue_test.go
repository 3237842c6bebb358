package task

import (
	"fmt"
	"testing"
)

func TestQueueFIFOOrder(t *testing.T) {
	q := NewQueue()
	for i := int64(1); i <= 5; i++ {
		q.Enqueue(New(i, fmt.Sprintf("task %d", i)))
	}

	if q.Len() != 5 {
		t.Fatalf("Len = %d, want 5", q.Len())
	}

	for want := int64(1); want <= 5; want++ {
		got, ok := q.Next()
		if !ok {
			t.Fatalf("queue drained early at %d", want)
		}
		if got.ID != want {
			t.Errorf("dequeued task %d, want %d", got.ID, want)
		}
	}

	if _, ok := q.Next(); ok {
		t.Errorf("Next on a drained queue must report empty")
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d after drain, want 0", q.Len())
	}
}

func TestQueueNextNeverBlocks(t *testing.T) {
	q := NewQueue()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, ok := q.Next(); ok {
			t.Errorf("empty queue returned a task")
		}
	}()
	<-done
}

func TestQueueDrain(t *testing.T) {
	q := NewQueue()
	for i := int64(1); i <= 3; i++ {
		q.Enqueue(New(i, "pending"))
	}

	drained := q.Drain()
	if len(drained) != 3 {
		t.Fatalf("drained %d tasks, want 3", len(drained))
	}
	for i, tk := range drained {
		if tk.ID != int64(i+1) {
			t.Errorf("drained[%d].ID = %d, want %d", i, tk.ID, i+1)
		}
	}
	if q.Len() != 0 {
		t.Errorf("queue not empty after Drain")
	}

	if drained := q.Drain(); len(drained) != 0 {
		t.Errorf("second Drain returned %d tasks", len(drained))
	}
}
