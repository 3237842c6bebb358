package task

import (
	"testing"
	"time"
)

func TestStatusStrings(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusPending, "pending"},
		{StatusInProgress, "in_progress"},
		{StatusCompleted, "completed"},
		{StatusFailed, "failed"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() || StatusInProgress.Terminal() {
		t.Errorf("pending and in-progress are not terminal")
	}
	if !StatusCompleted.Terminal() || !StatusFailed.Terminal() {
		t.Errorf("completed and failed are terminal")
	}
}

func TestNewTask(t *testing.T) {
	before := time.Now()
	tk := New(7, "appraise a 2019 sedan")

	if tk.ID != 7 {
		t.Errorf("ID = %d, want 7", tk.ID)
	}
	if tk.Status != StatusPending {
		t.Errorf("Status = %v, want pending", tk.Status)
	}
	if tk.AssignedTo != 0 {
		t.Errorf("new task must be unassigned")
	}
	if tk.CreatedAt.Before(before) {
		t.Errorf("CreatedAt not set")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	tk := New(1, "original")
	snap := tk.Snapshot()

	tk.Status = StatusCompleted
	tk.Result = "done"

	if snap.Status != StatusPending || snap.Result != "" {
		t.Errorf("snapshot mutated along with the task")
	}
}
