package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/showfloor-ai/showfloor/orchestrator"
	"github.com/showfloor-ai/showfloor/task"
)

func TestBatchExitCode(t *testing.T) {
	ok := orchestrator.TaskResult{TaskID: 1, Status: task.StatusCompleted}
	failed := orchestrator.TaskResult{TaskID: 2, Status: task.StatusFailed, Err: errors.New("backend down")}

	tests := []struct {
		name    string
		results []orchestrator.TaskResult
		want    int
	}{
		{"all completed", []orchestrator.TaskResult{ok, ok}, 0},
		{"one failed", []orchestrator.TaskResult{ok, failed}, 1},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// The exit status is applied in main after the log file is
			// closed, so a failed batch must surface here rather than
			// through os.Exit inside the command.
			if got := batchExitCode(tt.results); got != tt.want {
				t.Errorf("batchExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReadTasksFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.txt")
	body := "appraise a 2019 sedan\n\n# a comment\nstructure financing for a truck\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write task file: %v", err)
	}

	fileFlag = path
	defer func() { fileFlag = "" }()

	descriptions, err := readTasks([]string{"greet the customer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"greet the customer", "appraise a 2019 sedan", "structure financing for a truck"}
	if len(descriptions) != len(want) {
		t.Fatalf("got %d descriptions, want %d: %v", len(descriptions), len(want), descriptions)
	}
	for i := range want {
		if descriptions[i] != want[i] {
			t.Errorf("descriptions[%d] = %q, want %q", i, descriptions[i], want[i])
		}
	}
}

func TestReadTasksEmpty(t *testing.T) {
	fileFlag = ""
	if _, err := readTasks(nil); err == nil {
		t.Errorf("expected error for no task descriptions")
	}
}
