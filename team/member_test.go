package team

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/showfloor-ai/showfloor/ollama"
	"github.com/showfloor-ai/showfloor/task"
)

// fakeGenerator records requests and plays back scripted responses.
type fakeGenerator struct {
	mu       sync.Mutex
	requests []ollama.GenerateRequest
	text     string
	err      error
	block    chan struct{}
}

func (f *fakeGenerator) Generate(ctx context.Context, req ollama.GenerateRequest) (*ollama.GenerateResult, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ollama.NewBackendError(ollama.CodeTransport, "aborted", ctx.Err())
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ollama.GenerateResult{Text: f.text, Latency: time.Millisecond}, nil
}

func TestSystemPromptComposition(t *testing.T) {
	m := NewMember(1, "Sarah Chen", "Appraisal Manager", "Be analytical.", &fakeGenerator{})

	want := "You are Sarah Chen, a Appraisal Manager. Be analytical."
	if got := m.SystemPrompt(); got != want {
		t.Errorf("SystemPrompt() = %q, want %q", got, want)
	}
}

func TestProcessSuccess(t *testing.T) {
	gen := &fakeGenerator{text: "Your sedan appraises at $18,500."}
	m := NewMember(1, "Sarah Chen", "Appraisal Manager", "Be analytical.", gen)
	tk := task.New(42, "appraise a 2019 sedan")

	res := m.Process(context.Background(), tk)

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Text != "Your sedan appraises at $18,500." {
		t.Errorf("unexpected text %q", res.Text)
	}

	// Process moves the member to working; releasing is the orchestrator's job.
	if m.Status() != StatusWorking {
		t.Errorf("status = %v, want working", m.Status())
	}
	if m.CurrentTask() != 42 {
		t.Errorf("current task = %d, want 42", m.CurrentTask())
	}
	if m.Interactions() != 1 {
		t.Errorf("interactions = %d, want 1", m.Interactions())
	}

	if len(gen.requests) != 1 {
		t.Fatalf("expected 1 generation request, got %d", len(gen.requests))
	}
	if gen.requests[0].Prompt != "appraise a 2019 sedan" {
		t.Errorf("unexpected prompt %q", gen.requests[0].Prompt)
	}
	if gen.requests[0].System != m.SystemPrompt() {
		t.Errorf("unexpected system context %q", gen.requests[0].System)
	}
}

func TestProcessBackendFailureStillCountsInteraction(t *testing.T) {
	gen := &fakeGenerator{err: ollama.NewBackendError(ollama.CodeBackendUnavailable, "failed after 3 attempts", nil)}
	m := NewMember(1, "Mike", "Sales Consultant", "Be friendly.", gen)

	res := m.Process(context.Background(), task.New(1, "greet the customer"))

	if res.Err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !ollama.IsUnavailable(res.Err) {
		t.Errorf("expected BACKEND_UNAVAILABLE, got %v", res.Err)
	}
	if m.Interactions() != 1 {
		t.Errorf("a failed exchange still completed, interactions = %d, want 1", m.Interactions())
	}
}

func TestReserveClaimsMemberSynchronously(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	m := NewMember(1, "Mike", "Sales Consultant", "Be friendly.", gen)

	if err := m.Reserve(7); err != nil {
		t.Fatalf("reserve on idle member failed: %v", err)
	}
	// The transition must land before any goroutine runs Process, so a
	// dispatcher looping over members sees this one as taken.
	if m.Status() != StatusWorking {
		t.Errorf("status after reserve = %v, want working", m.Status())
	}
	if m.CurrentTask() != 7 {
		t.Errorf("current task after reserve = %d, want 7", m.CurrentTask())
	}

	if err := m.Reserve(8); !errors.Is(err, ErrMemberBusy) {
		t.Fatalf("reserve on working member = %v, want ErrMemberBusy", err)
	}
	if m.CurrentTask() != 7 {
		t.Errorf("rejected reserve mutated current task: %d", m.CurrentTask())
	}

	// Process accepts the task the member was reserved for.
	res := m.Process(context.Background(), task.New(7, "reserved work"))
	if res.Err != nil {
		t.Fatalf("process of reserved task failed: %v", res.Err)
	}

	// Any other task is still rejected. Finish has not run, so the member
	// remains working task 7 as far as state is concerned.
	other := m.Process(context.Background(), task.New(8, "other work"))
	if !errors.Is(other.Err, ErrMemberBusy) {
		t.Fatalf("process of unreserved task = %v, want ErrMemberBusy", other.Err)
	}
	if m.Interactions() != 1 {
		t.Errorf("interactions = %d, want 1", m.Interactions())
	}
}

func TestProcessWhileWorkingReturnsBusy(t *testing.T) {
	block := make(chan struct{})
	gen := &fakeGenerator{text: "slow answer", block: block}
	m := NewMember(1, "Mike", "Sales Consultant", "Be friendly.", gen)

	firstDone := make(chan Result, 1)
	go func() {
		firstDone <- m.Process(context.Background(), task.New(1, "first"))
	}()

	// Wait for the first task to reach the generator.
	for m.Status() != StatusWorking {
		time.Sleep(time.Millisecond)
	}

	res := m.Process(context.Background(), task.New(2, "second"))
	if !errors.Is(res.Err, ErrMemberBusy) {
		t.Fatalf("expected ErrMemberBusy, got %v", res.Err)
	}

	close(block)
	first := <-firstDone
	if first.Err != nil {
		t.Fatalf("first task failed: %v", first.Err)
	}
	if m.Interactions() != 1 {
		t.Errorf("busy rejection must not count as an interaction, got %d", m.Interactions())
	}
}

func TestFinishAndRelease(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	m := NewMember(1, "Mike", "Sales Consultant", "Be friendly.", gen)
	m.Process(context.Background(), task.New(1, "task"))

	m.Finish(true)
	if m.Status() != StatusCompleted {
		t.Errorf("status = %v, want completed", m.Status())
	}

	m.Release()
	if m.Status() != StatusIdle {
		t.Errorf("status = %v, want idle", m.Status())
	}
	if m.CurrentTask() != 0 {
		t.Errorf("current task = %d after release, want 0", m.CurrentTask())
	}

	m.Process(context.Background(), task.New(2, "task"))
	m.Finish(false)
	if m.Status() != StatusError {
		t.Errorf("status = %v, want error", m.Status())
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	gen := &fakeGenerator{text: "ok"}
	m := NewMember(3, "Jennifer", "Store Manager", "Lead.", gen)

	snap := m.Snapshot()
	m.Process(context.Background(), task.New(9, "review"))

	if snap.Status != StatusIdle || snap.CurrentTask != 0 || snap.Interactions != 0 {
		t.Errorf("snapshot mutated along with the member: %+v", snap)
	}
}

func TestBuildRoster(t *testing.T) {
	gen := &fakeGenerator{}
	members := Build(DefaultRoster(), gen)

	if len(members) != 4 {
		t.Fatalf("expected 4 members, got %d", len(members))
	}
	for i, m := range members {
		if m.ID != i+1 {
			t.Errorf("member %d has ID %d, want %d", i, m.ID, i+1)
		}
		if m.Status() != StatusIdle {
			t.Errorf("member %d not idle", m.ID)
		}
	}
	if members[0].Role != "Sales Consultant" {
		t.Errorf("unexpected first role %q", members[0].Role)
	}
}
