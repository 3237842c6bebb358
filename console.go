package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/showfloor-ai/showfloor/orchestrator"
	"github.com/showfloor-ai/showfloor/task"
	"github.com/showfloor-ai/showfloor/team"
)

var (
	dispatchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
)

// consoleSink is the reference NotificationSink: it prints lifecycle events
// as plain styled lines. It is deliberately dumb; anything fancier belongs in
// an external display layer.
type consoleSink struct {
	mu    sync.Mutex
	out   io.Writer
	quiet bool
	names map[int]string
}

func newConsoleSink(out io.Writer, quiet bool, members []*team.Member) *consoleSink {
	names := make(map[int]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return &consoleSink{out: out, quiet: quiet, names: names}
}

func (s *consoleSink) memberName(id int) string {
	if name, ok := s.names[id]; ok {
		return name
	}
	return fmt.Sprintf("member %d", id)
}

func (s *consoleSink) OnDispatch(memberID int, taskID int64) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "%s task %d -> %s\n", dispatchStyle.Render("▸"), taskID, s.memberName(memberID))
}

func (s *consoleSink) OnComplete(memberID int, taskID int64, result string) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "%s task %d done (%s)\n", completeStyle.Render("✓"), taskID, s.memberName(memberID))
}

func (s *consoleSink) OnError(memberID int, taskID int64, reason string) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	who := "queue"
	if memberID != 0 {
		who = s.memberName(memberID)
	}
	fmt.Fprintf(s.out, "%s task %d failed (%s): %s\n", errorStyle.Render("✗"), taskID, who, reason)
}

func (s *consoleSink) OnLog(message string) {
	if s.quiet {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "%s\n", mutedStyle.Render(message))
}

// printResults prints each terminal result in submission order.
func (s *consoleSink) printResults(results []orchestrator.TaskResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range results {
		fmt.Fprintf(s.out, "\n%s\n", headerStyle.Render(fmt.Sprintf("Task %d: %s", r.TaskID, r.Description)))
		switch r.Status {
		case task.StatusCompleted:
			fmt.Fprintf(s.out, "%s answered in %v:\n%s\n", r.MemberName, r.Duration.Round(time.Millisecond), r.Text)
		default:
			fmt.Fprintf(s.out, "%s\n", errorStyle.Render(fmt.Sprintf("failed: %v", r.Err)))
		}
	}
}

// printSummary prints run counters and per-member interaction counts.
func (s *consoleSink) printSummary(m orchestrator.Metrics, members []team.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fmt.Fprintf(s.out, "\n%s %d submitted, %d completed, %d failed",
		headerStyle.Render("Summary:"), m.Submitted, m.Completed, m.Failed)
	if m.Cancelled > 0 {
		fmt.Fprintf(s.out, " (%d cancelled)", m.Cancelled)
	}
	fmt.Fprintln(s.out)
	for _, member := range members {
		fmt.Fprintf(s.out, "  %s (%s): %d exchanges\n", member.Name, member.Role, member.Interactions)
	}
}
