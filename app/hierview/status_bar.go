package hierview

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Status is the hierarchy.Reporter behind the status line. Expansions run
// off the UI loop, so messages are queued here and drained by Update.
type Status struct {
	mu      sync.Mutex
	busy    string
	pending []string
}

// NewStatus returns an empty status sink.
func NewStatus() *Status {
	return &Status{}
}

// Error queues a message for the status line.
func (s *Status) Error(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, message)
}

// ClearStatus drops the in-flight indicator.
func (s *Status) ClearStatus() {
	s.SetBusy("")
}

// SetBusy shows label as the node being fetched.
func (s *Status) SetBusy(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = label
}

// Busy returns the in-flight label, empty when idle.
func (s *Status) Busy() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Drain returns and forgets the queued messages.
func (s *Status) Drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.pending
	s.pending = nil
	return out
}

// StatusBar renders the title, the in-flight indicator and the last message.
type StatusBar struct {
	title   string
	busy    string
	message string
	isError bool
	rows    int
	cursor  int
}

func (s StatusBar) View(width int) string {
	left := truncate(s.title, max(10, width/2))
	if s.busy != "" {
		left += " " + busyStyle.Render("fetching "+s.busy+"…")
	}
	style := statusStyle
	if s.message != "" {
		left = s.message
		if s.isError {
			style = statusErrorStyle
		}
	}
	right := ""
	if s.rows > 0 {
		right = fmt.Sprintf("%d/%d", s.cursor+1, s.rows)
	}
	padding := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 0 {
		padding = 0
	}
	return style.Render(left + strings.Repeat(" ", padding) + right)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:1]
	}
	return s[:n-1] + "…"
}
