// Package history keeps a bounded in-memory tail of recent chat lines,
// replayed to newly joined members.
package history

import (
	"fmt"
	"sync"
)

// Stack - accumulates a limited number of lines; once the limit is reached
// the oldest line is dropped on every push.
type Stack struct {
	max  int
	mu   sync.RWMutex
	data []string
}

// NewStack - builds a history stack holding at most max lines.
func NewStack(max int) (*Stack, error) {
	if max <= 0 {
		return nil, fmt.Errorf("history.NewStack: max (%d) must be greater than 0", max)
	}
	return &Stack{max: max, data: []string{}}, nil
}

// Len - number of lines currently held.
func (s *Stack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Push - adds a line, evicting the oldest one at capacity.
func (s *Stack) Push(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == s.max {
		s.data = s.data[1:]
	}
	s.data = append(s.data, line)
}

// Tail - copies up to n latest lines, oldest first.
func (s *Stack) Tail(n int) []string {
	if n < 0 {
		n = -n
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n > len(s.data) {
		n = len(s.data)
	}
	tail := make([]string, n)
	copy(tail, s.data[len(s.data)-n:])
	return tail
}
