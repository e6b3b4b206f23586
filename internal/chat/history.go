package chat

import (
	"io"
	"strings"
)

// MessageHistory - ordered access to recent chat messages.
type MessageHistory interface {
	// Push - adds a formatted broadcast line to history.
	Push(string)
	// Tail - returns up to n latest lines in chronological order.
	Tail(n int) []string
}

// historyGreeter - replays the recent history tail to a newly joined
// member. Tolerates a nil history or a zero greet count.
type historyGreeter struct {
	history MessageHistory
	greets  int
}

func newHistoryGreeter(h MessageHistory, greets int) *historyGreeter {
	return &historyGreeter{history: h, greets: greets}
}

func (g *historyGreeter) push(line string) {
	if g.history == nil {
		return
	}
	g.history.Push(line)
}

func (g *historyGreeter) greet(w io.Writer) {
	if g.history == nil || g.greets <= 0 {
		return
	}
	for _, line := range g.history.Tail(g.greets) {
		if !strings.HasSuffix(line, "\n") {
			line += "\n"
		}
		if _, err := io.WriteString(w, line); err != nil {
			return
		}
	}
}
