package logger

import "fmt"

// Notes collects human-readable messages about items that were skipped during
// a run. Each note is also emitted as a WARN entry on the default logger.
// The zero value is ready to use.
type Notes struct {
	lines []string
}

// Addf formats and records a note.
func (n *Notes) Addf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	n.lines = append(n.lines, line)
	defaultLogger.Warn(line, nil)
}

// Lines returns the recorded notes in order.
func (n *Notes) Lines() []string {
	if n == nil {
		return nil
	}
	return n.lines
}

// Head returns at most max notes.
func (n *Notes) Head(max int) []string {
	lines := n.Lines()
	if max >= 0 && len(lines) > max {
		return lines[:max]
	}
	return lines
}

// Len returns the number of notes.
func (n *Notes) Len() int {
	return len(n.Lines())
}
