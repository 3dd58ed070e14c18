package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/outline"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// verbose adds the observed change under each criterion.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteOutline prints one indented line per section.
func (w *SimpleWriter) WriteOutline(root *outline.Node) (int, error) {
	return w.output.Write([]byte(root.String()))
}

// WriteFeedback prints the task header, a status summary and one line per
// criterion.
func (w *SimpleWriter) WriteFeedback(f *Feedback) (int, error) {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Task #%d: %s\n", f.Task.ID, f.Task.Title)
	fmt.Fprintf(&sb, "Status:    %s%s\n", f.Task.Status, lockedSuffix(f.Task))
	fmt.Fprintf(&sb, "Generated: %s\n", f.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	s := f.Summary()
	fmt.Fprintf(&sb, "  UNMET:      %d\n", s.Unmet)
	fmt.Fprintf(&sb, "  MET:        %d\n", s.Met)
	fmt.Fprintf(&sb, "  OVERRIDDEN: %d\n", s.Overridden)
	fmt.Fprintf(&sb, "  RESOLVED:   %d/%d\n\n", s.Resolved(), s.Total())

	if len(f.Criteria) == 0 {
		sb.WriteString("  No feedback criteria\n")
	}
	for _, c := range f.Criteria {
		fmt.Fprintf(&sb, "  [%s] #%d %s\n", statusIndicator(c.Status), c.ID, c.Description)
		if r, ok := f.RangeFor(c.ID); ok {
			fmt.Fprintf(&sb, "      Pages: %d-%d (%s)\n", r.StartPage, r.EndPage, r.Section)
		}
		if w.verbose && c.ChangeObserved != nil {
			fmt.Fprintf(&sb, "      Change: %s\n", *c.ChangeObserved)
		}
	}

	return w.output.Write([]byte(sb.String()))
}

func lockedSuffix(t *model.Task) string {
	if t.IsLocked {
		return " (locked)"
	}
	return ""
}

// statusIndicator returns a fixed-width marker for the status.
func statusIndicator(s model.CriterionStatus) string {
	switch s {
	case model.CriterionMet:
		return "x"
	case model.CriterionOverridden:
		return "~"
	default:
		return " "
	}
}
