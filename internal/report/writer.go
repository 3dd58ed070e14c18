package report

import (
	"io"

	"github.com/nao1215/feedtrack/internal/outline"
)

// Writer defines the interface for report output.
type Writer interface {
	// WriteFeedback outputs the criteria of a task.
	// Returns the number of bytes written and any error encountered.
	WriteFeedback(f *Feedback) (int, error)

	// WriteOutline outputs the section tree of a document.
	WriteOutline(root *outline.Node) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteFeedback outputs the feedback to all configured Writers.
// Stops on first error encountered.
func (m *MultiWriter) WriteFeedback(f *Feedback) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteFeedback(f)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteOutline outputs the outline to all configured Writers.
func (m *MultiWriter) WriteOutline(root *outline.Node) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteOutline(root)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// New returns the writer for format. Unknown formats fall back to text.
func New(format Format, output io.Writer) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint())
	case FormatMarkdown:
		return NewMarkdownWriter(output)
	default:
		return NewSimpleWriter(output)
	}
}
