package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/feedtrack/internal/outline"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonFeedback adds the summary to the serialized feedback.
type jsonFeedback struct {
	*Feedback
	Summary Summary `json:"summary"`
}

// WriteFeedback outputs the feedback with its status summary.
func (w *JSONWriter) WriteFeedback(f *Feedback) (int, error) {
	return w.writeJSON(jsonFeedback{Feedback: f, Summary: f.Summary()})
}

// jsonSection is one node of the serialized outline tree.
type jsonSection struct {
	outline.Section
	Children []jsonSection `json:"children,omitempty"`
}

func toJSONSection(n *outline.Node) jsonSection {
	s := jsonSection{Section: n.Section}
	for _, c := range n.Children {
		s.Children = append(s.Children, toJSONSection(c))
	}
	return s
}

// WriteOutline outputs the outline as a nested tree.
func (w *JSONWriter) WriteOutline(root *outline.Node) (int, error) {
	return w.writeJSON(toJSONSection(root))
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
