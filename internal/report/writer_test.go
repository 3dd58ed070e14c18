package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/feedtrack/internal/locator"
	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/outline"
)

func ptr[T any](v T) *T { return &v }

// createTestFeedback creates feedback with one criterion of every status.
func createTestFeedback() *Feedback {
	submitted := int64(10)
	task := &model.Task{
		ID:                     7,
		Title:                  "Thesis draft",
		Status:                 model.TaskCompleted,
		OwnerID:                1,
		SupervisorID:           2,
		SubmittedDeliverableID: &submitted,
	}
	criteria := []model.FeedbackCriterion{
		{ID: 1, TaskID: 7, Description: "Expand the related work", Status: model.CriterionMet, ChangeObserved: ptr("Added section 2.3 on prior surveys")},
		{ID: 2, TaskID: 7, Description: "Justify the sample size | power", Status: model.CriterionUnmet},
		{ID: 3, TaskID: 7, Description: "Fix figure numbering", Status: model.CriterionOverridden},
	}
	return NewFeedback(task, criteria, time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC))
}

func createTestOutline() *outline.Node {
	return outline.Build([]outline.Observation{
		{FontSize: 20, Title: "Introduction", StartPage: 1},
		{FontSize: 16, Title: "Background", StartPage: 2},
		{FontSize: 20, Title: "Methodology", StartPage: 6},
	}, 10)
}

func TestFeedbackSummary(t *testing.T) {
	t.Parallel()

	s := createTestFeedback().Summary()
	if s != (Summary{Unmet: 1, Met: 1, Overridden: 1}) {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.Total() != 3 || s.Resolved() != 2 {
		t.Errorf("unexpected totals: total=%d resolved=%d", s.Total(), s.Resolved())
	}
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes feedback", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		f := createTestFeedback()
		f.Ranges = []locator.PageRange{{CriterionID: 2, StartPage: 6, EndPage: 8, Section: "Methodology"}}

		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).WriteFeedback(f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"Task #7: Thesis draft",
			"RESOLVED:   2/3",
			"[x] #1 Expand the related work",
			"[ ] #2 Justify the sample size",
			"[~] #3 Fix figure numbering",
			"Pages: 6-8 (Methodology)",
			"Change: Added section 2.3",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("hides changes unless verbose", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteFeedback(createTestFeedback()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "Change:") {
			t.Errorf("expected no change lines:\n%s", buf.String())
		}
	})

	t.Run("writes outline", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		root := createTestOutline()
		if _, err := NewSimpleWriter(&buf).WriteOutline(root); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if buf.String() != root.String() {
			t.Errorf("expected the outline text form, got:\n%s", buf.String())
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes feedback with summary", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteFeedback(createTestFeedback()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got struct {
			Task     model.Task                `json:"task"`
			Criteria []model.FeedbackCriterion `json:"criteria"`
			Summary  Summary                   `json:"summary"`
		}
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
		}
		if got.Task.ID != 7 || len(got.Criteria) != 3 || got.Summary.Met != 1 {
			t.Errorf("unexpected decoded report: %+v", got)
		}
		if strings.Contains(buf.String(), "\n  ") {
			t.Error("expected compact output by default")
		}
	})

	t.Run("writes outline tree", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).WriteOutline(createTestOutline()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got jsonSection
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got.Name != "Document" || len(got.Children) != 2 || got.Children[0].Children[0].Name != "Background" {
			t.Errorf("unexpected tree: %+v", got)
		}
		if !strings.Contains(buf.String(), "\n  ") {
			t.Error("expected indented output")
		}
	})

	t.Run("custom indent", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithIndent(">", "\t")).WriteOutline(createTestOutline()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n>\t") {
			t.Errorf("expected prefixed tab indentation, got:\n%s", buf.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes feedback", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		f := createTestFeedback()
		if err := FeedbackMarkdown(&buf, f.Task, f.Criteria); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Feedback: Thesis draft",
			"## Summary",
			"## Criteria",
			"```mermaid",
			"pie",
			"✅ met",
			"❌ unmet",
			"⏭️ overridden",
			`sample size \| power`,
			"<details>",
			"Added section 2.3",
			"[!IMPORTANT]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("locked task with unmet criteria", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		f := createTestFeedback()
		f.Task.IsLocked = true
		if _, err := NewMarkdownWriter(&buf).WriteFeedback(f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!CAUTION]") {
			t.Errorf("expected a caution alert:\n%s", buf.String())
		}
	})

	t.Run("all resolved", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		f := createTestFeedback()
		f.Criteria = f.Criteria[:1]
		if _, err := NewMarkdownWriter(&buf).WriteFeedback(f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") {
			t.Errorf("expected a tip alert:\n%s", buf.String())
		}
	})

	t.Run("no criteria", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		f := createTestFeedback()
		f.Criteria = nil
		if _, err := NewMarkdownWriter(&buf).WriteFeedback(f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "No feedback criteria.") || strings.Contains(output, "```mermaid") {
			t.Errorf("expected an empty criteria section without chart:\n%s", output)
		}
	})

	t.Run("writes page ranges", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		f := createTestFeedback()
		f.Ranges = []locator.PageRange{{CriterionID: 2, StartPage: 6, EndPage: 8, Section: "Methodology"}}
		if _, err := NewMarkdownWriter(&buf).WriteFeedback(f); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "6-8 (Methodology)") {
			t.Errorf("expected page range in table:\n%s", buf.String())
		}
	})

	t.Run("writes outline", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := OutlineMarkdown(&buf, createTestOutline()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Document Outline",
			"| Section",
			"- Introduction (pp. 1-6)",
			"  - Background (pp. 2-6)",
			"- Methodology (pp. 6-10)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q:\n%s", want, output)
			}
		}
	})

	t.Run("writes empty outline", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := OutlineMarkdown(&buf, outline.Build(nil, 4)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "spans pages 1-4") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}

type failingWriter struct{}

func (failingWriter) WriteFeedback(*Feedback) (int, error)     { return 0, errors.New("disk full") }
func (failingWriter) WriteOutline(*outline.Node) (int, error) { return 0, errors.New("disk full") }

// TestMultiWriter tests writing to several writers at once.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

	n, err := m.WriteFeedback(createTestFeedback())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("expected %d bytes, got %d", text.Len()+js.Len(), n)
	}

	var after bytes.Buffer
	m = NewMultiWriter(failingWriter{}, NewSimpleWriter(&after))
	if _, err := m.WriteOutline(createTestOutline()); err == nil {
		t.Error("expected error from failing writer")
	}
	if after.Len() != 0 {
		t.Error("expected writers after a failure to be skipped")
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, ok := New(FormatJSON, &buf).(*JSONWriter); !ok {
		t.Error("expected a JSONWriter")
	}
	if _, ok := New(FormatMarkdown, &buf).(*MarkdownWriter); !ok {
		t.Error("expected a MarkdownWriter")
	}
	if _, ok := New("yaml", &buf).(*SimpleWriter); !ok {
		t.Error("expected the text fallback")
	}
}

// TestTruncateString tests the truncateString helper.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
		{"Résumé écrit", 8, "Résum..."},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
