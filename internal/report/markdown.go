package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/outline"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in GitHub Flavored Markdown with tables,
// alerts and mermaid pie charts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// OutlineMarkdown writes root as a Markdown document.
func OutlineMarkdown(w io.Writer, root *outline.Node) error {
	_, err := NewMarkdownWriter(w).WriteOutline(root)
	return err
}

// FeedbackMarkdown writes the criteria of task as a Markdown document.
func FeedbackMarkdown(w io.Writer, task *model.Task, criteria []model.FeedbackCriterion) error {
	_, err := NewMarkdownWriter(w).WriteFeedback(NewFeedback(task, criteria, time.Now()))
	return err
}

// WriteOutline outputs a section table and a nested list.
func (w *MarkdownWriter) WriteOutline(root *outline.Node) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Document Outline")
	md.PlainText("")

	flat := root.Flatten()
	if len(flat) == 0 {
		md.PlainTextf("No headings found. The document spans pages %d-%d.",
			root.Section.StartPage, root.Section.EndPage)
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(flat))
	for _, s := range flat {
		rows = append(rows, []string{
			strings.Repeat("&nbsp;&nbsp;", s.Depth-1) + escapeCell(s.Name),
			strconv.Itoa(s.StartPage),
			strconv.Itoa(s.EndPage),
			strconv.Itoa(s.Pages()),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Section", "Start", "End", "Pages"},
		Rows:   rows,
	})
	md.PlainText("")

	md.H2("Structure")
	md.PlainText("")
	for _, s := range flat {
		md.PlainTextf("%s- %s (pp. %d-%d)", strings.Repeat("  ", s.Depth-1), s.Name, s.StartPage, s.EndPage)
	}
	md.PlainText("")

	return len(md.String()), md.Build()
}

// WriteFeedback outputs a header table, a status summary with chart and
// alert, and the criteria table with observed changes as details.
func (w *MarkdownWriter) WriteFeedback(f *Feedback) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, f)
	w.writeSummary(md, f)
	w.writeCriteria(md, f)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated by feedtrack on %s*", f.GeneratedAt.Format("2006-01-02 15:04 MST"))

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, f *Feedback) {
	md.H1("Feedback: " + f.Task.Title)
	md.PlainText("")

	locked := "No"
	if f.Task.IsLocked {
		locked = "Yes"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Task", "#" + strconv.FormatInt(f.Task.ID, 10)},
			{"Status", string(f.Task.Status)},
			{"Locked", locked},
			{"Submitted", yesNo(f.Task.HasSubmitted())},
			{"Revision staged", yesNo(f.Task.HasStaged())},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, f *Feedback) {
	s := f.Summary()

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Status", "Count"},
		Rows: [][]string{
			{"❌ Unmet", strconv.Itoa(s.Unmet)},
			{"✅ Met", strconv.Itoa(s.Met)},
			{"⏭️ Overridden", strconv.Itoa(s.Overridden)},
			{"**Total**", "**" + strconv.Itoa(s.Total()) + "**"},
		},
	})
	md.PlainText("")

	if s.Total() > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Criteria Status"),
			piechart.WithShowData(true),
		)
		if s.Unmet > 0 {
			chart.LabelAndIntValue("Unmet", uint64(s.Unmet))
		}
		if s.Met > 0 {
			chart.LabelAndIntValue("Met", uint64(s.Met))
		}
		if s.Overridden > 0 {
			chart.LabelAndIntValue("Overridden", uint64(s.Overridden))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}

	switch {
	case s.Total() == 0:
		md.Note("No feedback criteria have been provided yet.")
	case s.Unmet == 0:
		md.Tip("Every criterion is resolved.")
	case f.Task.IsLocked:
		md.Cautionf("%d criterion(s) remain unmet and the task is locked.", s.Unmet)
	default:
		md.Importantf("%d of %d criterion(s) still need work.", s.Unmet, s.Total())
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCriteria(md *markdown.Markdown, f *Feedback) {
	md.H2("Criteria")
	md.PlainText("")

	if len(f.Criteria) == 0 {
		md.PlainText("No feedback criteria.")
		md.PlainText("")
		return
	}

	header := []string{"ID", "Status", "Description"}
	if len(f.Ranges) > 0 {
		header = append(header, "Pages")
	}

	rows := make([][]string, 0, len(f.Criteria))
	for _, c := range f.Criteria {
		row := []string{
			strconv.FormatInt(c.ID, 10),
			statusLabel(c.Status),
			escapeCell(truncateString(c.Description, 80)),
		}
		if len(f.Ranges) > 0 {
			pages := "-"
			if r, ok := f.RangeFor(c.ID); ok {
				pages = fmt.Sprintf("%d-%d (%s)", r.StartPage, r.EndPage, escapeCell(r.Section))
			}
			row = append(row, pages)
		}
		rows = append(rows, row)
	}
	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")

	for _, c := range f.Criteria {
		if c.ChangeObserved != nil && *c.ChangeObserved != "" {
			md.Details(fmt.Sprintf("#%d %s", c.ID, truncateString(c.Description, 60)), *c.ChangeObserved)
		}
	}
	md.PlainText("")
}

func statusLabel(s model.CriterionStatus) string {
	switch s {
	case model.CriterionMet:
		return "✅ met"
	case model.CriterionOverridden:
		return "⏭️ overridden"
	default:
		return "❌ unmet"
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// escapeCell keeps pipes from splitting a table cell.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
