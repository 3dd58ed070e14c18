package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/submission"
)

var (
	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	metStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	unmetStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	overriddenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	headingStyle    = lipgloss.NewStyle().Bold(true)
)

// renderTable draws rows under headers with a rounded border.
func renderTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(_, _ int) lipgloss.Style { return cellStyle }).
		Headers(headers...).
		Rows(rows...)
	return t.String() + "\n"
}

func styledStatus(s model.CriterionStatus) string {
	switch s {
	case model.CriterionMet:
		return metStyle.Render(string(s))
	case model.CriterionOverridden:
		return overriddenStyle.Render(string(s))
	default:
		return unmetStyle.Render(string(s))
	}
}

func criteriaTable(list []model.FeedbackCriterion) string {
	rows := make([][]string, 0, len(list))
	for _, c := range list {
		change := "-"
		if c.ChangeObserved != nil && *c.ChangeObserved != "" {
			change = *c.ChangeObserved
		}
		rows = append(rows, []string{
			fmt.Sprint(c.ID),
			styledStatus(c.Status),
			c.Description,
			change,
		})
	}
	return renderTable([]string{"ID", "Status", "Description", "Change observed"}, rows)
}

func taskTable(tasks []model.Task) string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		locked := ""
		if t.IsLocked {
			locked = "locked"
		}
		rows = append(rows, []string{
			fmt.Sprint(t.ID),
			t.Title,
			string(t.Status),
			submission.StateOf(&t).String(),
			locked,
			fmt.Sprint(t.OwnerID),
			fmt.Sprint(t.SupervisorID),
		})
	}
	return renderTable([]string{"ID", "Title", "Status", "Deliverables", "Lock", "Owner", "Supervisor"}, rows)
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprint(*id)
}

// openOutput returns w, or a created file when path is set. Parent
// directories are created as needed.
func openOutput(w io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return w, func() error { return nil }, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // User-provided output path is intentional
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
