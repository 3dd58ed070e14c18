package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/feedtrack/internal/outline"
	"github.com/nao1215/feedtrack/internal/report"
	"github.com/spf13/cobra"
)

var errUnknownFormat = errors.New("unknown format: use text, json or markdown")

// NewOutlineCmd creates the outline command.
func NewOutlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline FILE...",
		Short: "Build the section tree of documents from their headings",
		Long: `Outline reads heading streams and prints the section tree of each document.

A heading stream is YAML or JSON: either a list of headings, or an object
with end_page and headings. Every heading has title, font_size and
start_page, in the order the headings appear in the document:

  end_page: 10
  headings:
    - {title: Introduction, font_size: 20, start_page: 1}
    - {title: Background, font_size: 16, start_page: 2}

Larger font sizes are higher in the hierarchy. Without --strict, unsorted
or out-of-range headings are accepted as they come.

Examples:
  # Print the tree of one document
  feedtrack outline thesis.yaml

  # Reject malformed heading streams
  feedtrack outline --strict chapter1.yaml chapter2.yaml

  # Markdown report with page counts
  feedtrack outline --format markdown -o outline.md thesis.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: runOutlineCmd,
	}

	cmd.Flags().Bool("strict", false, "Reject unsorted, empty or out-of-range headings")
	cmd.Flags().StringP("format", "f", string(report.FormatText), "Output format: text, json or markdown")
	cmd.Flags().StringP("output", "o", "", "Write the outline to a file instead of stdout")
	cmd.Flags().Int("concurrency", 0, "Documents built in parallel (default: outline_concurrency from config)")
	cmd.Flags().Int("end-page", 0, "Override the last page of every document")

	return cmd
}

func parseFormat(cmd *cobra.Command) (report.Format, error) {
	s, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", err
	}
	switch f := report.Format(s); f {
	case report.FormatText, report.FormatJSON, report.FormatMarkdown:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownFormat, s)
	}
}

func readHeadings(path string) (*outline.File, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	file, err := outline.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

func runOutlineCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	format, err := parseFormat(cmd)
	if err != nil {
		return err
	}
	strict, _ := cmd.Flags().GetBool("strict")
	endPage, _ := cmd.Flags().GetInt("end-page")
	outputPath, _ := cmd.Flags().GetString("output")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	if concurrency <= 0 {
		concurrency = cfg.OutlineConcurrency
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())

	docs := make([]outline.Document, 0, len(args))
	for _, path := range args {
		file, err := readHeadings(path)
		if err != nil {
			return err
		}
		if endPage > 0 {
			file.EndPage = endPage
		}
		docs = append(docs, outline.Document{
			Name:         filepath.Base(path),
			Observations: file.Headings,
			EndPage:      file.EndPage,
		})
	}

	results, err := outline.BuildAll(cmd.Context(), docs, concurrency, strict)
	if err != nil {
		return err
	}

	w, closeOutput, err := openOutput(cmd.OutOrStdout(), outputPath)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // Best effort close; write errors are reported below

	writer := report.New(format, w)
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("skipping document", "name", r.Name, "error", r.Err)
			errs = append(errs, r.Err)
			continue
		}
		logger.Debug("outline built", "name", r.Name, "sections", r.Root.Count())
		if len(results) > 1 && format == report.FormatText {
			fmt.Fprintf(w, "== %s ==\n", headingStyle.Render(r.Name))
		}
		if _, err := writer.WriteOutline(r.Root); err != nil {
			return fmt.Errorf("failed to write outline: %w", err)
		}
	}
	return errors.Join(errs...)
}
