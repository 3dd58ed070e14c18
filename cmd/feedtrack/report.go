package main

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/feedtrack/internal/report"
	"github.com/spf13/cobra"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report TASK",
		Short: "Write the feedback report of a task",
		Long: `Report writes the criteria of a task with a status summary.

With --outline, unmet criteria are also pointed at the pages of the staged
revision that address them (requires the classifier).

Examples:
  # Terminal summary
  feedtrack -u 1 report 7

  # Markdown report with page ranges
  feedtrack -u 2 report 7 --format markdown --outline thesis.yaml -o feedback.md

  # JSON for scripts
  feedtrack -u 2 report 7 --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			format, err := parseFormat(cmd)
			if err != nil {
				return err
			}
			outputPath, _ := cmd.Flags().GetString("output")
			verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
			opts, err := locateOptionsFromFlags(cmd)
			if err != nil {
				return err
			}

			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				task, err := a.visibleTask(ctx, taskID)
				if err != nil {
					return err
				}
				list, err := a.engine.List(ctx, a.actor, taskID)
				if err != nil {
					return err
				}

				feedback := report.NewFeedback(task, list, time.Now())
				if opts.outlinePath != "" {
					if feedback.Ranges, err = a.locateRanges(ctx, task, list, opts); err != nil {
						return err
					}
				}

				w, closeOutput, err := openOutput(a.out, outputPath)
				if err != nil {
					return err
				}

				var writer report.Writer
				if format == report.FormatText {
					writer = report.NewSimpleWriter(w, report.WithVerbose(verbose))
				} else {
					writer = report.New(format, w)
				}
				if _, err := writer.WriteFeedback(feedback); err != nil {
					_ = closeOutput()
					return fmt.Errorf("failed to write report: %w", err)
				}
				if err := closeOutput(); err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}

				if outputPath != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", outputPath)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringP("format", "f", string(report.FormatText), "Output format: text, json or markdown")
	cmd.Flags().StringP("output", "o", "", "Write the report to a file instead of stdout")
	addLocateFlags(cmd)

	return cmd
}
