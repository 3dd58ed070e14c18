package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/submission"
	"github.com/spf13/cobra"
)

// NewUploadCmd creates the upload command.
func NewUploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload TASK FILE",
		Short: "Stage a new revision of the deliverable",
		Long: `Upload stages FILE as the next revision of the task's deliverable.

Only one revision can be staged at a time: run unstage to discard it first.
The file must start with one of the accepted signatures (PDF by default)
and fit the configured size limit.

Examples:
  feedtrack -u 1 upload 7 thesis-v2.pdf`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			contentType, _ := cmd.Flags().GetString("content-type")

			content, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("failed to read deliverable: %w", err)
			}

			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}

				d, err := a.machine.Upload(ctx, actor, submission.UploadRequest{
					TaskID:      taskID,
					Filename:    filepath.Base(args[1]),
					ContentType: contentType,
					Content:     content,
				})
				if err != nil {
					return err
				}

				fmt.Fprintf(a.out, "Staged deliverable %d (%s, %d bytes, sha3-256 %s)\n",
					d.ID, d.Filename, d.Size(), d.Checksum)
				return nil
			})
		},
	}

	cmd.Flags().String("content-type", "", "MIME type of the file (default: detected from content)")

	return cmd
}

// NewUnstageCmd creates the unstage command.
func NewUnstageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unstage TASK",
		Short: "Discard the staged revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}
				if err := a.machine.RemoveStaged(ctx, actor, taskID); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Removed staged deliverable of task %d\n", taskID)
				return nil
			})
		},
	}
}

// NewSubmitCmd creates the submit command.
func NewSubmitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "submit TASK",
		Short: "Promote the staged revision to the submitted version",
		Long: `Submit promotes the staged revision and deletes the previous submission.

Criteria that are still unmet are marked overridden: the supervisor decides
about them when reviewing the new version.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}

				result, err := a.machine.Submit(ctx, actor, taskID)
				if err != nil {
					return err
				}

				fmt.Fprintf(a.out, "Submitted deliverable %d\n", result.Submitted)
				if result.Superseded != nil {
					fmt.Fprintf(a.out, "Replaced deliverable %d\n", *result.Superseded)
				}
				if len(result.Overridden) > 0 {
					fmt.Fprintf(a.out, "Overrode %d unmet criteria: %v\n", len(result.Overridden), result.Overridden)
				}
				return nil
			})
		},
	}
}

// NewDownloadCmd creates the download command.
func NewDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download TASK",
		Short: "Write the staged or submitted revision to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			submitted, _ := cmd.Flags().GetBool("submitted")
			outputPath, _ := cmd.Flags().GetString("output")

			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}

				var d *model.Deliverable
				if submitted {
					d, err = a.machine.Submitted(ctx, actor, taskID)
				} else {
					d, err = a.machine.Staged(ctx, actor, taskID)
				}
				if err != nil {
					return err
				}

				if outputPath == "" {
					outputPath = d.Filename
				}
				w, closeOutput, err := openOutput(a.out, outputPath)
				if err != nil {
					return err
				}
				if _, err := w.Write(d.Content); err != nil {
					_ = closeOutput()
					return fmt.Errorf("failed to write deliverable: %w", err)
				}
				if err := closeOutput(); err != nil {
					return fmt.Errorf("failed to write deliverable: %w", err)
				}

				a.logger.Info("deliverable written", "deliverable_id", d.ID, "path", outputPath)
				return nil
			})
		},
	}

	cmd.Flags().Bool("submitted", false, "Download the submitted version instead of the staged one")
	cmd.Flags().StringP("output", "o", "", "Output file path (default: the uploaded file name)")

	return cmd
}
