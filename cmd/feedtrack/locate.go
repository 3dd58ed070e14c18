package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/feedtrack/internal/locator"
	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/outline"
	"github.com/spf13/cobra"
)

var errNoOutline = errors.New("--outline is required")

// NewLocateCmd creates the locate command.
func NewLocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locate TASK",
		Short: "Point each unmet criterion at the pages that address it",
		Long: `Locate asks the classifier which pages of the staged revision address each
unmet criterion. The document outline, built from a heading stream as in
the outline command, bounds the ranges: ranges outside the document, running
backwards or naming unknown criteria are dropped.

Examples:
  feedtrack -u 2 locate 7 --outline thesis.yaml
  feedtrack -u 2 locate 7 --outline thesis.yaml --submitted`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			opts, err := locateOptionsFromFlags(cmd)
			if err != nil {
				return err
			}
			if opts.outlinePath == "" {
				return fmt.Errorf("%w: %w", model.ErrValidationFailed, errNoOutline)
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

				ranges, err := a.locateRanges(ctx, task, list, opts)
				if err != nil {
					return err
				}
				if len(ranges) == 0 {
					fmt.Fprintln(a.out, "No page ranges found.")
					return nil
				}
				fmt.Fprint(a.out, rangeTable(ranges, list))
				return nil
			})
		},
	}

	addLocateFlags(cmd)
	return cmd
}

type locateOptions struct {
	outlinePath string
	strict      bool
	submitted   bool
}

func addLocateFlags(cmd *cobra.Command) {
	cmd.Flags().String("outline", "", "Heading stream of the document (YAML or JSON)")
	cmd.Flags().Bool("strict", false, "Reject malformed heading streams")
	cmd.Flags().Bool("submitted", false, "Locate in the submitted revision instead of the staged one")
}

func locateOptionsFromFlags(cmd *cobra.Command) (locateOptions, error) {
	var opts locateOptions
	var err error
	if opts.outlinePath, err = cmd.Flags().GetString("outline"); err != nil {
		return opts, err
	}
	if opts.strict, err = cmd.Flags().GetBool("strict"); err != nil {
		return opts, err
	}
	if opts.submitted, err = cmd.Flags().GetBool("submitted"); err != nil {
		return opts, err
	}
	return opts, nil
}

// buildOutline reads a heading stream and builds its section tree.
func buildOutline(path string, strict bool) (*outline.Node, error) {
	file, err := readHeadings(path)
	if err != nil {
		return nil, err
	}
	if !strict {
		return outline.Build(file.Headings, file.EndPage), nil
	}
	root, err := outline.BuildStrict(file.Headings, file.EndPage)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", model.ErrValidationFailed, path, err)
	}
	return root, nil
}

// locateRanges builds the outline and asks the locator for page ranges of
// the unmet criteria in list.
func (a *app) locateRanges(ctx context.Context, task *model.Task, list []model.FeedbackCriterion, opts locateOptions) ([]locator.PageRange, error) {
	if a.locator == nil {
		return nil, errClassifierDisabled
	}
	root, err := buildOutline(opts.outlinePath, opts.strict)
	if err != nil {
		return nil, err
	}

	var d *model.Deliverable
	if opts.submitted {
		d, err = a.machine.Submitted(ctx, a.actor, task.ID)
	} else {
		d, err = a.machine.Staged(ctx, a.actor, task.ID)
	}
	if err != nil {
		return nil, err
	}

	return a.locator.Locate(ctx, root, list, locator.Input{
		TaskTitle: task.Title,
		Document:  d.Content,
	})
}

func rangeTable(ranges []locator.PageRange, list []model.FeedbackCriterion) string {
	descriptions := make(map[int64]string, len(list))
	for _, c := range list {
		descriptions[c.ID] = c.Description
	}

	rows := make([][]string, 0, len(ranges))
	for _, r := range ranges {
		pages := fmt.Sprint(r.StartPage)
		if r.EndPage != r.StartPage {
			pages = fmt.Sprintf("%d-%d", r.StartPage, r.EndPage)
		}
		rows = append(rows, []string{
			fmt.Sprint(r.CriterionID),
			descriptions[r.CriterionID],
			pages,
			r.Section,
		})
	}
	return renderTable([]string{"ID", "Description", "Pages", "Section"}, rows)
}
