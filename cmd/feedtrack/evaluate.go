package main

import (
	"context"
	"fmt"

	"github.com/nao1215/feedtrack/internal/model"
	"github.com/spf13/cobra"
)

// NewEvaluateCmd creates the evaluate command.
func NewEvaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate TASK",
		Short: "Mark the criteria the staged revision addresses",
		Long: `Evaluate sends the submitted and the staged revision to the classifier
together with every unmet criterion, and records which criteria the staged
revision now meets.

The classifier must be configured (classifier.api_key or
FEEDTRACK_CLASSIFIER_API_KEY). Failed calls are retried with exponential
backoff; a result that does not answer every unmet criterion exactly once
is rejected and nothing is written.

Examples:
  feedtrack -u 1 evaluate 7`,
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
				if a.evaluator == nil {
					return errClassifierDisabled
				}

				results, err := a.evaluator.Evaluate(ctx, actor, taskID)
				if err != nil {
					return err
				}
				if len(results) == 0 {
					fmt.Fprintln(a.out, "No unmet criteria to evaluate.")
					return nil
				}

				met := 0
				for _, r := range results {
					if r.Status == model.CriterionMet {
						met++
					}
				}
				fmt.Fprintf(a.out, "%d of %d unmet criteria are now met\n", met, len(results))

				list, err := a.engine.List(ctx, actor, taskID)
				if err != nil {
					return err
				}
				fmt.Fprint(a.out, criteriaTable(list))
				return nil
			})
		},
	}
}
