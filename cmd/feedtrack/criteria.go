package main

import (
	"context"
	"fmt"
	"os"

	"github.com/nao1215/feedtrack/internal/criteria"
	"github.com/nao1215/feedtrack/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewCriteriaCmd creates the criteria command group.
func NewCriteriaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "criteria",
		Aliases: []string{"fc"},
		Short:   "Manage the feedback criteria of a task",
		Long: `Criteria manages the supervisor feedback attached to a task.

Criteria can only be written once a deliverable has been submitted.

Examples:
  # Supervisor 2 adds two criteria to task 7
  feedtrack -u 2 criteria add 7 "Cite the survey in chapter 2" "Fix figure 3"

  # Apply creates, updates and deletes from a file in one transaction
  feedtrack -u 2 criteria apply 7 feedback.yaml

  # Toggle a criterion between unmet and overridden
  feedtrack -u 2 criteria toggle 12`,
	}

	cmd.AddCommand(newCriteriaListCmd())
	cmd.AddCommand(newCriteriaAddCmd())
	cmd.AddCommand(newCriteriaUpdateCmd())
	cmd.AddCommand(newCriteriaRemoveCmd())
	cmd.AddCommand(newCriteriaApplyCmd())
	cmd.AddCommand(newCriteriaToggleCmd())

	return cmd
}

func newCriteriaListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list TASK",
		Short: "List the criteria of a task",
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
				list, err := a.engine.List(ctx, actor, taskID)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					fmt.Fprintln(a.out, "No criteria.")
					return nil
				}
				fmt.Fprint(a.out, criteriaTable(list))
				return nil
			})
		},
	}
}

func newCriteriaAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add TASK DESCRIPTION...",
		Short: "Add criteria to a task",
		Args:  cobra.MinimumNArgs(2),
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
				created, err := a.engine.Create(ctx, actor, taskID, args[1:])
				if err != nil {
					return err
				}
				fmt.Fprint(a.out, criteriaTable(created))
				return nil
			})
		},
	}
}

func newCriteriaUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update TASK",
		Short: "Change the description, status or observed change of a criterion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			patch, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}
				updated, err := a.engine.Update(ctx, actor, taskID, []model.CriterionPatch{patch})
				if err != nil {
					return err
				}
				fmt.Fprint(a.out, criteriaTable(updated))
				return nil
			})
		},
	}

	cmd.Flags().Int64("id", 0, "ID of the criterion to change (required)")
	cmd.Flags().String("description", "", "New description")
	cmd.Flags().String("status", "", "New status: unmet or met")
	cmd.Flags().String("change", "", "Observed change between revisions")

	return cmd
}

// patchFromFlags builds a patch holding only the flags that were set.
func patchFromFlags(cmd *cobra.Command) (model.CriterionPatch, error) {
	flags := cmd.Flags()
	id, _ := flags.GetInt64("id")
	if id <= 0 {
		return model.CriterionPatch{}, fmt.Errorf("%w: --id must be a positive criterion ID", errInvalidID)
	}

	patch := model.CriterionPatch{ID: id}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		patch.Description = &v
	}
	if flags.Changed("status") {
		v, _ := flags.GetString("status")
		status := model.CriterionStatus(v)
		patch.Status = &status
	}
	if flags.Changed("change") {
		v, _ := flags.GetString("change")
		patch.ChangeObserved = &v
	}
	return patch, nil
}

func newCriteriaRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove TASK ID...",
		Aliases: []string{"rm"},
		Short:   "Delete criteria of a task",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}
				n, err := a.engine.Delete(ctx, actor, taskID, ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Deleted %d criteria\n", n)
				return nil
			})
		},
	}
}

// changeSet is the file format of criteria apply.
type changeSet struct {
	Create []string     `yaml:"create"`
	Update []patchEntry `yaml:"update"`
	Delete []int64      `yaml:"delete"`
}

type patchEntry struct {
	ID             int64   `yaml:"id"`
	Description    *string `yaml:"description"`
	Status         *string `yaml:"status"`
	ChangeObserved *string `yaml:"change_observed"`
}

func (c changeSet) request() criteria.ProvideRequest {
	req := criteria.ProvideRequest{Creates: c.Create, Deletes: c.Delete}
	for _, e := range c.Update {
		patch := model.CriterionPatch{ID: e.ID, Description: e.Description, ChangeObserved: e.ChangeObserved}
		if e.Status != nil {
			status := model.CriterionStatus(*e.Status)
			patch.Status = &status
		}
		req.Updates = append(req.Updates, patch)
	}
	return req
}

func readChangeSet(path string) (*changeSet, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to read change set: %w", err)
	}
	var c changeSet
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: failed to parse change set: %v", model.ErrValidationFailed, err)
	}
	return &c, nil
}

func newCriteriaApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply TASK FILE",
		Short: "Create, update and delete criteria in one transaction",
		Long: `Apply reads a change set and applies it atomically: if any part fails,
nothing is written.

  create:
    - Cite the survey in chapter 2
  update:
    - id: 12
      description: Fix figures 3 and 4
  delete: [13, 14]`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			changes, err := readChangeSet(args[1])
			if err != nil {
				return err
			}
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}
				result, err := a.engine.Provide(ctx, actor, taskID, changes.request())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Created %d, updated %d, deleted %d criteria\n",
					len(result.Created), len(result.Updated), result.Deleted)
				return nil
			})
		},
	}
}

func newCriteriaToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Toggle a criterion between unmet and overridden",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}
				c, err := a.engine.ToggleOverride(ctx, actor, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Criterion %d is now %s\n", c.ID, styledStatus(c.Status))
				return nil
			})
		},
	}
}
