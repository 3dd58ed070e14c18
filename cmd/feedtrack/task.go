package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/nao1215/feedtrack/internal/model"
	"github.com/nao1215/feedtrack/internal/store"
	"github.com/nao1215/feedtrack/internal/submission"
	"github.com/spf13/cobra"
)

// NewTaskCmd creates the task command group.
func NewTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Create, list and lock tasks",
		Long: `Task manages the tasks deliverables are uploaded for.

Examples:
  # Supervisor 2 creates a task for student 1
  feedtrack -u 2 task create --title "Thesis" --owner 1

  # List the tasks user 1 takes part in
  feedtrack -u 1 task list

  # Block further submissions
  feedtrack -u 2 task lock 7`,
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskLockCmd(true))
	cmd.AddCommand(newTaskLockCmd(false))
	cmd.AddCommand(newTaskArchiveCmd())

	return cmd
}

func newTaskCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			owner, _ := cmd.Flags().GetInt64("owner")
			supervisor, _ := cmd.Flags().GetInt64("supervisor")

			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}
				if supervisor == 0 && !actor.System {
					supervisor = actor.UserID
				}

				task := &model.Task{
					Title:        strings.TrimSpace(title),
					Description:  description,
					OwnerID:      owner,
					SupervisorID: supervisor,
				}
				if err := validateTask(task); err != nil {
					return err
				}
				if !actor.Participates(task) {
					return fmt.Errorf("%w: the acting user must own or supervise the task", model.ErrValidationFailed)
				}

				if err := a.db.WithTx(ctx, func(tx store.Tx) error {
					return tx.CreateTask(ctx, task)
				}); err != nil {
					return err
				}

				a.logger.Info("task created", "task_id", task.ID, "owner_id", task.OwnerID, "supervisor_id", task.SupervisorID)
				fmt.Fprintf(a.out, "Created task %d\n", task.ID)
				return nil
			})
		},
	}

	cmd.Flags().String("title", "", "Task title (required)")
	cmd.Flags().String("description", "", "Task description forwarded to the classifier")
	cmd.Flags().Int64("owner", 0, "ID of the student who submits deliverables (required)")
	cmd.Flags().Int64("supervisor", 0, "ID of the supervisor (default: the acting user)")

	return cmd
}

func validateTask(t *model.Task) error {
	switch {
	case t.Title == "":
		return fmt.Errorf("%w: --title is required", model.ErrValidationFailed)
	case t.OwnerID <= 0:
		return fmt.Errorf("%w: --owner must be a positive user ID", model.ErrValidationFailed)
	case t.SupervisorID <= 0:
		return fmt.Errorf("%w: --supervisor must be a positive user ID", model.ErrValidationFailed)
	default:
		return nil
	}
}

func newTaskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tasks of the acting user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				actor, err := a.requireActor()
				if err != nil {
					return err
				}

				var tasks []model.Task
				if err := a.db.View(ctx, func(tx store.Tx) error {
					tasks, err = tx.ListTasks(ctx, actor.UserID)
					return err
				}); err != nil {
					return err
				}

				if len(tasks) == 0 {
					fmt.Fprintln(a.out, "No tasks.")
					return nil
				}
				fmt.Fprint(a.out, taskTable(tasks))
				return nil
			})
		},
	}
}

func newTaskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show TASK",
		Short: "Show a task and its deliverable state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				task, err := a.visibleTask(ctx, id)
				if err != nil {
					return err
				}

				fmt.Fprintln(a.out, headingStyle.Render(task.Title))
				if task.Description != "" {
					fmt.Fprintln(a.out, task.Description)
				}
				fmt.Fprintln(a.out)
				fmt.Fprintf(a.out, "  status:      %s\n", task.Status)
				fmt.Fprintf(a.out, "  locked:      %t\n", task.IsLocked)
				fmt.Fprintf(a.out, "  owner:       %d\n", task.OwnerID)
				fmt.Fprintf(a.out, "  supervisor:  %d\n", task.SupervisorID)
				fmt.Fprintf(a.out, "  staged:      %s\n", optionalID(task.StagedDeliverableID))
				fmt.Fprintf(a.out, "  submitted:   %s\n", optionalID(task.SubmittedDeliverableID))
				fmt.Fprintf(a.out, "  state:       %s\n", submission.StateOf(task))
				return nil
			})
		},
	}
}

func newTaskLockCmd(locked bool) *cobra.Command {
	use, short := "unlock TASK", "Allow submissions again"
	if locked {
		use, short = "lock TASK", "Block further submissions"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
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
				if err := a.machine.SetLocked(ctx, actor, id, locked); err != nil {
					return err
				}
				if locked {
					fmt.Fprintf(a.out, "Task %d locked\n", id)
				} else {
					fmt.Fprintf(a.out, "Task %d unlocked\n", id)
				}
				return nil
			})
		},
	}
}

func newTaskArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive TASK",
		Short: "Hide a task from every operation",
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

				err = a.db.WithTx(ctx, func(tx store.Tx) error {
					task, err := tx.Task(ctx, id)
					if err != nil {
						return err
					}
					if task.Archived || !actor.Supervises(task) {
						return fmt.Errorf("task %d: %w", id, model.ErrNotFound)
					}
					return tx.SetTaskArchived(ctx, id, true)
				})
				if err != nil {
					return err
				}

				a.logger.Info("task archived", "task_id", id)
				fmt.Fprintf(a.out, "Task %d archived\n", id)
				return nil
			})
		},
	}
}
