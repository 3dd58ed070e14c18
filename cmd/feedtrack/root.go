package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for feedtrack.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedtrack",
		Short: "Track deliverables and supervisor feedback",
		Long: `feedtrack manages the deliverables of project tasks.

A student stages a revision and submits it; a supervisor attaches feedback
criteria to the submitted version. When the next revision is staged, a
generative model compares both versions and marks the criteria it finds
addressed. Submitting overrides whatever is still unmet.

Acting user: every command that touches a task needs --user, or --system
for maintenance scripts.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.Bool("json-logs", false, "Write logs as JSON")
	flags.StringP("config", "c", "", "Configuration file path (default: $XDG_CONFIG_HOME/feedtrack/config.yaml)")
	flags.String("db-dir", "", "Directory holding the database (overrides the config file)")
	flags.Int64P("user", "u", 0, "ID of the acting user")
	flags.Bool("system", false, "Act as the system, bypassing ownership checks")
	flags.String("pushgateway", "", "Push metrics to this Prometheus Pushgateway URL when the command ends")

	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewOutlineCmd())
	cmd.AddCommand(NewTaskCmd())
	cmd.AddCommand(NewUploadCmd())
	cmd.AddCommand(NewUnstageCmd())
	cmd.AddCommand(NewSubmitCmd())
	cmd.AddCommand(NewDownloadCmd())
	cmd.AddCommand(NewCriteriaCmd())
	cmd.AddCommand(NewEvaluateCmd())
	cmd.AddCommand(NewLocateCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
