package main

import (
	"github.com/spf13/cobra"
)

type rootFlags struct {
	projectRoot string
	verbose     bool
}

func newRootCmd(app *AppContext) *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "auditpipe",
		Short:         "Auditpipe runs declarative audit pipelines over project files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.projectRoot, "project-root", "", "Project root directory (default: working directory)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(newRunCmd(app, flags))
	cmd.AddCommand(newValidateSpecCmd(app, flags))
	cmd.AddCommand(newPlanCmd(app, flags))
	cmd.AddCommand(newRenderCmd(app, flags))
	cmd.AddCommand(newVersionCmd())

	return cmd
}
