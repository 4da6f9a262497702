package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "flatci",
		Short:         "Run a package's test matrix in isolated conda environments",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("root", ".", "Project root containing flatci.yaml")
	cmd.PersistentFlags().String("config", "", "Config file (default <root>/.flatci/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")

	cmd.AddCommand(
		newInitCmd(),
		newValidateCmd(),
		newFilterCmd(),
		newRunCmd(),
		newTriggerCmd(),
		newReportCmd(),
		newHistoryCmd(),
		newDoctorCmd(),
		newCleanCmd(),
	)

	return cmd
}
