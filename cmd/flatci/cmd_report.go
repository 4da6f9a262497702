package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/flatsurf/flatci/internal/results"
	"github.com/flatsurf/flatci/internal/ui"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the results of the last run",
		RunE:  runReport,
	}
	cmd.Flags().Bool("raw", false, "Print Markdown instead of rendering it")
	cmd.Flags().String("file", "", "Results file (default <state>/results.yaml)")
	return cmd
}

func runReport(cmd *cobra.Command, _ []string) error {
	raw, _ := cmd.Flags().GetBool("raw")
	file, _ := cmd.Flags().GetString("file")

	var f *results.File
	if file != "" {
		loaded, err := results.Load(file)
		if err != nil {
			return err
		}
		f = loaded
	} else {
		a, err := setup(cmd)
		if err != nil {
			return err
		}
		ws, err := a.workspace()
		if err != nil {
			return err
		}
		if ws.Results == nil {
			return fmt.Errorf("no results found in %s; run 'flatci run' first", ws.StateDir)
		}
		f = ws.Results
	}

	out := cmd.OutOrStdout()
	if raw {
		_, err := fmt.Fprint(out, ui.Markdown(f))
		return err
	}

	style := "notty"
	if tty, ok := out.(*os.File); ok && term.IsTerminal(int(tty.Fd())) {
		style = "dark"
	}
	rendered, err := ui.RenderReport(f, style)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
