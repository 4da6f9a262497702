package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flatsurf/flatci/internal/artifacts"
	"github.com/flatsurf/flatci/internal/config"
	"github.com/flatsurf/flatci/internal/env"
	"github.com/flatsurf/flatci/internal/features"
	"github.com/flatsurf/flatci/internal/history"
	"github.com/flatsurf/flatci/internal/matrix"
	"github.com/flatsurf/flatci/internal/observability"
	"github.com/flatsurf/flatci/internal/orchestrator"
	"github.com/flatsurf/flatci/internal/results"
	"github.com/flatsurf/flatci/internal/ui"
	"github.com/flatsurf/flatci/internal/workspace"
)

var (
	condaRunner      env.Runner = env.ExecRunner{}
	connectContainer            = env.NewContainerProvisioner
)

// provisioners builds the environment back ends for a run. The container
// engine is only contacted when a row needs it. When it cannot be reached the
// container back end is nil and only the container rows fail.
var provisioners = func(ctx context.Context, cfg *config.Config, rows []matrix.Row, logOut io.Writer, logger *zap.Logger) (conda, container env.Provisioner, closeFn func() error) {
	conda = env.NewCondaProvisioner(cfg.PackageManager, condaRunner)
	closeFn = func() error { return nil }
	for _, r := range rows {
		if _, ok := r.ContainerImage(); ok {
			cp, err := connectContainer(ctx, logOut)
			if err != nil {
				logger.Warn("container engine unavailable, container rows will fail", zap.Error(err))
				return conda, nil, closeFn
			}
			return conda, cp, cp.Close
		}
	}
	return conda, nil, closeFn
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the test matrix",
		Long: `Run provisions a fresh environment for each matrix row, installs the
package from the checked-out tree, and runs the documentation and unit tests.
Rows run in parallel; the command fails if any row failed.`,
		RunE: runRun,
	}
	cmd.Flags().StringSlice("only", nil, "Run only these rows")
	cmd.Flags().StringSlice("skip", nil, "Skip these rows")
	cmd.Flags().Int("jobs", 0, "Number of rows run in parallel (default from config)")
	cmd.Flags().String("cleanup", "", "Remove row environments: always, on-success, never (default from config)")
	cmd.Flags().Bool("archive", true, "Archive row logs after the run")
	cmd.Flags().Bool("no-history", false, "Do not record the run in the history database")
	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = a.logger.Sync() }()

	only, _ := cmd.Flags().GetStringSlice("only")
	skip, _ := cmd.Flags().GetStringSlice("skip")
	jobs, _ := cmd.Flags().GetInt("jobs")
	cleanupStr, _ := cmd.Flags().GetString("cleanup")
	archive, _ := cmd.Flags().GetBool("archive")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	if jobs == 0 {
		jobs = a.cfg.Jobs
	}
	if jobs < 1 {
		return fmt.Errorf("--jobs must be >= 1 (got %d)", jobs)
	}
	if cleanupStr == "" {
		cleanupStr = a.cfg.Cleanup
	}
	cleanup, err := workspace.ParseCleanup(cleanupStr)
	if err != nil {
		return err
	}

	ws, err := a.workspace()
	if err != nil {
		return err
	}
	rows := matrix.FilterRows(ws.Matrix.Rows, only, skip)
	if len(rows) == 0 {
		return fmt.Errorf("no matrix rows selected")
	}
	for _, t := range features.Unknown(ws.Matrix.Tags()) {
		a.logger.Warn("optional tag is not a known feature", zap.String("tag", t))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceVersion: version,
		OTLPEndpoint:   a.cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:   a.cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := tracing.Shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("flushing traces", zap.Error(err))
		}
	}()
	metrics := observability.NewMetrics()

	conda, container, closeFn := provisioners(ctx, a.cfg, rows, cmd.ErrOrStderr(), a.logger)
	defer func() { _ = closeFn() }()

	runner := orchestrator.New(ws, orchestrator.Options{
		Provisioner: conda,
		Container:   container,
		Jobs:        jobs,
		Cleanup:     cleanup,
		Parallelism: a.cfg.Parallelism,
		ToolVersion: version,
		Logger:      a.logger,
		Tracer:      tracing.Tracer,
		Metrics:     metrics,
		Reporter:    ui.NewProgress(cmd.ErrOrStderr(), len(rows)),
	})
	f, runErr := runner.Run(ctx, rows)

	if archive {
		archiveLogs(cmd, a, ws, f)
	}
	if err := results.Save(ws.ResultsPath, f); err != nil {
		return err
	}
	if a.cfg.History.Enabled && !noHistory {
		recordHistory(a, ws, f)
	}
	if path := a.cfg.Telemetry.MetricsFile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			a.logger.Warn("writing metrics", zap.Error(err))
		}
	}

	printSummary(cmd.OutOrStdout(), f)
	return runErr
}

func archiveLogs(cmd *cobra.Command, a *app, ws *workspace.Context, f *results.File) {
	var paths []string
	for _, name := range f.Order {
		paths = append(paths, f.Rows[name].LogPath)
	}
	dest := ws.ArchivePath()
	skipped, err := artifacts.Archive(ws.StateDir, paths, dest)
	if err != nil {
		a.logger.Warn("archiving logs", zap.Error(err))
		return
	}
	for _, p := range skipped {
		a.logger.Warn("row log missing from archive", zap.String("path", p))
	}
	f.Archive = dest
	if info, err := os.Stat(dest); err == nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Logs archived to %s (%s)\n", dest, ui.Bytes(info.Size()))
	}
}

func recordHistory(a *app, ws *workspace.Context, f *results.File) {
	store, err := history.Open(ws.HistoryPath())
	if err != nil {
		a.logger.Warn("opening history", zap.Error(err))
		return
	}
	defer store.Close()
	if err := store.Record(f); err != nil {
		a.logger.Warn("recording history", zap.Error(err))
	}
}

func printSummary(out io.Writer, f *results.File) {
	tbl := ui.NewTable(out, "ROW", "STATUS", "ENVIRONMENT", "OPTIONALS", "FAILED PHASE", "DURATION")
	for _, name := range f.Order {
		r := f.Rows[name]
		phase := r.FailedPhase
		if phase == "" {
			phase = "-"
		}
		optionals := strings.Join(r.Optionals, ",")
		if optionals == "" {
			optionals = "-"
		}
		tbl.Row(name, ui.StatusLabel(r.Status), r.Environment, optionals, phase, r.Duration.Round(1e9))
	}
	_ = tbl.Flush()

	if failed := f.Failed(); len(failed) > 0 {
		_, _ = fmt.Fprintf(out, "\n%d of %d rows failed.\n", len(failed), len(f.Order))
		return
	}
	_, _ = fmt.Fprintf(out, "\nAll %d rows passed.\n", len(f.Order))
}
