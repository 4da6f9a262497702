package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/flatsurf/flatci/internal/config"
	"github.com/flatsurf/flatci/internal/env"
	"github.com/flatsurf/flatci/internal/git"
	"github.com/flatsurf/flatci/internal/matrix"
	"github.com/flatsurf/flatci/internal/observability"
	"github.com/flatsurf/flatci/internal/results"
	"github.com/flatsurf/flatci/internal/workspace"
)

// Reporter receives progress as rows advance. ui.Progress implements it.
type Reporter interface {
	Log(format string, args ...any)
	RowDone(name string, r *results.Row)
}

// Options configures a Runner.
type Options struct {
	// Provisioner builds conda environments.
	Provisioner env.Provisioner

	// Container builds container environments; rows needing one fail when nil.
	Container env.Provisioner

	Jobs        int
	Cleanup     workspace.Cleanup
	Parallelism config.ParallelismConfig
	ToolVersion string

	Logger   *zap.Logger
	Tracer   trace.Tracer
	Metrics  *observability.Metrics
	Reporter Reporter
}

// Runner runs the rows of one project's matrix.
type Runner struct {
	ws       *workspace.Context
	opts     Options
	logger   *zap.Logger
	tracer   trace.Tracer
	metrics  *observability.Metrics
	reporter Reporter
}

// New returns a Runner for the project.
func New(ws *workspace.Context, opts Options) *Runner {
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	if opts.Cleanup == "" {
		opts.Cleanup = workspace.CleanupOnSuccess
	}
	if opts.Parallelism.MakeJobs < 1 {
		opts.Parallelism.MakeJobs = 2
	}
	r := &Runner{
		ws:       ws,
		opts:     opts,
		logger:   opts.Logger,
		tracer:   opts.Tracer,
		metrics:  opts.Metrics,
		reporter: opts.Reporter,
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer("flatci")
	}
	if r.reporter == nil {
		r.reporter = nopReporter{}
	}
	return r
}

// Run runs rows concurrently and returns their results in row order. The
// error wraps ErrRowsFailed when any row failed; the results are complete
// either way.
func (r *Runner) Run(ctx context.Context, rows []matrix.Row) (*results.File, error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, "matrix "+r.ws.Matrix.Name)
	span.SetAttributes(attribute.Int("flatci.rows", len(rows)), attribute.Int("flatci.jobs", r.opts.Jobs))
	defer span.End()

	f := &results.File{
		Version:     1,
		RunID:       uuid.NewString(),
		Name:        r.ws.Matrix.Name,
		GeneratedAt: start.UTC().Format(time.RFC3339),
		ToolVersion: r.opts.ToolVersion,
		Rows:        make(map[string]*results.Row, len(rows)),
	}
	if id, err := git.Identify(r.ws.Root); err == nil {
		f.Source = results.Source{Branch: id.Branch, Commit: id.Commit, Dirty: id.Dirty}
	}
	r.logger.Info("matrix run started",
		zap.String("run_id", f.RunID),
		zap.Int("rows", len(rows)),
		zap.Int("jobs", r.opts.Jobs))

	slots := make([]*results.Row, len(rows))
	var g errgroup.Group
	g.SetLimit(r.opts.Jobs)
	for i, row := range rows {
		g.Go(func() error {
			slots[i] = r.runRow(ctx, row)
			r.reporter.RowDone(row.EffectiveName(), slots[i])
			return nil
		})
	}
	_ = g.Wait()

	for i, row := range rows {
		name := row.EffectiveName()
		f.Rows[name] = slots[i]
		f.Order = append(f.Order, name)
	}
	f.Duration = time.Since(start)
	if r.metrics != nil {
		r.metrics.ObserveRun(f.Duration)
	}

	if failed := f.Failed(); len(failed) > 0 {
		return f, fmt.Errorf("%w: %s", ErrRowsFailed, strings.Join(failed, ", "))
	}
	return f, nil
}

// phaseEnv returns the variables every phase sees: the parallelism hints,
// overridden by the matrix env map.
func (r *Runner) phaseEnv() map[string]string {
	vars := r.opts.Parallelism.Env()
	for k, v := range r.ws.Matrix.Env {
		vars[k] = v
	}
	return vars
}

type nopReporter struct{}

func (nopReporter) Log(string, ...any) {}
func (nopReporter) RowDone(string, *results.Row) {}
