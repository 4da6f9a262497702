package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/flatsurf/flatci/internal/env"
	"github.com/flatsurf/flatci/internal/manifest"
	"github.com/flatsurf/flatci/internal/matrix"
	"github.com/flatsurf/flatci/internal/results"
)

// FilteredManifest is the file name of a row's filtered manifest.
const FilteredManifest = "environment.yml"

type rowRun struct {
	r    *Runner
	row  matrix.Row
	name string
	dir  string
	log  io.Writer
	res  *results.Row
	env  env.Environment
	// filtered manifest path, empty for container rows
	manifest string
}

func (r *Runner) runRow(ctx context.Context, row matrix.Row) *results.Row {
	start := time.Now()
	name := row.EffectiveName()

	ctx, span := r.tracer.Start(ctx, "row "+name)
	span.SetAttributes(
		attribute.String("flatci.row", name),
		attribute.String("flatci.optionals", row.OptionalsArg()),
	)
	defer span.End()

	res := &results.Row{
		Status:      results.StatusPassed,
		Environment: env.KindConda,
		Optionals:   row.Optionals,
		LogPath:     r.ws.LogPath(row),
	}
	if _, ok := row.ContainerImage(); ok {
		res.Environment = env.KindContainer
	}

	rr := &rowRun{r: r, row: row, name: name, dir: r.ws.RowDir(row), res: res}
	err := rr.run(ctx)
	res.Duration = time.Since(start)

	if err != nil {
		res.Status = results.StatusFailed
		res.Error = err.Error()
		var pe *PhaseError
		if errors.As(err, &pe) {
			res.FailedPhase = pe.Phase
			res.ErrorKind = KindName(pe)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, res.ErrorKind)
		r.logger.Error("row failed",
			zap.String("row", name),
			zap.String("phase", res.FailedPhase),
			zap.String("log", res.LogPath),
			zap.Error(err))
	} else {
		r.logger.Info("row passed", zap.String("row", name), zap.Duration("duration", res.Duration))
	}
	if r.metrics != nil {
		r.metrics.ObserveRow(string(res.Status))
	}
	return res
}

func (rr *rowRun) run(ctx context.Context) error {
	if err := os.MkdirAll(rr.dir, 0755); err != nil {
		return &PhaseError{Row: rr.name, Phase: PhaseFilter, Err: fmt.Errorf("creating row directory: %w", err)}
	}
	logFile, err := os.Create(rr.res.LogPath) //nolint:gosec // row log under the state directory
	if err != nil {
		return &PhaseError{Row: rr.name, Phase: PhaseFilter, Err: fmt.Errorf("creating row log: %w", err)}
	}
	defer logFile.Close()
	rr.log = logFile

	steps := []struct {
		phase string
		fn    func(context.Context) error
	}{
		{PhaseFilter, rr.filter},
		{PhaseProvision, rr.provision},
		{PhaseInstall, rr.install},
		{PhaseDoctest, rr.doctest},
		{PhaseUnit, rr.unit},
	}

	var failure error
	for _, s := range steps {
		if failure == nil && ctx.Err() != nil {
			fmt.Fprintf(rr.log, "==> %s not started: %v\n", s.phase, ctx.Err())
			failure = &PhaseError{Row: rr.name, Phase: s.phase, Err: ctx.Err()}
		}
		if failure != nil {
			rr.res.Phases = append(rr.res.Phases, results.Phase{Name: s.phase, Status: results.StatusSkipped})
			continue
		}
		if err := rr.phase(ctx, s.phase, s.fn); err != nil {
			// A killed command reports its exit status, not the interrupt.
			if cerr := ctx.Err(); cerr != nil && !errors.Is(err, cerr) {
				err = fmt.Errorf("%w: %w", cerr, err)
			}
			failure = &PhaseError{Row: rr.name, Phase: s.phase, Err: err}
		}
	}

	rr.cleanup(ctx, failure == nil)
	return failure
}

func (rr *rowRun) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := rr.r.tracer.Start(ctx, name)
	defer span.End()

	fmt.Fprintf(rr.log, "==> %s\n", name)
	rr.r.reporter.Log("%s: %s", rr.name, name)
	rr.r.logger.Debug("phase started", zap.String("row", rr.name), zap.String("phase", name))

	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)

	status := results.StatusPassed
	if errors.Is(err, errSkipped) {
		status, err = results.StatusSkipped, nil
	} else if err != nil {
		status = results.StatusFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fmt.Fprintf(rr.log, "==> %s failed: %v\n", name, err)
	}
	rr.res.Phases = append(rr.res.Phases, results.Phase{Name: name, Status: status, Duration: d})
	if rr.r.metrics != nil && status != results.StatusSkipped {
		rr.r.metrics.ObservePhase(name, d, status == results.StatusFailed)
	}
	return err
}

var errSkipped = errors.New("phase skipped")

// filter writes the row's manifest with untaken optional entries dropped.
// Container rows have no manifest to filter.
func (rr *rowRun) filter(_ context.Context) error {
	if _, ok := rr.row.ContainerImage(); ok {
		fmt.Fprintln(rr.log, "container environment: manifest not applied")
		return errSkipped
	}
	src := rr.r.ws.ManifestPath()
	data, err := os.ReadFile(src) //nolint:gosec // manifest path from the matrix file
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	if _, err := manifest.Parse(data); err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}

	filtered := manifest.Filter(data, rr.row.Tags())
	rr.manifest = filepath.Join(rr.dir, FilteredManifest)
	if err := os.WriteFile(rr.manifest, filtered, 0644); err != nil { //nolint:gosec // generated manifest
		return fmt.Errorf("writing filtered manifest: %w", err)
	}
	fmt.Fprint(rr.log, manifest.Diff(data, filtered))
	return nil
}

func (rr *rowRun) provision(ctx context.Context) error {
	spec := env.Spec{
		Name:        rr.name,
		Dir:         rr.dir,
		Source:      rr.r.ws.Root,
		Python:      rr.row.Python,
		BaseLibrary: rr.r.ws.Matrix.EffectiveBaseLibrary(),
		BaseVersion: rr.row.BaseVersion,
		Manifest:    rr.manifest,
		Env:         rr.r.phaseEnv(),
		Log:         rr.log,
	}

	p := rr.r.opts.Provisioner
	if img, ok := rr.row.ContainerImage(); ok {
		spec.Image = img
		p = rr.r.opts.Container
		if p == nil {
			return fmt.Errorf("row uses %s but no container engine is available", rr.row.Environment)
		}
	}

	e, err := p.Provision(ctx, spec)
	if err != nil {
		return err
	}
	rr.env = e
	return nil
}

func (rr *rowRun) install(ctx context.Context) error {
	return rr.exec(ctx, rr.r.ws.Matrix.Phases.InstallCmd())
}

func (rr *rowRun) doctest(ctx context.Context) error {
	return rr.exec(ctx, rr.r.ws.Matrix.Phases.DoctestCmd())
}

func (rr *rowRun) unit(ctx context.Context) error {
	return rr.exec(ctx, rr.r.ws.Matrix.Phases.UnitCmd())
}

func (rr *rowRun) exec(ctx context.Context, tmpl []string) error {
	args := Expand(tmpl, Vars{
		Optionals:   rr.row.OptionalsArg(),
		Workers:     rr.r.opts.Parallelism.WorkersArg(),
		Python:      rr.row.Python,
		BaseVersion: rr.row.BaseVersion,
		Package:     rr.r.ws.Matrix.EffectivePackage(),
	})
	return rr.env.Exec(ctx, args)
}

func (rr *rowRun) cleanup(ctx context.Context, passed bool) {
	if rr.env == nil || !rr.r.opts.Cleanup.ShouldRemove(passed) {
		return
	}
	// Environments are removed even when the run was interrupted.
	if err := rr.env.Remove(context.WithoutCancel(ctx)); err != nil {
		rr.r.logger.Warn("removing environment", zap.String("row", rr.name), zap.Error(err))
	}
}
