package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/config"
	"github.com/chazu/strata/pkg/engine"
	"github.com/chazu/strata/pkg/gcode"
	"github.com/chazu/strata/pkg/job"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/kernel/sdfx"
	"github.com/chazu/strata/pkg/logx"
	"github.com/chazu/strata/pkg/sequence"
)

// version is written into the program header.
const version = "0.3.0"

// App runs one print: the settings, geometry kernel and cutout plan shared
// by every model file of the run.
type App struct {
	cfg    *config.Config
	engine *engine.Engine
	kernel kernel.Kernel
	ops    clip.Ops
	log    *logx.Logger

	cutouts []engine.Cutout
	dumpDir string
}

// EvalErrorData is one script diagnostic.
type EvalErrorData struct {
	Line    int
	Col     int
	Message string
}

// EvalResult reports what a cutout script contributed.
type EvalResult struct {
	Params   []string
	Cutouts  int
	Errors   []EvalErrorData
	Warnings []EvalErrorData
}

// Summary describes a finished run.
type Summary struct {
	JobID     uuid.UUID
	Printed   int
	Skipped   int
	PrintTime float64
	Filament  float64
}

// NewApp creates an App with the sdfx kernel for primitive models.
func NewApp(cfg *config.Config, log *logx.Logger) *App {
	return &App{
		cfg:    cfg,
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
		ops:    clip.New(),
		log:    log,
	}
}

// SetDumpDir enables per-layer plots below dir.
func (a *App) SetDumpDir(dir string) {
	a.dumpDir = dir
}

// Evaluate runs a cutout script. Its param forms are applied to the
// settings and its cutouts are used for every model of the run. Nothing is
// applied when the script has errors.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	plan, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		a.log.Errorf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	for _, w := range plan.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Message: w.Message})
	}

	for _, kv := range plan.Params {
		if err := a.cfg.Set(kv); err != nil {
			result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		}
	}
	if len(result.Errors) > 0 {
		return result
	}
	result.Params = plan.Params
	result.Cutouts = len(plan.Cutouts)
	a.cutouts = plan.Cutouts
	return result
}

// Run prints every model into w, in order. A model that cannot be loaded
// is logged and skipped.
func (a *App) Run(ctx context.Context, w io.Writer, models []string) (Summary, error) {
	if err := a.cfg.Validate(); err != nil {
		return Summary{}, err
	}
	sum := Summary{JobID: uuid.New()}
	bw := bufio.NewWriter(w)
	out := gcode.NewExporter(bw)
	out.WriteComment("Generated with strata %s", version)
	out.WriteComment("JOB_ID:%s", sum.JobID)

	pipeline := job.New(a.cfg, a.kernel, a.ops,
		job.WithLogger(a.log),
		job.WithCutouts(a.cutouts),
		job.WithDumpDir(a.dumpDir),
	)
	seq := sequence.New(a.cfg, out, a.ops, sequence.WithLogger(a.log))
	st := sequence.NewState()
	for _, m := range models {
		j, err := pipeline.Prepare(ctx, m)
		if err != nil {
			a.log.Errorf("Failed to load model: %s: %v", m, err)
			sum.Skipped++
			continue
		}
		if err := seq.Process(j, st); err != nil {
			return sum, fmt.Errorf("%s: %w", m, err)
		}
		sum.Printed++
	}
	if err := seq.Finish(); err != nil {
		return sum, err
	}
	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("gcode: flush: %w", err)
	}
	sum.PrintTime = out.TotalPrintTime()
	sum.Filament = out.TotalFilamentUsed()
	a.log.Infof("Print time: %d", int(sum.PrintTime))
	a.log.Infof("Filament: %d", int(sum.Filament))
	return sum, nil
}
