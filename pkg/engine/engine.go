// Package engine evaluates cutout job scripts. A script is a small Lisp
// program, run by zygomys in a sandbox, that declares which regions to
// remove from which layers and which print settings to override:
//
//	(param "layerThickness" 200)
//	(cutout :file "holewire.txt" :from 10 :to 40 :dx -1.6 :dy 0)
//	(cutout :model "cr2032_hole.stl" :to 25)
//
// Evaluation produces a Plan; applying it is up to the caller.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalWarning is a suspicious but accepted declaration.
type EvalWarning struct {
	Message string
}

// Cutout removes a region from a range of layers of one volume. Exactly one
// of File (a clip polygon file) or Model (a mesh path or primitive spec,
// sliced with the job) is set.
type Cutout struct {
	File  string
	Model string

	Volume int
	// From and To select the half-open layer range [From, To). A negative
	// To runs to the last layer.
	From, To int

	// Scale converts clip file units to micrometres.
	Scale float64
	// DX, DY translate the region (µm); StepDX, StepDY add a further shift
	// per layer above From.
	DX, DY         int64
	StepDX, StepDY int64
}

// Offset returns the translation applied at layer n.
func (c Cutout) Offset(n int) (dx, dy int64) {
	steps := int64(n - c.From)
	if steps < 0 {
		steps = 0
	}
	return c.DX + c.StepDX*steps, c.DY + c.StepDY*steps
}

// Plan is the outcome of a script: setting overrides in "key=value" form
// and cutouts in declaration order.
type Plan struct {
	Params   []string
	Cutouts  []Cutout
	Warnings []EvalWarning
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// every Evaluate runs in a fresh sandbox. A newer Evaluate supersedes one
// still running.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout bounds a single evaluation. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEngine creates an Engine with EvalTimeout as the limit.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs a job script and returns the plan it declares.
//
// A script that fails to parse or raises an error returns nil and the
// diagnostics. Only a timeout, a superseded run or an interpreter panic
// return an error.
func (e *Engine) Evaluate(source string) (*Plan, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("engine: panic during evaluation: %v", r)}
			}
		}()
		p, evalErrs, err := e.evaluate(source)
		ch <- evalResult{plan: p, errors: evalErrs, err: err}
	}()
	return e.wait(ch, gen)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*Plan, []EvalError, error) {
	// Empty source is a valid script that changes nothing.
	if strings.TrimSpace(source) == "" {
		return &Plan{}, nil, nil
	}

	// Sandbox mode prevents scripts from touching the filesystem or
	// syscalls; file names are only recorded here and opened by the caller.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	p := &Plan{}
	registerBuiltins(env, p)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return p, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
