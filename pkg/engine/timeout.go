package engine

import (
	"errors"
	"fmt"
	"time"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's limit.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded is returned to an Evaluate overtaken by a newer one.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")
)

type evalResult struct {
	plan   *Plan
	errors []EvalError
	err    error
}

// wait returns the result of generation gen from ch. A timed out
// evaluation keeps running in the background; whatever it sends later is
// dropped by the buffered channel.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*Plan, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		current := e.generation
		e.mu.Unlock()
		if gen != current {
			return nil, nil, ErrSuperseded
		}
		return res.plan, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
