package engine

import (
	"errors"
	"fmt"
	"time"
)

// EvalTimeout is the default limit for a single evaluation. WithTimeout
// overrides it per engine.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's timeout.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned when a newer Evaluate started while this one
	// was still running.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// evalResult carries one evaluation's output from its worker goroutine.
type evalResult struct {
	plan   Plan
	errors []EvalError
	err    error
}

// begin opens a new generation. Evaluations still running under an older
// generation become stale.
func (e *Engine) begin() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.generation++
	return e.generation
}

func (e *Engine) isCurrent(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return gen == e.generation
}

// await waits for generation gen's result on ch, bounded by the engine's
// timeout.
//
// On timeout the worker goroutine may still be running. ch must be buffered
// so its late send never blocks; nobody reads it.
func (e *Engine) await(ch <-chan evalResult, gen uint64) (Plan, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		// A plan from a stale generation describes a script the caller
		// has already replaced; drop it.
		if !e.isCurrent(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.plan, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
}
