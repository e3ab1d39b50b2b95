package engine

import (
	"fmt"
	"time"

	"github.com/chazu/strata/pkg/graph"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// Option configures an Engine.
type Option func(*Engine)

// WithTimeout replaces EvalTimeout. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// evalResult carries one evaluation's output from its goroutine.
type evalResult struct {
	graph  *graph.SceneGraph
	errors []EvalError
	err    error
}

// wait blocks for the result of evaluation gen. A result that arrives after
// a newer Evaluate call started is discarded as superseded. On timeout the
// goroutine keeps running; its result is dropped when it lands in the
// buffered channel.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*graph.SceneGraph, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if cur := e.currentGeneration(); gen != cur {
			return nil, nil, fmt.Errorf("engine: evaluation %d superseded by %d", gen, cur)
		}
		return res.graph, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("engine: evaluation timed out after %s", e.timeout)
	}
}

func (e *Engine) currentGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}
