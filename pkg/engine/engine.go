// Package engine evaluates job scripts. It wraps zygomys in a sandboxed
// environment and produces a build-plate SceneGraph from user source code.
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/strata/pkg/graph"
	"github.com/chazu/strata/pkg/logging"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError is a problem with the script itself. Line is zero when the
// interpreter gave no position.
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

// EvalWarning is advisory; the graph is still usable.
type EvalWarning struct {
	Line    int
	Col     int
	Message string
	NodeID  graph.NodeID
}

func (w EvalWarning) String() string {
	if w.NodeID.IsZero() {
		return w.Message
	}
	return fmt.Sprintf("node %s: %s", w.NodeID.Short(), w.Message)
}

// EvalResult bundles the full output of Check.
type EvalResult struct {
	Graph    *graph.SceneGraph
	Errors   []EvalError
	Warnings []EvalWarning
}

// OK reports whether the script evaluated and validated without errors.
func (r EvalResult) OK() bool {
	return r.Graph != nil && len(r.Errors) == 0
}

// Engine runs job scripts. Every evaluation gets a fresh zygomys sandbox,
// and a newer evaluation supersedes any still running. Safe for concurrent
// use.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	timeout    time.Duration
}

// NewEngine returns an Engine with the default evaluation timeout.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{timeout: EvalTimeout}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate builds the scene graph described by source. Script problems
// (syntax, runtime, bad builtin arguments) come back as EvalErrors with a
// nil graph. The error return is reserved for evaluations that did not
// finish: a timeout, a panic, or being superseded by a later call.
func (e *Engine) Evaluate(source string) (*graph.SceneGraph, []EvalError, error) {
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

		g, evalErrs, err := e.evaluate(source)
		if g != nil {
			g.Version = gen
		}
		ch <- evalResult{graph: g, errors: evalErrs, err: err}
	}()

	return e.wait(ch, gen)
}

// Check evaluates source and validates the resulting graph. Validation
// errors are reported as EvalErrors, in which case Graph is nil; warnings
// are attached to the result either way.
func (e *Engine) Check(source string) (EvalResult, error) {
	g, evalErrs, err := e.Evaluate(source)
	if err != nil {
		return EvalResult{}, err
	}
	if len(evalErrs) > 0 {
		return EvalResult{Errors: evalErrs}, nil
	}

	res := EvalResult{Graph: g}
	vr := graph.ValidateAll(g)
	for _, w := range vr.Warnings {
		res.Warnings = append(res.Warnings, EvalWarning{
			Message: describe(g, w.NodeID, w.Message),
			NodeID:  w.NodeID,
		})
	}
	for _, ve := range vr.Errors {
		res.Errors = append(res.Errors, EvalError{
			Message: describe(g, ve.NodeID, ve.Message),
		})
	}
	if len(res.Errors) > 0 {
		res.Graph = nil
	}

	logging.Logger().Debug("engine: check",
		"version", g.Version, "nodes", g.NodeCount(), "parts", len(g.Parts()),
		"errors", len(res.Errors), "warnings", len(res.Warnings))
	return res, nil
}

// describe prefixes a validation message with the form and name of the node
// it concerns.
func describe(g *graph.SceneGraph, id graph.NodeID, msg string) string {
	n := g.Get(id)
	if n == nil {
		return msg
	}
	switch {
	case n.Name != "" && n.Source.Form != "":
		return fmt.Sprintf("%s %q: %s", n.Source.Form, n.Name, msg)
	case n.Source.Form != "":
		return fmt.Sprintf("%s: %s", n.Source.Form, msg)
	}
	return msg
}

// evaluate runs source in a sandbox with no filesystem access; stl forms
// only record their paths. Blank source yields an empty graph.
func (e *Engine) evaluate(source string) (*graph.SceneGraph, []EvalError, error) {
	g := graph.New()
	if strings.TrimSpace(source) == "" {
		return g, nil, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, g)

	err := env.LoadString(preprocessSource(source))
	if err == nil {
		_, err = env.Run()
	}
	if err != nil {
		return nil, parseZygomysError(err), nil
	}
	return g, nil, nil
}

// zygomysLine matches the line reports zygomys puts in its errors, either
// "Error on line N: msg" or a bare "line N: msg".
var zygomysLine = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`),
	regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`),
}

// parseZygomysError turns an interpreter error into an EvalError, keeping
// the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := strings.TrimSpace(err.Error())
	for _, re := range zygomysLine {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: msg}}
}
