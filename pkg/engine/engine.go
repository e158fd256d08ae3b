// Package engine evaluates scene descriptions written in a small Lisp
// dialect and produces a scene of solid primitives. It wraps zygomys in a
// sandboxed environment.
package engine

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/stlprim/pkg/scene"
	"github.com/chazu/stlprim/pkg/solid"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error, a runtime error in user code or a rejected
// primitive parameter.
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

// DefaultTimeout bounds a single evaluation unless WithTimeout says
// otherwise.
const DefaultTimeout = 5 * time.Second

var (
	// ErrTimeout is returned by Evaluate when the program runs too long.
	// The worker keeps running in the background and its result is dropped.
	ErrTimeout = errors.New("evaluation timed out")
	// ErrSuperseded is returned by Evaluate when a newer call started
	// before this one finished.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	cylinderResolution int
	modelDir           string
	timeout            time.Duration
}

// WithCylinderResolution sets the resolution used by (cylinder ...) forms
// that omit :resolution.
func WithCylinderResolution(n int) Option {
	return func(o *options) {
		o.cylinderResolution = n
	}
}

// WithModelDir sets the directory that relative (model ...) paths are
// resolved against. The default is the working directory.
func WithModelDir(dir string) Option {
	return func(o *options) {
		o.modelDir = dir
	}
}

// WithTimeout sets how long Evaluate waits for a program. Non-positive
// values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
	opts       options
}

// NewEngine creates a new Engine instance.
func NewEngine(opts ...Option) *Engine {
	o := options{
		cylinderResolution: solid.DefaultCylinderResolution,
		timeout:            DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{opts: o}
}

// Evaluate takes Lisp source code and produces a new Scene.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	// Buffered so an abandoned worker can still deliver and exit.
	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		sc, evalErrs, err := e.evaluate(source)
		ch <- evalResult{scene: sc, errors: evalErrs, err: err}
	}()

	return e.wait(ch, gen)
}

// evalResult carries one evaluation's output from the worker goroutine.
type evalResult struct {
	scene  *scene.Scene
	errors []EvalError
	err    error
}

// wait returns the result for generation gen, or ErrTimeout once the
// configured timeout passes. A result that arrives after a newer Evaluate
// call began yields ErrSuperseded instead of a scene.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*scene.Scene, []EvalError, error) {
	timer := time.NewTimer(e.opts.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if !e.isCurrent(gen) {
			return nil, nil, ErrSuperseded
		}
		return res.scene, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrTimeout, e.opts.timeout)
	}
}

func (e *Engine) isCurrent(gen uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation == gen
}

// evaluate runs source in a fresh sandbox with the scene builtins installed.
func (e *Engine) evaluate(source string) (*scene.Scene, []EvalError, error) {
	sc := scene.New()
	if strings.TrimSpace(source) == "" {
		return sc, nil, nil
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls;
	// only the (model ...) builtin reads files, on the Go side.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, sc, e.opts)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return sc, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalError values,
// extracting a line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
