// Package sandbox evaluates synthesized player modules in a fresh
// JavaScript runtime and returns the transforms they expose.
//
// A module is the body of a function taking the result carrier
// `{n: null, sig: null}`. Only language builtins and the module's own
// preamble are visible to it; nothing from the host is injected.
package sandbox

import (
	"fmt"
	"strings"

	"github.com/ytget/sigsolver/errs"
)

// Engine names.
const (
	EngineGoja = "goja"
	EngineOtto = "otto"
)

// Func is an evaluated transform.
type Func func(string) (string, error)

// Pair holds the evaluated transforms. A nil field means the module did
// not expose that family.
type Pair struct {
	N   Func
	Sig Func
}

// Evaluator runs module source and returns the populated pair. Failures
// raised by the module wrap errs.ErrEvaluation.
type Evaluator interface {
	Evaluate(module string) (*Pair, error)
}

// Options configures New.
type Options struct {
	// Engine is EngineGoja (default) or EngineOtto.
	Engine string
	// MaxCallStack bounds recursion depth; zero keeps the engine default.
	// Only goja honors it.
	MaxCallStack int
}

// New returns the evaluator for opts.Engine.
func New(opts Options) (Evaluator, error) {
	switch strings.ToLower(opts.Engine) {
	case "", EngineGoja:
		return &Goja{MaxCallStack: opts.MaxCallStack}, nil
	case EngineOtto:
		return &Otto{}, nil
	}
	return nil, fmt.Errorf("unknown sandbox engine %q", opts.Engine)
}

// entry wraps a module into an expression evaluating to its function.
func entry(module string) string {
	return "(function(_result){\n" + module + "\n})"
}

func evalError(stage string, err error) error {
	return fmt.Errorf("%w: %s: %v", errs.ErrEvaluation, stage, err)
}

func recovered(stage string, r any) error {
	return fmt.Errorf("%w: %s: panic: %v", errs.ErrEvaluation, stage, r)
}
