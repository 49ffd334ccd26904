package sandbox

import (
	"fmt"
	"sync"

	"github.com/robertkrimen/otto"

	"github.com/ytget/sigsolver/internal/logger"
)

// ottoGlobals supplies what ES5 lacks but the preamble expects.
const ottoGlobals = "var globalThis = this;"

// Otto evaluates modules with github.com/robertkrimen/otto. It only
// understands ES5, so modules using later syntax fail to compile.
type Otto struct{}

// Evaluate implements Evaluator.
func (o *Otto) Evaluate(module string) (pair *Pair, err error) {
	defer func() {
		if r := recover(); r != nil {
			pair, err = nil, recovered("run", r)
		}
	}()

	vm := otto.New()
	if _, err := vm.Run(ottoGlobals); err != nil {
		return nil, evalError("setup", err)
	}
	v, err := vm.Run(entry(module))
	if err != nil {
		return nil, evalError("compile", err)
	}
	if !v.IsFunction() {
		return nil, evalError("compile", fmt.Errorf("module is not a function"))
	}
	carrier, err := vm.Object(`({n: null, sig: null})`)
	if err != nil {
		return nil, evalError("setup", err)
	}
	if _, err := v.Call(otto.UndefinedValue(), carrier.Value()); err != nil {
		return nil, evalError("run", err)
	}

	var mu sync.Mutex
	pair = &Pair{}
	if pair.N, err = o.slot(&mu, carrier, "n"); err != nil {
		return nil, err
	}
	if pair.Sig, err = o.slot(&mu, carrier, "sig"); err != nil {
		return nil, err
	}
	logger.WithComponent(logger.ComponentSandbox).Debug("module evaluated", map[string]interface{}{
		"engine": EngineOtto,
		"n":      pair.N != nil,
		"sig":    pair.Sig != nil,
	})
	return pair, nil
}

func (o *Otto) slot(mu *sync.Mutex, carrier *otto.Object, name string) (Func, error) {
	v, err := carrier.Get(name)
	if err != nil {
		return nil, evalError("collect", err)
	}
	if v.IsNull() || v.IsUndefined() {
		return nil, nil
	}
	if !v.IsFunction() {
		return nil, evalError("collect", fmt.Errorf("%s is not callable", name))
	}
	return func(arg string) (out string, err error) {
		mu.Lock()
		defer mu.Unlock()
		defer func() {
			if r := recover(); r != nil {
				out, err = "", recovered(name, r)
			}
		}()
		res, err := v.Call(otto.UndefinedValue(), arg)
		if err != nil {
			return "", evalError(name, err)
		}
		s, err := res.ToString()
		if err != nil {
			return "", evalError(name, err)
		}
		return s, nil
	}, nil
}
