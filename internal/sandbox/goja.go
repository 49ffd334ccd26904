package sandbox

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/ytget/sigsolver/internal/logger"
)

// Goja evaluates modules with github.com/dop251/goja, one runtime per
// module.
type Goja struct {
	MaxCallStack int
}

// Evaluate implements Evaluator.
func (g *Goja) Evaluate(module string) (pair *Pair, err error) {
	defer func() {
		if r := recover(); r != nil {
			pair, err = nil, recovered("run", r)
		}
	}()

	vm := goja.New()
	if g.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(g.MaxCallStack)
	}
	v, err := vm.RunScript("player-module.js", entry(module))
	if err != nil {
		return nil, evalError("compile", err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, evalError("compile", fmt.Errorf("module is not a function"))
	}
	carrier := vm.NewObject()
	_ = carrier.Set("n", goja.Null())
	_ = carrier.Set("sig", goja.Null())
	if _, err := fn(goja.Undefined(), carrier); err != nil {
		return nil, evalError("run", err)
	}

	var mu sync.Mutex
	pair = &Pair{}
	if pair.N, err = g.slot(vm, &mu, carrier, "n"); err != nil {
		return nil, err
	}
	if pair.Sig, err = g.slot(vm, &mu, carrier, "sig"); err != nil {
		return nil, err
	}
	logger.WithComponent(logger.ComponentSandbox).Debug("module evaluated", map[string]interface{}{
		"engine": EngineGoja,
		"n":      pair.N != nil,
		"sig":    pair.Sig != nil,
	})
	return pair, nil
}

// slot turns carrier[name] into a Func. The runtime is not safe for
// concurrent use, so every call holds mu.
func (g *Goja) slot(vm *goja.Runtime, mu *sync.Mutex, carrier *goja.Object, name string) (Func, error) {
	v := carrier.Get(name)
	if v == nil || goja.IsNull(v) || goja.IsUndefined(v) {
		return nil, nil
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
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
		res, err := fn(goja.Undefined(), vm.ToValue(arg))
		if err != nil {
			return "", evalError(name, err)
		}
		return res.String(), nil
	}, nil
}
