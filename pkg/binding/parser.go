package binding

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dop251/goja"

	lzerrors "github.com/vango-dev/lazyload/internal/errors"
	"github.com/vango-dev/lazyload/pkg/events"
	"github.com/vango-dev/lazyload/pkg/lazyload"
)

// Key is the binding name the parser extracts.
const Key = "lazyload"

// Parser evaluates declarations in a single goja runtime. It is safe for
// concurrent use; evaluation and handler calls are serialized.
type Parser struct {
	mu sync.Mutex
	vm *goja.Runtime
}

// NewParser creates a parser with a fresh runtime. Go values exposed to
// scripts use lower-camel-case method and field names.
func NewParser() *Parser {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.UncapFieldNameMapper())
	return &Parser{vm: vm}
}

// Set defines a global available to every declaration, such as a helper
// function shared by several view models.
func (p *Parser) Set(name string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vm.Set(name, value)
}

// Run evaluates script in the parser's runtime. Hosts use it to define view
// model functions in JavaScript.
func (p *Parser) Run(script string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, err := p.vm.RunString(script)
	if err != nil {
		return nil, lzerrors.New("E041").Wrap(err)
	}
	return v.Export(), nil
}

// Parse evaluates decl with the entries of viewModel in scope and returns
// the lazyload options it declares.
func (p *Parser) Parse(decl string, viewModel map[string]any) (lazyload.Options, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	obj, err := p.evaluate(decl, viewModel)
	if err != nil {
		return lazyload.Options{}, err
	}

	entry := obj.Get(Key)
	if isUnset(entry) {
		return lazyload.Options{}, lzerrors.New("E041").
			WithDetail(fmt.Sprintf("The declaration %q has no lazyload entry.", decl))
	}
	cfg := p.unwrap(entry)
	if isUnset(cfg) {
		return lazyload.Options{}, nil
	}
	cfgObj := cfg.ToObject(p.vm)

	opts := lazyload.Options{
		Src:        p.stringField(cfgObj, "src"),
		Srcset:     p.stringField(cfgObj, "srcset"),
		LoadingSrc: p.stringField(cfgObj, "loadingSrc"),
	}
	if t := p.unwrap(cfgObj.Get("threshold")); !isUnset(t) && t.ToBoolean() {
		opts.Threshold = t.ToFloat()
	}
	opts.On = p.handlers(cfgObj.Get("on"))
	return opts, nil
}

// Bindings returns the names of every binding in decl, sorted.
func (p *Parser) Bindings(decl string, viewModel map[string]any) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	obj, err := p.evaluate(decl, viewModel)
	if err != nil {
		return nil, err
	}
	keys := obj.Keys()
	sort.Strings(keys)
	return keys, nil
}

// evaluate runs decl as an object literal. with() puts the view model in
// scope while still resolving globals.
func (p *Parser) evaluate(decl string, viewModel map[string]any) (*goja.Object, error) {
	src := "(function($data) { with ($data) { return ({" + decl + "\n}); } })"
	fnVal, err := p.vm.RunString(src)
	if err != nil {
		return nil, lzerrors.New("E041").Wrap(err)
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, lzerrors.New("E041")
	}

	data := p.vm.NewObject()
	for k, v := range viewModel {
		if err := data.Set(k, v); err != nil {
			return nil, lzerrors.New("E041").Wrap(err)
		}
	}

	res, err := fn(goja.Undefined(), data)
	if err != nil {
		return nil, lzerrors.New("E041").Wrap(err)
	}
	if isUnset(res) {
		return nil, lzerrors.New("E041")
	}
	return res.ToObject(p.vm), nil
}

// unwrap calls zero-argument functions, the way ko.unwrap reads observables.
func (p *Parser) unwrap(v goja.Value) goja.Value {
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return v
	}
	if obj, isObj := v.(*goja.Object); isObj && obj.Get("length").ToInteger() != 0 {
		return v
	}
	out, err := fn(goja.Undefined())
	if err != nil {
		return goja.Undefined()
	}
	return out
}

func (p *Parser) stringField(obj *goja.Object, name string) string {
	v := p.unwrap(obj.Get(name))
	if isUnset(v) {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// handlers converts the "on" object. Entries that are not functions are
// skipped.
func (p *Parser) handlers(v goja.Value) map[string]events.Handler {
	if isUnset(v) {
		return nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}

	out := make(map[string]events.Handler)
	for _, name := range obj.Keys() {
		fn, ok := goja.AssertFunction(obj.Get(name))
		if !ok {
			continue
		}
		out[name] = p.handler(fn)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// handler adapts a script function to a bus handler. The function is called
// with the event context as this and the emitted arguments.
func (p *Parser) handler(fn goja.Callable) events.Handler {
	return func(ev events.Event) {
		p.mu.Lock()
		defer p.mu.Unlock()

		args := make([]goja.Value, len(ev.Args))
		for i, a := range ev.Args {
			args[i] = p.vm.ToValue(a)
		}
		// The bus has no error path; script exceptions are dropped.
		_, _ = fn(p.vm.ToValue(ev.Context), args...)
	}
}

func isUnset(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
