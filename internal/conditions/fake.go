package conditions

import (
	"context"
	"fmt"

	"github.com/crosshair-go/symex/internal/statespace"
	"github.com/crosshair-go/symex/internal/symbolic"
)

// ExprCondition is a minimal, explicitly-named-as-fake Condition: it wraps
// a plain Go closure instead of a parsed expression AST, standing in for
// the out-of-scope condition parser so the core's own tests can exercise
// a real Provider (spec §6).
type ExprCondition struct {
	File string
	Ln   int
	Src  string
	Ctx  string
	Fn   func(ctx context.Context, st *statespace.State, bindings map[string]symbolic.Value) (bool, error)
}

func (c *ExprCondition) Evaluate(ctx context.Context, st *statespace.State, bindings map[string]symbolic.Value) (bool, error) {
	return c.Fn(ctx, st, bindings)
}
func (c *ExprCondition) Filename() string    { return c.File }
func (c *ExprCondition) Line() int           { return c.Ln }
func (c *ExprCondition) ExprSource() string  { return c.Src }
func (c *ExprCondition) AddlContext() string { return c.Ctx }

// FakeProvider is a hand-built Provider keyed by function/class name,
// registered by tests in place of a real source-level condition parser.
type FakeProvider struct {
	Fns     map[string]FnConditions
	Classes map[string]ClassConditions
}

// NewFakeProvider returns an empty FakeProvider ready for tests to
// populate via RegisterFn/RegisterClass.
func NewFakeProvider() *FakeProvider {
	return &FakeProvider{Fns: map[string]FnConditions{}, Classes: map[string]ClassConditions{}}
}

func (p *FakeProvider) RegisterFn(name string, fc FnConditions) { p.Fns[name] = fc }
func (p *FakeProvider) RegisterClass(name string, cc ClassConditions) { p.Classes[name] = cc }

func (p *FakeProvider) FnConditions(fn any) (FnConditions, error) {
	name, ok := fn.(string)
	if !ok {
		return FnConditions{}, fmt.Errorf("conditions: fake provider keys by name, got %T", fn)
	}
	fc, ok := p.Fns[name]
	if !ok {
		return FnConditions{}, fmt.Errorf("conditions: no fake conditions registered for %q", name)
	}
	return fc, nil
}

func (p *FakeProvider) ClassConditions(cls any) (ClassConditions, error) {
	name, ok := cls.(string)
	if !ok {
		return ClassConditions{}, fmt.Errorf("conditions: fake provider keys by name, got %T", cls)
	}
	cc, ok := p.Classes[name]
	if !ok {
		return ClassConditions{}, fmt.Errorf("conditions: no fake conditions registered for %q", name)
	}
	return cc, nil
}
