// Package registry is cmd/symex's Conditions Provider: since a real
// condition-doc parser is out of scope (spec.md's Non-goals), targets are
// registered directly by the Go program being analyzed, the same way the
// teacher's evaluator.Builtins and RegisterBuiltins populate a package-level
// map of callable names at init time instead of discovering them from a
// source-level registry file.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/crosshair-go/symex/internal/callattempt"
	"github.com/crosshair-go/symex/internal/conditions"
)

// Target is one registered analysis unit: a bare function, or a class with
// one Body per declared method.
type Target struct {
	Name        string
	Class       bool
	Fn          conditions.FnConditions
	Body        callattempt.Body
	Cls         conditions.ClassConditions
	ClassBodies map[string]callattempt.Body
}

// Registry collects targets a host program registers before calling
// cmd/symex's analyze entry point, and implements conditions.Provider over
// them by name.
type Registry struct {
	mu      sync.Mutex
	targets map[string]*Target
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{targets: map[string]*Target{}}
}

// RegisterFunction adds a bare function target under name.
func (r *Registry) RegisterFunction(name string, fc conditions.FnConditions, body callattempt.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[name] = &Target{Name: name, Fn: fc, Body: body}
}

// RegisterClass adds a class target under name, with one body per declared
// method in cc.Methods.
func (r *Registry) RegisterClass(name string, cc conditions.ClassConditions, bodies map[string]callattempt.Body) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[name] = &Target{Name: name, Class: true, Cls: cc, ClassBodies: bodies}
}

// Names returns every registered target name, sorted, for a batch run that
// didn't ask for a specific subset.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.targets))
	for name := range r.targets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the registered Target for name.
func (r *Registry) Lookup(name string) (*Target, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.targets[name]
	return t, ok
}

// FnConditions implements conditions.Provider, keying by the target's
// registered name.
func (r *Registry) FnConditions(fn any) (conditions.FnConditions, error) {
	name, ok := fn.(string)
	if !ok {
		return conditions.FnConditions{}, fmt.Errorf("registry: keyed by name, got %T", fn)
	}
	t, ok := r.Lookup(name)
	if !ok || t.Class {
		return conditions.FnConditions{}, fmt.Errorf("registry: no function target %q", name)
	}
	return t.Fn, nil
}

// ClassConditions implements conditions.Provider, keying by the target's
// registered name.
func (r *Registry) ClassConditions(cls any) (conditions.ClassConditions, error) {
	name, ok := cls.(string)
	if !ok {
		return conditions.ClassConditions{}, fmt.Errorf("registry: keyed by name, got %T", cls)
	}
	t, ok := r.Lookup(name)
	if !ok || !t.Class {
		return conditions.ClassConditions{}, fmt.Errorf("registry: no class target %q", name)
	}
	return t.Cls, nil
}
