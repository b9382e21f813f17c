// Package typerepo is the Type Repository (spec §4.2): it maps program
// types encountered during an analysis run onto the Solver Facade's
// PyType sort and exposes the `smt_issubclass` relation and lazy subclass
// enumeration used by the Proxy Factory's union/subtype handling.
package typerepo

import "fmt"

// PType names a program type the way go/types names it: by import path and
// declared name. Builtin/unnamed types (int, string, []T, …) use an empty
// PkgPath with a synthesized Name (e.g. "[]int").
type PType struct {
	PkgPath string
	Name    string
}

// Tag is the canonical string identifying this type to the solver's
// PyType sort (spec §4.1).
func (t PType) Tag() string {
	if t.PkgPath == "" {
		return t.Name
	}
	return fmt.Sprintf("%s.%s", t.PkgPath, t.Name)
}

func (t PType) String() string { return t.Tag() }
