package typerepo

import (
	"fmt"
	"go/types"
	"os"
	"sort"

	"golang.org/x/tools/go/packages"
)

// PackageLoader discovers concrete types assignable to a given interface (or
// embedding a given struct) by loading real Go source with go/packages and
// walking go/types, the same introspection the teacher's Inspector performs
// for its own binding resolution. Here the result feeds the Type Repository's
// lazy subclass enumeration (spec §4.2) instead of code generation.
type PackageLoader struct {
	dir      string
	patterns []string

	loaded bool
	scopes []*types.Scope
}

// NewPackageLoader returns a loader that will search dir (a Go module root)
// for types reachable from patterns (e.g. "./...") the first time Subtypes
// is called. Loading is deferred so constructing a Repo never touches disk.
func NewPackageLoader(dir string, patterns ...string) *PackageLoader {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	return &PackageLoader{dir: dir, patterns: patterns}
}

func (l *PackageLoader) ensureLoaded() error {
	if l.loaded {
		return nil
	}
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedDeps,
		Dir:  l.dir,
		Env:  append(os.Environ(), "GOWORK=off"),
	}
	pkgs, err := packages.Load(cfg, l.patterns...)
	if err != nil {
		return fmt.Errorf("typerepo: loading packages: %w", err)
	}
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			return fmt.Errorf("typerepo: %s: %s", pkg.PkgPath, e.Msg)
		}
		if pkg.Types != nil {
			l.scopes = append(l.scopes, pkg.Types.Scope())
		}
	}
	l.loaded = true
	return nil
}

// Subtypes implements subclassLoader. For an interface PType it returns
// every exported named type in the loaded packages whose method set
// satisfies the interface (structural subtyping, Go's stand-in for nominal
// subclassing — spec §4.2's smt_issubclass over the type's actual closure).
// For a non-interface PType it returns exported named types that embed it,
// mirroring Go's closest analogue to inheritance.
func (l *PackageLoader) Subtypes(t PType) ([]PType, error) {
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}

	target := l.lookup(t)
	if target == nil {
		return nil, nil
	}
	targetIface, targetIsIface := target.Type().Underlying().(*types.Interface)

	var out []PType
	seen := map[string]bool{}
	for _, scope := range l.scopes {
		names := scope.Names()
		sort.Strings(names)
		for _, name := range names {
			obj := scope.Lookup(name)
			tn, ok := obj.(*types.TypeName)
			if !ok || !tn.Exported() || tn == target {
				continue
			}
			named, ok := tn.Type().(*types.Named)
			if !ok {
				continue
			}

			var matches bool
			if targetIsIface {
				matches = types.Implements(named, targetIface) || types.Implements(types.NewPointer(named), targetIface)
			} else {
				matches = embeds(named, target)
			}
			if !matches {
				continue
			}

			cand := PType{PkgPath: pkgPathOf(tn), Name: tn.Name()}
			tag := cand.Tag()
			if seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, cand)
		}
	}
	return out, nil
}

func (l *PackageLoader) lookup(t PType) *types.TypeName {
	for _, scope := range l.scopes {
		obj := scope.Lookup(t.Name)
		if obj == nil {
			continue
		}
		tn, ok := obj.(*types.TypeName)
		if !ok {
			continue
		}
		if pkgPathOf(tn) == t.PkgPath {
			return tn
		}
	}
	return nil
}

func embeds(named *types.Named, target *types.TypeName) bool {
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return false
	}
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		if !f.Embedded() {
			continue
		}
		ft := f.Type()
		if ptr, ok := ft.(*types.Pointer); ok {
			ft = ptr.Elem()
		}
		if namedField, ok := ft.(*types.Named); ok && namedField.Obj() == target {
			return true
		}
	}
	return false
}

func pkgPathOf(tn *types.TypeName) string {
	if tn.Pkg() == nil {
		return ""
	}
	return tn.Pkg().Path()
}
