package typerepo

import "sync"

// Repo maintains the enumeration of concrete program types seen so far
// plus the smt_issubclass partial order over them (spec §4.2). It is
// process-wide and append-only within one analyzer run (spec §5).
type Repo struct {
	mu sync.Mutex

	registered map[string]PType
	// edges[a][b] means a is asserted a (reflexive-transitive-closed)
	// subtype of b.
	edges map[string]map[string]bool

	loader subclassLoader
}

// New returns an empty Repo. loader may be nil, in which case
// SubclassesOf does no reflection-based discovery and returns only t (if
// registered) plus the subtypes asserted through AddSubtype — useful for
// tests that only exercise the manually-asserted edges.
func New(loader subclassLoader) *Repo {
	return &Repo{
		registered: map[string]PType{},
		edges:      map[string]map[string]bool{},
		loader:     loader,
	}
}

// subclassLoader abstracts the go/packages-backed reflection step so the
// Repo's graph logic can be tested without loading real packages.
type subclassLoader interface {
	// Subtypes returns every type, other than t itself, assignable to t
	// wherever it's declared (interfaces) or promoted via embedding
	// (structs) — Go's structural-typing stand-in for nominal subclassing.
	Subtypes(t PType) ([]PType, error)
}

// Register adds t to the registered type set (a reflexive edge to
// itself), idempotently.
func (r *Repo) Register(t PType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerLocked(t)
}

func (r *Repo) registerLocked(t PType) {
	tag := t.Tag()
	if _, ok := r.registered[tag]; ok {
		return
	}
	r.registered[tag] = t
	r.edges[tag] = map[string]bool{tag: true}
}

// AddSubtype asserts sub <: sup and closes the relation transitively: for
// every type already known to be a supertype of sup, it also becomes a
// supertype of sub, and symmetrically for everything already known to be
// a subtype of sub.
func (r *Repo) AddSubtype(sub, sup PType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registerLocked(sub)
	r.registerLocked(sup)

	subTag, supTag := sub.Tag(), sup.Tag()
	r.edges[subTag][supTag] = true

	// Close transitively: anything <: sub is now <: everything sub is <:.
	for aTag, aEdges := range r.edges {
		if !aEdges[subTag] {
			continue
		}
		for bTag, isSub := range r.edges[supTag] {
			if isSub {
				r.edges[aTag][bTag] = true
			}
		}
	}
}

// Issubclass reports whether sub is a registered subtype of sup,
// reflexively and transitively (spec §4.2's invariant). Suitable for
// wiring directly into smt.Solver.SetIssubclass.
func (r *Repo) Issubclass(sub, sup string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.edges[sub][sup]
}

// GetType registers t if new and returns its solver tag.
func (r *Repo) GetType(t PType) string {
	r.Register(t)
	return t.Tag()
}

// SubclassesOf returns every currently-known subtype of t, including t
// itself, first consulting already-asserted edges and then, if a loader
// is configured, lazily discovering more via reflection and merging them
// in (spec §4.2: "built lazily from reflection").
func (r *Repo) SubclassesOf(t PType) ([]PType, error) {
	if r.loader != nil {
		discovered, err := r.loader.Subtypes(t)
		if err != nil {
			return nil, err
		}
		for _, d := range discovered {
			r.AddSubtype(d, t)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	tag := t.Tag()
	var out []PType
	for candTag := range r.registered {
		if r.edges[candTag][tag] {
			out = append(out, r.registered[candTag])
		}
	}
	return out, nil
}
