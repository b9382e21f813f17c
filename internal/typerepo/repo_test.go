package typerepo

import "testing"

func TestRegisterIsIdempotentAndReflexive(t *testing.T) {
	r := New(nil)
	r.Register(PType{Name: "int"})
	r.Register(PType{Name: "int"})

	if !r.Issubclass("int", "int") {
		t.Fatalf("expected a type to be a reflexive subtype of itself")
	}
}

func TestAddSubtypeClosesTransitively(t *testing.T) {
	r := New(nil)
	boolT := PType{Name: "bool"}
	intT := PType{Name: "int"}
	numberT := PType{PkgPath: "numbers", Name: "Number"}

	r.AddSubtype(boolT, intT)
	r.AddSubtype(intT, numberT)

	if !r.Issubclass("bool", "numbers.Number") {
		t.Fatalf("expected bool <: Number via transitive closure through int")
	}
	if r.Issubclass("numbers.Number", "bool") {
		t.Fatalf("subtyping must not be symmetric")
	}
}

func TestAddSubtypeMergesExistingDescendants(t *testing.T) {
	r := New(nil)
	a, b, c := PType{Name: "A"}, PType{Name: "B"}, PType{Name: "C"}

	r.AddSubtype(a, b) // A <: B
	r.AddSubtype(b, c) // B <: C, should retroactively give A <: C

	if !r.Issubclass("A", "C") {
		t.Fatalf("expected A <: C after B <: C was asserted second")
	}
}

func TestGetTypeRegistersAndReturnsTag(t *testing.T) {
	r := New(nil)
	tag := r.GetType(PType{PkgPath: "example.com/pkg", Name: "Widget"})
	if tag != "example.com/pkg.Widget" {
		t.Fatalf("unexpected tag: %s", tag)
	}
	if !r.Issubclass(tag, tag) {
		t.Fatalf("GetType should register the type")
	}
}

type fakeLoader struct {
	subtypes map[string][]PType
	calls    int
}

func (f *fakeLoader) Subtypes(t PType) ([]PType, error) {
	f.calls++
	return f.subtypes[t.Tag()], nil
}

func TestSubclassesOfMergesLoaderDiscoveries(t *testing.T) {
	animal := PType{PkgPath: "zoo", Name: "Animal"}
	dog := PType{PkgPath: "zoo", Name: "Dog"}
	loader := &fakeLoader{subtypes: map[string][]PType{
		animal.Tag(): {dog},
	}}

	r := New(loader)
	subs, err := r.SubclassesOf(animal)
	if err != nil {
		t.Fatalf("SubclassesOf: %v", err)
	}

	found := false
	for _, s := range subs {
		if s.Tag() == dog.Tag() {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected loader-discovered Dog among subclasses of Animal, got %v", subs)
	}
	if loader.calls != 1 {
		t.Fatalf("expected exactly one loader call, got %d", loader.calls)
	}
}

func TestSubclassesOfWithoutLoaderUsesManualEdgesOnly(t *testing.T) {
	r := New(nil)
	base := PType{Name: "Base"}
	derived := PType{Name: "Derived"}
	r.AddSubtype(derived, base)

	subs, err := r.SubclassesOf(base)
	if err != nil {
		t.Fatalf("SubclassesOf: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected Base and Derived, got %v", subs)
	}
}
