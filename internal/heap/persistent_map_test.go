package heap

import "testing"

type intKey int

func (k intKey) Hash() uint32 { return uint32(k) }

func TestPersistentMapSetGetDelete(t *testing.T) {
	m := Empty[intKey, string]()
	if m.Len() != 0 {
		t.Fatalf("expected empty map, got len %d", m.Len())
	}

	const n = 500 // forces branch splitting well past the inline-bucket threshold
	for i := 0; i < n; i++ {
		m = m.Set(intKey(i), "v")
	}
	if m.Len() != n {
		t.Fatalf("expected len %d, got %d", n, m.Len())
	}
	for i := 0; i < n; i++ {
		v, ok := m.Get(intKey(i))
		if !ok || v != "v" {
			t.Fatalf("missing key %d", i)
		}
	}

	m2 := m.Delete(intKey(3))
	if m2.Len() != n-1 {
		t.Fatalf("expected len %d after delete, got %d", n-1, m2.Len())
	}
	if _, ok := m2.Get(intKey(3)); ok {
		t.Fatalf("key 3 should be gone")
	}
	// Original map is untouched by the delete (persistence).
	if _, ok := m.Get(intKey(3)); !ok {
		t.Fatalf("original map must be unaffected by Delete on the derived map")
	}
}

func TestPersistentMapSetOverwritesSharesRest(t *testing.T) {
	m := Empty[intKey, string]()
	m = m.Set(intKey(1), "a").Set(intKey(2), "b")
	m2 := m.Set(intKey(1), "z")

	if v, _ := m.Get(intKey(1)); v != "a" {
		t.Fatalf("original map mutated, got %q", v)
	}
	if v, _ := m2.Get(intKey(1)); v != "z" {
		t.Fatalf("expected updated value z, got %q", v)
	}
	if v, _ := m2.Get(intKey(2)); v != "b" {
		t.Fatalf("expected untouched key 2 to carry over, got %q", v)
	}
}

func TestPersistentMapRange(t *testing.T) {
	m := Empty[intKey, int]()
	for i := 0; i < 20; i++ {
		m = m.Set(intKey(i), i*i)
	}
	seen := map[intKey]int{}
	m.Range(func(k intKey, v int) bool {
		seen[k] = v
		return true
	})
	if len(seen) != 20 {
		t.Fatalf("expected 20 entries visited, got %d", len(seen))
	}
	for i := 0; i < 20; i++ {
		if seen[intKey(i)] != i*i {
			t.Fatalf("wrong value for key %d: %d", i, seen[intKey(i)])
		}
	}
}
