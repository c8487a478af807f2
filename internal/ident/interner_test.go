package ident

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolveIDStability(t *testing.T) {
	in := New[string]()
	ids := []ID{
		in.Resolve("foo"),
		in.Resolve("bar"),
		in.Resolve("foo"),
	}
	want := []ID{1, 2, 1}
	for i := range ids {
		if ids[i] != want[i] {
			t.Fatalf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
	if in.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", in.Count())
	}
}

func TestInverse(t *testing.T) {
	in := New[string]()
	in.Resolve("a")
	in.Resolve("b")
	in.Resolve("c")
	inv := in.Inverse()
	if len(inv) != 3 {
		t.Fatalf("len(inverse) = %d, want 3", len(inv))
	}
	for _, name := range []string{"a", "b", "c"} {
		id := in.Resolve(name)
		if inv[id-1] != name {
			t.Fatalf("inverse[%d] = %q, want %q", id-1, inv[id-1], name)
		}
	}
}

func TestInverseOrderMatchesFirstSeenSequence(t *testing.T) {
	in := New[string]()
	in.Resolve("foo")
	in.Resolve("bar")
	in.Resolve("baz")
	in.Resolve("foo") // repeat; must not shift later entries

	got := in.Inverse()
	want := []string{"foo", "bar", "baz"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Inverse() mismatch (-want +got):\n%s", diff)
	}
}

func TestContiguousRange(t *testing.T) {
	in := New[int]()
	for i := 0; i < 50; i++ {
		in.Resolve(i)
	}
	seen := make([]bool, in.Count())
	for i := 0; i < 50; i++ {
		id := in.Resolve(i)
		if id < 1 || uint32(id) > in.Count() {
			t.Fatalf("id %d out of range [1, %d]", id, in.Count())
		}
		seen[id-1] = true
	}
	for i, ok := range seen {
		if !ok {
			t.Fatalf("id %d never assigned", i+1)
		}
	}
}
