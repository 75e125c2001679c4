package slab

import "testing"

func TestInsertGetRemove(t *testing.T) {
	s := New[string](0)

	a := s.Insert("alpha")
	b := s.Insert("beta")

	if got := *s.Get(a); got != "alpha" {
		t.Fatalf("Get(a) = %q, want alpha", got)
	}
	if got := *s.Get(b); got != "beta" {
		t.Fatalf("Get(b) = %q, want beta", got)
	}
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	removed := s.Remove(a)
	if removed != "alpha" {
		t.Fatalf("Remove(a) = %q, want alpha", removed)
	}
	if s.Valid(a) {
		t.Fatalf("a should be invalid after Remove")
	}
	if s.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", s.Len())
	}
}

func TestIndexReuse(t *testing.T) {
	s := New[int](0)

	a := s.Insert(1)
	s.Remove(a)
	b := s.Insert(2)

	if a != b {
		t.Fatalf("expected freed index %d to be reused, got %d", a, b)
	}
}

func TestTagSampleDistribution(t *testing.T) {
	s := New[int](0)

	idxs := make([]Index, 0, 10)
	for i := 0; i < 10; i++ {
		idxs = append(idxs, s.Insert(i))
	}

	if _, ok := s.SampleTagged(); ok {
		t.Fatalf("SampleTagged should report nothing before any tag is set")
	}

	for _, idx := range idxs {
		s.SetTag(idx, true)
	}
	if s.TaggedLen() != len(idxs) {
		t.Fatalf("TaggedLen() = %d, want %d", s.TaggedLen(), len(idxs))
	}

	seen := map[Index]bool{}
	for i := 0; i < 500; i++ {
		idx, ok := s.SampleTagged()
		if !ok {
			t.Fatalf("SampleTagged() reported no tagged slot")
		}
		seen[idx] = true
	}
	if len(seen) != len(idxs) {
		t.Fatalf("sampling 500 times over %d tagged slots only observed %d distinct slots", len(idxs), len(seen))
	}

	s.SetTag(idxs[0], false)
	if s.TaggedLen() != len(idxs)-1 {
		t.Fatalf("TaggedLen() after untag = %d, want %d", s.TaggedLen(), len(idxs)-1)
	}
	for i := 0; i < 200; i++ {
		idx, _ := s.SampleTagged()
		if idx == idxs[0] {
			t.Fatalf("untagged slot %d was sampled", idxs[0])
		}
	}
}

func TestRemoveUntagsSlot(t *testing.T) {
	s := New[int](0)
	a := s.Insert(1)
	s.SetTag(a, true)
	s.Remove(a)

	if s.TaggedLen() != 0 {
		t.Fatalf("TaggedLen() after Remove = %d, want 0", s.TaggedLen())
	}
}
