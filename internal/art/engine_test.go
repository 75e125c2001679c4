package art

import (
	"testing"

	"github.com/radartdb/radart/internal/ttl"
	"github.com/radartdb/radart/internal/value"
)

func newTestEngine() *Engine {
	return NewEngine(ttl.NewClock(0))
}

func mustGet(t *testing.T, e *Engine, key string) *value.Value {
	t.Helper()
	v, ok := e.Get([]byte(key))
	if !ok {
		t.Fatalf("Get(%q): not found", key)
	}
	return v
}

func TestRoundTrip(t *testing.T) {
	e := newTestEngine()
	e.Set([]byte("foo"), value.NewString([]byte("bar")))

	v := mustGet(t, e, "foo")
	b, err := v.AsBytes()
	if err != nil || string(b) != "bar" {
		t.Fatalf("Get(foo) = (%q, %v), want (bar, nil)", b, err)
	}
	if e.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", e.Size())
	}
}

func TestDeleteIdempotent(t *testing.T) {
	e := newTestEngine()
	e.Set([]byte("k"), value.NewString([]byte("v")))

	if !e.Delete([]byte("k")) {
		t.Fatalf("first Delete should report true")
	}
	if e.Delete([]byte("k")) {
		t.Fatalf("second Delete should report false")
	}
	if _, ok := e.Get([]byte("k")); ok {
		t.Fatalf("key should be gone after delete")
	}
	if e.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", e.Size())
	}
}

// TestSplitRegisterIntermediateValue is the regression test named by
// spec.md 8: inserting "user:1" then "user:10" must leave "user:1"'s
// value reachable. This order does not split: "user:10" is appended as a
// child of the existing "user:1" node, which keeps its own value. The
// split path is exercised by TestSplitRegisterIntermediateValueReversed.
func TestSplitRegisterIntermediateValue(t *testing.T) {
	e := newTestEngine()
	e.Set([]byte("user:1"), value.NewString([]byte("one")))
	e.Set([]byte("user:10"), value.NewString([]byte("ten")))

	v1 := mustGet(t, e, "user:1")
	b1, _ := v1.AsBytes()
	if string(b1) != "one" {
		t.Fatalf("user:1 = %q, want one", b1)
	}

	v10 := mustGet(t, e, "user:10")
	b10, _ := v10.AsBytes()
	if string(b10) != "ten" {
		t.Fatalf("user:10 = %q, want ten", b10)
	}

	if e.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", e.Size())
	}
}

// TestSplitRegisterIntermediateValueReversed inserts the same two keys
// in the opposite order ("user:10" then "user:1"). This order takes the
// split path: "user:1" ends inside the "user:10" segment, so an
// intermediate node is created at "user:1" and must carry user:1's value
// directly. The observable result must be identical.
func TestSplitRegisterIntermediateValueReversed(t *testing.T) {
	e := newTestEngine()
	e.Set([]byte("user:10"), value.NewString([]byte("ten")))
	e.Set([]byte("user:1"), value.NewString([]byte("one")))

	b1, _ := mustGet(t, e, "user:1").AsBytes()
	if string(b1) != "one" {
		t.Fatalf("user:1 = %q, want one", b1)
	}
	b10, _ := mustGet(t, e, "user:10").AsBytes()
	if string(b10) != "ten" {
		t.Fatalf("user:10 = %q, want ten", b10)
	}
}

func TestPrefixGetOrdering(t *testing.T) {
	e := newTestEngine()
	keys := []string{"user:10", "user:2", "user:1", "user:20", "account:1"}
	for _, k := range keys {
		e.Set([]byte(k), value.NewString([]byte(k)))
	}

	got := e.PrefixGet([]byte("user:"))
	want := []string{"user:1", "user:10", "user:2", "user:20"}
	if len(got) != len(want) {
		t.Fatalf("PrefixGet returned %d entries, want %d", len(got), len(want))
	}
	for i, kv := range got {
		if string(kv.Key) != want[i] {
			t.Fatalf("PrefixGet[%d] = %q, want %q", i, kv.Key, want[i])
		}
	}
}

func TestDeleteCompressesDeadEnds(t *testing.T) {
	e := newTestEngine()
	e.Set([]byte("user:1"), value.NewString([]byte("one")))
	e.Set([]byte("user:10"), value.NewString([]byte("ten")))

	e.Delete([]byte("user:1"))
	e.Delete([]byte("user:10"))

	if e.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", e.Size())
	}
	// The tree must be left with only the root node after both deletes,
	// i.e. re-inserting an unrelated key must not find any leftover
	// branch structure from "user:".
	e.Set([]byte("zzz"), value.NewString([]byte("v")))
	got := e.PrefixGet([]byte("user:"))
	if len(got) != 0 {
		t.Fatalf("PrefixGet(user:) after full delete = %v, want empty", got)
	}
}

func TestExpirationLazy(t *testing.T) {
	clock := ttl.NewClock(1000)
	e := NewEngine(clock)
	e.SetWithDeadline([]byte("k"), value.NewString([]byte("v")), 1500)

	if _, ok := e.Get([]byte("k")); !ok {
		t.Fatalf("key should be live before deadline")
	}

	clock.Set(1500)
	if _, ok := e.Get([]byte("k")); ok {
		t.Fatalf("key should be expired at its deadline")
	}
	if e.Size() != 0 {
		t.Fatalf("Size() = %d, want 0 after lazy expiration", e.Size())
	}
}

func TestSweepEvictsExpired(t *testing.T) {
	clock := ttl.NewClock(0)
	e := NewEngine(clock)
	for i := 0; i < 30; i++ {
		k := []byte{byte('a' + i)}
		e.SetWithDeadline(k, value.NewString([]byte("v")), 100)
	}
	clock.Set(200)

	evicted := e.Sweep(ttl.SweepConfig{SampleSize: 20, Threshold: 0.25, MaxRounds: 16})
	if evicted == 0 {
		t.Fatalf("expected sweep to evict at least one expired key")
	}
	if e.Size() != 30-evicted {
		t.Fatalf("Size() = %d, want %d", e.Size(), 30-evicted)
	}
}

func TestOverflowChildren(t *testing.T) {
	e := newTestEngine()
	// 127 single-byte-suffix siblings exercises both the inline and
	// overflow child tiers off a shared "k" prefix node.
	for i := 0; i < 127; i++ {
		k := []byte{'k', byte(i)}
		e.Set(k, value.NewInt(int64(i)))
	}
	for i := 0; i < 127; i++ {
		k := []byte{'k', byte(i)}
		v, ok := e.Get(k)
		if !ok {
			t.Fatalf("key %d not found", i)
		}
		n, err := v.AsInt()
		if err != nil || n != int64(i) {
			t.Fatalf("key %d = (%d, %v), want (%d, nil)", i, n, err, i)
		}
	}
	if e.Size() != 127 {
		t.Fatalf("Size() = %d, want 127", e.Size())
	}
}

func TestWrongTypeSurfacesFromStoredValue(t *testing.T) {
	e := newTestEngine()
	e.Set([]byte("h"), value.NewHash())
	v := mustGet(t, e, "h")
	if _, err := v.AsInt(); err != value.ErrWrongType {
		t.Fatalf("AsInt() on hash = %v, want ErrWrongType", err)
	}
}
