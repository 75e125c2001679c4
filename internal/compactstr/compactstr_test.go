package compactstr

import "testing"

func TestInlineRoundTrip(t *testing.T) {
	s := New([]byte("short"))
	if s.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", s.Len())
	}
	if string(s.Bytes()) != "short" {
		t.Fatalf("Bytes() = %q, want short", s.Bytes())
	}
}

func TestHeapRoundTrip(t *testing.T) {
	long := "this string is definitely longer than fourteen bytes"
	s := New([]byte(long))
	if s.Len() != len(long) {
		t.Fatalf("Len() = %d, want %d", s.Len(), len(long))
	}
	if string(s.Bytes()) != long {
		t.Fatalf("Bytes() = %q, want %q", s.Bytes(), long)
	}
}

func TestBoundaryFourteenBytes(t *testing.T) {
	b := []byte("12345678901234") // exactly 14 bytes
	s := New(b)
	if s.heap != nil {
		t.Fatalf("expected 14-byte string to stay inline")
	}
	if string(s.Bytes()) != string(b) {
		t.Fatalf("Bytes() = %q, want %q", s.Bytes(), b)
	}

	b15 := []byte("123456789012345")
	s15 := New(b15)
	if s15.heap == nil {
		t.Fatalf("expected 15-byte string to spill to heap")
	}
}

func TestSplitInlineNoRealloc(t *testing.T) {
	s := New([]byte("user:1"))
	prefix, suffix := s.Split(5)
	if string(prefix.Bytes()) != "user:" {
		t.Fatalf("prefix = %q, want user:", prefix.Bytes())
	}
	if string(suffix.Bytes()) != "1" {
		t.Fatalf("suffix = %q, want 1", suffix.Bytes())
	}
	if prefix.heap != nil || suffix.heap != nil {
		t.Fatalf("short splits should stay inline")
	}
}

func TestCompareAndEqual(t *testing.T) {
	a := New([]byte("abc"))
	b := New([]byte("abd"))
	c := New([]byte("abc"))

	if a.Compare(&b) >= 0 {
		t.Fatalf("expected abc < abd")
	}
	if !a.Equal(&c) {
		t.Fatalf("expected abc == abc")
	}
}

func TestCommonPrefixLen(t *testing.T) {
	s := New([]byte("user:100"))
	if n := s.CommonPrefixLen([]byte("user:1")); n != 6 {
		t.Fatalf("CommonPrefixLen = %d, want 6", n)
	}
}

func TestTruncate(t *testing.T) {
	s := New([]byte("abcdef"))
	t2 := s.Truncate(3)
	if string(t2.Bytes()) != "abc" {
		t.Fatalf("Truncate(3) = %q, want abc", t2.Bytes())
	}
}
