// Package compactstr implements the inline-or-heap byte string used for
// path compression segments in the ART (spec.md 4.B). Short byte strings
// (<=14 bytes) never touch the heap; longer ones fall back to a plain
// []byte.
package compactstr

const inlineCap = 14

// Str is a value type: content up to inlineCap bytes lives directly
// inside the struct, avoiding an allocation for the overwhelming
// majority of ART compression segments (path-compressed runs of a
// string-keyed workload are rarely long). The struct is not 16 bytes: it
// carries the length byte, the 14 inline bytes and a heap slice header,
// which is 40 bytes on 64-bit platforms.
type Str struct {
	length byte
	inline [inlineCap]byte
	heap   []byte // non-nil only when length > inlineCap
}

// New constructs a Str from a byte slice, copying its contents so the
// caller's backing array can be reused or mutated afterward.
func New(b []byte) Str {
	var s Str
	if len(b) <= inlineCap {
		s.length = byte(len(b))
		copy(s.inline[:], b)
		return s
	}

	s.length = 0 // unused for heap strings; a non-nil heap marks "overflowed to heap"
	s.heap = append([]byte(nil), b...)
	return s
}

// Len returns the logical length of the string.
func (s *Str) Len() int {
	if s.heap != nil {
		return len(s.heap)
	}
	return int(s.length)
}

// Bytes returns the string's content. The returned slice aliases internal
// storage for inline strings and must not be mutated by the caller.
func (s *Str) Bytes() []byte {
	if s.heap != nil {
		return s.heap
	}
	return s.inline[:s.length]
}

// At returns the byte at position i.
func (s *Str) At(i int) byte {
	return s.Bytes()[i]
}

// Truncate returns a new Str holding the first n bytes (n <= Len()).
func (s *Str) Truncate(n int) Str {
	return New(s.Bytes()[:n])
}

// Split divides the string at index n into (prefix, suffix). When the
// prefix fits inline, no allocation is performed for it regardless of
// whether the original Str was heap-backed.
func (s *Str) Split(n int) (Str, Str) {
	b := s.Bytes()
	return New(b[:n]), New(b[n:])
}

// Compare performs a byte-wise lexicographic comparison, returning a
// negative, zero, or positive value like bytes.Compare.
func (s *Str) Compare(other *Str) int {
	a, b := s.Bytes(), other.Bytes()
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// Equal reports whether s and other hold identical content.
func (s *Str) Equal(other *Str) bool {
	return s.Compare(other) == 0
}

// CommonPrefixLen returns the length of the longest common prefix between
// s and b.
func (s *Str) CommonPrefixLen(b []byte) int {
	a := s.Bytes()
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}
