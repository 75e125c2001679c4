package value

import (
	"sort"

	set3 "github.com/TomTonic/Set3"
)

// setValue backs the Set kind. Below promoteThreshold members live in a
// sorted []byte-of-strings linear array; above it, membership moves onto
// github.com/TomTonic/Set3 — the retrieval pack's own generic set
// implementation, reused here for exactly the concern it was built for
// (see DESIGN.md).
type setValue struct {
	small    []string // sorted, used while !promoted
	large    *set3.Set3[string]
	promoted bool
}

// NewSet constructs an empty Set-family value.
func NewSet() *Value {
	return &Value{kind: KindSet, set: &setValue{}}
}

func (s *setValue) findSmall(m string) (int, bool) {
	i := sort.SearchStrings(s.small, m)
	return i, i < len(s.small) && s.small[i] == m
}

// SAdd adds member, returning true if it was newly added.
func (v *Value) SAdd(member []byte) (bool, error) {
	if v.kind != KindSet {
		return false, ErrWrongType
	}
	m := string(member)
	s := v.set

	if s.promoted {
		if s.large.Contains(m) {
			return false, nil
		}
		s.large.Add(m)
		return true, nil
	}

	i, found := s.findSmall(m)
	if found {
		return false, nil
	}
	s.small = append(s.small, "")
	copy(s.small[i+1:], s.small[i:])
	s.small[i] = m

	if len(s.small) > promoteThreshold {
		s.large = set3.EmptyWithCapacity[string](uint32(len(s.small)))
		for _, mm := range s.small {
			s.large.Add(mm)
		}
		s.small = nil
		s.promoted = true
	}
	return true, nil
}

// SRem removes member, returning true if it was present.
func (v *Value) SRem(member []byte) (bool, error) {
	if v.kind != KindSet {
		return false, ErrWrongType
	}
	m := string(member)
	s := v.set

	if s.promoted {
		if !s.large.Contains(m) {
			return false, nil
		}
		s.large.Remove(m)
		return true, nil
	}

	i, found := s.findSmall(m)
	if !found {
		return false, nil
	}
	s.small = append(s.small[:i], s.small[i+1:]...)
	return true, nil
}

// SIsMember reports whether member is present.
func (v *Value) SIsMember(member []byte) (bool, error) {
	if v.kind != KindSet {
		return false, ErrWrongType
	}
	m := string(member)
	s := v.set
	if s.promoted {
		return s.large.Contains(m), nil
	}
	_, found := s.findSmall(m)
	return found, nil
}

// SCard returns the cardinality of the set.
func (v *Value) SCard() (int, error) {
	if v.kind != KindSet {
		return 0, ErrWrongType
	}
	s := v.set
	if s.promoted {
		return s.large.Len(), nil
	}
	return len(s.small), nil
}

// SMembers returns all members in sorted order.
func (v *Value) SMembers() ([][]byte, error) {
	if v.kind != KindSet {
		return nil, ErrWrongType
	}
	s := v.set
	var members []string
	if s.promoted {
		members = s.large.ToSlice()
		sort.Strings(members)
	} else {
		members = s.small
	}
	out := make([][]byte, len(members))
	for i, m := range members {
		out[i] = []byte(m)
	}
	return out, nil
}

// SPop removes and returns up to count members (SPOP without a count
// argument is modeled as count==1 by the caller).
func (v *Value) SPop(count int) ([][]byte, error) {
	members, err := v.SMembers()
	if err != nil {
		return nil, err
	}
	if count > len(members) {
		count = len(members)
	}
	out := members[:count]
	for _, m := range out {
		if _, err := v.SRem(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}
