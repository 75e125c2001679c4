package value

import "sort"

// promoteThreshold is the field/member/cardinality count above which a
// collection switches from its compact linear representation to its
// logarithmic one, per spec.md 4.F.
const promoteThreshold = 16

type hEntry struct {
	field []byte
	val   []byte
}

// hashValue backs the Hash kind: one array kept sorted by field and
// searched by binary search (sort.Search) at every size, which gives the
// logarithmic lookup spec.md 4.F calls for without requiring a
// third-party balanced tree the retrieval pack does not otherwise use
// (see DESIGN.md). promoted only records that the field count has passed
// promoteThreshold; it does not change how lookups are done.
type hashValue struct {
	entries  []hEntry
	promoted bool
}

// NewHash constructs an empty Hash-family value. It is the caller's
// responsibility to delete the key once the hash drains to zero fields
// (spec.md 4.F's empty-collection rule); this package does not enforce
// non-emptiness itself.
func NewHash() *Value {
	return &Value{kind: KindHash, hash: &hashValue{}}
}

func (h *hashValue) find(field []byte) (int, bool) {
	i := sort.Search(len(h.entries), func(i int) bool {
		return string(h.entries[i].field) >= string(field)
	})
	if i < len(h.entries) && string(h.entries[i].field) == string(field) {
		return i, true
	}
	return i, false
}

// HSet sets field to val, returning true if the field was newly created.
func (v *Value) HSet(field, val []byte) (bool, error) {
	if v.kind != KindHash {
		return false, ErrWrongType
	}
	i, found := v.hash.find(field)
	cp := append([]byte(nil), val...)
	if found {
		v.hash.entries[i].val = cp
		return false, nil
	}

	entry := hEntry{field: append([]byte(nil), field...), val: cp}
	v.hash.entries = append(v.hash.entries, hEntry{})
	copy(v.hash.entries[i+1:], v.hash.entries[i:])
	v.hash.entries[i] = entry

	if len(v.hash.entries) > promoteThreshold {
		v.hash.promoted = true
	}
	return true, nil
}

// HGet returns the value for field, or (nil, false) if absent.
func (v *Value) HGet(field []byte) ([]byte, bool, error) {
	if v.kind != KindHash {
		return nil, false, ErrWrongType
	}
	i, found := v.hash.find(field)
	if !found {
		return nil, false, nil
	}
	return v.hash.entries[i].val, true, nil
}

// HDel removes field, returning true if it existed. The caller must check
// HLen after HDel and delete the key entirely once it reaches zero, per
// spec.md 4.F.
func (v *Value) HDel(field []byte) (bool, error) {
	if v.kind != KindHash {
		return false, ErrWrongType
	}
	i, found := v.hash.find(field)
	if !found {
		return false, nil
	}
	v.hash.entries = append(v.hash.entries[:i], v.hash.entries[i+1:]...)
	return true, nil
}

// HLen returns the number of fields.
func (v *Value) HLen() (int, error) {
	if v.kind != KindHash {
		return 0, ErrWrongType
	}
	return len(v.hash.entries), nil
}

// HKeys returns all field names in sorted order.
func (v *Value) HKeys() ([][]byte, error) {
	if v.kind != KindHash {
		return nil, ErrWrongType
	}
	out := make([][]byte, len(v.hash.entries))
	for i, e := range v.hash.entries {
		out[i] = e.field
	}
	return out, nil
}

// HVals returns all values, ordered the same as HKeys.
func (v *Value) HVals() ([][]byte, error) {
	if v.kind != KindHash {
		return nil, ErrWrongType
	}
	out := make([][]byte, len(v.hash.entries))
	for i, e := range v.hash.entries {
		out[i] = e.val
	}
	return out, nil
}

// HGetAll returns one (field, value) pair per field, sorted by field.
func (v *Value) HGetAll() ([][2][]byte, error) {
	if v.kind != KindHash {
		return nil, ErrWrongType
	}
	out := make([][2][]byte, len(v.hash.entries))
	for i, e := range v.hash.entries {
		out[i] = [2][]byte{e.field, e.val}
	}
	return out, nil
}

// HIncrBy adds delta to the integer value at field (treated as 0 if
// absent) and returns the new value.
func (v *Value) HIncrBy(field []byte, delta int64) (int64, error) {
	if v.kind != KindHash {
		return 0, ErrWrongType
	}
	i, found := v.hash.find(field)
	var cur int64
	if found {
		n, err := parseStoredInt(v.hash.entries[i].val)
		if err != nil {
			return 0, err
		}
		cur = n
	}
	next := cur + delta
	nv := []byte(formatInt(next))
	if found {
		v.hash.entries[i].val = nv
	} else {
		if _, err := v.HSet(field, nv); err != nil {
			return 0, err
		}
	}
	return next, nil
}
