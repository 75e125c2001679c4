package value

import "sort"

type zEntry struct {
	score  float64
	member string
}

func zLess(a, b zEntry) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.member < b.member
}

// zsetValue backs the SortedSet kind: a score-then-member ordered array
// for ZRANGE, plus (once promoted) a member->score index for O(1) ZSCORE,
// per spec.md 4.F. Below promoteThreshold, ZSCORE falls back to a linear
// scan of the same ordered array rather than paying for the index.
type zsetValue struct {
	entries  []zEntry // always kept sorted by (score, member)
	index    map[string]float64
	promoted bool
}

// NewSortedSet constructs an empty SortedSet-family value.
func NewSortedSet() *Value {
	return &Value{kind: KindSortedSet, zset: &zsetValue{}}
}

func (z *zsetValue) findByMember(member string) (int, bool) {
	for i, e := range z.entries {
		if e.member == member {
			return i, true
		}
	}
	return -1, false
}

func (z *zsetValue) insertSorted(e zEntry) {
	i := sort.Search(len(z.entries), func(i int) bool {
		return !zLess(z.entries[i], e)
	})
	z.entries = append(z.entries, zEntry{})
	copy(z.entries[i+1:], z.entries[i:])
	z.entries[i] = e
}

func (z *zsetValue) removeAt(i int) {
	z.entries = append(z.entries[:i], z.entries[i+1:]...)
}

func (z *zsetValue) maybePromote() {
	if !z.promoted && len(z.entries) > promoteThreshold {
		z.index = make(map[string]float64, len(z.entries))
		for _, e := range z.entries {
			z.index[e.member] = e.score
		}
		z.promoted = true
	}
}

// ZAdd inserts or updates member's score, returning true if member is new.
func (v *Value) ZAdd(member []byte, score float64) (bool, error) {
	if v.kind != KindSortedSet {
		return false, ErrWrongType
	}
	m := string(member)
	z := v.zset

	if i, found := z.findByMember(m); found {
		z.removeAt(i)
		z.insertSorted(zEntry{score: score, member: m})
		if z.promoted {
			z.index[m] = score
		}
		return false, nil
	}

	z.insertSorted(zEntry{score: score, member: m})
	if z.promoted {
		z.index[m] = score
	}
	z.maybePromote()
	return true, nil
}

// ZScore returns the stored score for member.
func (v *Value) ZScore(member []byte) (float64, bool, error) {
	if v.kind != KindSortedSet {
		return 0, false, ErrWrongType
	}
	z := v.zset
	m := string(member)
	if z.promoted {
		s, ok := z.index[m]
		return s, ok, nil
	}
	if i, found := z.findByMember(m); found {
		return z.entries[i].score, true, nil
	}
	return 0, false, nil
}

// ZRem removes member, returning true if it was present. The caller must
// delete the key once ZCard reaches zero, per spec.md 4.F.
func (v *Value) ZRem(member []byte) (bool, error) {
	if v.kind != KindSortedSet {
		return false, ErrWrongType
	}
	z := v.zset
	m := string(member)
	i, found := z.findByMember(m)
	if !found {
		return false, nil
	}
	z.removeAt(i)
	if z.promoted {
		delete(z.index, m)
	}
	return true, nil
}

// ZCard returns the cardinality.
func (v *Value) ZCard() (int, error) {
	if v.kind != KindSortedSet {
		return 0, ErrWrongType
	}
	return len(v.zset.entries), nil
}

// ZIncrBy is the composition of current-score lookup (0 if absent) plus
// re-insertion with the new score, per spec.md 4.F.
func (v *Value) ZIncrBy(member []byte, delta float64) (float64, error) {
	if v.kind != KindSortedSet {
		return 0, ErrWrongType
	}
	cur, _, err := v.ZScore(member)
	if err != nil {
		return 0, err
	}
	next := cur + delta
	if _, err := v.ZAdd(member, next); err != nil {
		return 0, err
	}
	return next, nil
}

// ZRangeEntry is one (member, score) pair returned by ZRange.
type ZRangeEntry struct {
	Member []byte
	Score  float64
}

// ZRange returns entries in [start, stop] using Redis' negative-index
// convention (-1 is the last element), ordered ascending by (score,
// member), per spec.md 4.F.
func (v *Value) ZRange(start, stop int) ([]ZRangeEntry, error) {
	if v.kind != KindSortedSet {
		return nil, ErrWrongType
	}
	n := len(v.zset.entries)
	start = normalizeIndex(start, n)
	stop = normalizeIndex(stop, n)
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || n == 0 {
		return nil, nil
	}

	out := make([]ZRangeEntry, 0, stop-start+1)
	for _, e := range v.zset.entries[start : stop+1] {
		out = append(out, ZRangeEntry{Member: []byte(e.member), Score: e.score})
	}
	return out, nil
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return i
}
