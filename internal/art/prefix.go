package art

import (
	"github.com/radartdb/radart/internal/slab"
	"github.com/radartdb/radart/internal/value"
)

// KeyValue pairs a reconstructed key with its live value, returned by
// the tree-wide traversal operations.
type KeyValue struct {
	Key   []byte
	Value *value.Value
}

// descend walks from the root following prefix, returning the node at
// which prefix's bytes are fully consumed (the subtree root for
// everything prefix-matching prefix) and the accumulated key bytes up to
// that node. ok is false if no such node exists.
func (e *Engine) descend(prefix []byte) (idx slab.Index, accumulated []byte, ok bool) {
	cur := e.root
	rest := prefix
	acc := make([]byte, 0, len(prefix))

	for {
		n := e.nodes.Get(cur)
		plen := n.prefix.Len()

		if len(rest) == 0 {
			return cur, acc, true
		}

		if plen >= len(rest) {
			// The remaining search prefix is fully covered by (or equal
			// to) this node's own prefix: n.prefix must start with rest.
			if n.prefix.CommonPrefixLen(rest) != len(rest) {
				return slab.Nil, nil, false
			}
			return cur, acc, true
		}

		if n.prefix.CommonPrefixLen(rest) != plen {
			return slab.Nil, nil, false
		}
		acc = append(acc, n.prefix.Bytes()...)
		rest = rest[plen:]

		child, found := n.children.findWithOwner(e, rest[0])
		if !found {
			return slab.Nil, nil, false
		}
		// child.prefix starts with rest[0] itself; don't double-consume it.
		cur = child
	}
}

// collect walks the subtree rooted at idx (whose accumulated key so far
// is prefix) in ascending radix order, appending every live key/value
// pair to out. Expired values are lazily cleared as they are observed.
func (e *Engine) collect(idx slab.Index, prefix []byte, out *[]KeyValue) {
	n := e.nodes.Get(idx)
	key := append(append([]byte(nil), prefix...), n.prefix.Bytes()...)

	if v, live := e.liveValue(idx); live {
		*out = append(*out, KeyValue{Key: key, Value: v})
	}

	for _, rc := range n.children.iter(e) {
		e.collect(rc.Idx, key, out)
	}
}

// PrefixGet returns every live key/value pair whose key starts with
// prefix, in ascending lexicographic (radix) order, per spec.md 4.D.iv.
func (e *Engine) PrefixGet(prefix []byte) []KeyValue {
	idx, acc, ok := e.descend(prefix)
	if !ok {
		return nil
	}
	out := make([]KeyValue, 0)
	e.collect(idx, acc, &out)
	return out
}

// PrefixDelete removes every key starting with prefix, returning the
// count of keys that held a live value.
func (e *Engine) PrefixDelete(prefix []byte) int {
	matches := e.PrefixGet(prefix)
	for _, kv := range matches {
		e.Delete(kv.Key)
	}
	return len(matches)
}

// PatternGet returns every live key/value pair whose key is accepted by
// dfa, in ascending radix order, per spec.md 4.D.iv. Unlike PrefixGet,
// every node in the tree may need visiting, since a DFA-driven glob or
// regex pattern has no guaranteed literal prefix to descend directly to.
func (e *Engine) PatternGet(dfa DFA) []KeyValue {
	out := make([]KeyValue, 0)
	e.walkPattern(e.root, nil, dfa.Start(), dfa, &out)
	return out
}

func (e *Engine) walkPattern(idx slab.Index, keyPrefix []byte, state int, dfa DFA, out *[]KeyValue) {
	n := e.nodes.Get(idx)

	key := append([]byte(nil), keyPrefix...)
	st := state
	for _, b := range n.prefix.Bytes() {
		st = dfa.Step(st, b)
		if st < 0 {
			return
		}
		key = append(key, b)
	}

	if dfa.Accept(st) {
		if v, live := e.liveValue(idx); live {
			*out = append(*out, KeyValue{Key: key, Value: v})
		}
	}

	for _, rc := range n.children.iter(e) {
		e.walkPattern(rc.Idx, key, st, dfa, out)
	}
}

// PrefixLiteral reports whether pattern has no glob/regex metacharacters
// past a leading literal run, returning that run; isPureLiteralPrefix is
// true only for the exact `literal*` shape. The KEYS command uses it to
// send such patterns to PrefixGet instead of compiling a glob (spec.md
// 4.D.iv: "prefix* patterns bypass pattern matching entirely"); it lives
// here, rather than in internal/glob, so Engine callers can special-case
// it without an import of internal/glob.
func PrefixLiteral(pattern []byte) (prefix []byte, isPureLiteralPrefix bool) {
	for i, b := range pattern {
		switch b {
		case '*':
			if i == len(pattern)-1 {
				return pattern[:i], true
			}
			return pattern[:i], false
		case '?', '[', '\\':
			return pattern[:i], false
		}
	}
	return pattern, false
}
