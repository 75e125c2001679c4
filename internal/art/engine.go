package art

import (
	"errors"

	"github.com/radartdb/radart/internal/compactstr"
	"github.com/radartdb/radart/internal/slab"
	"github.com/radartdb/radart/internal/ttl"
	"github.com/radartdb/radart/internal/value"
)

// ErrNotFound is the error for callers that need to report a missing or
// expired key. No Engine method returns it; Engine lookups report absence
// through a boolean result.
var ErrNotFound = errors.New("key not found")

// DFA is the minimal interface pattern_get needs from a compiled glob or
// regex matcher. It is declared here, not in internal/glob, so the glob
// compiler can depend on art without art ever depending back on glob.
type DFA interface {
	// Step consumes one byte and returns the next state id, or -1 if no
	// transition exists from state for b (the match has failed and the
	// caller should abandon this branch of the tree).
	Step(state int, b byte) int
	// Accept reports whether state is an accepting state.
	Accept(state int) bool
	// Start returns the DFA's initial state id.
	Start() int
}

// defaultNodePoolSize is the node slab's initial capacity when the
// caller has no pre-warming hint (cmd/radartd's -node-pool flag).
const defaultNodePoolSize = 1024

// Engine is a single shard's Adaptive Radix Tree: a key/value index over
// byte-string keys with path compression, lazy+active TTL expiration,
// and prefix/pattern traversal (spec.md section 4 in full).
//
// An Engine is not safe for concurrent use; spec.md 5 assigns one Engine
// per shard, each driven by a single goroutine.
type Engine struct {
	nodes    *slab.Slab[node]
	overflow *slab.Slab[overflowBlock]
	root     slab.Index
	size     uint64
	clock    *ttl.Clock
	poolHint int
}

// NewEngine returns an empty Engine backed by a clock used for lazy and
// active TTL expiration.
func NewEngine(clock *ttl.Clock) *Engine {
	return NewEngineWithPoolSize(clock, defaultNodePoolSize)
}

// NewEngineWithPoolSize is NewEngine with an explicit node-slab
// pre-warming hint: nodePoolSize nodes are allocated up front instead of
// grown incrementally, the way _examples/sirgallo-mari's NodePoolSize /
// newMariNodePool pre-allocates its sync.Pool-backed node pool (see
// DESIGN.md). The overflow slab, being rarely populated (only nodes past
// the inline 9-child tier need it), always starts small regardless of
// this hint.
func NewEngineWithPoolSize(clock *ttl.Clock, nodePoolSize int) *Engine {
	if nodePoolSize <= 0 {
		nodePoolSize = defaultNodePoolSize
	}
	e := &Engine{
		nodes:    slab.New[node](nodePoolSize),
		overflow: slab.New[overflowBlock](64),
		clock:    clock,
		poolHint: nodePoolSize,
	}
	e.root = e.nodes.Insert(newNode(slab.Nil, 0, compactstr.New(nil)))
	return e
}

// childSetOwner implementation, delegating straight to the overflow slab.

func (e *Engine) allocOverflow() slab.Index {
	return e.overflow.Insert(overflowBlock{})
}

func (e *Engine) freeOverflow(idx slab.Index) {
	e.overflow.Remove(idx)
}

func (e *Engine) overflowAt(idx slab.Index) *overflowBlock {
	return e.overflow.Get(idx)
}

// Size returns the number of keys holding a value. Lazily-expired keys
// that have not yet been swept still count against size until the next
// access or sweep observes them; this matches Redis' own DBSIZE
// semantics, which does not proactively scan for expired keys either.
func (e *Engine) Size() int {
	return int(e.size)
}

// Flush discards every key, resetting the Engine to empty.
func (e *Engine) Flush() {
	e.nodes = slab.New[node](e.poolHint)
	e.overflow = slab.New[overflowBlock](64)
	e.root = e.nodes.Insert(newNode(slab.Nil, 0, compactstr.New(nil)))
	e.size = 0
}

// find walks from the root, following path-compressed segments, and
// returns the slab index of the node exactly matching key, or
// (slab.Nil, false) if no such node exists. It does not consider
// expiration.
func (e *Engine) find(key []byte) (slab.Index, bool) {
	cur := e.root
	rest := key

	for {
		n := e.nodes.Get(cur)
		plen := n.prefix.Len()

		if plen > 0 {
			if plen > len(rest) || n.prefix.CommonPrefixLen(rest) != plen {
				return slab.Nil, false
			}
			rest = rest[plen:]
		}

		if len(rest) == 0 {
			return cur, true
		}

		child, ok := n.children.findWithOwner(e, rest[0])
		if !ok {
			return slab.Nil, false
		}
		// child.prefix's own leading byte is rest[0] itself (every node's
		// compression segment starts with the radix byte that selects it
		// from its parent), so rest is not stripped here: the next
		// iteration's prefix match consumes it.
		cur = child
	}
}

// liveValue returns n's value if it carries one and it has not expired,
// lazily clearing it (and the key's slab tag) in place if it has.
func (e *Engine) liveValue(idx slab.Index) (*value.Value, bool) {
	n := e.nodes.Get(idx)
	if !n.hasValue {
		return nil, false
	}
	if e.clock.Expired(n.deadline) {
		e.clearValue(idx)
		return nil, false
	}
	return n.val, true
}

// clearValue removes idx's value and TTL tag without removing the node
// itself (the node may still be a branch point for other keys).
func (e *Engine) clearValue(idx slab.Index) {
	n := e.nodes.Get(idx)
	if !n.hasValue {
		return
	}
	n.hasValue = false
	n.val = nil
	if n.deadline != ttl.NoExpiration {
		e.nodes.SetTag(idx, false)
		n.deadline = ttl.NoExpiration
	}
	e.size--
	e.maybeCompress(idx)
}

// Get returns the value stored at key, applying lazy expiration.
func (e *Engine) Get(key []byte) (*value.Value, bool) {
	idx, ok := e.find(key)
	if !ok {
		return nil, false
	}
	return e.liveValue(idx)
}

// nodeFor returns the node holding key's value, creating the node
// (without a value) if necessary and create is set. It is the shared insertion path for
// Set and the in-place HSET/SADD/ZADD family of commands.
func (e *Engine) nodeFor(key []byte, create bool) (slab.Index, bool) {
	cur := e.root
	rest := key

	for {
		n := e.nodes.Get(cur)
		plen := n.prefix.Len()
		common := n.prefix.CommonPrefixLen(rest)

		if common < plen {
			if !create {
				return slab.Nil, false
			}
			return e.splitPrefix(cur, common, rest), true
		}
		rest = rest[plen:]

		if len(rest) == 0 {
			return cur, true
		}

		child, ok := n.children.findWithOwner(e, rest[0])
		if ok {
			// See find's comment: child's prefix already starts with
			// rest[0], so rest is left untouched for the next iteration.
			cur = child
			continue
		}

		if !create {
			return slab.Nil, false
		}
		return e.appendChild(cur, rest), true
	}
}

// splitPrefix breaks node cur's prefix at position common, inserting a
// new branch node there, then continues creating the rest of key below
// it. common is strictly less than cur's prefix length.
//
// This is the path regression-tested by spec.md 8's "user:10 then
// user:1" ordering: the intermediate node created by the split must be
// registered as a child of its new parent via children.insert, and if
// the split point lands exactly at the end of the remaining key, the
// intermediate node itself must carry the value, not a spurious child.
func (e *Engine) splitPrefix(cur slab.Index, common int, rest []byte) slab.Index {
	n := e.nodes.Get(cur)
	oldPrefix := n.prefix
	oldParent := n.parent
	oldParentRadix := n.parentRadix

	commonPrefix, curSuffix := oldPrefix.Split(common)

	// The new intermediate node takes cur's old slot in its parent.
	mid := newNode(oldParent, oldParentRadix, commonPrefix)
	midIdx := e.nodes.Insert(mid)

	if oldParent != slab.Nil {
		pn := e.nodes.Get(oldParent)
		pn.children.insert(e, oldParentRadix, midIdx)
	} else {
		e.root = midIdx
	}

	// Insert above may have grown the backing slab and invalidated any
	// pointer obtained before it; re-fetch cur's node before mutating it.
	n = e.nodes.Get(cur)
	n.prefix = curSuffix
	n.parent = midIdx
	n.parentRadix = curSuffix.At(0)
	midNode := e.nodes.Get(midIdx)
	midNode.children.insert(e, n.parentRadix, cur)

	keyRest := rest[common:]
	if len(keyRest) == 0 {
		// The key being inserted ends exactly at the split point: mid
		// itself is the target node for the value, registered in its
		// parent's child set above. No further descent needed.
		return midIdx
	}

	return e.appendChild(midIdx, keyRest)
}

// appendChild creates a brand new leaf node holding the remainder of the
// key as its prefix, and registers it in parent's child set.
func (e *Engine) appendChild(parent slab.Index, keyRest []byte) slab.Index {
	leaf := newNode(parent, keyRest[0], compactstr.New(keyRest))
	idx := e.nodes.Insert(leaf)
	e.nodes.Get(parent).children.insert(e, keyRest[0], idx)
	return idx
}

// Set stores val at key with no expiration, overwriting any prior value.
func (e *Engine) Set(key []byte, val *value.Value) {
	e.SetWithDeadline(key, val, ttl.NoExpiration)
}

// SetWithDeadline stores val at key, expiring at deadlineMs (ttl.NoExpiration
// for no expiry).
func (e *Engine) SetWithDeadline(key []byte, val *value.Value, deadlineMs uint64) {
	idx, _ := e.nodeFor(key, true)
	n := e.nodes.Get(idx)

	// An expired value that no access has observed yet is still counted
	// in size, so only a node with no value at all adds a key.
	hadValue := n.hasValue
	if n.deadline != ttl.NoExpiration {
		e.nodes.SetTag(idx, false)
	}

	n.hasValue = true
	n.val = val
	n.deadline = deadlineMs
	if deadlineMs != ttl.NoExpiration {
		e.nodes.SetTag(idx, true)
	}

	if !hadValue {
		e.size++
	}
}

// Delete removes key's value (and, transitively, any now-childless,
// valueless nodes left behind by its removal), returning true if key
// held a live value.
func (e *Engine) Delete(key []byte) bool {
	idx, ok := e.find(key)
	if !ok {
		return false
	}
	if _, live := e.liveValue(idx); !live {
		return false
	}
	e.clearValue(idx)
	return true
}

// maybeCompress removes idx if it is now a dead end (no value, no
// children), re-linking its parent, and recursively applies the same
// check upward. If idx has exactly one remaining child and no value of
// its own, its prefix is merged with that child's (path re-compression),
// per spec.md 4.D.iii.
func (e *Engine) maybeCompress(idx slab.Index) {
	if idx == e.root {
		return
	}
	n := e.nodes.Get(idx)
	if n.hasValue {
		return
	}

	total := n.children.total(e)
	switch total {
	case 0:
		parent := n.parent
		radix := n.parentRadix
		e.nodes.Get(parent).children.remove(e, radix)
		e.nodes.Remove(idx)
		e.maybeCompress(parent)

	case 1:
		childRadix, childIdx, _ := n.children.singleChild(e)
		child := e.nodes.Get(childIdx)

		merged := compactstr.New(append(append([]byte(nil), n.prefix.Bytes()...), child.prefix.Bytes()...))
		parent := n.parent
		radix := n.parentRadix

		child.prefix = merged
		child.parent = parent
		child.parentRadix = radix
		_ = childRadix

		e.nodes.Get(parent).children.insert(e, radix, childIdx)
		e.nodes.Remove(idx)
	}
}

// GetExpiration returns key's deadline (ttl.NoExpiration if it never
// expires) and whether key currently holds a live value.
func (e *Engine) GetExpiration(key []byte) (uint64, bool) {
	idx, ok := e.find(key)
	if !ok {
		return 0, false
	}
	if _, live := e.liveValue(idx); !live {
		return 0, false
	}
	return e.nodes.Get(idx).deadline, true
}

// SetExpiration sets key's deadline, returning false if key has no live
// value.
func (e *Engine) SetExpiration(key []byte, deadlineMs uint64) bool {
	idx, ok := e.find(key)
	if !ok {
		return false
	}
	if _, live := e.liveValue(idx); !live {
		return false
	}
	n := e.nodes.Get(idx)
	if n.deadline != ttl.NoExpiration {
		e.nodes.SetTag(idx, false)
	}
	n.deadline = deadlineMs
	if deadlineMs != ttl.NoExpiration {
		e.nodes.SetTag(idx, true)
	}
	return true
}

// ClearExpiration removes key's TTL, making it persistent. Returns false
// if key has no live value or was already persistent.
func (e *Engine) ClearExpiration(key []byte) bool {
	idx, ok := e.find(key)
	if !ok {
		return false
	}
	if _, live := e.liveValue(idx); !live {
		return false
	}
	n := e.nodes.Get(idx)
	if n.deadline == ttl.NoExpiration {
		return false
	}
	e.nodes.SetTag(idx, false)
	n.deadline = ttl.NoExpiration
	return true
}

// Sweep runs one active-expiration pass per cfg, sampling tagged
// (TTL-bearing) slots directly from the node slab and evicting any that
// have expired, continuing in batches while the expired fraction stays
// at or above cfg.Threshold (spec.md 4.E).
func (e *Engine) Sweep(cfg ttl.SweepConfig) (evicted int) {
	for round := 0; round < cfg.MaxRounds; round++ {
		sampled := 0
		expired := 0
		for i := 0; i < cfg.SampleSize; i++ {
			idx, ok := e.nodes.SampleTagged()
			if !ok {
				break
			}
			sampled++
			n := e.nodes.Get(idx)
			if e.clock.Expired(n.deadline) {
				e.clearValue(idx)
				expired++
				evicted++
			}
		}
		if sampled == 0 {
			break
		}
		if float64(expired)/float64(sampled) < cfg.Threshold {
			break
		}
	}
	return evicted
}
