package art

import (
	"github.com/radartdb/radart/internal/compactstr"
	"github.com/radartdb/radart/internal/slab"
	"github.com/radartdb/radart/internal/ttl"
	"github.com/radartdb/radart/internal/value"
)

// node is the single fixed-layout ART node type (spec.md 4.C): every
// node, whether a branch, a leaf, or both at once, has the same struct
// shape. There is no separate leaf type and no cascade of node-size
// variants; fan-out beyond the nine-entry inline tier spills into an
// overflow block, which holds every further child (up to 247, one per
// remaining byte value).
type node struct {
	parent      slab.Index // slab.Nil for the root
	parentRadix byte       // the byte this node hangs off its parent under

	prefix compactstr.Str // the path-compressed key segment this node owns

	hasValue bool
	val      *value.Value

	deadline uint64 // ttl.NoExpiration if the key never expires

	children childSet
}

func newNode(parent slab.Index, parentRadix byte, prefix compactstr.Str) node {
	return node{
		parent:      parent,
		parentRadix: parentRadix,
		prefix:      prefix,
		deadline:    ttl.NoExpiration,
	}
}
