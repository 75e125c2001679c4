package art

import "github.com/radartdb/radart/internal/slab"

// inlineCap is the width of a node's inline child tier. Most interior
// nodes in string-keyed workloads have low fan-out, so paying for a
// 256-entry table is wasteful (spec.md 4.C); nine entries are checked by
// a plain linear scan, like the teacher's Node64 does for its low-fanout
// tier.
const inlineCap = 9

// overflowCap is the nominal size of the second child-set tier (9+118 =
// 127 children). It is not enforced: the overflow block's children slice
// grows with every spilled radix byte, so a node can hold a child for
// each of the 256 byte values.
const overflowCap = 118

// overflowBlock is the slab-allocated second tier of a node's child set,
// allocated lazily on first spill and freed once it empties again.
type overflowBlock struct {
	presence presenceBitmap
	children []slab.Index // kept in popcount (radix) order, len == presence.popcount()
}

// childSet is embedded directly in node; it never allocates on its own
// for a node with nine or fewer children.
type childSet struct {
	count      uint8
	keys       [inlineCap]byte
	idx        [inlineCap]slab.Index
	overflow   slab.Index // index into the overflow slab, slab.Nil if unused
	hasOverlow bool
}

// childSetOwner is implemented by Engine; it is the only place a
// childSet reaches outside its own node to allocate/free an overflow
// block.
type childSetOwner interface {
	allocOverflow() slab.Index
	freeOverflow(slab.Index)
	overflowAt(slab.Index) *overflowBlock
}

func (c *childSet) find(radix byte) (slab.Index, bool) {
	for i := uint8(0); i < c.count; i++ {
		if c.keys[i] == radix {
			return c.idx[i], true
		}
	}
	if c.hasOverlow {
		return slab.Nil, false // overflow lookup happens in findWithOwner
	}
	return slab.Nil, false
}

func (c *childSet) findWithOwner(owner childSetOwner, radix byte) (slab.Index, bool) {
	for i := uint8(0); i < c.count; i++ {
		if c.keys[i] == radix {
			return c.idx[i], true
		}
	}
	if !c.hasOverlow {
		return slab.Nil, false
	}
	ob := owner.overflowAt(c.overflow)
	if !ob.presence.get(radix) {
		return slab.Nil, false
	}
	pos := ob.presence.rank(radix)
	return ob.children[pos], true
}

// insert adds (radix, idx), spilling to the overflow tier when the
// inline array is full.
func (c *childSet) insert(owner childSetOwner, radix byte, idx slab.Index) {
	for i := uint8(0); i < c.count; i++ {
		if c.keys[i] == radix {
			c.idx[i] = idx
			return
		}
	}

	if int(c.count) < inlineCap {
		c.keys[c.count] = radix
		c.idx[c.count] = idx
		c.count++
		return
	}

	if !c.hasOverlow {
		c.overflow = owner.allocOverflow()
		c.hasOverlow = true
	}
	ob := owner.overflowAt(c.overflow)
	if ob.presence.get(radix) {
		pos := ob.presence.rank(radix)
		ob.children[pos] = idx
		return
	}
	pos := ob.presence.rank(radix)
	ob.children = append(ob.children, slab.Nil)
	copy(ob.children[pos+1:], ob.children[pos:])
	ob.children[pos] = idx
	ob.presence.set(radix)
}

// remove deletes radix's entry, freeing the overflow block once it
// empties.
func (c *childSet) remove(owner childSetOwner, radix byte) (slab.Index, bool) {
	for i := uint8(0); i < c.count; i++ {
		if c.keys[i] == radix {
			idx := c.idx[i]
			last := c.count - 1
			c.keys[i] = c.keys[last]
			c.idx[i] = c.idx[last]
			c.count = last
			return idx, true
		}
	}

	if !c.hasOverlow {
		return slab.Nil, false
	}
	ob := owner.overflowAt(c.overflow)
	if !ob.presence.get(radix) {
		return slab.Nil, false
	}
	pos := ob.presence.rank(radix)
	idx := ob.children[pos]
	ob.children = append(ob.children[:pos], ob.children[pos+1:]...)
	ob.presence.clear(radix)

	if ob.presence.popcount() == 0 {
		owner.freeOverflow(c.overflow)
		c.hasOverlow = false
		c.overflow = slab.Nil
	}
	return idx, true
}

// total returns the number of children across both tiers.
func (c *childSet) total(owner childSetOwner) int {
	n := int(c.count)
	if c.hasOverlow {
		n += owner.overflowAt(c.overflow).presence.popcount()
	}
	return n
}

// singleChild returns the node's unique child, used by auto-
// recompression on delete (spec.md 4.D.iii).
func (c *childSet) singleChild(owner childSetOwner) (byte, slab.Index, bool) {
	if c.total(owner) != 1 {
		return 0, slab.Nil, false
	}
	if c.count == 1 {
		return c.keys[0], c.idx[0], true
	}
	ob := owner.overflowAt(c.overflow)
	for b := 0; b < 256; b++ {
		if ob.presence.get(byte(b)) {
			return byte(b), ob.children[ob.presence.rank(byte(b))], true
		}
	}
	return 0, slab.Nil, false
}

// radixChild pairs a branching byte with its child slab index, returned
// by iter() in ascending radix order.
type radixChild struct {
	Radix byte
	Idx   slab.Index
}

// iter returns every (radix, idx) pair in strictly ascending radix order,
// which prefix_get and pattern_get rely on for deterministic enumeration
// (spec.md 4.C, 4.D.iv).
func (c *childSet) iter(owner childSetOwner) []radixChild {
	out := make([]radixChild, 0, c.total(owner))

	inline := make([]radixChild, c.count)
	for i := uint8(0); i < c.count; i++ {
		inline[i] = radixChild{Radix: c.keys[i], Idx: c.idx[i]}
	}
	// insertion sort: at most nine elements, never worth anything fancier.
	for i := 1; i < len(inline); i++ {
		for j := i; j > 0 && inline[j-1].Radix > inline[j].Radix; j-- {
			inline[j-1], inline[j] = inline[j], inline[j-1]
		}
	}

	if !c.hasOverlow {
		return append(out, inline...)
	}

	ob := owner.overflowAt(c.overflow)
	oi := 0
	ii := 0
	for b := 0; b < 256 && (ii < len(inline) || oi < len(ob.children)); b++ {
		for ii < len(inline) && inline[ii].Radix == byte(b) {
			out = append(out, inline[ii])
			ii++
		}
		if ob.presence.get(byte(b)) {
			out = append(out, radixChild{Radix: byte(b), Idx: ob.children[oi]})
			oi++
		}
	}
	for ; ii < len(inline); ii++ {
		out = append(out, inline[ii])
	}
	return out
}
