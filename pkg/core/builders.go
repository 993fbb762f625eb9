package core

// Graph-building conveniences for embedders (and the compiler): each
// allocates a node's cells and links its children in one call,
// returning the pointer that names the new node. Binder-bearing nodes
// start with Nil binder slots; occurrences wire themselves up through
// Link when they are installed.

// NewLamNode allocates an unbound lambda and returns its base position
// (for binding a Var later) alongside its pointer. The body slot is
// linked to body, which may be Nil for a shell to fill in afterwards.
func NewLamNode(h *Heap, body Ptr) (uint32, Ptr) {
	pos := h.Alloc(2)
	h.Set(pos, Nil)
	Link(h, pos+1, body)
	return pos, NewPtr(TagLam, pos, 0, 0)
}

// NewVarPtr returns an occurrence of the lambda at lamPos. Installing
// it with Link establishes the back-edge.
func NewVarPtr(lamPos uint32) Ptr {
	return NewPtr(TagVar, lamPos, 0, 0)
}

// NewAppNode allocates an application of fn to arg.
func NewAppNode(h *Heap, fn, arg Ptr) Ptr {
	pos := h.Alloc(2)
	Link(h, pos, fn)
	Link(h, pos+1, arg)
	return NewPtr(TagApp, pos, 0, 0)
}

// NewParNode allocates a fan node of the given color.
func NewParNode(h *Heap, color uint8, left, right Ptr) Ptr {
	pos := h.Alloc(2)
	Link(h, pos, left)
	Link(h, pos+1, right)
	return NewPtr(TagPar, pos, color, 0)
}

// NewDupNode allocates a duplicator of the given color over expr and
// returns its two projections. Both carry the duplicator's base; their
// back-edges materialize when the projections are linked somewhere.
func NewDupNode(h *Heap, color uint8, expr Ptr) (dp0, dp1 Ptr) {
	pos := h.Alloc(3)
	h.Set(pos, Nil)
	h.Set(pos+1, Nil)
	Link(h, pos+2, expr)
	return NewPtr(TagDp0, pos, color, 0), NewPtr(TagDp1, pos, color, 0)
}

// NewCtrNode allocates a constructor with the given id and fields.
func NewCtrNode(h *Heap, id uint8, args ...Ptr) Ptr {
	return newSaturated(h, TagCtr, id, args)
}

// NewCalNode allocates a call node with the given id and arguments.
func NewCalNode(h *Heap, id uint8, args ...Ptr) Ptr {
	return newSaturated(h, TagCal, id, args)
}

func newSaturated(h *Heap, tag Tag, id uint8, args []Ptr) Ptr {
	pos := h.Alloc(len(args))
	for i, a := range args {
		Link(h, uint32(i)+pos, a)
	}
	return NewPtr(tag, pos, uint8(len(args)), id)
}
