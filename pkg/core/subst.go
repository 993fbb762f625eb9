package core

// Subst resolves the single occurrence bound at binderSlot. If the
// binder's slot holds a Lnk (the variable was used somewhere), value is
// installed there via Link. If it holds Nil (the variable was never
// used), value is discarded through Collect instead, freeing whatever
// subgraph it roots.
func Subst(h *Heap, binderSlot uint32, value Ptr) {
	binder := h.Get(binderSlot)
	if binder.Tag() == TagNil {
		Collect(h, value)
		return
	}
	Link(h, binder.Pos(), value)
}
