package core

// Collect frees a subgraph that has become unreachable, for example an
// argument substituted into a binder slot nobody reads. It is
// deliberately conservative about sharing:
//
//   - A Var occurrence being collected means its binder's copy of this
//     value is gone; the binder slot is nilled so a later Subst treats
//     it as unused rather than following a dangling Lnk.
//   - A Dp0/Dp1 being collected only nils its own half of the
//     duplicator's back-edge pair; the duplicator and its expression are
//     left alone since the other projection may still be live.
//   - A Par is never freed or recursed into: it is shared by
//     construction, so collecting one branch must not touch the node
//     other branches still reference.
//
// This is an optimistic, best-effort collector: graphs that alias
// through Par/duplicator sharing in ways the rewrite rules did not
// themselves produce can still leak cells. That tradeoff mirrors the
// rest of the runtime, which favors a simple, local rule over global
// reference counting.
func Collect(h *Heap, term Ptr) {
	switch term.Tag() {
	case TagNil, TagLnk:
		return
	case TagVar:
		h.Set(term.Pos(), Nil)
	case TagDp0:
		h.Set(term.Loc(0), Nil)
	case TagDp1:
		h.Set(term.Loc(1), Nil)
	case TagLam:
		pos := term.Pos()
		Collect(h, h.Get(pos+1))
		h.Free(pos, 2)
	case TagApp:
		pos := term.Pos()
		Collect(h, h.Get(pos))
		Collect(h, h.Get(pos+1))
		h.Free(pos, 2)
	case TagPar:
		// Shared: cut nothing, free nothing.
	case TagCtr, TagCal:
		pos := term.Pos()
		arity := int(term.Ex0())
		for i := 0; i < arity; i++ {
			Collect(h, h.Get(uint32(i)+pos))
		}
		h.Free(pos, arity)
	}
}
