package core

// Link installs p into the cell at pos and, if p is an occurrence tag
// that owns a binder back-edge (Var, Dp0, Dp1), patches that binder's
// slot to point back at pos. This is the only primitive allowed to
// write a binder's back-link slot; every rewrite rule goes through it so
// the bidirectional binder<->occurrence invariant never drifts out of
// sync.
func Link(h *Heap, pos uint32, p Ptr) {
	h.Set(pos, p)
	switch p.Tag() {
	case TagVar:
		h.Set(p.Loc(0), NewPtr(TagLnk, pos, 0, 0))
	case TagDp0:
		h.Set(p.Loc(0), NewPtr(TagLnk, pos, 0, 0))
	case TagDp1:
		h.Set(p.Loc(1), NewPtr(TagLnk, pos, 0, 0))
	}
}
