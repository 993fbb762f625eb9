package core

import "github.com/optinet/optinet/pkg/collections"

// Normal reduces the term at host to whnf and then recurses into every
// child slot, forcing the whole graph to full normal form. visited
// tracks node base positions already walked so that graphs reached
// through more than one occurrence of a shared Par branch are not
// walked twice in the same pass.
func Normal(h *Heap, host uint32, visited *collections.VersionedBitset) Ptr {
	term := Whnf(h, host)
	pos := int(term.Pos())
	switch term.Tag() {
	case TagLam:
		if visited.Test(pos) {
			return term
		}
		visited.Set(pos)
		Normal(h, term.Loc(1), visited)
	case TagApp, TagPar:
		if visited.Test(pos) {
			return term
		}
		visited.Set(pos)
		Normal(h, term.Loc(0), visited)
		Normal(h, term.Loc(1), visited)
	case TagDp0, TagDp1:
		if visited.Test(pos) {
			return term
		}
		visited.Set(pos)
		Normal(h, term.Loc(2), visited)
	case TagCtr, TagCal:
		if visited.Test(pos) {
			return term
		}
		visited.Set(pos)
		arity := int(term.Ex0())
		for i := 0; i < arity; i++ {
			Normal(h, term.Loc(uint32(i)), visited)
		}
	}
	return term
}

// NormalizeToFixpoint repeatedly walks the graph to normal form until a
// pass leaves the gas counter unchanged. Because this runtime keeps no
// parent pointers, a rewrite deep in the graph can expose a new redex in
// a slot an earlier pass already marked visited; re-running with a fresh
// visited set is how that gets picked up without tracking parents.
func NormalizeToFixpoint(h *Heap, host uint32) Ptr {
	var result Ptr
	for {
		before := h.Gas()
		visited := collections.NewVersionedBitset(h.Len())
		result = Normal(h, host, visited)
		if h.Gas() == before {
			return result
		}
	}
}
