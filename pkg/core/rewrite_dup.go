package core

// rewriteLetLam implements LET-LAM: duplicating a lambda produces two
// fresh lambdas sharing a duplicated body, and pairs up the original
// bound variable's two copies behind a fresh Par. enteredDp0 selects
// which of the two fresh lambdas gets installed at host, matching
// whichever projection (Dp0 or Dp1) the caller was forcing.
func rewriteLetLam(h *Heap, host uint32, enteredDp0 bool, dup, lam Ptr) {
	color := dup.Ex0()
	dupPos := dup.Pos()
	lamPos := lam.Pos()
	body := h.Get(lamPos + 1)

	bodyDp0, bodyDp1 := NewDupNode(h, color, body)
	lam0Pos, lam0 := NewLamNode(h, bodyDp0)
	lam1Pos, lam1 := NewLamNode(h, bodyDp1)
	par := NewParNode(h, color, NewVarPtr(lam0Pos), NewVarPtr(lam1Pos))

	Subst(h, lamPos, par)
	Subst(h, dupPos, lam0)
	Subst(h, dupPos+1, lam1)

	h.Free(dupPos, 3)
	h.Free(lamPos, 2)
	h.incGas()

	if enteredDp0 {
		Link(h, host, lam0)
	} else {
		Link(h, host, lam1)
	}
}

// rewriteLetParAnnihilate implements the annihilating half of LET-PAR:
// a duplicator and a fan node of the same color cancel, handing each
// projection its matching branch directly.
func rewriteLetParAnnihilate(h *Heap, host uint32, enteredDp0 bool, dup, par Ptr) {
	dupPos := dup.Pos()
	parPos := par.Pos()
	a := h.Get(parPos)
	b := h.Get(parPos + 1)

	Subst(h, dupPos, a)
	Subst(h, dupPos+1, b)

	h.Free(dupPos, 3)
	h.Free(parPos, 2)
	h.incGas()

	if enteredDp0 {
		Link(h, host, a)
	} else {
		Link(h, host, b)
	}
}

// rewriteLetParCommute implements the commuting half of LET-PAR: a
// duplicator and a fan node of different colors pass through each
// other, each distributing a duplicate of itself across the other's two
// branches.
func rewriteLetParCommute(h *Heap, host uint32, enteredDp0 bool, dup, par Ptr) {
	colorA := dup.Ex0()
	colorB := par.Ex0()
	dupPos := dup.Pos()
	parPos := par.Pos()
	a := h.Get(parPos)
	b := h.Get(parPos + 1)

	a0, a1 := NewDupNode(h, colorA, a)
	b0, b1 := NewDupNode(h, colorA, b)
	par0 := NewParNode(h, colorB, a0, b0)
	par1 := NewParNode(h, colorB, a1, b1)

	Subst(h, dupPos, par0)
	Subst(h, dupPos+1, par1)

	h.Free(dupPos, 3)
	h.Free(parPos, 2)
	h.incGas()

	if enteredDp0 {
		Link(h, host, par0)
	} else {
		Link(h, host, par1)
	}
}

// rewriteLetCtr implements LET-CTR: duplicating a constructor
// distributes across its fields, giving each projection its own
// constructor node whose fields are duplicators over the original
// fields.
func rewriteLetCtr(h *Heap, host uint32, enteredDp0 bool, dup, ctr Ptr) {
	color := dup.Ex0()
	dupPos := dup.Pos()
	ctrPos := ctr.Pos()
	arity := int(ctr.Ex0())
	ctrID := ctr.Ex1()

	fields0 := make([]Ptr, arity)
	fields1 := make([]Ptr, arity)
	for i := 0; i < arity; i++ {
		fields0[i], fields1[i] = NewDupNode(h, color, h.Get(uint32(i)+ctrPos))
	}
	ctr0 := NewCtrNode(h, ctrID, fields0...)
	ctr1 := NewCtrNode(h, ctrID, fields1...)

	Subst(h, dupPos, ctr0)
	Subst(h, dupPos+1, ctr1)

	h.Free(dupPos, 3)
	h.Free(ctrPos, arity)
	h.incGas()

	if enteredDp0 {
		Link(h, host, ctr0)
	} else {
		Link(h, host, ctr1)
	}
}
