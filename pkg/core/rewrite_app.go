package core

// rewriteAppLam implements APP-LAM: (\x.body) arg reduces to body with x
// substituted by arg. It runs in place at host: the App and Lam nodes
// are freed, and host ends up holding body so the caller can keep
// reducing at the same position.
func rewriteAppLam(h *Heap, host uint32, app, lam Ptr) {
	arg := h.Get(app.Loc(1))
	Subst(h, lam.Pos(), arg)
	body := h.Get(lam.Loc(1))
	Link(h, host, body)
	h.Free(app.Pos(), 2)
	h.Free(lam.Pos(), 2)
	h.incGas()
}

// rewriteAppPar implements APP-PAR: applying a fan node distributes the
// application across both branches and duplicates the argument so each
// branch gets its own copy. The result is a fresh Par installed at host;
// the caller must not try to keep reducing at host since a Par is
// already in whnf from App's perspective.
func rewriteAppPar(h *Heap, host uint32, app, par Ptr) {
	color := par.Ex0()
	f0 := h.Get(par.Loc(0))
	f1 := h.Get(par.Loc(1))
	arg := h.Get(app.Loc(1))

	dp0, dp1 := NewDupNode(h, color, arg)
	app0 := NewAppNode(h, f0, dp0)
	app1 := NewAppNode(h, f1, dp1)
	newPar := NewParNode(h, color, app0, app1)

	h.Free(app.Pos(), 2)
	h.Free(par.Pos(), 2)
	h.incGas()

	Link(h, host, newPar)
}
