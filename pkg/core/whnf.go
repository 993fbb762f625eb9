package core

import "github.com/optinet/optinet/pkg/collections"

// matchRule reports which rewrite rule applies to a parent node (an App
// or a duplicator projection) whose forced child has just settled on
// some tag, or false when the pair is already in whnf relative to each
// other.
func matchRule(parent, child Ptr) (Rule, bool) {
	switch parent.Tag() {
	case TagApp:
		switch child.Tag() {
		case TagLam:
			return RuleAppLam, true
		case TagPar:
			return RuleAppPar, true
		}
	case TagDp0, TagDp1:
		switch child.Tag() {
		case TagLam:
			return RuleLetLam, true
		case TagPar:
			if parent.Ex0() == child.Ex0() {
				return RuleLetParAnnihilate, true
			}
			return RuleLetParCommute, true
		case TagCtr:
			return RuleLetCtr, true
		}
	}
	return 0, false
}

// applyRule fires the rewrite matching parent/child, if any, installing
// the result at host. It returns false when no rule matches or when an
// applicable rule was blocked by the gas budget; the latter case also
// marks the heap stalled, so callers can tell a partial result apart
// from a finished one whose cost happened to equal the limit.
func (h *Heap) applyRule(host uint32, parent, child Ptr) bool {
	rule, ok := matchRule(parent, child)
	if !ok {
		return false
	}
	if h.GasExhausted() {
		h.markStalled()
		return false
	}

	enteredDp0 := parent.Tag() == TagDp0
	switch rule {
	case RuleAppLam:
		rewriteAppLam(h, host, parent, child)
	case RuleAppPar:
		rewriteAppPar(h, host, parent, child)
	case RuleLetLam:
		rewriteLetLam(h, host, enteredDp0, parent, child)
	case RuleLetParAnnihilate:
		rewriteLetParAnnihilate(h, host, enteredDp0, parent, child)
	case RuleLetParCommute:
		rewriteLetParCommute(h, host, enteredDp0, parent, child)
	case RuleLetCtr:
		rewriteLetCtr(h, host, enteredDp0, parent, child)
	}
	h.recordRule(rule)
	return true
}

// forcingSlot returns the slot whose content must be forced to whnf
// before term itself can be rewritten, or (0, false) if term has no
// such slot (it is already whnf as far as the rewrite rules go).
func forcingSlot(term Ptr) (uint32, bool) {
	switch term.Tag() {
	case TagApp:
		return term.Loc(0), true
	case TagDp0, TagDp1:
		return term.Loc(2), true
	default:
		return 0, false
	}
}

// Whnf reduces the term stored at host to weak head normal form,
// rewriting in place and returning the resulting pointer. It recurses
// into whichever child slot gates further rewriting (the function
// position of an App, the expression position of a duplicator) before
// re-examining host, so the recursion depth tracks the term's head
// spine rather than its full size.
func Whnf(h *Heap, host uint32) Ptr {
	for {
		term := h.Get(host)
		slot, ok := forcingSlot(term)
		if !ok {
			return term
		}
		child := Whnf(h, slot)
		if h.applyRule(host, term, child) {
			continue
		}
		return term
	}
}

// WhnfIterative is equivalent to Whnf but replaces the call stack with
// an explicit one, for callers reducing terms whose head spine is too
// deep to trust to the goroutine stack.
func WhnfIterative(h *Heap, host uint32) Ptr {
	stack := collections.NewStack[uint32](16)
	slot := host

descend:
	for {
		term := h.Get(slot)
		if s, ok := forcingSlot(term); ok {
			stack.Push(slot)
			slot = s
			continue descend
		}
		// slot now holds a term with no forcing slot of its own: resolve
		// upward until a rule fires or the stack empties.
		for {
			parentSlot, ok := stack.Pop()
			if !ok {
				return h.Get(host)
			}
			parentTerm := h.Get(parentSlot)
			if h.applyRule(parentSlot, parentTerm, term) {
				slot = parentSlot
				continue descend
			}
			term = parentTerm
			slot = parentSlot
		}
	}
}
