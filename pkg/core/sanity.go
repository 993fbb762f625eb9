package core

import (
	"fmt"

	coreerrors "github.com/optinet/optinet/pkg/errors"

	"github.com/optinet/optinet/pkg/collections"
)

// Validate walks every node reachable from host and checks the
// invariants the rewrite rules are supposed to preserve:
//
//   - Every Var, Dp0 and Dp1 occurrence must point at a binder slot that
//     holds a Lnk back at that exact occurrence (the back-edge must be
//     mutual, not just present). A duplicator's expression is walked
//     too, once per duplicator.
//   - Ctr and Cal nodes have exactly their arity (Ex0) of slots walked;
//     an arity of zero is valid.
//
// It returns the first violation found as an *errors.AppError with code
// CodeInvariantViolation (CodeUnknownTag for a cell whose tag is not
// recognized), or nil if the graph checks out.
func Validate(h *Heap, host uint32) error {
	visited := collections.NewVersionedBitset(h.Len())
	return validateNode(h, host, visited)
}

func validateNode(h *Heap, slot uint32, visited *collections.VersionedBitset) error {
	term := h.Get(slot)
	switch term.Tag() {
	case TagNil, TagLnk:
		return nil
	case TagVar:
		return checkBackEdge(h, slot, term.Loc(0), 0)
	case TagDp0, TagDp1:
		half := uint32(0)
		if term.Tag() == TagDp1 {
			half = 1
		}
		if err := checkBackEdge(h, slot, term.Loc(half), int(half)); err != nil {
			return err
		}
		pos := int(term.Pos())
		if visited.Test(pos) {
			return nil
		}
		visited.Set(pos)
		return validateNode(h, term.Loc(2), visited)
	case TagLam:
		pos := int(term.Pos())
		if visited.Test(pos) {
			return nil
		}
		visited.Set(pos)
		return validateNode(h, term.Loc(1), visited)
	case TagApp, TagPar:
		pos := int(term.Pos())
		if visited.Test(pos) {
			return nil
		}
		visited.Set(pos)
		if err := validateNode(h, term.Loc(0), visited); err != nil {
			return err
		}
		return validateNode(h, term.Loc(1), visited)
	case TagCtr, TagCal:
		pos := int(term.Pos())
		if visited.Test(pos) {
			return nil
		}
		visited.Set(pos)
		arity := int(term.Ex0())
		if arity < 0 || arity > 255 {
			return coreerrors.Wrap(coreerrors.CodeInvariantViolation,
				fmt.Sprintf("node at %d has implausible arity %d", term.Pos(), arity), nil)
		}
		for i := 0; i < arity; i++ {
			if err := validateNode(h, term.Loc(uint32(i)), visited); err != nil {
				return err
			}
		}
		return nil
	default:
		return coreerrors.Wrap(coreerrors.CodeUnknownTag,
			fmt.Sprintf("cell %d has unrecognized tag %d", slot, term.Tag()), nil)
	}
}

// checkBackEdge verifies that the binder at binderSlot holds a Lnk
// pointing back exactly at occSlot (the slot holding the occurrence we
// descended from); a Nil binder slot is itself a violation. suffix names which binder half (0 for
// Lam/Dp0, 1 for Dp1) this edge belongs to, for the error message.
func checkBackEdge(h *Heap, occSlot, binderSlot uint32, suffix int) error {
	back := h.Get(binderSlot)
	if back.Tag() == TagNil {
		return coreerrors.Wrap(coreerrors.CodeInvariantViolation,
			fmt.Sprintf("occurrence at %d references binder slot %d (half %d) but it is Nil", occSlot, binderSlot, suffix), nil)
	}
	if back.Tag() != TagLnk || back.Pos() != occSlot {
		return coreerrors.Wrap(coreerrors.CodeInvariantViolation,
			fmt.Sprintf("occurrence at %d references binder slot %d (half %d) but back-edge points at %d", occSlot, binderSlot, suffix, back.Pos()), nil)
	}
	return nil
}
