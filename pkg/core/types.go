// Package core implements the graph runtime for optimal beta reduction:
// a flat heap of tagged pointers, the six interaction rewrite rules, and
// the drivers (whnf, normal) that apply them.
package core

// Tag identifies the kind of node a Ptr refers to.
type Tag uint8

const (
	// TagNil marks an empty binder slot: "this variable is unused".
	TagNil Tag = iota
	// TagVar is an occurrence of a lambda-bound variable. Pos names the
	// base of its binder (a Lam node).
	TagVar
	// TagLam is a lambda abstraction. Slot 0 is the binder back-link
	// (Nil or Lnk to the sole occurrence), slot 1 is the body.
	TagLam
	// TagApp is function application. Slot 0 is the function, slot 1
	// the argument.
	TagApp
	// TagPar is a fan node carrying a color (Ex0). Slot 0 and slot 1 are
	// its two branches.
	TagPar
	// TagDp0 is the left projection of a duplicator. Pos names the
	// duplicator's base; Ex0 carries its color.
	TagDp0
	// TagDp1 is the right projection of a duplicator.
	TagDp1
	// TagCtr is a data constructor. Ex0 is its arity, Ex1 its
	// constructor id. Slots 0..arity-1 are its fields.
	TagCtr
	// TagCal is a saturated call to a top-level definition. Ex0 is its
	// arity, Ex1 indexes the definition in a Book. Slots 0..arity-1 are
	// its arguments.
	TagCal
	// TagLnk is a back-edge installed in a binder slot, pointing at the
	// occurrence that consumes it.
	TagLnk
)

// String returns the tag's mnemonic name, used in sanity errors and
// debug printing.
func (t Tag) String() string {
	switch t {
	case TagNil:
		return "Nil"
	case TagVar:
		return "Var"
	case TagLam:
		return "Lam"
	case TagApp:
		return "App"
	case TagPar:
		return "Par"
	case TagDp0:
		return "Dp0"
	case TagDp1:
		return "Dp1"
	case TagCtr:
		return "Ctr"
	case TagCal:
		return "Cal"
	case TagLnk:
		return "Lnk"
	default:
		return "Unknown"
	}
}

// IsBinder reports whether a node of this tag owns a binder back-link in
// its slot 0. Only Lam does; Dp0/Dp1 report false, although the
// duplicator they name keeps a back-link pair in its slots 0 and 1.
func (t Tag) IsBinder() bool {
	return t == TagLam
}

// Arity returns the number of slots a node of this tag occupies, for the
// tags whose arity is fixed. Ctr and Cal carry a dynamic arity in Ex0 and
// are not covered here; Var, Nil and Lnk own no cells of their own.
func (t Tag) Arity() int {
	switch t {
	case TagLam, TagApp, TagPar:
		return 2
	case TagDp0, TagDp1:
		return 3
	default:
		return 0
	}
}
