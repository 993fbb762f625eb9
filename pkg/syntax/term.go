// Package syntax implements the textual surface grammar for reduction
// programs: a lexer, a recursive-descent parser, an AST distinct from
// the graph representation in pkg/core, and a printer that renders a
// Term back to source.
package syntax

import "fmt"

// Term is the surface AST. Every concrete node below implements it.
type Term interface {
	fmt.Stringer
	isTerm()
}

// Var is a bare-name reference to an enclosing Lam or Dup-bound name.
type Var struct {
	Name string
}

func (Var) isTerm() {}

// Lam is `λname: body`, a lambda binding Name in Body. Per the affine
// binder contract, Name may occur at most once within Body; a second
// use must go through a Dup instead.
type Lam struct {
	Name string
	Body Term
}

func (Lam) isTerm() {}

// App is `(f a)`, applying Func to Arg.
type App struct {
	Func Term
	Arg  Term
}

func (App) isTerm() {}

// Par is `&c<a b>`, a fan node of color Color with branches Left/Right.
type Par struct {
	Color uint8
	Left  Term
	Right Term
}

func (Par) isTerm() {}

// Dup is `!c<n0 n1> = e; k`, duplicating Expr into the two affine names
// Name0/Name1, each usable at most once within Cont.
type Dup struct {
	Color uint8
	Name0 string
	Name1 string
	Expr  Term
	Cont  Term
}

func (Dup) isTerm() {}

// Ctr is `$id:arity{a b ...}`, a saturated data constructor.
type Ctr struct {
	ID    uint8
	Arity uint8
	Args  []Term
}

func (Ctr) isTerm() {}

// Cal is `@id:arity{a b ...}`, a saturated call to a top-level
// definition identified by ID.
type Cal struct {
	ID    uint8
	Arity uint8
	Args  []Term
}

func (Cal) isTerm() {}
