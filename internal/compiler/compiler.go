// Package compiler bridges pkg/syntax's Term AST and pkg/core's tagged
// heap graph. Because the surface grammar already speaks the core's
// node vocabulary directly (lambdas, applications, fan nodes,
// duplicators, constructors, calls), ToGraph and FromGraph are graph
// (de)serializers rather than an elaborator from a richer source
// language.
package compiler

import (
	"fmt"

	"github.com/optinet/optinet/pkg/core"
	apperrors "github.com/optinet/optinet/pkg/errors"
	"github.com/optinet/optinet/pkg/syntax"
)

// ToGraph allocates nodes for term bottom-up into h, wiring Link for
// every binder as it is introduced, and returns the root slot holding
// the resulting graph. An unbound name reaching this stage (the parser
// should already have rejected it) is reported as a CodeParseError.
func ToGraph(h *core.Heap, term syntax.Term) (uint32, error) {
	value, err := compile(h, term, newEnv(nil))
	if err != nil {
		return 0, err
	}
	root := h.Alloc(1)
	core.Link(h, root, value)
	return root, nil
}

// env maps a surface binder name to the Ptr value a reference to it
// should resolve to (a Var or Dp0/Dp1 template pointing at the binder's
// slot). It mirrors pkg/syntax's scope chain but carries compiled
// pointers instead of availability flags, since ToGraph runs on
// already-affine-checked input.
type env struct {
	parent *env
	names  map[string]core.Ptr
}

func newEnv(parent *env) *env {
	return &env{parent: parent, names: make(map[string]core.Ptr)}
}

func (e *env) bind(name string, p core.Ptr) {
	e.names[name] = p
}

func (e *env) lookup(name string) (core.Ptr, bool) {
	for f := e; f != nil; f = f.parent {
		if p, ok := f.names[name]; ok {
			return p, true
		}
	}
	return core.Nil, false
}

func compile(h *core.Heap, term syntax.Term, e *env) (core.Ptr, error) {
	switch n := term.(type) {
	case syntax.Var:
		p, ok := e.lookup(n.Name)
		if !ok {
			return core.Nil, apperrors.Wrap(apperrors.CodeParseError,
				fmt.Sprintf("unbound variable %q reached graph compilation", n.Name), nil)
		}
		return p, nil

	case syntax.Lam:
		// The lambda shell exists before its body compiles so the body's
		// occurrence can name it.
		lamPos, lamPtr := core.NewLamNode(h, core.Nil)
		child := newEnv(e)
		child.bind(n.Name, core.NewVarPtr(lamPos))
		body, err := compile(h, n.Body, child)
		if err != nil {
			return core.Nil, err
		}
		core.Link(h, lamPos+1, body)
		return lamPtr, nil

	case syntax.App:
		fn, err := compile(h, n.Func, e)
		if err != nil {
			return core.Nil, err
		}
		arg, err := compile(h, n.Arg, e)
		if err != nil {
			return core.Nil, err
		}
		return core.NewAppNode(h, fn, arg), nil

	case syntax.Par:
		left, err := compile(h, n.Left, e)
		if err != nil {
			return core.Nil, err
		}
		right, err := compile(h, n.Right, e)
		if err != nil {
			return core.Nil, err
		}
		return core.NewParNode(h, n.Color, left, right), nil

	case syntax.Dup:
		expr, err := compile(h, n.Expr, e)
		if err != nil {
			return core.Nil, err
		}
		dp0, dp1 := core.NewDupNode(h, n.Color, expr)
		child := newEnv(e)
		child.bind(n.Name0, dp0)
		child.bind(n.Name1, dp1)
		return compile(h, n.Cont, child)

	case syntax.Ctr:
		return compileSaturated(h, e, core.TagCtr, n.ID, n.Arity, n.Args)

	case syntax.Cal:
		return compileSaturated(h, e, core.TagCal, n.ID, n.Arity, n.Args)

	default:
		return core.Nil, apperrors.Wrap(apperrors.CodeParseError,
			fmt.Sprintf("unrecognized term node %T", term), nil)
	}
}

func compileSaturated(h *core.Heap, e *env, tag core.Tag, id, arity uint8, args []syntax.Term) (core.Ptr, error) {
	values := make([]core.Ptr, len(args))
	for i, a := range args {
		v, err := compile(h, a, e)
		if err != nil {
			return core.Nil, err
		}
		values[i] = v
	}
	if tag == core.TagCal {
		return core.NewCalNode(h, id, values...), nil
	}
	return core.NewCtrNode(h, id, values...), nil
}
