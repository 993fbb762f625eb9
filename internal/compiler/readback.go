package compiler

import (
	"fmt"

	"github.com/optinet/optinet/pkg/core"
	apperrors "github.com/optinet/optinet/pkg/errors"
	"github.com/optinet/optinet/pkg/syntax"
)

// maxReadbackDepth bounds FromGraph's recursion. The end-to-end
// scenarios this runtime targets never approach it; it exists so a
// malformed or cyclic graph produces an error instead of a stack
// overflow.
const maxReadbackDepth = 100000

// FromGraph renders the graph rooted at ptr back to a syntax.Term,
// synthesizing fresh binder names since the heap does not retain the
// names the original source used. It does not force reduction: whatever
// whnf/normal has already settled at each slot is what gets printed.
//
// Duplicator projections are read back as Dup forms hoisted to wrap the
// remainder of the innermost enclosing lambda body (or the whole result,
// for a dup found outside any Lam), in the order their binder is first
// encountered, since a duplicator's two projections can occur in
// otherwise unrelated corners of the graph and the grammar has no node
// that stands for it in place. Hoisting no further than the innermost
// binder active at discovery time keeps the dup's expr — which may
// reference that binder — inside its scope.
func FromGraph(h *core.Heap, ptr core.Ptr) (syntax.Term, error) {
	rb := &readback{
		h:        h,
		lamNames: make(map[uint32]string),
		dp0Names: make(map[uint32]string),
		dp1Names: make(map[uint32]string),
	}
	rb.pushFrame()
	main, err := rb.term(ptr, 0)
	if err != nil {
		return nil, err
	}
	return rb.wrap(main, rb.popFrame()), nil
}

type readback struct {
	h        *core.Heap
	lamNames map[uint32]string
	dp0Names map[uint32]string
	dp1Names map[uint32]string
	frames   [][]syntax.Dup
	counter  int
}

func (r *readback) pushFrame() {
	r.frames = append(r.frames, nil)
}

func (r *readback) popFrame() []syntax.Dup {
	top := r.frames[len(r.frames)-1]
	r.frames = r.frames[:len(r.frames)-1]
	return top
}

func (r *readback) addDup(d syntax.Dup) {
	top := len(r.frames) - 1
	r.frames[top] = append(r.frames[top], d)
}

func (r *readback) wrap(main syntax.Term, dups []syntax.Dup) syntax.Term {
	result := main
	for i := len(dups) - 1; i >= 0; i-- {
		d := dups[i]
		d.Cont = result
		result = d
	}
	return result
}

func (r *readback) fresh(prefix string) string {
	r.counter++
	return fmt.Sprintf("%s%d", prefix, r.counter)
}

func (r *readback) term(ptr core.Ptr, depth int) (syntax.Term, error) {
	if depth > maxReadbackDepth {
		return nil, apperrors.New(apperrors.CodeInvariantViolation, "readback exceeded maximum depth")
	}
	switch ptr.Tag() {
	case core.TagVar:
		name, ok := r.lamNames[ptr.Pos()]
		if !ok {
			return nil, apperrors.New(apperrors.CodeInvariantViolation,
				fmt.Sprintf("readback encountered a Var at %d before its binder", ptr.Pos()))
		}
		return syntax.Var{Name: name}, nil

	case core.TagDp0, core.TagDp1:
		return r.projection(ptr, depth)

	case core.TagLam:
		pos := ptr.Pos()
		name := r.fresh("x")
		r.lamNames[pos] = name
		r.pushFrame()
		body, err := r.term(r.h.Get(pos+1), depth+1)
		if err != nil {
			return nil, err
		}
		body = r.wrap(body, r.popFrame())
		return syntax.Lam{Name: name, Body: body}, nil

	case core.TagApp:
		pos := ptr.Pos()
		fn, err := r.term(r.h.Get(pos), depth+1)
		if err != nil {
			return nil, err
		}
		arg, err := r.term(r.h.Get(pos+1), depth+1)
		if err != nil {
			return nil, err
		}
		return syntax.App{Func: fn, Arg: arg}, nil

	case core.TagPar:
		pos := ptr.Pos()
		left, err := r.term(r.h.Get(pos), depth+1)
		if err != nil {
			return nil, err
		}
		right, err := r.term(r.h.Get(pos+1), depth+1)
		if err != nil {
			return nil, err
		}
		return syntax.Par{Color: ptr.Ex0(), Left: left, Right: right}, nil

	case core.TagCtr:
		args, err := r.fields(ptr, depth)
		if err != nil {
			return nil, err
		}
		return syntax.Ctr{ID: ptr.Ex1(), Arity: ptr.Ex0(), Args: args}, nil

	case core.TagCal:
		args, err := r.fields(ptr, depth)
		if err != nil {
			return nil, err
		}
		return syntax.Cal{ID: ptr.Ex1(), Arity: ptr.Ex0(), Args: args}, nil

	default:
		return nil, apperrors.New(apperrors.CodeUnknownTag,
			fmt.Sprintf("readback cannot render tag %v", ptr.Tag()))
	}
}

func (r *readback) fields(ptr core.Ptr, depth int) ([]syntax.Term, error) {
	pos := ptr.Pos()
	arity := int(ptr.Ex0())
	args := make([]syntax.Term, arity)
	for i := 0; i < arity; i++ {
		a, err := r.term(r.h.Get(uint32(i)+pos), depth+1)
		if err != nil {
			return nil, err
		}
		args[i] = a
	}
	return args, nil
}

func (r *readback) projection(ptr core.Ptr, depth int) (syntax.Term, error) {
	dupPos := ptr.Pos()
	if ptr.Tag() == core.TagDp0 {
		if name, ok := r.dp0Names[dupPos]; ok {
			return syntax.Var{Name: name}, nil
		}
	} else {
		if name, ok := r.dp1Names[dupPos]; ok {
			return syntax.Var{Name: name}, nil
		}
	}

	name0 := r.fresh("a")
	name1 := r.fresh("b")
	r.dp0Names[dupPos] = name0
	r.dp1Names[dupPos] = name1

	expr, err := r.term(r.h.Get(dupPos+2), depth+1)
	if err != nil {
		return nil, err
	}
	r.addDup(syntax.Dup{Color: ptr.Ex0(), Name0: name0, Name1: name1, Expr: expr})

	if ptr.Tag() == core.TagDp0 {
		return syntax.Var{Name: name0}, nil
	}
	return syntax.Var{Name: name1}, nil
}
