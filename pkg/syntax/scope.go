package syntax

import "fmt"

// scope is a chain of binder frames used to check the affine contract:
// every Lam/Dup-bound name may be referenced at most once within its
// body. Consumption is recorded in the frame that owns the binding, so
// siblings sharing an outer scope correctly see a name as used up after
// either one of them references it.
type scope struct {
	parent *scope
	bound  map[string]bool // true = available, false = already consumed
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, bound: make(map[string]bool)}
}

func (s *scope) bind(name string) {
	s.bound[name] = true
}

func (s *scope) use(name string) error {
	for f := s; f != nil; f = f.parent {
		if avail, ok := f.bound[name]; ok {
			if !avail {
				return fmt.Errorf("variable %q used more than once (affine binders may be referenced at most once; share it with a dup instead)", name)
			}
			f.bound[name] = false
			return nil
		}
	}
	return fmt.Errorf("unbound variable %q", name)
}

func checkAffine(t Term, sc *scope) error {
	switch n := t.(type) {
	case Var:
		return sc.use(n.Name)
	case Lam:
		child := newScope(sc)
		child.bind(n.Name)
		return checkAffine(n.Body, child)
	case App:
		if err := checkAffine(n.Func, sc); err != nil {
			return err
		}
		return checkAffine(n.Arg, sc)
	case Par:
		if err := checkAffine(n.Left, sc); err != nil {
			return err
		}
		return checkAffine(n.Right, sc)
	case Dup:
		if err := checkAffine(n.Expr, sc); err != nil {
			return err
		}
		child := newScope(sc)
		child.bind(n.Name0)
		child.bind(n.Name1)
		return checkAffine(n.Cont, child)
	case Ctr:
		for _, a := range n.Args {
			if err := checkAffine(a, sc); err != nil {
				return err
			}
		}
		return nil
	case Cal:
		for _, a := range n.Args {
			if err := checkAffine(a, sc); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unrecognized term node %T", t)
	}
}
