package core

import "testing"

func TestBuildersWireBackEdges(t *testing.T) {
	h := NewHeap(64, 0)

	// (λx: x $7:0{}) built entirely from the convenience constructors.
	lamPos, lam := NewLamNode(h, Nil)
	Link(h, lamPos+1, NewVarPtr(lamPos))
	app := NewAppNode(h, lam, NewCtrNode(h, 7))

	root := h.Alloc(1)
	Link(h, root, app)

	if err := Validate(h, root); err != nil {
		t.Fatalf("builder-constructed graph violates invariants: %v", err)
	}

	result := Whnf(h, root)
	if result.Tag() != TagCtr || result.Ex1() != 7 {
		t.Fatalf("expected Ctr(7) after reduction, got %v/%d", result.Tag(), result.Ex1())
	}
}

func TestNewDupNodeProjectionsShareBase(t *testing.T) {
	h := NewHeap(64, 0)
	dp0, dp1 := NewDupNode(h, 5, NewCtrNode(h, 1))

	if dp0.Pos() != dp1.Pos() {
		t.Errorf("projections name different duplicators: %d vs %d", dp0.Pos(), dp1.Pos())
	}
	if dp0.Tag() != TagDp0 || dp1.Tag() != TagDp1 {
		t.Errorf("unexpected projection tags %v/%v", dp0.Tag(), dp1.Tag())
	}
	if dp0.Ex0() != 5 || dp1.Ex0() != 5 {
		t.Errorf("projections lost their color: %d/%d", dp0.Ex0(), dp1.Ex0())
	}
}

func TestHeapReset(t *testing.T) {
	h := NewHeap(64, 7)
	root := buildIdentityApp(h, 3)
	Whnf(h, root)

	if h.Gas() == 0 || h.Len() == 0 {
		t.Fatal("expected the warm-up reduction to have touched the heap")
	}

	h.Reset()
	if h.Len() != 0 {
		t.Errorf("Reset should drop all cells, %d remain", h.Len())
	}
	if h.Gas() != 0 {
		t.Errorf("Reset should zero gas, got %d", h.Gas())
	}
	if h.GasLimit() != 7 {
		t.Errorf("Reset should keep the configured gas limit, got %d", h.GasLimit())
	}

	// The heap must be fully usable again.
	root = buildIdentityApp(h, 9)
	result := Whnf(h, root)
	if result.Tag() != TagCtr || result.Ex1() != 9 {
		t.Fatalf("post-Reset reduction failed: %v/%d", result.Tag(), result.Ex1())
	}
	if err := Validate(h, root); err != nil {
		t.Fatalf("post-Reset graph violates invariants: %v", err)
	}
}
