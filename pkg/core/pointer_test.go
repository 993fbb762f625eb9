package core

import "testing"

func TestPtrEncodeDecode(t *testing.T) {
	cases := []struct {
		tag      Tag
		pos      uint32
		ex0, ex1 uint8
	}{
		{TagLam, 0, 0, 0},
		{TagApp, 1234, 0, 0},
		{TagPar, 77, 5, 0},
		{TagDp0, 9001, 3, 0},
		{TagCtr, 42, 3, 17},
		{TagCal, 1 << 20, 2, 255},
	}
	for _, c := range cases {
		p := NewPtr(c.tag, c.pos, c.ex0, c.ex1)
		if got := p.Tag(); got != c.tag {
			t.Errorf("Tag() = %v, want %v", got, c.tag)
		}
		if got := p.Pos(); got != c.pos {
			t.Errorf("Pos() = %d, want %d", got, c.pos)
		}
		if got := p.Ex0(); got != c.ex0 {
			t.Errorf("Ex0() = %d, want %d", got, c.ex0)
		}
		if got := p.Ex1(); got != c.ex1 {
			t.Errorf("Ex1() = %d, want %d", got, c.ex1)
		}
	}
}

func TestPtrLoc(t *testing.T) {
	p := NewPtr(TagApp, 100, 0, 0)
	if got := p.Loc(0); got != 100 {
		t.Errorf("Loc(0) = %d, want 100", got)
	}
	if got := p.Loc(1); got != 101 {
		t.Errorf("Loc(1) = %d, want 101", got)
	}
}

func TestPtrNil(t *testing.T) {
	if !Nil.IsNil() {
		t.Error("Nil.IsNil() = false")
	}
	p := NewPtr(TagVar, 5, 0, 0)
	if p.IsNil() {
		t.Error("non-zero pointer reported as nil")
	}
}

func TestPtrWithPos(t *testing.T) {
	p := NewPtr(TagPar, 10, 4, 0)
	q := p.WithPos(20)
	if q.Pos() != 20 {
		t.Errorf("WithPos: Pos() = %d, want 20", q.Pos())
	}
	if q.Tag() != TagPar || q.Ex0() != 4 {
		t.Error("WithPos changed tag or extension bytes")
	}
}
