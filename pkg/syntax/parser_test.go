package syntax

import "testing"

func TestParseIdentity(t *testing.T) {
	term, err := Parse("λx: x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lam, ok := term.(Lam)
	if !ok {
		t.Fatalf("expected Lam, got %T", term)
	}
	if lam.Name != "x" {
		t.Errorf("expected binder name x, got %q", lam.Name)
	}
	v, ok := lam.Body.(Var)
	if !ok || v.Name != "x" {
		t.Errorf("expected body to be Var(x), got %#v", lam.Body)
	}
}

func TestParseApplication(t *testing.T) {
	term, err := Parse("((λx: x) λy: y)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	app, ok := term.(App)
	if !ok {
		t.Fatalf("expected App, got %T", term)
	}
	if _, ok := app.Func.(Lam); !ok {
		t.Errorf("expected function position to be Lam, got %T", app.Func)
	}
	if _, ok := app.Arg.(Lam); !ok {
		t.Errorf("expected argument position to be Lam, got %T", app.Arg)
	}
}

func TestParsePar(t *testing.T) {
	term, err := Parse("&0<λx: x λy: y>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	par, ok := term.(Par)
	if !ok {
		t.Fatalf("expected Par, got %T", term)
	}
	if par.Color != 0 {
		t.Errorf("expected color 0, got %d", par.Color)
	}
}

func TestParseDup(t *testing.T) {
	term, err := Parse("λx: !0<a b> = x; (a b)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lam := term.(Lam)
	dup, ok := lam.Body.(Dup)
	if !ok {
		t.Fatalf("expected Dup, got %T", lam.Body)
	}
	if dup.Name0 != "a" || dup.Name1 != "b" {
		t.Errorf("unexpected dup binder names: %q %q", dup.Name0, dup.Name1)
	}
}

func TestParseCtrAndCal(t *testing.T) {
	term, err := Parse("$1:2{λx: x λy: y}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ctr, ok := term.(Ctr)
	if !ok {
		t.Fatalf("expected Ctr, got %T", term)
	}
	if ctr.ID != 1 || ctr.Arity != 2 || len(ctr.Args) != 2 {
		t.Errorf("unexpected ctr shape: %#v", ctr)
	}

	term2, err := Parse("@3:0{}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cal, ok := term2.(Cal)
	if !ok || cal.ID != 3 || cal.Arity != 0 {
		t.Fatalf("unexpected cal shape: %#v", term2)
	}
}

func TestParseUnboundVariableIsRejected(t *testing.T) {
	_, err := Parse("λx: y")
	if err == nil {
		t.Fatal("expected an error for an unbound variable")
	}
}

func TestParseDoubleUseIsRejected(t *testing.T) {
	_, err := Parse("λx: (x x)")
	if err == nil {
		t.Fatal("expected an error for a variable used twice without a dup")
	}
}

func TestParseUnbalancedBracketsIsRejected(t *testing.T) {
	_, err := Parse("(λx: x")
	if err == nil {
		t.Fatal("expected an error for unbalanced parens")
	}
}

func TestParseArityMismatchIsRejected(t *testing.T) {
	_, err := Parse("$1:2{λx: x}")
	if err == nil {
		t.Fatal("expected an error for declared arity not matching argument count")
	}
}

func TestPrintRoundTripsSimpleTerms(t *testing.T) {
	sources := []string{
		"λx: x",
		"((λx: x) λy: y)",
		"&0<λx: x λy: y>",
		"λx: !0<a b> = x; (a b)",
	}
	for _, src := range sources {
		term, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", src, err)
		}
		printed := Print(term)
		term2, err := Parse(printed)
		if err != nil {
			t.Fatalf("Parse(Print(%q)) = Parse(%q) failed: %v", src, printed, err)
		}
		if Print(term2) != printed {
			t.Errorf("printer is not idempotent: %q vs %q", printed, Print(term2))
		}
	}
}
