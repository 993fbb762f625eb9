// Package testutil carries the shared end-to-end reduction scenarios
// and graph-shape assertions the engine's tests build on. The scenario
// programs use constructor-application oracles where a raw lambda
// normal form would print nondeterministically: applying a Church
// boolean or numeral to constructor arguments collapses the answer to
// a closed constructor tower, which prints the same way every run.
package testutil

// Scenario is one end-to-end reduction case: a program in the surface
// syntax, the exact text its normal form prints as, and a lower bound
// on the rewrite count (exact counts are allocator-order dependent for
// the larger programs; the bound pins the optimality claim without
// over-constraining).
type Scenario struct {
	Name        string
	Program     string
	Expected    string
	MinRewrites uint64
}

// Church-encoded building blocks. Every textual duplicator carries its
// own color, since each marks an independent sharing origin.
const (
	lcTrue  = "λt: λf: t"
	lcZero  = "λs: λz: z"
	lcSucc  = "λn: λs: λz: !1<s0 s1> = s; (s0 ((n s1) z))"
	lcDbl   = "λn: λs: λz: !2<n0 n1> = n; !3<s2 s3> = s; ((n0 s2) ((n1 s3) z))"
	lcNand  = "λa: λb: ((a ((b λx: λy: y) λx: λy: x)) λp: λq: p)"
	lcStep  = "λt: !4<t0 t1> = t; ((" + lcNand + " t0) t1)"
	lcFour  = "λs: λz: !5<a b> = s; !6<c d> = a; !7<e f> = b; (c (d (e (f z))))"
	lcSlow4 = "((" + lcFour + " " + lcStep + ") " + lcTrue + ")"
)

// Scenarios returns the end-to-end suite, smallest first.
func Scenarios() []Scenario {
	one := "(" + lcSucc + " " + lcZero + ")"
	two := "(" + lcDbl + " " + one + ")"
	nandTree := "!8<p q> = " + lcSlow4 + "; ((" + lcNand + " p) q)"

	return []Scenario{
		{
			// Plain beta step: the K combinator survives untouched.
			Name:        "identity_applied_to_k",
			Program:     "(λx: x λa: λb: a)",
			Expected:    "λx1: λx2: x1",
			MinRewrites: 1,
		},
		{
			// Self-application through an explicit duplicator: both
			// projections of the shared identity meet again.
			Name:        "dup_identity_self_apply",
			Program:     "!0<a b> = λx: x; (a b)",
			Expected:    "λx1: x1",
			MinRewrites: 3,
		},
		{
			// Applying a fan node distributes the argument over both
			// branches.
			Name:        "apply_fan_of_identities",
			Program:     "(&0<λx: x λx: x> λk: k)",
			Expected:    "&0<λx1: x1 λx2: x2>",
			MinRewrites: 2,
		},
		{
			// double (succ zero), counted by applying the numeral to a
			// constructor successor and a constructor zero: the answer
			// is a two-deep tower.
			Name:        "church_double_one",
			Program:     "((" + two + " λx: $1:1{x}) $0:0{})",
			Expected:    "$1:1{$1:1{$0:0{}}}",
			MinRewrites: 5,
		},
		{
			// nand (slow 4) (slow 4), where slow n iterates t ↦ nand t t
			// from true; sharing keeps the nand tree linear. The boolean
			// answer (false) selects the second constructor argument.
			Name:        "nand_of_shared_slow_tree",
			Program:     "((" + nandTree + " $1:0{}) $0:0{})",
			Expected:    "$0:0{}",
			MinRewrites: 10,
		},
	}
}
