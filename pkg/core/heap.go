package core

import (
	"github.com/optinet/optinet/pkg/collections"
	coreerrors "github.com/optinet/optinet/pkg/errors"
)

// smallBuckets is the number of fixed-size free lists the heap keeps:
// sizes 0..3 cover zero-width blocks (arity-0 Ctr/Cal), single cells,
// App/Lam/Par (2), and duplicators (3). Larger allocations (Ctr/Cal with arity
// above 3) fall back to largeFree, keyed by exact size.
const smallBuckets = 4

// Rule identifies which rewrite rule fired, for the per-rule histogram
// callers use to report a job's rewrite-stats breakdown.
type Rule int

const (
	RuleAppLam Rule = iota
	RuleAppPar
	RuleLetLam
	RuleLetParAnnihilate
	RuleLetParCommute
	RuleLetCtr
	numRules
)

// String returns the rule's conventional hyphenated name.
func (r Rule) String() string {
	switch r {
	case RuleAppLam:
		return "APP-LAM"
	case RuleAppPar:
		return "APP-PAR"
	case RuleLetLam:
		return "LET-LAM"
	case RuleLetParAnnihilate:
		return "LET-PAR-annihilate"
	case RuleLetParCommute:
		return "LET-PAR-commute"
	case RuleLetCtr:
		return "LET-CTR"
	default:
		return "unknown"
	}
}

// Heap is a flat array of cells (Ptr words) with size-bucketed free
// lists, mirroring a bump-and-recycle arena rather than a per-node heap
// object. Every rewrite rule allocates and frees exclusively through
// Alloc/Free so the free lists stay the single source of truth for
// reuse.
type Heap struct {
	cells []Ptr

	small     [smallBuckets]*collections.Stack[uint32]
	largeFree map[int]*collections.Stack[uint32]

	gas      uint64
	gasLimit uint64
	stalled  bool
	ruleHits [numRules]uint64

	allocs int64
	frees  int64
}

// NewHeap creates a heap with room for capacity cells pre-allocated. A
// gasLimit of 0 means unlimited rewrites.
func NewHeap(capacity int, gasLimit uint64) *Heap {
	h := &Heap{
		cells:     make([]Ptr, 0, capacity),
		largeFree: make(map[int]*collections.Stack[uint32]),
		gasLimit:  gasLimit,
	}
	for i := range h.small {
		h.small[i] = collections.NewStack[uint32](64)
	}
	return h
}

// Reset empties the heap for reuse: cells, free lists, gas, and the
// rule histogram all return to their initial state. The gas limit is
// kept, since it is configuration rather than run state.
func (h *Heap) Reset() {
	h.cells = h.cells[:0]
	for i := range h.small {
		h.small[i].Clear()
	}
	h.largeFree = make(map[int]*collections.Stack[uint32])
	h.gas = 0
	h.stalled = false
	h.ruleHits = [numRules]uint64{}
	h.allocs = 0
	h.frees = 0
}

// Len returns the number of cells currently backing the heap (including
// freed-but-not-reclaimed ones).
func (h *Heap) Len() int {
	return len(h.cells)
}

// Get reads the cell at pos.
func (h *Heap) Get(pos uint32) Ptr {
	return h.cells[pos]
}

// Set writes the cell at pos directly, bypassing the binder/occurrence
// back-edge bookkeeping that Link performs. Only allocation helpers and
// Link itself should call this.
func (h *Heap) Set(pos uint32, p Ptr) {
	h.cells[pos] = p
}

// Alloc reserves n contiguous cells and returns the base address,
// preferring a recycled block from the matching free list.
func (h *Heap) Alloc(n int) uint32 {
	h.allocs++
	if n < smallBuckets {
		if pos, ok := h.small[n].Pop(); ok {
			return pos
		}
	} else if bucket, exists := h.largeFree[n]; exists {
		if pos, ok := bucket.Pop(); ok {
			return pos
		}
	}
	pos := uint32(len(h.cells))
	for i := 0; i < n; i++ {
		h.cells = append(h.cells, Nil)
	}
	return pos
}

// Free returns an n-cell block starting at pos to the appropriate free
// list. It does not clear the cells; callers that care about leaking
// stale pointers should overwrite via Link/Set before reuse, which Alloc
// callers always do since every allocated slot is immediately linked.
func (h *Heap) Free(pos uint32, n int) {
	h.frees++
	if n < smallBuckets {
		h.small[n].Push(pos)
		return
	}
	bucket, exists := h.largeFree[n]
	if !exists {
		bucket = collections.NewStack[uint32](16)
		h.largeFree[n] = bucket
	}
	bucket.Push(pos)
}

// Gas returns the number of rewrites applied so far.
func (h *Heap) Gas() uint64 {
	return h.gas
}

// GasLimit returns the configured rewrite budget (0 = unlimited).
func (h *Heap) GasLimit() uint64 {
	return h.gasLimit
}

// SetGasLimit changes the rewrite budget. Raising it clears the stalled
// flag so a resumed reduction can report its own outcome.
func (h *Heap) SetGasLimit(limit uint64) {
	h.gasLimit = limit
	h.stalled = false
}

// GasExhausted reports whether the configured rewrite budget has been
// consumed. A driver that sees this return true must stop rewriting and
// return the current term as-is. Consumed budget alone does not mean
// the result is partial: a term whose normal form costs exactly the
// limit lands here too — Stalled is what distinguishes the two.
func (h *Heap) GasExhausted() bool {
	return h.gasLimit > 0 && h.gas >= h.gasLimit
}

// Stalled reports whether a rewrite that would otherwise have fired was
// blocked by the gas budget: the current term still has a pending redex
// the budget did not cover. This, not GasExhausted, is the signal that
// a reduction's result is partial.
func (h *Heap) Stalled() bool {
	return h.stalled
}

// markStalled records that the gas guard blocked an applicable rule.
func (h *Heap) markStalled() {
	h.stalled = true
}

func (h *Heap) incGas() {
	h.gas++
}

// recordRule tallies a fired rule into the per-rule histogram, alongside
// the overall gas counter.
func (h *Heap) recordRule(r Rule) {
	h.ruleHits[r]++
}

// RuleCount returns how many times r has fired so far on this heap.
func (h *Heap) RuleCount(r Rule) uint64 {
	if r < 0 || int(r) >= len(h.ruleHits) {
		return 0
	}
	return h.ruleHits[r]
}

// Stats reports allocation counters, useful for benchmarking and for the
// worker-pool driven confluence sweeps.
type Stats struct {
	Cells  int
	Allocs int64
	Frees  int64
	Gas    uint64
}

// Stats snapshots the heap's bookkeeping counters.
func (h *Heap) Stats() Stats {
	return Stats{
		Cells:  len(h.cells),
		Allocs: h.allocs,
		Frees:  h.frees,
		Gas:    h.gas,
	}
}

// ErrGasExhausted is returned by callers that choose to surface gas
// exhaustion as an error rather than silently returning a partial term
// (the whnf/normal drivers themselves never return an error; Reduce*
// wrappers in this package do, for callers that want strict behavior).
var ErrGasExhausted = coreerrors.ErrGasExhausted
