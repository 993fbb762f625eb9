// Package collections holds the small generic containers the reduction
// runtime leans on: a versioned visited-set for graph walks, and the
// stack/queue shapes backing the heap's free lists and the scheduler's
// fetch buffer.
package collections

// VersionedBitset is a visited-set over non-negative integer keys (node
// base positions, in the normalizer's case) whose Reset is O(1): each
// entry stores the version at which it was last set, and bumping the
// current version invalidates every entry at once. The normalizer
// re-walks the whole graph once per fixpoint pass, so clearing cost
// matters more than the extra 4 bytes per slot.
type VersionedBitset struct {
	marks   []uint32
	version uint32
}

// NewVersionedBitset creates a visited-set sized for keys below size.
// It grows on demand, so size is a hint, not a bound.
func NewVersionedBitset(size int) *VersionedBitset {
	if size <= 0 {
		size = 64
	}
	return &VersionedBitset{
		marks:   make([]uint32, size),
		version: 1,
	}
}

// Set marks key i in the current version. Negative keys are ignored.
func (v *VersionedBitset) Set(i int) {
	if i < 0 {
		return
	}
	if i >= len(v.marks) {
		v.grow(i + 1)
	}
	v.marks[i] = v.version
}

// Test reports whether key i was set since the last Reset.
func (v *VersionedBitset) Test(i int) bool {
	if i < 0 || i >= len(v.marks) {
		return false
	}
	return v.marks[i] == v.version
}

// Reset clears every mark by advancing the version. On the (rare)
// version wraparound the backing array really is zeroed, since stale
// marks from 2^32 resets ago would otherwise read as current again.
func (v *VersionedBitset) Reset() {
	v.version++
	if v.version == 0 {
		for i := range v.marks {
			v.marks[i] = 0
		}
		v.version = 1
	}
}

// Size returns the number of keys the set currently covers.
func (v *VersionedBitset) Size() int {
	return len(v.marks)
}

func (v *VersionedBitset) grow(need int) {
	capacity := len(v.marks) * 2
	if capacity < need {
		capacity = need
	}
	grown := make([]uint32, capacity)
	copy(grown, v.marks)
	v.marks = grown
}
