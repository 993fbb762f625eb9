package utils

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Phase is one named, timed span within a Timer.
type Phase struct {
	Name     string
	Duration time.Duration
}

// Timer accumulates named phase durations across one logical operation
// (a single reduction run, say: parse, compile, normalize, readback)
// and renders them as a summary afterwards.
type Timer struct {
	mu      sync.Mutex
	name    string
	clock   Clock
	enabled bool
	phases  []Phase
	index   map[string]int
}

// TimerOption configures a Timer at construction.
type TimerOption func(*Timer)

// WithClock substitutes the time source, for tests.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) { t.clock = clock }
}

// WithEnabled turns timing off entirely when false; every method
// becomes a no-op, so callers can leave the instrumentation in place
// unconditionally.
func WithEnabled(enabled bool) TimerOption {
	return func(t *Timer) { t.enabled = enabled }
}

// NewTimer creates a Timer labeled name.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:    name,
		clock:   NewRealClock(),
		enabled: true,
		index:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// PhaseTimer is a running phase; Stop records its duration.
type PhaseTimer struct {
	timer *Timer
	name  string
	start time.Time
}

// Start begins timing a phase. Phases with the same name accumulate.
func (t *Timer) Start(phaseName string) *PhaseTimer {
	if !t.enabled {
		return &PhaseTimer{}
	}
	return &PhaseTimer{timer: t, name: phaseName, start: t.clock.Now()}
}

// Stop ends the phase and returns its duration.
func (pt *PhaseTimer) Stop() time.Duration {
	if pt.timer == nil {
		return 0
	}
	d := pt.timer.clock.Since(pt.start)
	pt.timer.record(pt.name, d)
	return d
}

// TimeFunc runs fn as a named phase and returns how long it took.
func (t *Timer) TimeFunc(phaseName string, fn func()) time.Duration {
	pt := t.Start(phaseName)
	fn()
	return pt.Stop()
}

func (t *Timer) record(name string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[name]; ok {
		t.phases[i].Duration += d
		return
	}
	t.index[name] = len(t.phases)
	t.phases = append(t.phases, Phase{Name: name, Duration: d})
}

// GetDuration returns the accumulated duration of one phase.
func (t *Timer) GetDuration(phaseName string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i, ok := t.index[phaseName]; ok {
		return t.phases[i].Duration
	}
	return 0
}

// TotalDuration returns the sum of every recorded phase.
func (t *Timer) TotalDuration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total time.Duration
	for _, p := range t.phases {
		total += p.Duration
	}
	return total
}

// Phases returns the recorded phases in first-start order.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Phase, len(t.phases))
	copy(out, t.phases)
	return out
}

// TopN returns the n longest phases, longest first.
func (t *Timer) TopN(n int) []Phase {
	phases := t.Phases()
	sort.Slice(phases, func(i, j int) bool {
		return phases[i].Duration > phases[j].Duration
	})
	if n < len(phases) {
		phases = phases[:n]
	}
	return phases
}

// Summary renders the timer as a one-line-per-phase report with
// percentages of the total.
func (t *Timer) Summary() string {
	phases := t.Phases()
	if len(phases) == 0 {
		return fmt.Sprintf("%s: no phases recorded", t.name)
	}

	var total time.Duration
	for _, p := range phases {
		total += p.Duration
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: total %v\n", t.name, total)
	for _, p := range phases {
		pct := 0.0
		if total > 0 {
			pct = float64(p.Duration) / float64(total) * 100
		}
		fmt.Fprintf(&b, "  %-12s %10v  %5.1f%%\n", p.Name, p.Duration, pct)
	}
	return b.String()
}

// Reset discards all recorded phases.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = t.phases[:0]
	t.index = make(map[string]int)
}
