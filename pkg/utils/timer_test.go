package utils

import (
	"strings"
	"testing"
	"time"
)

func TestTimerRecordsPhases(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	timer := NewTimer("reduce", WithClock(clock))

	pt := timer.Start("parse")
	clock.Advance(10 * time.Millisecond)
	if d := pt.Stop(); d != 10*time.Millisecond {
		t.Errorf("Stop = %v, want 10ms", d)
	}

	timer.TimeFunc("normalize", func() {
		clock.Advance(30 * time.Millisecond)
	})

	if got := timer.GetDuration("parse"); got != 10*time.Millisecond {
		t.Errorf("parse duration = %v, want 10ms", got)
	}
	if got := timer.GetDuration("normalize"); got != 30*time.Millisecond {
		t.Errorf("normalize duration = %v, want 30ms", got)
	}
	if got := timer.TotalDuration(); got != 40*time.Millisecond {
		t.Errorf("total = %v, want 40ms", got)
	}
}

func TestTimerAccumulatesRepeatedPhases(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	timer := NewTimer("fixpoint", WithClock(clock))

	for i := 0; i < 3; i++ {
		timer.TimeFunc("pass", func() { clock.Advance(5 * time.Millisecond) })
	}

	if got := timer.GetDuration("pass"); got != 15*time.Millisecond {
		t.Errorf("accumulated duration = %v, want 15ms", got)
	}
	if n := len(timer.Phases()); n != 1 {
		t.Errorf("repeated phase should collapse to one entry, got %d", n)
	}
}

func TestTimerPhaseOrderAndTopN(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	timer := NewTimer("run", WithClock(clock))

	timer.TimeFunc("parse", func() { clock.Advance(1 * time.Millisecond) })
	timer.TimeFunc("normalize", func() { clock.Advance(50 * time.Millisecond) })
	timer.TimeFunc("readback", func() { clock.Advance(2 * time.Millisecond) })

	phases := timer.Phases()
	if phases[0].Name != "parse" || phases[2].Name != "readback" {
		t.Errorf("Phases should keep first-start order, got %v", phases)
	}

	top := timer.TopN(2)
	if len(top) != 2 || top[0].Name != "normalize" {
		t.Errorf("TopN(2) should lead with the longest phase, got %v", top)
	}
}

func TestTimerSummary(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	timer := NewTimer("run", WithClock(clock))
	timer.TimeFunc("parse", func() { clock.Advance(25 * time.Millisecond) })
	timer.TimeFunc("normalize", func() { clock.Advance(75 * time.Millisecond) })

	s := timer.Summary()
	if !strings.Contains(s, "run: total") {
		t.Errorf("summary missing header: %s", s)
	}
	if !strings.Contains(s, "parse") || !strings.Contains(s, "25.0%") {
		t.Errorf("summary missing parse line with percentage: %s", s)
	}

	empty := NewTimer("empty")
	if !strings.Contains(empty.Summary(), "no phases recorded") {
		t.Error("empty timer should say so")
	}
}

func TestDisabledTimerIsNoOp(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	timer := NewTimer("off", WithClock(clock), WithEnabled(false))

	pt := timer.Start("phase")
	clock.Advance(time.Second)
	if d := pt.Stop(); d != 0 {
		t.Errorf("disabled timer should record nothing, got %v", d)
	}
	if timer.TotalDuration() != 0 {
		t.Error("disabled timer total should be zero")
	}
}

func TestTimerReset(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	timer := NewTimer("run", WithClock(clock))
	timer.TimeFunc("parse", func() { clock.Advance(time.Millisecond) })

	timer.Reset()
	if timer.TotalDuration() != 0 || len(timer.Phases()) != 0 {
		t.Error("Reset should discard recorded phases")
	}

	timer.TimeFunc("parse", func() { clock.Advance(2 * time.Millisecond) })
	if got := timer.GetDuration("parse"); got != 2*time.Millisecond {
		t.Errorf("timer should keep working after Reset, got %v", got)
	}
}
