package capture

import (
	"sync/atomic"
	"testing"
	"time"
)

type countingProbe struct {
	calls atomic.Int64
	top   atomic.Int64
	ready atomic.Bool
}

func (p *countingProbe) BoundingBox() (Box, bool) {
	p.calls.Add(1)
	if !p.ready.Load() {
		return Box{}, false
	}
	return Box{Top: float64(p.top.Load()), Left: 12, Width: 600, Height: 600}, true
}

// waitForRecomputes waits up to timeout for the tracker to reach n recomputes.
func waitForRecomputes(t *testing.T, tr *Tracker, n uint64, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if tr.Stats().Recomputes >= n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for %d recomputes (got %d)", n, tr.Stats().Recomputes)
}

func TestTracker_MountRecomputesOnce(t *testing.T) {
	p := &countingProbe{}
	p.ready.Store(true)
	p.top.Store(140)
	tr := NewTracker(p, TrackerOptions{Interval: 50 * time.Millisecond})
	defer tr.Close()
	tr.Mount(ViewportFrame{ScrollY: 0, Width: 1280})
	if got := p.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one layout read on mount, got %d", got)
	}
	if off := tr.CaptureOffset(0); off != 140 {
		t.Fatalf("expected offset 140, got %v", off)
	}
}

func TestTracker_BurstOfEventsRecomputesOnce(t *testing.T) {
	p := &countingProbe{}
	p.ready.Store(true)
	tr := NewTracker(p, TrackerOptions{Interval: 150 * time.Millisecond})
	defer tr.Close()
	tr.Mount(ViewportFrame{Width: 1280})

	for i := 1; i <= 1000; i++ {
		tr.Observe(ViewportFrame{ScrollY: float64(i), Width: 1280})
	}
	if st := tr.Stats(); st.Recomputes != 1 || st.Observed != 1000 {
		t.Fatalf("raw events must not recompute directly: %+v", st)
	}
	waitForRecomputes(t, tr, 2, time.Second)
	time.Sleep(400 * time.Millisecond)
	if got := tr.Stats().Recomputes; got != 2 {
		t.Fatalf("expected one recompute for the burst, got %d total", got-1)
	}
	if r := tr.Region(); r.Top != 1000 {
		t.Fatalf("region should reflect the last sampled scroll, got %v", r.Top)
	}
}

func TestTracker_UnchangedFrameSkipsRecompute(t *testing.T) {
	p := &countingProbe{}
	p.ready.Store(true)
	tr := NewTracker(p, TrackerOptions{Interval: 30 * time.Millisecond})
	defer tr.Close()
	f := ViewportFrame{ScrollY: 10, Width: 1024}
	tr.Mount(f)
	for i := 0; i < 50; i++ {
		tr.Observe(f)
	}
	time.Sleep(150 * time.Millisecond)
	if got := tr.Stats().Recomputes; got != 1 {
		t.Fatalf("identical frames should not recompute, got %d", got)
	}
	// a change that reverts within the interval samples the original frame
	tr.Observe(ViewportFrame{ScrollY: 20, Width: 1024})
	tr.Observe(f)
	time.Sleep(150 * time.Millisecond)
	if got := tr.Stats().Recomputes; got != 1 {
		t.Fatalf("reverted change should not recompute, got %d", got)
	}
}

func TestTracker_DistinctSignalsEachRecompute(t *testing.T) {
	p := &countingProbe{}
	p.ready.Store(true)
	tr := NewTracker(p, TrackerOptions{Interval: 30 * time.Millisecond})
	defer tr.Close()
	tr.Mount(ViewportFrame{Width: 1024})
	for i := 1; i <= 3; i++ {
		tr.Observe(ViewportFrame{ScrollY: float64(i * 100), Width: 1024})
		waitForRecomputes(t, tr, uint64(i+1), time.Second)
	}
	if got := tr.Stats().Recomputes; got != 4 {
		t.Fatalf("expected 4 recomputes, got %d", got)
	}
}

func TestTracker_NoLayoutDegradesToZero(t *testing.T) {
	p := &countingProbe{}
	p.top.Store(300)
	tr := NewTracker(p, TrackerOptions{Interval: 20 * time.Millisecond})
	defer tr.Close()
	tr.Mount(ViewportFrame{ScrollY: 50, Width: 1280})
	if off := tr.CaptureOffset(50); off != 50 {
		t.Fatalf("unlaid-out target should give offset 0 + scroll, got %v", off)
	}
	p.ready.Store(true)
	tr.Observe(ViewportFrame{ScrollY: 60, Width: 1280})
	waitForRecomputes(t, tr, 2, time.Second)
	if off := tr.CaptureOffset(60); off != 360 {
		t.Fatalf("next recompute should correct the offset, got %v", off)
	}
}

func TestTracker_RegionTopMatchesCaptureOffset(t *testing.T) {
	p := &countingProbe{}
	p.top.Store(220)
	p.ready.Store(true)
	tr := NewTracker(p, TrackerOptions{Interval: 20 * time.Millisecond})
	defer tr.Close()
	tr.Mount(ViewportFrame{ScrollY: 0, Width: 1280})
	tr.Observe(ViewportFrame{ScrollY: 75, Width: 1280})
	waitForRecomputes(t, tr, 2, time.Second)

	if got, want := tr.Region().Top, tr.CaptureOffset(75); got != want || want != 295 {
		t.Fatalf("region top %v, capture offset %v, want both 295", got, want)
	}
}

func TestTracker_RegionSideFollowsLayout(t *testing.T) {
	tr := NewTracker(nil, TrackerOptions{Interval: 20 * time.Millisecond})
	defer tr.Close()
	tr.Mount(ViewportFrame{Width: 500})
	if s := tr.Region().Side; s != CompactSide {
		t.Fatalf("expected compact side, got %d", s)
	}
	tr.Mount(ViewportFrame{Width: 1200})
	if s := tr.Region().Side; s != ExpandedSide {
		t.Fatalf("expected expanded side, got %d", s)
	}
	fixed := NewTracker(nil, TrackerOptions{Layout: LayoutCompact})
	fixed.Mount(ViewportFrame{Width: 1920})
	if s := fixed.Region().Side; s != CompactSide {
		t.Fatalf("fixed layout should win, got %d", s)
	}
}

func TestTracker_CloseStopsSampling(t *testing.T) {
	p := &countingProbe{}
	p.ready.Store(true)
	tr := NewTracker(p, TrackerOptions{Interval: 30 * time.Millisecond})
	tr.Mount(ViewportFrame{Width: 1024})
	tr.Observe(ViewportFrame{ScrollY: 5, Width: 1024})
	tr.Close()
	time.Sleep(100 * time.Millisecond)
	if got := tr.Stats().Recomputes; got != 1 {
		t.Fatalf("closed tracker recomputed: %d", got)
	}
}

func TestParseLayout(t *testing.T) {
	cases := map[string]Layout{"compact": LayoutCompact, " Expanded ": LayoutExpanded, "auto": LayoutAuto, "": LayoutAuto}
	for in, want := range cases {
		if got := ParseLayout(in); got != want {
			t.Fatalf("ParseLayout(%q)=%v want %v", in, got, want)
		}
	}
}
