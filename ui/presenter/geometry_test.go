package presenter

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soocke/emojipic/domain/capture"
)

func TestParseGeometry(t *testing.T) {
	cases := []struct {
		in   string
		want Geometry
		ok   bool
	}{
		{"800x900+10+20", Geometry{W: 800, H: 900, X: 10, Y: 20}, true},
		{"640x480-5-7", Geometry{W: 640, H: 480, X: -5, Y: -7}, true},
		{"1x1+0+0", Geometry{}, false},
		{"garbage", Geometry{}, false},
		{"", Geometry{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseGeometry(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q: ok=%v want %v", tc.in, ok, tc.ok)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("%q mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}

func TestWindowLayout_FeedsTracker(t *testing.T) {
	geom := "1x1+0+0"
	wl := NewWindowLayout(func() string { return geom }, capture.LayoutAuto)
	tr := capture.NewTracker(wl, capture.TrackerOptions{})
	defer tr.Close()

	f, _ := wl.Viewport()
	tr.Mount(f)
	if got := tr.Region(); got.Top != 0 {
		t.Fatalf("unmapped window should give offset 0, got %v", got.Top)
	}

	geom = "1000x800+50+60"
	f, ok := wl.Viewport()
	if !ok {
		t.Fatalf("expected viewport")
	}
	tr.Mount(f)
	want := capture.Region{Top: PreviewPad, Left: 200, Side: 600}
	if diff := cmp.Diff(want, tr.Region()); diff != "" {
		t.Fatalf("region mismatch (-want +got):\n%s", diff)
	}
	if wl.Origin() != image.Pt(50, 60) {
		t.Fatalf("unexpected origin %v", wl.Origin())
	}

	geom = "500x800+0+0"
	f, _ = wl.Viewport()
	tr.Mount(f)
	if got := tr.Region(); got.Side != 200 || got.Left != 150 {
		t.Fatalf("compact window should give 200px region, got %+v", got)
	}
}
