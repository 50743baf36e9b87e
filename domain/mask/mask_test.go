package mask

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/soocke/emojipic/domain/compose"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func rgb(r, g, b uint8) color.NRGBA { return color.NRGBA{r, g, b, 255} }

func setCorners(img *image.NRGBA, cs [4]color.NRGBA) {
	for i, p := range Corners(img.Bounds()) {
		img.SetNRGBA(p.X, p.Y, cs[i])
	}
}

func TestSampleBackground_Plurality(t *testing.T) {
	c1, c2, c3, c4 := rgb(10, 10, 10), rgb(200, 0, 0), rgb(0, 200, 0), rgb(0, 0, 200)
	cases := []struct {
		name    string
		corners [4]color.NRGBA
		want    BackgroundSample
	}{
		{"all same", [4]color.NRGBA{c1, c1, c1, c1}, BackgroundSample{Color: compose.RGB{R: 10, G: 10, B: 10}, Count: 4}},
		{"pair wins", [4]color.NRGBA{c2, c1, c3, c1}, BackgroundSample{Color: compose.RGB{R: 10, G: 10, B: 10}, Count: 2}},
		{"C1 C1 C2 C3", [4]color.NRGBA{c1, c1, c2, c3}, BackgroundSample{Color: compose.RGB{R: 10, G: 10, B: 10}, Count: 2}},
		{"all distinct first wins", [4]color.NRGBA{c4, c3, c2, c1}, BackgroundSample{Color: compose.RGB{R: 0, G: 0, B: 200}, Count: 1}},
		{"two pairs first wins", [4]color.NRGBA{c3, c2, c2, c3}, BackgroundSample{Color: compose.RGB{R: 0, G: 200, B: 0}, Count: 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			img := solid(8, 6, rgb(1, 2, 3))
			setCorners(img, tc.corners)
			got, err := SampleBackground(img)
			if err != nil {
				t.Fatalf("sample: %v", err)
			}
			if d := cmp.Diff(tc.want, got); d != "" {
				t.Fatalf("sample mismatch (-want +got):\n%s", d)
			}
		})
	}
}

func TestSampleBackground_SinglePixel(t *testing.T) {
	img := solid(1, 1, rgb(9, 8, 7))
	got, err := SampleBackground(img)
	if err != nil || got.Count != 4 || got.Color != (compose.RGB{R: 9, G: 8, B: 7}) {
		t.Fatalf("unexpected sample %+v err=%v", got, err)
	}
}

func TestRemove_ToleranceIsStrictPerChannel(t *testing.T) {
	img := solid(5, 1, rgb(100, 100, 100))
	img.SetNRGBA(1, 0, rgb(129, 71, 100)) // every channel within 29
	img.SetNRGBA(2, 0, rgb(130, 100, 100))
	img.SetNRGBA(3, 0, rgb(100, 70, 100))
	// corners (0,0) and (4,0) stay background; 1x-high image shares rows
	out, err := Remove(img, Options{})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	wantAlpha := []uint8{0, 0, 255, 255, 0}
	for x, a := range wantAlpha {
		if got := out.NRGBAAt(x, 0).A; got != a {
			t.Fatalf("pixel %d alpha=%d want %d", x, got, a)
		}
	}
	if c := out.NRGBAAt(1, 0); c.R != 129 || c.G != 71 {
		t.Fatalf("RGB must be preserved on cleared pixels, got %+v", c)
	}
}

func TestRemove_DoesNotMutateInput(t *testing.T) {
	img := solid(4, 4, rgb(255, 255, 255))
	before := append([]uint8(nil), img.Pix...)
	if _, err := Remove(img, Options{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, img.Pix) {
		t.Fatalf("input buffer modified")
	}
}

func TestRemove_Idempotent(t *testing.T) {
	img := solid(16, 16, rgb(250, 250, 250))
	for y := 4; y < 12; y++ {
		for x := 4; x < 12; x++ {
			img.SetNRGBA(x, y, rgb(uint8(20*x), uint8(10*y), 90))
		}
	}
	img.SetNRGBA(8, 8, rgb(240, 245, 255)) // background-coloured speck inside subject
	once, err := Remove(img, Options{})
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Remove(once, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(once.Pix, twice.Pix); d != "" {
		t.Fatalf("second pass changed pixels:\n%s", d)
	}
	if once.NRGBAAt(8, 8).A != 0 {
		t.Fatalf("isolated background-coloured pixel inside the subject should be cleared too")
	}
}

func TestRemove_WhiteCornersSubjectCenter(t *testing.T) {
	img := solid(64, 64, rgb(255, 255, 255))
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			img.SetNRGBA(x, y, rgb(220, 40, 60))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	out, err := RemoveEncoded(&buf, Options{Tolerance: DefaultTolerance})
	if err != nil {
		t.Fatalf("remove encoded: %v", err)
	}
	for _, p := range Corners(out.Bounds()) {
		if a := out.NRGBAAt(p.X, p.Y).A; a != 0 {
			t.Fatalf("corner %v alpha=%d want 0", p, a)
		}
	}
	for y := 16; y < 48; y++ {
		for x := 16; x < 48; x++ {
			if c := out.NRGBAAt(x, y); c != rgb(220, 40, 60) {
				t.Fatalf("subject pixel (%d,%d) changed: %+v", x, y, c)
			}
		}
	}
}

func TestRemove_SubImageOrigin(t *testing.T) {
	base := solid(10, 10, rgb(0, 0, 0))
	sub := base.SubImage(image.Rect(2, 2, 6, 6)).(*image.NRGBA)
	out, err := Remove(sub, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Fatalf("expected rebased bounds, got %v", out.Bounds())
	}
	if out.NRGBAAt(3, 3).A != 0 {
		t.Fatalf("expected cleared pixel")
	}
}

func TestRemove_EmptyImage(t *testing.T) {
	if _, err := Remove(image.NewNRGBA(image.Rect(0, 0, 0, 0)), Options{}); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := Remove(nil, Options{}); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage for nil, got %v", err)
	}
	if _, err := SampleBackground(nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage from sample, got %v", err)
	}
}

func TestRemoveEncoded_DecodeFailure(t *testing.T) {
	if _, err := RemoveEncoded(bytes.NewReader([]byte("not an image")), Options{}); err == nil {
		t.Fatalf("expected decode error")
	}
}
