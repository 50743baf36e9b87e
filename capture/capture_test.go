package capture

import (
	"context"
	"errors"
	"image"
	"testing"

	dcapture "github.com/soocke/emojipic/domain/capture"
)

func stubGrab(t *testing.T) *[]image.Rectangle {
	t.Helper()
	var calls []image.Rectangle
	prev := grabRect
	grabRect = func(r image.Rectangle) (*image.RGBA, error) {
		calls = append(calls, r)
		return image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy())), nil
	}
	t.Cleanup(func() { grabRect = prev })
	return &calls
}

func TestScreenRasterizer_OffsetsByOrigin(t *testing.T) {
	calls := stubGrab(t)
	s := ScreenRasterizer{Origin: func() image.Point { return image.Pt(100, 50) }}
	img, err := s.Rasterize(context.Background(), dcapture.Target{Region: dcapture.Region{Top: 20, Left: 10, Side: 200}})
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 200 {
		t.Fatalf("unexpected size %v", img.Bounds())
	}
	want := image.Rect(110, 70, 310, 270)
	if len(*calls) != 1 || (*calls)[0] != want {
		t.Fatalf("expected one grab of %v, got %v", want, *calls)
	}
}

func TestScreenRasterizer_Cancelled(t *testing.T) {
	calls := stubGrab(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ScreenRasterizer{}.Rasterize(ctx, dcapture.Target{Region: dcapture.Region{Side: 10}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("no grab expected after cancellation")
	}
}

func TestGrabSelection_Empty(t *testing.T) {
	stubGrab(t)
	if _, err := GrabSelection(image.Rectangle{}); err == nil {
		t.Fatalf("expected error for empty selection")
	}
}
