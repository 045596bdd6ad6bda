package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for i := 0; i < 12; i++ {
		img.SetRGBA(i%4, i/4, c)
	}
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer fh.Close()
	if err := png.Encode(fh, img); err != nil {
		t.Fatal(err)
	}
}

func TestFrameAtClamps(t *testing.T) {
	f := Frame{W: 2, H: 2, Pix: []color.RGBA{{R: 1}, {R: 2}, {R: 3}, {R: 4}}}
	tests := []struct {
		x, y int
		want uint8
	}{
		{0, 0, 1}, {1, 0, 2}, {0, 1, 3}, {1, 1, 4},
		{-5, -5, 1}, {9, 0, 2}, {0, 9, 3}, {9, 9, 4},
	}
	for _, tt := range tests {
		if got := f.At(tt.x, tt.y).R; got != tt.want {
			t.Errorf("At(%d,%d): expected %d, got %d", tt.x, tt.y, tt.want, got)
		}
	}
}

func TestFrameFromImageOffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 13, 12))
	img.SetRGBA(10, 10, color.RGBA{R: 200, A: 255})
	img.SetRGBA(12, 11, color.RGBA{B: 100, A: 255})
	f := FrameFromImage(img)
	if f.W != 3 || f.H != 2 {
		t.Fatalf("expected 3x2, got %dx%d", f.W, f.H)
	}
	if f.At(0, 0).R != 200 {
		t.Errorf("expected top-left red 200, got %v", f.At(0, 0))
	}
	if f.At(2, 1).B != 100 {
		t.Errorf("expected bottom-right blue 100, got %v", f.At(2, 1))
	}
}

func TestNotifierEdgeTriggered(t *testing.T) {
	var n Notifier
	var got []bool
	cancel := n.Subscribe(func(r bool) { got = append(got, r) })

	n.Set(false)
	n.Set(true)
	n.Set(true)
	n.Set(false)
	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("expected [true false], got %v", got)
	}

	cancel()
	n.Set(true)
	if len(got) != 2 {
		t.Errorf("expected no delivery after cancel, got %v", got)
	}
	if n.Subscribers() != 0 {
		t.Errorf("expected 0 subscribers, got %d", n.Subscribers())
	}
}

func TestSequenceLoopsAndReadies(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "0001.png"), color.RGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "0002.png"), color.RGBA{G: 255, A: 255})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewSequence(dir, 10)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", s.Len())
	}
	if s.Ready() {
		t.Error("expected not ready before first advance")
	}
	if _, err := s.Frame(); err == nil {
		t.Error("expected error before first decode")
	}

	var edges []bool
	s.Subscribe(func(r bool) { edges = append(edges, r) })

	s.Advance(0)
	if !s.Ready() {
		t.Fatal("expected ready after first decode")
	}
	f, err := s.Frame()
	if err != nil {
		t.Fatal(err)
	}
	if f.At(0, 0).R != 255 {
		t.Errorf("expected first frame red, got %v", f.At(0, 0))
	}
	if w, h := s.Size(); w != 4 || h != 3 {
		t.Errorf("expected size 4x3, got %dx%d", w, h)
	}

	s.Advance(0.1)
	f, _ = s.Frame()
	if f.At(0, 0).G != 255 {
		t.Errorf("expected second frame green, got %v", f.At(0, 0))
	}

	s.Advance(0.1)
	f, _ = s.Frame()
	if f.At(0, 0).R != 255 {
		t.Errorf("expected loop back to first frame, got %v", f.At(0, 0))
	}
	if len(edges) != 1 || !edges[0] {
		t.Errorf("expected a single ready edge, got %v", edges)
	}
}

func TestSequenceDecodeFailureDropsReadiness(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "0001.png"), color.RGBA{R: 255, A: 255})
	if err := os.WriteFile(filepath.Join(dir, "0002.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewSequence(dir, 10)
	if err != nil {
		t.Fatal(err)
	}
	s.Advance(0)
	if !s.Ready() {
		t.Fatal("expected ready")
	}
	s.Advance(0.1)
	if s.Ready() {
		t.Error("expected readiness dropped on decode failure")
	}
	if s.Err() == nil {
		t.Error("expected decode error recorded")
	}
}

func TestSequenceEmptyDir(t *testing.T) {
	if _, err := NewSequence(t.TempDir(), 30); err == nil {
		t.Error("expected error for empty directory")
	}
}

func TestNoiseBuffersThenReadies(t *testing.T) {
	n := NewNoise(NoiseConfig{Width: 8, Height: 6, Seed: 7, BufferFrames: 3})
	if n.Ready() {
		t.Fatal("expected buffering source to start not ready")
	}
	if _, err := n.Frame(); err == nil {
		t.Error("expected error while buffering")
	}
	n.Advance(1.0 / 30)
	n.Advance(1.0 / 30)
	if n.Ready() {
		t.Error("expected still buffering after 2 advances")
	}
	n.Advance(1.0 / 30)
	if !n.Ready() {
		t.Fatal("expected ready after 3 advances")
	}
	f, err := n.Frame()
	if err != nil {
		t.Fatal(err)
	}
	if f.W != 8 || f.H != 6 || len(f.Pix) != 48 {
		t.Errorf("unexpected frame shape %dx%d len %d", f.W, f.H, len(f.Pix))
	}
	for _, p := range f.Pix {
		if p.A != 255 {
			t.Fatalf("expected opaque pixels, got %v", p)
		}
	}
}

func TestNoiseDeterministic(t *testing.T) {
	a := NewNoise(NoiseConfig{Width: 5, Height: 5, Seed: 11})
	b := NewNoise(NoiseConfig{Width: 5, Height: 5, Seed: 11})
	c := NewNoise(NoiseConfig{Width: 5, Height: 5, Seed: 12})
	for i := 0; i < 4; i++ {
		a.Advance(0.05)
		b.Advance(0.05)
		c.Advance(0.05)
	}
	fa, _ := a.Frame()
	fb, _ := b.Frame()
	fc, _ := c.Frame()
	same := true
	for i := range fa.Pix {
		if fa.Pix[i] != fb.Pix[i] {
			t.Fatalf("pixel %d differs for equal seeds: %v vs %v", i, fa.Pix[i], fb.Pix[i])
		}
		if fa.Pix[i] != fc.Pix[i] {
			same = false
		}
	}
	if same {
		t.Error("expected different seeds to produce different frames")
	}
}

func TestStillAlwaysReady(t *testing.T) {
	s := NewStill("poster", Frame{W: 1, H: 1, Pix: []color.RGBA{{A: 255}}})
	if !s.Ready() {
		t.Error("expected still to be ready")
	}
	s.Advance(10)
	f, err := s.Frame()
	if err != nil || f.W != 1 {
		t.Errorf("unexpected frame %v err %v", f, err)
	}
}
