package imageprocessor

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestLargestFace(t *testing.T) {
	rects := []image.Rectangle{
		image.Rect(0, 0, 10, 10),
		image.Rect(5, 5, 45, 45),
		image.Rect(100, 100, 120, 130),
	}
	face, ok := LargestFace(rects)
	if !ok {
		t.Fatal("expected a face")
	}
	if face != rects[1] {
		t.Fatalf("expected %v, got %v", rects[1], face)
	}

	if _, ok := LargestFace(nil); ok {
		t.Fatal("expected no face for empty input")
	}
}

func TestExpandRectClipsToBounds(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 80)

	got := ExpandRect(image.Rect(5, 10, 50, 60), 10, bounds)
	if want := image.Rect(0, 0, 60, 70); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = ExpandRect(image.Rect(5, 10, 50, 60), 0, bounds)
	if want := image.Rect(5, 10, 50, 60); got != want {
		t.Fatalf("zero margin should keep rect, got %v", got)
	}
}

func TestPreprocessShapeAndStandardization(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 128, A: 255})
		}
	}

	data := Preprocess(img, 16)
	if len(data) != 3*16*16 {
		t.Fatalf("expected %d values, got %d", 3*16*16, len(data))
	}

	plane := 16 * 16
	checks := []struct {
		name     string
		value    float32
		expected float32
	}{
		{"red", data[0], (255 - 127.5) / 128},
		{"green", data[plane], (0 - 127.5) / 128},
		{"blue", data[2*plane], (128 - 127.5) / 128},
	}
	for _, c := range checks {
		if math.Abs(float64(c.value-c.expected)) > 0.02 {
			t.Errorf("%s channel = %v, expected about %v", c.name, c.value, c.expected)
		}
	}
}

func TestPreprocessHandlesOffsetBounds(t *testing.T) {
	img := image.NewGray(image.Rect(10, 10, 30, 30))
	data := Preprocess(img, 8)
	if len(data) != 3*8*8 {
		t.Fatalf("expected %d values, got %d", 3*8*8, len(data))
	}
	for i, v := range data {
		if v > -0.99 {
			t.Fatalf("black image should standardize near -1, got %v at %d", v, i)
		}
	}
}
