package ioutils

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFit(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		maxW, maxH   int
		wantW, wantH int
	}{
		{"already fits", 40, 20, 80, 80, 40, 20},
		{"width limited", 1600, 800, 80, 80, 80, 40},
		{"height limited", 800, 1600, 80, 80, 40, 80},
		{"degenerate", 0, 10, 80, 80, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Fit(tt.w, tt.h, tt.maxW, tt.maxH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Fit() = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestImageService_Preview(t *testing.T) {
	svc := NewImageService()

	preview, err := svc.Preview(context.Background(), testPNG(t, 200, 100), 20, 20)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}

	// 200x100 fits into 20x40 pixels as 20x10, i.e. 5 rows of half blocks.
	lines := strings.Split(preview, "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines, want 5", len(lines))
	}
	if n := strings.Count(lines[0], "▀"); n != 20 {
		t.Errorf("first line has %d cells, want 20", n)
	}
}

func TestImageService_PreviewRejectsNonImage(t *testing.T) {
	svc := NewImageService()
	if _, err := svc.Preview(context.Background(), []byte(`{"not":"an image"}`), 20, 20); err == nil {
		t.Error("expected decode error")
	}
}

func TestImageService_PreviewEmptyArea(t *testing.T) {
	svc := NewImageService()
	if _, err := svc.Preview(context.Background(), testPNG(t, 4, 4), 0, 10); err == nil {
		t.Error("expected error for empty preview area")
	}
}
