package imagegen

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func solidImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func TestEncodePNGRoundTrip(t *testing.T) {
	data, err := EncodePNG(solidImage(32, 16))
	if err != nil {
		t.Fatalf("EncodePNG: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not valid PNG: %v", err)
	}
	if b := decoded.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Errorf("decoded dimensions = %dx%d, want 32x16", b.Dx(), b.Dy())
	}
}

func TestEncodeBase64PNG(t *testing.T) {
	encoded, err := EncodeBase64PNG(solidImage(8, 8))
	if err != nil {
		t.Fatalf("EncodeBase64PNG: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("output is not valid base64: %v", err)
	}
	if _, err := png.Decode(bytes.NewReader(raw)); err != nil {
		t.Fatalf("decoded payload is not PNG: %v", err)
	}
}

func TestThumbnail(t *testing.T) {
	tests := []struct {
		name    string
		w, h    int
		maxEdge int
		wantW   int
		wantH   int
	}{
		{"landscape scales by width", 1024, 512, 256, 256, 128},
		{"portrait scales by height", 512, 1024, 256, 128, 256},
		{"square", 512, 512, 128, 128, 128},
		{"already small unchanged", 100, 80, 256, 100, 80},
		{"extreme aspect keeps min edge", 2048, 2, 256, 256, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			thumb := Thumbnail(solidImage(tt.w, tt.h), tt.maxEdge)
			b := thumb.Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("thumbnail = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnailZeroMaxEdge(t *testing.T) {
	src := solidImage(640, 480)
	if got := Thumbnail(src, 0); got != src {
		t.Error("maxEdge 0 should return the image unchanged")
	}
}
