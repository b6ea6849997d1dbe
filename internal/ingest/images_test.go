package ingest

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"
)

// noisyPNG encodes a width x height PNG filled with deterministic noise so
// the compressed size stays well above the byte floor.
func noisyPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestKeepImage(t *testing.T) {
	if keep, reason := KeepImage(noisyPNG(t, 200, 200)); !keep {
		t.Errorf("200x200 noise rejected: %s", reason)
	}
}

func TestKeepImage_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"too few bytes", []byte("tiny")},
		{"undecodable", bytes.Repeat([]byte("not an image "), 400)},
		{"below pixel floor", noisyPNG(t, 64, 200)},
		{"extreme aspect ratio", noisyPNG(t, 700, 100)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if keep, reason := KeepImage(tt.data); keep {
				t.Error("image should be rejected")
			} else if reason == "" {
				t.Error("rejection must carry a reason")
			}
		})
	}
}
