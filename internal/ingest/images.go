package ingest

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Keep filters for extracted image assets. Anything below these floors is a
// decoration (bullet, rule, logo fragment) rather than content.
const (
	MinImageBytes  = 4 << 10
	MinImagePixels = 100
	MaxAspectRatio = 6.0
)

// KeepImage reports whether an extracted image is worth persisting, and the
// filter that rejected it otherwise.
func KeepImage(data []byte) (bool, string) {
	if len(data) < MinImageBytes {
		return false, "too few bytes"
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false, "undecodable"
	}
	if cfg.Width < MinImagePixels || cfg.Height < MinImagePixels {
		return false, "too small"
	}

	w, h := float64(cfg.Width), float64(cfg.Height)
	if w/h > MaxAspectRatio || h/w > MaxAspectRatio {
		return false, "extreme aspect ratio"
	}
	return true, ""
}
