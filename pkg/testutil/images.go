package testutil

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// JPEG renders a w×h JPEG with a dark diagonal stripe on white.
func JPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	return encode(t, w, h, imaging.JPEG)
}

// PNG renders a w×h PNG with the same pattern as JPEG.
func PNG(t *testing.T, w, h int) []byte {
	t.Helper()
	return encode(t, w, h, imaging.PNG)
}

func encode(t *testing.T, w, h int, format imaging.Format) []byte {
	img := imaging.New(w, h, color.White)
	for x := 0; x < w; x++ {
		y := x * h / w
		for dy := -2; dy <= 2; dy++ {
			if p := (image.Point{X: x, Y: y + dy}); p.In(img.Bounds()) {
				img.Set(p.X, p.Y, color.NRGBA{R: 30, G: 30, B: 30, A: 255})
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, format))
	return buf.Bytes()
}
