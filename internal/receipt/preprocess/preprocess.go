// Package preprocess conditions receipt photos for OCR.
package preprocess

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	_ "golang.org/x/image/webp"
)

// Defaults for Prepare.
const (
	DefaultMaxDimension = 2000
	JPEGQuality         = 95
	SharpenSigma        = 1.0
)

// Preprocessor resizes, greyscales, normalizes and sharpens images.
type Preprocessor struct {
	maxDimension int
	tempDir      string
}

// New creates a preprocessor. tempDir "" uses os.TempDir.
func New(maxDimension int, tempDir string) *Preprocessor {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Preprocessor{maxDimension: maxDimension, tempDir: tempDir}
}

// Prepared is a conditioned image backed by a temp file.
type Prepared struct {
	Path   string
	Data   []byte
	Width  int
	Height int
}

// Close removes the temp file. It is safe to call more than once.
func (p *Prepared) Close() error {
	if p == nil || p.Path == "" {
		return nil
	}
	err := os.Remove(p.Path)
	p.Path = ""
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Prepare decodes data and writes the conditioned JPEG to a temp file.
// The caller must Close the result.
func (pp *Preprocessor) Prepare(ctx context.Context, data []byte) (*Prepared, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode receipt image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img := imaging.Fit(src, pp.maxDimension, pp.maxDimension, imaging.Lanczos)
	img = imaging.Grayscale(img)
	img = Normalize(img)
	img = imaging.Sharpen(img, SharpenSigma)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode receipt image: %w", err)
	}

	path := filepath.Join(pp.tempDir, "receipt_"+uuid.NewString()+".jpg")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("write receipt temp file: %w", err)
	}

	b := img.Bounds()
	return &Prepared{Path: path, Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// Normalize stretches the luminance histogram of a greyscale image to the full range.
func Normalize(img *image.NRGBA) *image.NRGBA {
	lo, hi := uint8(255), uint8(0)
	for i := 0; i < len(img.Pix); i += 4 {
		v := img.Pix[i]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi <= lo {
		return img
	}

	scale := 255.0 / float64(hi-lo)
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		stretch := func(v uint8) uint8 {
			return uint8(float64(v-lo)*scale + 0.5)
		}
		return color.NRGBA{R: stretch(c.R), G: stretch(c.G), B: stretch(c.B), A: c.A}
	})
}
