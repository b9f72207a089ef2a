//go:build gosseract

package ocr

import (
	"context"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract runs tesseract in-process through cgo.
type Gosseract struct{}

// NewGosseract returns the in-process engine.
func NewGosseract() (Engine, error) {
	return Gosseract{}, nil
}

func (Gosseract) Name() string { return "gosseract" }

// Recognize returns on ctx cancellation; the cgo call finishes in the background.
func (Gosseract) Recognize(ctx context.Context, src Source, lang string) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := recognize(src, lang)
		done <- result{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.text, r.err
	}
}

func recognize(src Source, lang string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(strings.Split(lang, "+")...); err != nil {
		return "", err
	}
	if src.Path != "" {
		if err := client.SetImage(src.Path); err != nil {
			return "", err
		}
	} else {
		data, err := src.Bytes()
		if err != nil {
			return "", err
		}
		if err := client.SetImageFromBytes(data); err != nil {
			return "", err
		}
	}
	return client.Text()
}
