//go:build !gosseract

package ocr

import "errors"

// NewGosseract fails unless the binary was built with -tags gosseract.
func NewGosseract() (Engine, error) {
	return nil, errors.New("ocr: gosseract engine requires the gosseract build tag")
}
