// Package ocr runs receipt images through an OCR engine with a fallback chain.
package ocr

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoEngine is returned by engines that cannot recognize anything.
var ErrNoEngine = errors.New("ocr: no engine configured")

const dataURLPrefix = "data:image/jpeg;base64,"

// Source is either a file path or a base64 data URL.
type Source struct {
	Path    string
	DataURL string
}

// FileSource points at an image on disk.
func FileSource(path string) Source {
	return Source{Path: path}
}

// DataURLSource wraps raw image bytes as a JPEG data URL.
func DataURLSource(data []byte) Source {
	return Source{DataURL: dataURLPrefix + base64.StdEncoding.EncodeToString(data)}
}

// String is the path or data URL.
func (s Source) String() string {
	if s.Path != "" {
		return s.Path
	}
	return s.DataURL
}

// Bytes loads the image the source refers to.
func (s Source) Bytes() ([]byte, error) {
	if s.Path != "" {
		return os.ReadFile(s.Path)
	}
	i := strings.Index(s.DataURL, ";base64,")
	if !strings.HasPrefix(s.DataURL, "data:") || i < 0 {
		return nil, fmt.Errorf("ocr: malformed data url")
	}
	return base64.StdEncoding.DecodeString(s.DataURL[i+len(";base64,"):])
}

// Engine converts an image into text. lang uses tesseract codes joined by "+".
type Engine interface {
	Name() string
	Recognize(ctx context.Context, src Source, lang string) (string, error)
}

// NoopEngine always fails, which drives the recognizer to its placeholder result.
type NoopEngine struct{}

func (NoopEngine) Name() string { return "none" }

func (NoopEngine) Recognize(context.Context, Source, string) (string, error) {
	return "", ErrNoEngine
}
