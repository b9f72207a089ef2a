package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// TesseractCLI shells out to the tesseract binary.
type TesseractCLI struct {
	path string
}

// NewTesseractCLI uses the binary at path, "tesseract" when empty.
func NewTesseractCLI(path string) *TesseractCLI {
	if path == "" {
		path = "tesseract"
	}
	return &TesseractCLI{path: path}
}

func (t *TesseractCLI) Name() string { return "tesseract" }

// Recognize reads files directly and pipes data URLs through stdin.
func (t *TesseractCLI) Recognize(ctx context.Context, src Source, lang string) (string, error) {
	input := src.Path
	var stdin []byte
	if input == "" {
		data, err := src.Bytes()
		if err != nil {
			return "", err
		}
		input, stdin = "stdin", data
	}

	cmd := exec.CommandContext(ctx, t.path, input, "stdout", "-l", lang)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
