// Package tesseract provides an OCR engine backed by the Tesseract CLI.
//
// The tesseract binary must be on PATH (or configured via WithBinary).
// Each call writes the image to a temporary file, runs tesseract on it, and
// reads the produced text file back. Temporary files are turn-scoped and
// removed before the call returns.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vivavoce/vivavoce/pkg/provider/ocr"
)

const (
	defaultBinary    = "tesseract"
	defaultLanguages = "eng"
)

// Compile-time assertion that Engine satisfies ocr.Engine.
var _ ocr.Engine = (*Engine)(nil)

// Engine implements ocr.Engine by shelling out to the tesseract binary.
// It is read-only after construction and safe for concurrent use.
type Engine struct {
	binary    string
	languages string
	dataPath  string
}

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithBinary overrides the tesseract executable path. Default: "tesseract".
func WithBinary(path string) Option {
	return func(e *Engine) { e.binary = path }
}

// WithLanguages sets the recognition language string passed via -l
// (e.g., "eng", "deu+eng"). Default: "eng".
func WithLanguages(langs string) Option {
	return func(e *Engine) { e.languages = langs }
}

// WithDataPath sets the tessdata directory passed via --tessdata-dir.
// Empty means use the binary's built-in default.
func WithDataPath(path string) Option {
	return func(e *Engine) { e.dataPath = path }
}

// New returns an Engine configured with the supplied options.
func New(opts ...Option) *Engine {
	e := &Engine{
		binary:    defaultBinary,
		languages: defaultLanguages,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Available reports whether the tesseract binary can be executed.
// Intended for readiness checks.
func (e *Engine) Available(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, e.binary, "--version")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("tesseract: binary %q not runnable: %w", e.binary, err)
	}
	return nil
}

// ExtractText implements ocr.Engine.
func (e *Engine) ExtractText(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}

	tmp, err := os.CreateTemp("", "screen_*.img")
	if err != nil {
		return "", fmt.Errorf("tesseract: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(image); err != nil {
		tmp.Close()
		return "", fmt.Errorf("tesseract: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("tesseract: close temp file: %w", err)
	}

	// Tesseract appends ".txt" to the output base path itself.
	outBase := strings.TrimSuffix(tmpPath, filepath.Ext(tmpPath))
	outPath := outBase + ".txt"
	defer os.Remove(outPath)

	args := []string{tmpPath, outBase, "-l", e.languages}
	if e.dataPath != "" {
		args = append(args, "--tessdata-dir", e.dataPath)
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract: run: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	text, err := os.ReadFile(outPath)
	if err != nil {
		return "", fmt.Errorf("tesseract: read output: %w", err)
	}

	return strings.TrimSpace(string(text)), nil
}
