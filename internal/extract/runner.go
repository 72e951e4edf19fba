package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// External tools used by the extractor.
const (
	toolPDFText  = "pdftotext"
	toolPDFToPPM = "pdftoppm"
	toolOCR      = "tesseract"
)

// ErrToolNotFound is returned by CheckAvailable when a required binary is missing from PATH.
var ErrToolNotFound = errors.New("extraction tool not found: pdftotext, pdftoppm and tesseract are required")

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args, feeding stdin when non-nil. Stderr is attached to the error.
func (ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// CheckAvailable verifies that pdftotext is on PATH, plus the OCR tools when ocr is set.
func CheckAvailable(ocr bool) error {
	tools := []string{toolPDFText}
	if ocr {
		tools = append(tools, toolPDFToPPM, toolOCR)
	}
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%w: %s", ErrToolNotFound, tool)
		}
	}
	return nil
}

// InstallInstructions returns platform hints for installing the extraction tools.
func InstallInstructions() string {
	return `Install poppler-utils and tesseract:
  macOS:          brew install poppler tesseract
  Debian/Ubuntu:  apt-get install poppler-utils tesseract-ocr
  Fedora:         dnf install poppler-utils tesseract`
}
