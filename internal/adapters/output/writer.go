// Package output provides adapters for writing application output.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/MyCarrier-DevOps/strdeploy/internal/domain"
)

// Writer writes the deployed image tag to the configured output destination.
// By default, it writes to stdout.
type Writer struct {
	out io.Writer
}

// NewWriter creates a new Writer that writes to stdout.
func NewWriter() *Writer {
	return &Writer{out: os.Stdout}
}

// NewWriterWithOutput creates a new Writer with a custom output destination.
// This is useful for testing.
func NewWriterWithOutput(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteImageTag writes the tag as a single line without any prefix or formatting,
// so the last line of stdout can be captured by scripts.
func (w *Writer) WriteImageTag(tag domain.ImageTag) error {
	_, err := fmt.Fprintln(w.out, tag.String())
	return err
}
