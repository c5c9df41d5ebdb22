package eval

import (
	"fmt"
	"io"

	"NFAForge/internal/model"
)

// TextWriter emits sweep results as a whitespace-separated table, one row
// per result. It implements the model.ResultWriter interface.
type TextWriter struct {
	w io.Writer
}

// NewTextWriter creates a text writer and prints the table header.
func NewTextWriter(w io.Writer) (*TextWriter, error) {
	if _, err := fmt.Fprintln(w, "i th pe ce cls_ratio"); err != nil {
		return nil, err
	}
	return &TextWriter{w: w}, nil
}

// Write prints one table row.
func (t *TextWriter) Write(result model.SweepResult) error {
	_, err := fmt.Fprintf(t.w, "%d %g %g %g %g\n",
		result.Iteration, result.Threshold,
		result.AcceptDivergence, result.ClassificationError,
		result.ClassificationRatio)
	return err
}

// Close is a no-op; the writer does not own the underlying stream.
func (t *TextWriter) Close() error {
	return nil
}
