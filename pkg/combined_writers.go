package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter copies every write to all of its writers. A write counts as done when
// at least one writer took the whole buffer, so a broken log file does not silence stdout.
type CombinedWriter struct {
	writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	cw := &CombinedWriter{}
	for _, w := range writers {
		if w != nil {
			cw.writers = append(cw.writers, w)
		}
	}
	return cw
}

func (cw *CombinedWriter) Len() int {
	return len(cw.writers)
}

// Write returns len(p) when any writer succeeded. The error combines every failure,
// and is io.ErrShortWrite for a writer that took only part of p.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var errs error
	delivered := false
	for _, w := range cw.writers {
		n, err := w.Write(p)
		if err == nil && n < len(p) {
			err = io.ErrShortWrite
		}
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		delivered = true
	}

	if !delivered && len(cw.writers) > 0 {
		return 0, errs
	}
	return len(p), errs
}
