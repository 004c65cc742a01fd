package enrich

import (
	"fmt"
	"io"
)

// Progress describes one finished city within a run.
type Progress struct {
	Processed int
	Total     int
	City      string
	OK        bool
}

// ProgressReporter receives a Progress after each city.
type ProgressReporter interface {
	Report(Progress)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(Progress)

func (f ProgressFunc) Report(p Progress) { f(p) }

// WriterProgress prints one line per city to w.
func WriterProgress(w io.Writer) ProgressReporter {
	return ProgressFunc(func(p Progress) {
		if p.OK {
			fmt.Fprintf(w, "✓ Processed %d/%d: %s\n", p.Processed, p.Total, p.City)
		} else {
			fmt.Fprintf(w, "✗ Failed %d/%d: %s\n", p.Processed, p.Total, p.City)
		}
	})
}
