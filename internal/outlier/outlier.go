// Package outlier flags rows whose numeric fields sit more than three
// standard deviations from the column mean.
package outlier

import (
	"gonum.org/v1/gonum/stat"

	"github.com/moviedex/preproc/internal/frame"
)

// DefaultThreshold is the number of standard deviations beyond which a value
// counts as an outlier.
const DefaultThreshold = 3.0

// Detector flags statistical outliers in the complete partition of a chunk.
type Detector struct {
	Threshold float64
}

// New returns a detector with the default threshold.
func New() *Detector {
	return &Detector{Threshold: DefaultThreshold}
}

// Detect returns a mask over good's rows marking outliers in any of the given
// columns. The mean is computed over the good partition while the standard
// deviation is computed over the whole chunk, incomplete rows included. The
// asymmetry is inherited behavior kept for output compatibility; see the
// open-questions section of DESIGN.md before changing it.
func (d *Detector) Detect(good, whole *frame.Frame, columns []string) []bool {
	mask := make([]bool, good.Len())
	for _, col := range columns {
		goodVals, ok := observed(good, col)
		if !ok || len(goodVals) == 0 {
			continue
		}
		wholeVals, _ := observed(whole, col)
		if len(wholeVals) < 2 {
			continue
		}
		mean := stat.Mean(goodVals, nil)
		std := stat.StdDev(wholeVals, nil)
		if std == 0 {
			continue
		}

		cells, _ := good.Column(col)
		for i, c := range cells {
			if v, ok := c.Number(); ok {
				diff := v - mean
				if diff < 0 {
					diff = -diff
				}
				if diff > d.Threshold*std {
					mask[i] = true
				}
			}
		}
	}
	return mask
}

// observed collects the non-missing numeric values of a column.
func observed(f *frame.Frame, col string) ([]float64, bool) {
	cells, ok := f.Column(col)
	if !ok {
		return nil, false
	}
	var vals []float64
	for _, c := range cells {
		if v, numOK := c.Number(); numOK {
			vals = append(vals, v)
		}
	}
	return vals, true
}
