package services

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"vehicle-dashboard/models"
)

// HistogramBins is the fixed bin count of every histogram view.
const HistogramBins = 50

// BuildHistogram partitions the observed range of values into nbins
// equal-width bins. The maximum falls into the last bin. When every value
// is equal they all land in the first bin. Bin counts always sum to
// len(values).
func BuildHistogram(column string, values []float64, nbins int) *models.Histogram {
	h := &models.Histogram{Column: column, Total: len(values)}
	if nbins < 1 || len(values) == 0 {
		return h
	}

	lo, hi := floats.Min(values), floats.Max(values)
	n := float64(nbins)
	edges := make([]float64, nbins+1)
	width := (hi - lo) / n
	if math.IsInf(width, 0) {
		// hi-lo overflows; interpolate so every edge stays finite.
		width = hi/n - lo/n
		for i := range edges {
			t := float64(i) / n
			edges[i] = lo*(1-t) + hi*t
		}
		edges[nbins] = hi
	} else {
		floats.Span(edges, lo, hi)
	}

	h.Bins = make([]models.Bin, nbins)
	for i := range h.Bins {
		h.Bins[i] = models.Bin{Lower: edges[i], Upper: edges[i+1]}
	}

	for _, v := range values {
		h.Bins[binIndex(v, lo, width, nbins)].Count++
	}
	return h
}

func binIndex(v, lo, width float64, nbins int) int {
	if width == 0 {
		return 0
	}
	pos := (v - lo) / width
	if math.IsInf(pos, 0) {
		pos = v/width - lo/width
	}
	i := int(math.Floor(pos))
	if i < 0 {
		return 0
	}
	if i >= nbins {
		return nbins - 1
	}
	return i
}
