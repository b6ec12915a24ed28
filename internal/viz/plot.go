package viz

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pidlab/internal/dynamo"
)

// Visible plot window. Values outside [YMin, YMax] widen the y range.
const (
	XMax = 25.0
	YMin = 0.0
	YMax = 150.0
)

// Resample bins series over [0, xmax) into width columns. Each column takes
// the last sample falling in it; columns with no sample before the first
// one or after the last one are NaN, gaps in between repeat the previous
// value.
func Resample(series dynamo.Series, width int, xmax float64) []float64 {
	out := make([]float64, width)
	for i := range out {
		out[i] = math.NaN()
	}
	if width == 0 || len(series) == 0 {
		return out
	}

	binWidth := xmax / float64(width)
	last := -1
	for _, s := range series {
		col := int(s.T / binWidth)
		if col < 0 || col >= width {
			continue
		}
		out[col] = s.V
		last = max(last, col)
	}

	prev := math.NaN()
	for i := 0; i <= last; i++ {
		if math.IsNaN(out[i]) {
			out[i] = prev
		} else {
			prev = out[i]
		}
	}
	return out
}

// Bounds is a y range that eases towards its target every frame.
type Bounds struct {
	spring   harmonica.Spring
	lo, hi   float64
	loV, hiV float64
	primed   bool
}

func NewBounds(fps int) *Bounds {
	return &Bounds{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0)}
}

// Update moves the range one frame towards the span of data, never
// narrower than [YMin, YMax].
func (b *Bounds) Update(data ...[]float64) (float64, float64) {
	lo, hi := YMin, YMax
	for _, d := range data {
		for _, v := range d {
			if math.IsNaN(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	if !b.primed {
		b.lo, b.hi, b.primed = lo, hi, true
		return b.lo, b.hi
	}
	b.lo, b.loV = b.spring.Update(b.lo, b.loV, lo)
	b.hi, b.hiV = b.spring.Update(b.hi, b.hiV, hi)
	return b.lo, b.hi
}

func (b *Bounds) Range() (float64, float64) {
	if !b.primed {
		return YMin, YMax
	}
	return b.lo, b.hi
}

type plotSeries struct {
	data  []float64
	color asciigraph.AnsiColor
}

// renderPlot draws the setpoint followed by every model series.
func renderPlot(series []plotSeries, setpoint float64, width, height int, lo, hi float64) string {
	target := make([]float64, width)
	for i := range target {
		target[i] = setpoint
	}

	data := [][]float64{target}
	colors := []asciigraph.AnsiColor{CurrentTheme.Setpoint}
	for _, s := range series {
		data = append(data, s.data)
		colors = append(colors, s.color)
	}

	return asciigraph.PlotMany(data,
		asciigraph.Height(height),
		asciigraph.LowerBound(lo),
		asciigraph.UpperBound(hi),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(colors...),
		asciigraph.Caption("value vs time [0, 25]"),
	)
}
