package export

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Plot size in inches and raster resolution.
const (
	DefaultWidth  = 8.0
	DefaultHeight = 5.0
	DPI           = 150
)

// Axes start from this window. Data outside it widens the axes.
const (
	XMax = 25.0
	YMin = 0.0
	YMax = 150.0
)

func newPlot(d Data) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Step response"
	p.X.Label.Text = "time"
	p.Y.Label.Text = "value"
	p.X.Min, p.X.Max = 0, XMax
	p.Y.Min, p.Y.Max = YMin, YMax
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	sp := d.Environment.Setpoint
	target := plotter.NewFunction(func(float64) float64 { return sp })
	target.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	target.Width = vg.Points(1)
	p.Add(target)
	p.Legend.Add("setpoint", target)

	for i, tr := range d.Trajectories {
		if len(tr.Samples) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(tr.Samples))
		for j, s := range tr.Samples {
			pts[j].X = s.T
			pts[j].Y = s.V
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("trajectory %q: %w", tr.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(tr.Name, line)
	}

	return p, nil
}

// WritePNG renders every trajectory and the setpoint to a PNG image of
// widthIn by heightIn inches.
func WritePNG(w io.Writer, d Data, widthIn, heightIn float64) error {
	p, err := newPlot(d)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(widthIn)*vg.Inch, vg.Length(heightIn)*vg.Inch),
		vgimg.UseDPI(DPI),
	)
	p.Draw(draw.New(c))

	png := vgimg.PngCanvas{Canvas: c}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}
