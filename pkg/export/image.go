package export

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"roadgen/pkg/roads"
	"roadgen/pkg/session"
)

// qualityColors colours roads from plain grey to red super highways.
var qualityColors = [roads.NumQualities]color.Color{
	color.RGBA{R: 150, G: 150, B: 150, A: 255},
	color.RGBA{R: 230, G: 160, B: 30, A: 255},
	color.RGBA{R: 200, G: 30, B: 30, A: 255},
}

// Plot draws the snapshot with north up: segments coloured and thickened by
// grade, cities as dots.
func Plot(snap session.Snapshot) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("generation %d, cost %.4f", snap.Generation, snap.Weighted)
	p.X.Min, p.X.Max = snap.Bound.Left(), snap.Bound.Right()
	p.Y.Min, p.Y.Max = snap.Bound.Bottom(), snap.Bound.Top()
	p.Legend.Top = true

	// Map rows grow downward; plot rows grow upward.
	flip := func(y float64) float64 { return snap.Bound.Top() + snap.Bound.Bottom() - y }

	var legend [roads.NumQualities]bool
	for _, s := range snap.Segments {
		l, err := plotter.NewLine(plotter.XYs{
			{X: s.From[0], Y: flip(s.From[1])},
			{X: s.To[0], Y: flip(s.To[1])},
		})
		if err != nil {
			return nil, fmt.Errorf("segment %v: %w", s.Key(), err)
		}
		l.LineStyle.Color = qualityColors[s.Quality]
		l.LineStyle.Width = vg.Points(1 + float64(s.Quality))
		p.Add(l)
		if !legend[s.Quality] {
			legend[s.Quality] = true
			p.Legend.Add(s.Quality.String(), l)
		}
	}

	if len(snap.Cities) > 0 {
		pts := make(plotter.XYs, len(snap.Cities))
		for i, c := range snap.Cities {
			pts[i].X, pts[i].Y = c[0], flip(c[1])
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("cities: %w", err)
		}
		sc.GlyphStyle.Color = color.Black
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		p.Add(sc)
		p.Legend.Add("city", sc)
	}
	return p, nil
}

// WritePNG renders the snapshot as a PNG image of the given size.
func WritePNG(w io.Writer, snap session.Snapshot, width, height vg.Length) error {
	p, err := Plot(snap)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// SavePNG renders the snapshot to a PNG file.
func SavePNG(path string, snap session.Snapshot, width, height vg.Length) error {
	p, err := Plot(snap)
	if err != nil {
		return err
	}
	return p.Save(width, height, path)
}
