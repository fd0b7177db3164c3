// Public domain.

// Package evplot draws light curves of grouped sources.
package evplot

import (
	"fmt"
	"image/color"
	"math"
	"regexp"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/soniakeys/ebexvar/internal/evbin"
)

var rxUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FileName returns the plot file name for source i with id.  The name
// carries the source number, 1 based as in the sampler parameter names, so
// ids that sanitize the same still get distinct files.
func FileName(i int, id string) string {
	return fmt.Sprintf("lc-%d-%s.png", i+1, rxUnsafe.ReplaceAllString(id, "_"))
}

// LightCurve writes a plot of source i of ds to file fn.
//
// Each bin is plotted at the midpoint of its DTYEARS interval, with net
// rate (counts - bkg) / time.  The flux 10^lgf is drawn as a line across
// the span of the source.
func LightCurve(fn string, ds *evbin.Dataset, i int, lgf float64) error {
	i1, i2 := ds.Rows(i)
	if i1 == i2 {
		return fmt.Errorf("source %d has no rows", i)
	}
	pts := make(plotter.XYs, i2-i1)
	var t float64
	for j := i1; j < i2; j++ {
		dt := ds.DTYears[j]
		pts[j-i1].X = t + dt/2
		pts[j-i1].Y = (ds.Counts[j] - ds.Bkg[j]) / ds.Time[j]
		t += dt
	}

	p := plot.New()
	p.Title.Text = "SRCID " + ds.SrcID[i]
	p.X.Label.Text = "time (yr)"
	p.Y.Label.Text = "net rate (counts/s)"

	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	sc.GlyphStyle.Color = color.RGBA{B: 160, A: 255}
	sc.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(sc)

	if !math.IsNaN(lgf) && !math.IsInf(lgf, 0) {
		f := math.Pow(10, lgf)
		ln, err := plotter.NewLine(plotter.XYs{{X: 0, Y: f}, {X: math.Max(t, pts[len(pts)-1].X), Y: f}})
		if err != nil {
			return err
		}
		ln.LineStyle.Color = color.RGBA{R: 200, A: 255}
		ln.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(ln)
		p.Legend.Add(fmt.Sprintf("MAP %.3g", f), ln)
	}
	p.Add(plotter.NewGrid())
	return p.Save(6*vg.Inch, 4*vg.Inch, fn)
}
