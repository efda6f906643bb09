// Package debugplot renders layer geometry to image files for inspection.
// Each polygon set is drawn as closed outlines in its own colour, with
// coordinates in millimetres.
package debugplot

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/chazu/strata/pkg/compose"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/slicer"
)

// Size is the edge length of the square images written.
const Size = 8 * vg.Inch

// Series is one named polygon set drawn in a single colour.
type Series struct {
	Name     string
	Polygons geom.Polygons
}

// Plot builds a plot of the given series. Empty series are skipped but
// still take a colour so that colours stay stable between layers.
func Plot(title string, series ...Series) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"
	p.Legend.Top = true

	colors := generateColors(len(series))
	for i, s := range series {
		for j, poly := range s.Polygons {
			if len(poly) < 2 {
				continue
			}
			pts := make(plotter.XYs, 0, len(poly)+1)
			for _, pt := range poly {
				pts = append(pts, plotter.XY{X: mm(pt.X), Y: mm(pt.Y)})
			}
			if len(poly) > 2 {
				pts = append(pts, pts[0])
			}
			line, err := plotter.NewLine(pts)
			if err != nil {
				return nil, fmt.Errorf("debugplot: %s: %w", s.Name, err)
			}
			line.Color = colors[i]
			line.Width = vg.Points(1)
			p.Add(line)
			if j == 0 && s.Name != "" {
				p.Legend.Add(s.Name, line)
			}
		}
	}
	return p, nil
}

// Save writes the series to path; the extension picks the format (png,
// svg, pdf, eps).
func Save(path, title string, series ...Series) error {
	p, err := Plot(title, series...)
	if err != nil {
		return err
	}
	if err := p.Save(Size, Size, path); err != nil {
		return fmt.Errorf("debugplot: save %s: %w", path, err)
	}
	return nil
}

// DumpSlices writes one PNG per non-empty slicer layer into dir, named
// slice_<volume>_<layer>.png. It returns the number of files written.
func DumpSlices(dir string, volume int, s *slicer.Slicer) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("debugplot: %w", err)
	}
	n := 0
	for i := range s.Layers {
		l := &s.Layers[i]
		if len(l.Polygons) == 0 {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("slice_%02d_%04d.png", volume, i))
		title := fmt.Sprintf("Volume %d - Layer %d (z=%.2fmm)", volume, i, mm(l.Z))
		if err := Save(path, title, Series{Name: "contour", Polygons: l.Polygons}); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// DumpStorage writes one PNG per layer of the composited stack, showing
// every volume's outlines, walls, skin and sparse areas. Only every
// every-th layer is written; every <= 1 writes them all.
func DumpStorage(dir string, s *compose.Storage, every int) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("debugplot: %w", err)
	}
	if every < 1 {
		every = 1
	}
	n := 0
	for layerNr := 0; layerNr < s.LayerCount(); layerNr += every {
		var series []Series
		for v := range s.Volumes {
			l := s.Volumes[v].Layer(layerNr)
			if l == nil {
				continue
			}
			var walls, skin, sparse geom.Polygons
			for _, part := range l.Parts {
				for _, inset := range part.Insets {
					walls = append(walls, inset...)
				}
				skin = append(skin, part.SkinOutline...)
				sparse = append(sparse, part.SparseOutline...)
			}
			series = append(series,
				Series{Name: fmt.Sprintf("v%d outline", v), Polygons: l.Outlines()},
				Series{Name: fmt.Sprintf("v%d walls", v), Polygons: walls},
				Series{Name: fmt.Sprintf("v%d skin", v), Polygons: skin},
				Series{Name: fmt.Sprintf("v%d sparse", v), Polygons: sparse},
			)
		}
		if layerNr == 0 {
			series = append(series, Series{Name: "skirt", Polygons: s.Skirt})
		}
		path := filepath.Join(dir, fmt.Sprintf("layer_%04d.png", layerNr))
		if err := Save(path, fmt.Sprintf("Layer %d", layerNr), series...); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func mm(v int64) float64 {
	return float64(v) / 1000
}

// generateColors creates a palette of distinct colours.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.45)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL (all in [0,1]) to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	hp := h * 6
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var rf, gf, bf float64
	switch {
	case hp < 1:
		rf, gf = c, x
	case hp < 2:
		rf, gf = x, c
	case hp < 3:
		gf, bf = c, x
	case hp < 4:
		gf, bf = x, c
	case hp < 5:
		rf, bf = x, c
	default:
		rf, bf = c, x
	}
	m := l - c/2
	return uint8(math.Round((rf + m) * 255)), uint8(math.Round((gf + m) * 255)), uint8(math.Round((bf + m) * 255))
}
