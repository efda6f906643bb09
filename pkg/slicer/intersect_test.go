package slicer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chazu/strata/pkg/geom"
)

func p3(x, y, z int64) geom.Point3 {
	return geom.Point3{X: x, Y: y, Z: z}
}

func TestCut(t *testing.T) {
	tests := []struct {
		name       string
		p0, p1, p2 geom.Point3
		z          int64
		want       Segment
		ok         bool
	}{
		{
			name: "one below",
			p0:   p3(0, 0, 0), p1: p3(1000, 0, 1000), p2: p3(0, 1000, 1000),
			z:    500,
			want: Segment{Start: geom.Pt(0, 500), End: geom.Pt(500, 0)},
			ok:   true,
		},
		{
			name: "one above",
			p0:   p3(0, 0, 1000), p1: p3(1000, 0, 0), p2: p3(0, 1000, 0),
			z:    500,
			want: Segment{Start: geom.Pt(500, 0), End: geom.Pt(0, 500)},
			ok:   true,
		},
		{
			name: "second vertex below",
			p0:   p3(0, 0, 1000), p1: p3(1000, 0, 0), p2: p3(0, 1000, 1000),
			z:    250,
			want: Segment{Start: geom.Pt(750, 0), End: geom.Pt(750, 250)},
			ok:   true,
		},
		{name: "all above", p0: p3(0, 0, 600), p1: p3(10, 0, 700), p2: p3(0, 10, 800), z: 500},
		{name: "all below", p0: p3(0, 0, 100), p1: p3(10, 0, 200), p2: p3(0, 10, 300), z: 500},
		{name: "vertex touches plane", p0: p3(0, 0, 500), p1: p3(10, 0, 700), p2: p3(0, 10, 800), z: 500},
		{name: "edge on plane from below", p0: p3(0, 0, 500), p1: p3(10, 0, 500), p2: p3(0, 10, 800), z: 500},
		{name: "face in plane", p0: p3(0, 0, 500), p1: p3(10, 0, 500), p2: p3(0, 10, 500), z: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cut(tt.p0, tt.p1, tt.p2, tt.z)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

// Truncating division lands each intersection at most one unit from the
// exact value, on the side of the projected-from vertex.
func TestProject2DTruncationBias(t *testing.T) {
	a := p3(0, 0, 0)
	seg := project2D(a, p3(10, 3, 3), p3(-10, -3, 3), 1)
	assert.Equal(t, geom.Pt(3, 1), seg.Start)  // exact (3.33, 1)
	assert.Equal(t, geom.Pt(-3, -1), seg.End) // exact (-3.33, -1)

	for _, b := range []geom.Point3{p3(999, -997, 7), p3(-12345, 6789, 301), p3(1, 1, 3)} {
		for z := int64(1); z < b.Z; z++ {
			got := project2D(a, b, b, z).Start
			exactX := float64(b.X) * float64(z) / float64(b.Z)
			exactY := float64(b.Y) * float64(z) / float64(b.Z)
			checkBias(t, float64(got.X), exactX)
			checkBias(t, float64(got.Y), exactY)
		}
	}

	// Offsets from a non-origin vertex are truncated the same way.
	seg = project2D(p3(1000, 1000, 100), p3(1001, 999, 103), p3(1000, 1000, 103), 101)
	assert.Equal(t, geom.Pt(1000, 1000), seg.Start)
}

func checkBias(t *testing.T, got, exact float64) {
	t.Helper()
	diff := exact - got
	assert.Less(t, diff*diff, 1.0, "got %v, exact %v", got, exact)
	// The truncated offset never overshoots the exact one.
	if exact >= 0 {
		assert.LessOrEqual(t, got, exact)
	} else {
		assert.GreaterOrEqual(t, got, exact)
	}
}
