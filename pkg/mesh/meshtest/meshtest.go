// Package meshtest builds small hand-made volumes for tests.
package meshtest

import (
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
)

// BoxFaces lists the twelve triangles of an axis-aligned box over the
// corner numbering used by BoxCorners, wound counter-clockwise seen from
// outside.
var BoxFaces = [12][3]int{
	{0, 2, 1}, {0, 3, 2}, // bottom
	{4, 5, 6}, {4, 6, 7}, // top
	{0, 1, 5}, {0, 5, 4}, // front
	{1, 2, 6}, {1, 6, 5}, // right
	{2, 3, 7}, {2, 7, 6}, // back
	{3, 0, 4}, {3, 4, 7}, // left
}

// BoxCorners returns the eight corners of the box spanning lo..hi: the
// bottom ring counter-clockwise from lo, then the top ring.
func BoxCorners(lo, hi geom.Point3) [8]geom.Point3 {
	return [8]geom.Point3{
		{X: lo.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: lo.Y, Z: lo.Z},
		{X: hi.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: hi.Y, Z: lo.Z},
		{X: lo.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: lo.Y, Z: hi.Z},
		{X: hi.X, Y: hi.Y, Z: hi.Z},
		{X: lo.X, Y: hi.Y, Z: hi.Z},
	}
}

// AddBox adds a box to b, skipping the faces listed in skip.
func AddBox(b *mesh.Builder, lo, hi geom.Point3, skip ...int) {
	c := BoxCorners(lo, hi)
outer:
	for i, f := range BoxFaces {
		for _, s := range skip {
			if s == i {
				continue outer
			}
		}
		b.Add(c[f[0]], c[f[1]], c[f[2]])
	}
}

// Box returns a closed box volume spanning lo..hi.
func Box(lo, hi geom.Point3) *mesh.Volume {
	b := mesh.NewBuilder()
	AddBox(b, lo, hi)
	return b.Volume()
}

// Model wraps vols in a model with computed bounds. It panics on empty
// input.
func Model(vols ...*mesh.Volume) *mesh.Model {
	m, err := mesh.NewModel(vols...)
	if err != nil {
		panic(err)
	}
	return m
}
