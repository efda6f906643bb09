// Package mesh turns triangle soups into sliceable volumes. Vertices are
// converted to micrometres, welded within MeldDistance, degenerate and
// duplicate faces are dropped, and each face records the three faces it
// shares an edge with. Faces refer to each other only by index into the
// volume's face arena.
package mesh

import (
	"errors"

	"github.com/chazu/strata/pkg/geom"
)

// ErrEmptyMesh is returned when a mesh has no usable faces.
var ErrEmptyMesh = errors.New("mesh: no faces")

// NoFace marks a face edge without a neighbour.
const NoFace = -1

// Face is a triangle in a Volume. Index holds the three point indices;
// Touching[i] is the face sharing the edge Index[i]→Index[(i+1)%3], or
// NoFace.
type Face struct {
	Index    [3]int
	Touching [3]int
}

// Volume is an indexed triangle mesh with an adjacency table.
type Volume struct {
	Points []geom.Point3
	Faces  []Face
}

// Corners returns the three vertex positions of face i.
func (v *Volume) Corners(i int) (geom.Point3, geom.Point3, geom.Point3) {
	f := &v.Faces[i]
	return v.Points[f.Index[0]], v.Points[f.Index[1]], v.Points[f.Index[2]]
}

// Bounds returns the bounding box of all points. ok is false for an empty
// volume.
func (v *Volume) Bounds() (lo, hi geom.Point3, ok bool) {
	for i, p := range v.Points {
		if i == 0 {
			lo, hi = p, p
			continue
		}
		lo = lo.Min(p)
		hi = hi.Max(p)
	}
	return lo, hi, len(v.Points) > 0
}

// translate moves every point by -d.
func (v *Volume) translate(d geom.Point3) {
	for i := range v.Points {
		v.Points[i] = v.Points[i].Sub(d)
	}
}

// Model is one print job's set of volumes sharing a build space.
type Model struct {
	Volumes []*Volume
	Min     geom.Point3
	Max     geom.Point3
}

// NewModel computes the bounds over vols. It returns ErrEmptyMesh when no
// volume has faces.
func NewModel(vols ...*Volume) (*Model, error) {
	m := &Model{Volumes: vols}
	found := false
	for _, v := range vols {
		if len(v.Faces) == 0 {
			continue
		}
		lo, hi, _ := v.Bounds()
		if !found {
			m.Min, m.Max, found = lo, hi, true
			continue
		}
		m.Min = m.Min.Min(lo)
		m.Max = m.Max.Max(hi)
	}
	if !found {
		return nil, ErrEmptyMesh
	}
	return m, nil
}

// Size returns the extent of the model.
func (m *Model) Size() geom.Point3 {
	return m.Max.Sub(m.Min)
}

// Center moves the model so that its XY center lies on pos.X/pos.Y and its
// bottom on pos.Z.
func (m *Model) Center(pos geom.Point3) {
	off := geom.Point3{
		X: (m.Min.X + m.Max.X) / 2,
		Y: (m.Min.Y + m.Max.Y) / 2,
		Z: m.Min.Z,
	}.Sub(pos)
	for _, v := range m.Volumes {
		v.translate(off)
	}
	m.Min = m.Min.Sub(off)
	m.Max = m.Max.Sub(off)
}

// FaceCount returns the number of faces over all volumes.
func (m *Model) FaceCount() int {
	n := 0
	for _, v := range m.Volumes {
		n += len(v.Faces)
	}
	return n
}
