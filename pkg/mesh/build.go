package mesh

import (
	"fmt"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/kernel"
)

// MeldDistance is the distance in micrometres within which vertices are
// welded into one point.
const MeldDistance = 30

// Builder accumulates triangles into a Volume, welding close vertices and
// skipping degenerate or duplicate faces.
type Builder struct {
	vol   Volume
	cells map[[3]int64][]int
	// faces using each point, parallel to vol.Points
	pointFaces [][]int
	input      int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{cells: make(map[[3]int64][]int)}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func cellOf(p geom.Point3) [3]int64 {
	return [3]int64{
		floorDiv(p.X, MeldDistance),
		floorDiv(p.Y, MeldDistance),
		floorDiv(p.Z, MeldDistance),
	}
}

func near(a, b geom.Point3) bool {
	d := a.Sub(b)
	if d.X > MeldDistance || d.X < -MeldDistance ||
		d.Y > MeldDistance || d.Y < -MeldDistance ||
		d.Z > MeldDistance || d.Z < -MeldDistance {
		return false
	}
	return d.Size2() <= MeldDistance*MeldDistance
}

// point returns the index of the welded point for p, adding it if no
// existing point lies within MeldDistance.
func (b *Builder) point(p geom.Point3) int {
	c := cellOf(p)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, idx := range b.cells[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if near(b.vol.Points[idx], p) {
						return idx
					}
				}
			}
		}
	}
	idx := len(b.vol.Points)
	b.vol.Points = append(b.vol.Points, p)
	b.pointFaces = append(b.pointFaces, nil)
	b.cells[c] = append(b.cells[c], idx)
	return idx
}

func (b *Builder) duplicate(i0, i1, i2 int) bool {
	for _, f0 := range b.pointFaces[i0] {
		for _, f1 := range b.pointFaces[i1] {
			if f0 != f1 {
				continue
			}
			for _, f2 := range b.pointFaces[i2] {
				if f0 == f2 {
					return true
				}
			}
		}
	}
	return false
}

// Add inserts a triangle. It reports whether a face was added.
func (b *Builder) Add(p0, p1, p2 geom.Point3) bool {
	b.input++
	i0, i1, i2 := b.point(p0), b.point(p1), b.point(p2)
	if i0 == i1 || i0 == i2 || i1 == i2 {
		return false
	}
	if b.duplicate(i0, i1, i2) {
		return false
	}
	fi := len(b.vol.Faces)
	b.vol.Faces = append(b.vol.Faces, Face{
		Index:    [3]int{i0, i1, i2},
		Touching: [3]int{NoFace, NoFace, NoFace},
	})
	b.pointFaces[i0] = append(b.pointFaces[i0], fi)
	b.pointFaces[i1] = append(b.pointFaces[i1], fi)
	b.pointFaces[i2] = append(b.pointFaces[i2], fi)
	return true
}

// faceWithEdge returns the first face other than not that uses both points.
func (b *Builder) faceWithEdge(i0, i1, not int) int {
	for _, f0 := range b.pointFaces[i0] {
		if f0 == not {
			continue
		}
		for _, f1 := range b.pointFaces[i1] {
			if f1 == f0 {
				return f0
			}
		}
	}
	return NoFace
}

// Volume fills in the adjacency table and returns the built volume. The
// Builder must not be used afterwards.
func (b *Builder) Volume() *Volume {
	for i := range b.vol.Faces {
		f := &b.vol.Faces[i]
		for e := 0; e < 3; e++ {
			f.Touching[e] = b.faceWithEdge(f.Index[e], f.Index[(e+1)%3], i)
		}
	}
	v := b.vol
	return &v
}

// InputFaces returns how many triangles were passed to Add.
func (b *Builder) InputFaces() int {
	return b.input
}

// FromSoup welds a millimetre triangle soup transformed by mat.
func FromSoup(soup *kernel.Mesh, mat Matrix) (*Volume, error) {
	if soup == nil || soup.IsEmpty() {
		return nil, ErrEmptyMesh
	}
	if len(soup.Indices)%3 != 0 {
		return nil, fmt.Errorf("mesh: %d indices is not a multiple of 3", len(soup.Indices))
	}
	nv := uint32(soup.VertexCount())
	for _, idx := range soup.Indices {
		if idx >= nv {
			return nil, fmt.Errorf("mesh: index %d out of range (%d vertices)", idx, nv)
		}
	}
	b := NewBuilder()
	for t := 0; t < soup.TriangleCount(); t++ {
		tri := soup.Triangle(t)
		b.Add(mat.Apply(tri[0]), mat.Apply(tri[1]), mat.Apply(tri[2]))
	}
	v := b.Volume()
	if len(v.Faces) == 0 {
		return nil, ErrEmptyMesh
	}
	return v, nil
}
