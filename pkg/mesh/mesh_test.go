package mesh_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/mesh/meshtest"
)

func p3(x, y, z int64) geom.Point3 {
	return geom.Point3{X: x, Y: y, Z: z}
}

func TestBuilderWeldsWithinMeldDistance(t *testing.T) {
	b := mesh.NewBuilder()
	require.True(t, b.Add(p3(0, 0, 0), p3(1000, 0, 0), p3(0, 1000, 0)))
	// Corners within 30µm of the first triangle's corners, one across a
	// cell boundary.
	require.True(t, b.Add(p3(1010, -5, 0), p3(1000, 1000, 0), p3(-29, 1000, 1)))
	v := b.Volume()

	assert.Len(t, v.Points, 4)
	assert.Equal(t, v.Faces[0].Index[1], v.Faces[1].Index[0])
	assert.Equal(t, v.Faces[0].Index[2], v.Faces[1].Index[2])
	assert.Equal(t, 2, b.InputFaces())
}

func TestBuilderDropsDegenerateAndDuplicateFaces(t *testing.T) {
	b := mesh.NewBuilder()
	assert.True(t, b.Add(p3(0, 0, 0), p3(1000, 0, 0), p3(0, 1000, 0)))
	assert.False(t, b.Add(p3(0, 0, 0), p3(10, 0, 0), p3(0, 1000, 0)), "collapsed edge")
	assert.False(t, b.Add(p3(1000, 0, 0), p3(0, 1000, 0), p3(0, 0, 0)), "same corners")
	assert.Len(t, b.Volume().Faces, 1)
}

func TestBoxAdjacency(t *testing.T) {
	v := meshtest.Box(p3(0, 0, 0), p3(10000, 10000, 1000))
	require.Len(t, v.Points, 8)
	require.Len(t, v.Faces, 12)

	for i, f := range v.Faces {
		for e, other := range f.Touching {
			require.NotEqual(t, mesh.NoFace, other, "face %d edge %d", i, e)
			assert.NotEqual(t, i, other)
			assert.Contains(t, v.Faces[other].Touching, i, "adjacency of %d and %d must be symmetric", i, other)

			// The neighbour must use both points of the shared edge.
			a, b := f.Index[e], f.Index[(e+1)%3]
			assert.Contains(t, v.Faces[other].Index, a)
			assert.Contains(t, v.Faces[other].Index, b)
		}
	}
}

func TestOpenSurfaceHasBorderEdges(t *testing.T) {
	b := mesh.NewBuilder()
	meshtest.AddBox(b, p3(0, 0, 0), p3(1000, 1000, 1000), 2, 3) // open top
	v := b.Volume()
	border := 0
	for _, f := range v.Faces {
		for _, other := range f.Touching {
			if other == mesh.NoFace {
				border++
			}
		}
	}
	assert.Equal(t, 4, border)
}

func TestModelCenter(t *testing.T) {
	m := meshtest.Model(meshtest.Box(p3(0, 0, 0), p3(10000, 20000, 5000)))
	m.Center(p3(100000, 100000, -200))

	assert.Equal(t, p3(95000, 90000, -200), m.Min)
	assert.Equal(t, p3(105000, 110000, 4800), m.Max)
	assert.Equal(t, p3(10000, 20000, 5000), m.Size())

	lo, hi, ok := m.Volumes[0].Bounds()
	require.True(t, ok)
	assert.Equal(t, m.Min, lo)
	assert.Equal(t, m.Max, hi)
	assert.Equal(t, 12, m.FaceCount())
}

func TestNewModelEmpty(t *testing.T) {
	_, err := mesh.NewModel(&mesh.Volume{})
	assert.ErrorIs(t, err, mesh.ErrEmptyMesh)
}

func TestMatrix(t *testing.T) {
	assert.Equal(t, p3(1500, -2000, 3000), mesh.Identity().Apply([3]float64{1.5, -2, 3}))

	// Swap X and Y, scale Z by 2.
	m, err := mesh.ParseMatrix("0,1,0, 1,0,0, 0,0,2")
	require.NoError(t, err)
	assert.Equal(t, p3(2000, 1000, 6000), m.Apply([3]float64{1, 2, 3}))
	assert.Equal(t, "0,1,0,1,0,0,0,0,2", m.String())

	_, err = mesh.ParseMatrix("1,0,0,0,1,0,0,0")
	assert.Error(t, err)
	_, err = mesh.ParseMatrix("1,0,0,0,one,0,0,0,1")
	assert.Error(t, err)
}

func boxSoup(size float64) *kernel.Mesh {
	c := meshtest.BoxCorners(p3(0, 0, 0), p3(1, 1, 1))
	m := &kernel.Mesh{}
	mm := func(p geom.Point3) [3]float64 {
		return [3]float64{float64(p.X) * size, float64(p.Y) * size, float64(p.Z) * size}
	}
	for _, f := range meshtest.BoxFaces {
		m.AddTriangle(mm(c[f[0]]), mm(c[f[1]]), mm(c[f[2]]))
	}
	return m
}

func TestFromSoup(t *testing.T) {
	v, err := mesh.FromSoup(boxSoup(10), mesh.Identity())
	require.NoError(t, err)
	assert.Len(t, v.Points, 8)
	assert.Len(t, v.Faces, 12)
	_, hi, _ := v.Bounds()
	assert.Equal(t, p3(10000, 10000, 10000), hi)

	_, err = mesh.FromSoup(&kernel.Mesh{}, mesh.Identity())
	assert.ErrorIs(t, err, mesh.ErrEmptyMesh)

	bad := boxSoup(1)
	bad.Indices[0] = 999
	_, err = mesh.FromSoup(bad, mesh.Identity())
	assert.Error(t, err)
}

func TestSTLBinaryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box.stl")
	require.NoError(t, mesh.SaveSTL(path, boxSoup(20)))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(84+12*50), info.Size())

	got, err := mesh.LoadSTL(path)
	require.NoError(t, err)
	assert.Equal(t, 12, got.TriangleCount())
	assert.Equal(t, [3]float64{20, 20, 20}, got.Triangle(2)[2])
	assert.Equal(t, path, got.PartName)
}

func TestSTLASCII(t *testing.T) {
	dir := t.TempDir()
	write := func(name, src string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
		return path
	}
	src := `solid tri
  facet normal 0 0 1
    outer loop
      vertex 0 0 0
      vertex 1.5 0 0
      vertex 0 2 0
    endloop
  endfacet
endsolid tri
`
	m, err := mesh.LoadSTL(write("tri.stl", src))
	require.NoError(t, err)
	require.Equal(t, 1, m.TriangleCount())
	assert.Equal(t, [3]float64{1.5, 0, 0}, m.Triangle(0)[1])

	partial := "solid partial facet\n  facet normal 0 0 1\n    outer loop\n      vertex 0 0 0\n      vertex 1 0 0\n    endloop\n  endfacet\nendsolid partial facet\n"
	_, err = mesh.LoadSTL(write("partial.stl", partial))
	assert.Error(t, err)

	bad := "solid non numeric\n  facet normal 0 0 1\n    outer loop\n      vertex 0 zero 0\n      vertex 1 0 0\n      vertex 0 1 0\n    endloop\n  endfacet\nendsolid\n"
	_, err = mesh.LoadSTL(write("bad.stl", bad))
	assert.Error(t, err)

	_, err = mesh.LoadSTL(write("empty.stl", "solid nothing here at all, only a name long enough to fill the eighty byte binary header\nendsolid\n"))
	assert.ErrorIs(t, err, mesh.ErrEmptyMesh)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cube.stl")
	require.NoError(t, mesh.SaveSTL(path, boxSoup(5)))

	m, err := mesh.Open(path+mesh.VolumeSeparator+path, mesh.Identity(), nil)
	require.NoError(t, err)
	assert.Len(t, m.Volumes, 2)
	assert.Equal(t, p3(5000, 5000, 5000), m.Size())

	_, err = mesh.Open(filepath.Join(dir, "missing.stl"), mesh.Identity(), nil)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = mesh.Open("box:1x1x1", mesh.Identity(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no geometry kernel"))
}
