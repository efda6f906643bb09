package debugplot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/strata/pkg/clip"
	"github.com/chazu/strata/pkg/compose"
	"github.com/chazu/strata/pkg/fill"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh/meshtest"
	"github.com/chazu/strata/pkg/slicer"
)

func nonEmptyFile(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layer.png")
	sq := geom.Polygon{geom.Pt(0, 0), geom.Pt(10000, 0), geom.Pt(10000, 10000), geom.Pt(0, 10000)}
	err := Save(path, "square",
		Series{Name: "outline", Polygons: geom.Polygons{sq}},
		Series{Name: "line", Polygons: geom.Polygons{{geom.Pt(0, 0), geom.Pt(5000, 5000)}}},
		Series{Name: "empty"},
	)
	require.NoError(t, err)
	nonEmptyFile(t, path)
}

func TestDumpSlicesAndStorage(t *testing.T) {
	m := meshtest.Model(meshtest.Box(geom.Point3{}, geom.Point3{X: 10000, Y: 10000, Z: 1000}))
	s, err := slicer.Slice(context.Background(), m.Volumes[0], m.Size(), 50, 100)
	require.NoError(t, err)

	dir := t.TempDir()
	n, err := DumpSlices(dir, 0, s)
	require.NoError(t, err)
	assert.Equal(t, len(s.Layers), n)
	nonEmptyFile(t, filepath.Join(dir, "slice_00_0000.png"))

	ops := clip.New()
	st := compose.Build([]*slicer.Slicer{s}, ops)
	for i := range st.Volumes[0].Layers {
		fill.LayerInsets(&st.Volumes[0].Layers[i], 400, 2, ops)
	}
	n, err = DumpStorage(dir, st, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	nonEmptyFile(t, filepath.Join(dir, "layer_0008.png"))
}

func TestHSLToRGB(t *testing.T) {
	r, g, b := hslToRGB(0, 1, 0.5)
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})
	r, g, b = hslToRGB(1.0/3, 1, 0.5)
	assert.Equal(t, [3]uint8{0, 255, 0}, [3]uint8{r, g, b})
	assert.Len(t, generateColors(5), 5)
	assert.Nil(t, generateColors(0))
}
