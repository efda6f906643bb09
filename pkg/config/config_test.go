package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/mesh"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 2000, c.SparseInfillLineDistance)
	assert.Equal(t, c.ExtrusionWidth, c.SupportLineWidth)
	assert.Equal(t, geom.Pt(102500, 102500), c.ObjectPosition)
	assert.Equal(t, mesh.Identity(), c.Matrix)
	assert.Equal(t, -1, c.SupportAngle)
}

func TestSet(t *testing.T) {
	tests := []struct {
		name  string
		kv    string
		check func(t *testing.T, c *Config)
	}{
		{"short name", "lt=200", func(t *testing.T, c *Config) { assert.Equal(t, 200, c.LayerThickness) }},
		{"long name any case", "LAYERTHICKNESS=150", func(t *testing.T, c *Config) { assert.Equal(t, 150, c.LayerThickness) }},
		{"mixed case short", "raftbaset=300", func(t *testing.T, c *Config) { assert.Equal(t, 300, c.RaftBaseThickness) }},
		{"negative", "supa=-1", func(t *testing.T, c *Config) { assert.Equal(t, -1, c.SupportAngle) }},
		{"object position", "posx=1000", func(t *testing.T, c *Config) { assert.Equal(t, int64(1000), c.ObjectPosition.X) }},
		{"extruder offset", "eOff2Y=-500", func(t *testing.T, c *Config) { assert.Equal(t, int64(-500), c.ExtruderOffset[2].Y) }},
		{"extruder offset long", "extruderOffset[3].X=700", func(t *testing.T, c *Config) { assert.Equal(t, int64(700), c.ExtruderOffset[3].X) }},
		{"start code keeps text", "startCode=G28 X0=1", func(t *testing.T, c *Config) { assert.Equal(t, "G28 X0=1", c.StartCode) }},
		{"end code", "endcode=M84", func(t *testing.T, c *Config) { assert.Equal(t, "M84", c.EndCode) }},
		{"matrix", "matrix=1,0,0,0,1,0,0,0,2", func(t *testing.T, c *Config) { assert.InDelta(t, 2.0, c.Matrix[2][2], 1e-12) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			require.NoError(t, c.Set(tt.kv))
			tt.check(t, c)
		})
	}
}

func TestSetErrors(t *testing.T) {
	c := Default()
	assert.ErrorIs(t, c.Set("bogus=1"), ErrUnknownKey)
	assert.Error(t, c.Set("lt"))
	assert.Error(t, c.Set("lt=thick"))
	assert.Error(t, c.Set("matrix=1,2"))
	assert.Equal(t, 100, c.LayerThickness, "failed sets leave the value alone")
}

func TestKeys(t *testing.T) {
	keys := Keys()
	assert.True(t, sort.StringsAreSorted(keys))
	assert.Contains(t, keys, "fanSpeedMax")
	assert.Contains(t, keys, "objectPosition.X")

	c := Default()
	for _, k := range keys {
		assert.NoError(t, c.Set(k+"=1"), k)
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "print.json", `{
		"layerThickness": 200,
		"objectPosition": {"x": 5, "y": 6},
		"extruderOffset": [{"x": 0, "y": 0}, {"x": 18000, "y": 0}],
		"startCode": "G28\n"
	}`)

	c := Default()
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, 200, c.LayerThickness)
	assert.Equal(t, geom.Pt(5, 6), c.ObjectPosition)
	assert.Equal(t, geom.Pt(18000, 0), c.ExtruderOffset[1])
	assert.Equal(t, "G28\n", c.StartCode)
	assert.Equal(t, 300, c.InitialLayerThickness, "omitted keys keep their value")
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"wrong extension", "print.yaml", `{}`},
		{"malformed", "print.json", `{"layerThickness":`},
		{"invalid value", "print.json", `{"printSpeed": 0}`},
		{"fan out of range", "print.json", `{"fanSpeedMax": 120}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			assert.Error(t, c.LoadFile(writeFile(t, tt.file, tt.body)))
			assert.Equal(t, Default(), c, "a rejected file changes nothing")
		})
	}

	c := Default()
	assert.Error(t, c.LoadFile(filepath.Join(t.TempDir(), "missing.json")))
}
