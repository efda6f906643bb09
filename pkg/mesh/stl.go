package mesh

import (
	"fmt"

	"github.com/deadsy/sdfx/render"

	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/kernel/sdfx"
)

// LoadSTL reads a binary or ASCII STL file into a triangle soup. A file
// whose size matches the binary layout for its header count is binary.
func LoadSTL(path string) (m *kernel.Mesh, err error) {
	defer func() {
		// render.LoadSTL indexes past its vertex list when an ASCII file
		// ends inside a facet.
		if r := recover(); r != nil {
			m, err = nil, fmt.Errorf("mesh: %s: incomplete facet: %v", path, r)
		}
	}()
	tris, err := render.LoadSTL(path)
	if err != nil {
		return nil, fmt.Errorf("mesh: read %s: %w", path, err)
	}
	m = sdfx.FromTriangles(tris)
	if m.IsEmpty() {
		return nil, fmt.Errorf("mesh: %s: %w", path, ErrEmptyMesh)
	}
	m.PartName = path
	return m, nil
}

// SaveSTL writes the soup to path as binary STL.
func SaveSTL(path string, m *kernel.Mesh) error {
	if err := render.SaveSTL(path, sdfx.ToTriangles(m)); err != nil {
		return fmt.Errorf("mesh: write %s: %w", path, err)
	}
	return nil
}
