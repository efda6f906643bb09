package mesh

import (
	"fmt"
	"strings"

	"github.com/chazu/strata/pkg/kernel"
)

// VolumeSeparator joins several sources into one multi-volume model, as in
// "body.stl+box:10x10x5".
const VolumeSeparator = "+"

// Open loads every source named in spec (STL paths or kernel primitive
// specs joined by VolumeSeparator), transforms each with mat and returns
// the model. Primitives are tessellated with k; k may be nil when spec
// names files only.
func Open(spec string, mat Matrix, k kernel.Kernel) (*Model, error) {
	var vols []*Volume
	for _, src := range strings.Split(spec, VolumeSeparator) {
		src = strings.TrimSpace(src)
		if src == "" {
			continue
		}
		soup, err := load(src, k)
		if err != nil {
			return nil, err
		}
		v, err := FromSoup(soup, mat)
		if err != nil {
			return nil, fmt.Errorf("mesh: %s: %w", src, err)
		}
		vols = append(vols, v)
	}
	if len(vols) == 0 {
		return nil, fmt.Errorf("mesh: %q: %w", spec, ErrEmptyMesh)
	}
	return NewModel(vols...)
}

func load(src string, k kernel.Kernel) (*kernel.Mesh, error) {
	if !kernel.IsPrimitive(src) {
		return LoadSTL(src)
	}
	if k == nil {
		return nil, fmt.Errorf("mesh: %s: no geometry kernel for primitives", src)
	}
	return kernel.Tessellate(k, src)
}
