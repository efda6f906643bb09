package kernel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadPrimitive is returned for malformed primitive specs.
var ErrBadPrimitive = errors.New("kernel: malformed primitive spec")

// Primitive is a parsed model spec such as "box:20x20x10". Dimensions are
// millimetres.
type Primitive struct {
	Kind string
	Dims []float64
}

var primitiveArity = map[string]int{
	"box":      3, // width x depth x height
	"cylinder": 2, // height x radius
	"tube":     3, // height x outer radius x inner radius
}

// IsPrimitive reports whether name looks like a primitive spec rather than
// a file path.
func IsPrimitive(name string) bool {
	kind, _, ok := strings.Cut(name, ":")
	if !ok {
		return false
	}
	_, known := primitiveArity[strings.ToLower(kind)]
	return known
}

// ParsePrimitive parses "kind:AxBxC".
func ParsePrimitive(spec string) (Primitive, error) {
	kind, rest, ok := strings.Cut(spec, ":")
	if !ok {
		return Primitive{}, fmt.Errorf("%w: %q has no ':'", ErrBadPrimitive, spec)
	}
	kind = strings.ToLower(kind)
	want, known := primitiveArity[kind]
	if !known {
		return Primitive{}, fmt.Errorf("%w: unknown kind %q", ErrBadPrimitive, kind)
	}
	fields := strings.Split(rest, "x")
	if len(fields) != want {
		return Primitive{}, fmt.Errorf("%w: %s needs %d dimensions, got %d", ErrBadPrimitive, kind, want, len(fields))
	}
	p := Primitive{Kind: kind, Dims: make([]float64, want)}
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Primitive{}, fmt.Errorf("%w: %q: %v", ErrBadPrimitive, f, err)
		}
		if v <= 0 {
			return Primitive{}, fmt.Errorf("%w: dimension %d must be positive", ErrBadPrimitive, i)
		}
		p.Dims[i] = v
	}
	if kind == "tube" && p.Dims[2] >= p.Dims[1] {
		return Primitive{}, fmt.Errorf("%w: tube inner radius must be below outer radius", ErrBadPrimitive)
	}
	return p, nil
}

// Build constructs the solid described by p with k.
func (p Primitive) Build(k Kernel) Solid {
	switch p.Kind {
	case "box":
		return k.Box(p.Dims[0], p.Dims[1], p.Dims[2])
	case "cylinder":
		return k.Cylinder(p.Dims[0], p.Dims[1])
	case "tube":
		outer := k.Cylinder(p.Dims[0], p.Dims[1])
		// Taller cutter so the bore opens through both caps.
		inner := k.Cylinder(p.Dims[0]*1.5, p.Dims[2])
		return k.Difference(outer, inner)
	}
	panic("kernel: unhandled primitive " + p.Kind)
}

// Tessellate parses spec, builds it with k and returns the triangle soup.
func Tessellate(k Kernel, spec string) (*Mesh, error) {
	p, err := ParsePrimitive(spec)
	if err != nil {
		return nil, err
	}
	m, err := k.ToMesh(p.Build(k))
	if err != nil {
		return nil, fmt.Errorf("kernel: tessellate %s: %w", spec, err)
	}
	m.PartName = spec
	return m, nil
}
