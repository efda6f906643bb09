// Package kernel defines the solid-modelling interface used to produce
// calibration and test models without an input file. Implementations
// (sdfx) tessellate solids into a triangle soup that the mesh package
// welds into a sliceable volume.
package kernel

// Solid is an opaque handle to a kernel solid.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box in millimetres.
	BoundingBox() (min, max [3]float64)
}

// Kernel builds and tessellates solids. All dimensions are millimetres.
type Kernel interface {
	// Primitives, centered on the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	Translate(s Solid, x, y, z float64) Solid

	// ToMesh tessellates s into a triangle soup.
	ToMesh(s Solid) (*Mesh, error)
}
