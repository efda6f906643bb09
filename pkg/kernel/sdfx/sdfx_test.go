package sdfx

import (
	"math"
	"testing"

	"github.com/chazu/strata/pkg/kernel"
)

// testCells keeps marching cubes fast in tests.
const testCells = 40

func TestBox(t *testing.T) {
	k := New(WithCells(testCells))
	box := k.Box(100, 50, 25)
	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	triCount := mesh.TriangleCount()
	if triCount == 0 {
		t.Fatal("expected non-zero triangle count")
	}
	// Verify vertex and index array sizes are consistent.
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != triCount*3 {
		t.Fatalf("indices length %d != triCount*3 %d", len(mesh.Indices), triCount*3)
	}
}

func TestCylinder(t *testing.T) {
	k := New(WithCells(testCells))
	cyl := k.Cylinder(50, 10)
	mesh, err := k.ToMesh(cyl)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	t.Logf("cylinder triangle count: %d", mesh.TriangleCount())
}

func TestDifference(t *testing.T) {
	k := New(WithCells(testCells))

	box := k.Box(100, 100, 100)
	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}

	cyl := k.Cylinder(120, 20)
	diffMesh, err := k.ToMesh(k.Difference(box, cyl))
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	// A box with a hole should have more triangles than a plain box.
	if diffMesh.TriangleCount() <= boxMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffMesh.TriangleCount(), boxMesh.TriangleCount())
	}
}

func TestUnion(t *testing.T) {
	k := New(WithCells(testCells))
	a := k.Box(50, 50, 50)
	b := k.Translate(k.Box(50, 50, 50), 40, 0, 0)

	u := k.Union(a, b)
	min, max := u.BoundingBox()
	if math.Abs(min[0]-(-25)) > 1e-9 || math.Abs(max[0]-65) > 1e-9 {
		t.Errorf("union X extent = [%v, %v], want [-25, 65]", min[0], max[0])
	}
	mesh, err := k.ToMesh(u)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() {
		t.Fatal("union mesh is empty")
	}
}

func TestTranslate(t *testing.T) {
	k := New()
	moved := k.Translate(k.Box(10, 10, 10), 100, 0, 0)
	min, max := moved.BoundingBox()
	if math.Abs(min[0]-95) > 1e-9 || math.Abs(max[0]-105) > 1e-9 {
		t.Errorf("translated X extent = [%v, %v], want [95, 105]", min[0], max[0])
	}
}

func TestBoundingBox(t *testing.T) {
	k := New()
	box := k.Box(20, 30, 40)
	min, max := box.BoundingBox()

	want := [3]float64{10, 15, 20}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]+want[i]) > 1e-9 {
			t.Errorf("min[%d] = %v, want %v", i, min[i], -want[i])
		}
		if math.Abs(max[i]-want[i]) > 1e-9 {
			t.Errorf("max[%d] = %v, want %v", i, max[i], want[i])
		}
	}
}

func TestWithCellsIgnoresTinyValues(t *testing.T) {
	if got := New(WithCells(2)).cells; got != defaultMeshCells {
		t.Errorf("cells = %d, want %d", got, defaultMeshCells)
	}
	if got := New(WithCells(64)).cells; got != 64 {
		t.Errorf("cells = %d, want 64", got)
	}
}

func TestTessellateTube(t *testing.T) {
	k := New(WithCells(testCells))
	mesh, err := kernel.Tessellate(k, "tube:10x8x4")
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if mesh.PartName != "tube:10x8x4" {
		t.Errorf("PartName = %q", mesh.PartName)
	}
	// No vertex may fall inside the bore.
	for i := 0; i < mesh.VertexCount(); i++ {
		v := mesh.Vertex(uint32(i))
		if r := math.Hypot(v[0], v[1]); r < 3.0 {
			t.Fatalf("vertex %d at radius %v lies inside the bore", i, r)
		}
	}
}

func TestTrianglesRoundTrip(t *testing.T) {
	m := &kernel.Mesh{}
	m.AddTriangle([3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 0})
	m.AddTriangle([3]float64{0, 0, 2}, [3]float64{0, 1, 2}, [3]float64{1, 0, 2})

	tris := ToTriangles(m)
	if len(tris) != 2 {
		t.Fatalf("got %d triangles, want 2", len(tris))
	}
	back := FromTriangles(tris)
	if back.TriangleCount() != 2 {
		t.Fatalf("got %d triangles back, want 2", back.TriangleCount())
	}
	if got := back.Triangle(1); got != m.Triangle(1) {
		t.Errorf("triangle 1 = %v, want %v", got, m.Triangle(1))
	}
	// Face normal of the first triangle points up.
	if back.Normals[2] != 1 {
		t.Errorf("normal z = %v, want 1", back.Normals[2])
	}
}
