package kernel

import (
	"errors"
	"testing"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("vertices without triangles", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for mesh without indices, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, Indices: []uint32{0, 1, 2}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

// --- Compile-time interface check with a stub kernel ---

// stubSolid is a minimal Solid implementation for testing.
type stubSolid struct {
	minBB, maxBB [3]float64
}

func (s *stubSolid) BoundingBox() (min, max [3]float64) {
	return s.minBB, s.maxBB
}

// stubKernel is a minimal Kernel implementation that proves the interface
// is satisfiable. All methods return trivial results.
type stubKernel struct{}

func (k *stubKernel) Box(x, y, z float64) Solid {
	return &stubSolid{
		minBB: [3]float64{0, 0, 0},
		maxBB: [3]float64{x, y, z},
	}
}

func (k *stubKernel) Cylinder(height, radius float64) Solid {
	return &stubSolid{
		minBB: [3]float64{-radius, -radius, -height / 2},
		maxBB: [3]float64{radius, radius, height / 2},
	}
}

func (k *stubKernel) Union(a, _ Solid) Solid      { return a }
func (k *stubKernel) Difference(a, _ Solid) Solid { return a }

func (k *stubKernel) Translate(s Solid, _, _, _ float64) Solid { return s }

func (k *stubKernel) ToMesh(_ Solid) (*Mesh, error) {
	return &Mesh{}, nil
}

// Compile-time checks that the stubs implement the interfaces.
var _ Solid = (*stubSolid)(nil)
var _ Kernel = (*stubKernel)(nil)

func TestStubKernelBoxBoundingBox(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(10, 20, 30)
	min, max := s.BoundingBox()
	if min != [3]float64{0, 0, 0} {
		t.Errorf("Box min = %v, want [0 0 0]", min)
	}
	if max != [3]float64{10, 20, 30} {
		t.Errorf("Box max = %v, want [10 20 30]", max)
	}
}

func TestStubKernelToMesh(t *testing.T) {
	var k Kernel = &stubKernel{}
	s := k.Box(1, 1, 1)
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh() error = %v", err)
	}
	if m == nil {
		t.Fatal("ToMesh() returned nil mesh")
	}
	if !m.IsEmpty() {
		t.Error("stub ToMesh() should return empty mesh")
	}
}

func TestMeshAddTriangle(t *testing.T) {
	m := &Mesh{}
	m.AddTriangle([3]float64{0, 0, 0}, [3]float64{1, 0, 0}, [3]float64{0, 1, 2})
	m.AddTriangle([3]float64{0, 0, 0}, [3]float64{0, 1, 2}, [3]float64{-1, 0, 0})
	if m.TriangleCount() != 2 || m.VertexCount() != 6 {
		t.Fatalf("got %d triangles, %d vertices", m.TriangleCount(), m.VertexCount())
	}
	tri := m.Triangle(1)
	if tri[1] != [3]float64{0, 1, 2} {
		t.Errorf("Triangle(1)[1] = %v, want [0 1 2]", tri[1])
	}
}

// --- Primitive spec parsing ---

func TestParsePrimitive(t *testing.T) {
	tests := []struct {
		spec    string
		kind    string
		dims    []float64
		wantErr bool
	}{
		{spec: "box:20x10x5", kind: "box", dims: []float64{20, 10, 5}},
		{spec: "BOX:1.5x2x3", kind: "box", dims: []float64{1.5, 2, 3}},
		{spec: "cylinder:10x4", kind: "cylinder", dims: []float64{10, 4}},
		{spec: "tube:10x4x2", kind: "tube", dims: []float64{10, 4, 2}},
		{spec: "tube:10x4x5", wantErr: true},
		{spec: "box:20x10", wantErr: true},
		{spec: "box:20x-1x5", wantErr: true},
		{spec: "sphere:3", wantErr: true},
		{spec: "model.stl", wantErr: true},
		{spec: "box:axbxc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			p, err := ParsePrimitive(tt.spec)
			if tt.wantErr {
				if !errors.Is(err, ErrBadPrimitive) {
					t.Fatalf("ParsePrimitive(%q) error = %v, want ErrBadPrimitive", tt.spec, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrimitive(%q) error = %v", tt.spec, err)
			}
			if p.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", p.Kind, tt.kind)
			}
			if len(p.Dims) != len(tt.dims) {
				t.Fatalf("Dims = %v, want %v", p.Dims, tt.dims)
			}
			for i := range tt.dims {
				if p.Dims[i] != tt.dims[i] {
					t.Errorf("Dims[%d] = %v, want %v", i, p.Dims[i], tt.dims[i])
				}
			}
		})
	}
}

func TestIsPrimitive(t *testing.T) {
	for name, want := range map[string]bool{
		"box:1x1x1":       true,
		"cylinder:1x1":    true,
		"parts/a.stl":     false,
		"C:/models/a.stl": false,
	} {
		if got := IsPrimitive(name); got != want {
			t.Errorf("IsPrimitive(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestTessellateNamesMesh(t *testing.T) {
	m, err := Tessellate(&stubKernel{}, "box:1x2x3")
	if err != nil {
		t.Fatalf("Tessellate() error = %v", err)
	}
	if m.PartName != "box:1x2x3" {
		t.Errorf("PartName = %q, want box:1x2x3", m.PartName)
	}
	if _, err := Tessellate(&stubKernel{}, "box:1"); err == nil {
		t.Error("Tessellate() with bad spec returned nil error")
	}
}
