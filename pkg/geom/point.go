package geom

import (
	"fmt"
	"math"
)

// Point is a 2D coordinate in micrometres.
type Point struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y int64) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Add returns p + o.
func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns p - o.
func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Size2 returns the squared length of p.
func (p Point) Size2() int64 {
	return p.X*p.X + p.Y*p.Y
}

// Size returns the length of p, truncated to an integer.
func (p Point) Size() int64 {
	return int64(math.Sqrt(float64(p.Size2())))
}

// SizeMM returns the length of p in millimetres.
func (p Point) SizeMM() float64 {
	return math.Sqrt(float64(p.Size2())) / 1000.0
}

// Dot returns the dot product of p and o.
func (p Point) Dot(o Point) int64 {
	return p.X*o.X + p.Y*o.Y
}

// ShorterThan reports whether p is at most d long. Both components are
// checked first so the squared length is never computed for far points.
func (p Point) ShorterThan(d int64) bool {
	if p.X > d || p.X < -d {
		return false
	}
	if p.Y > d || p.Y < -d {
		return false
	}
	return p.Size2() <= d*d
}

// Normal scales p to length l. A zero vector stays zero.
func (p Point) Normal(l int64) Point {
	s := p.Size()
	if s == 0 {
		return p
	}
	return Point{X: p.X * l / s, Y: p.Y * l / s}
}

// Point3 is a 3D coordinate in micrometres.
type Point3 struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
	Z int64 `json:"z"`
}

func (p Point3) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Add returns p + o.
func (p Point3) Add(o Point3) Point3 {
	return Point3{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// Sub returns p - o.
func (p Point3) Sub(o Point3) Point3 {
	return Point3{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// Size2 returns the squared length of p.
func (p Point3) Size2() int64 {
	return p.X*p.X + p.Y*p.Y + p.Z*p.Z
}

// XY drops the Z coordinate.
func (p Point3) XY() Point {
	return Point{X: p.X, Y: p.Y}
}

// Min returns the component-wise minimum of p and o.
func (p Point3) Min(o Point3) Point3 {
	return Point3{X: min(p.X, o.X), Y: min(p.Y, o.Y), Z: min(p.Z, o.Z)}
}

// Max returns the component-wise maximum of p and o.
func (p Point3) Max(o Point3) Point3 {
	return Point3{X: max(p.X, o.X), Y: max(p.Y, o.Y), Z: max(p.Z, o.Z)}
}
