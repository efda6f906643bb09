package mesh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/strata/pkg/geom"
)

// Matrix is a 3x3 model transform applied to millimetre input vertices.
type Matrix [3][3]float64

// Identity returns the identity transform.
func Identity() Matrix {
	return Matrix{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Apply transforms a millimetre point and converts it to micrometres.
// Rows of m are the images of the X, Y and Z axes.
func (m Matrix) Apply(p [3]float64) geom.Point3 {
	return geom.Point3{
		X: int64((p[0]*m[0][0] + p[1]*m[1][0] + p[2]*m[2][0]) * 1000),
		Y: int64((p[0]*m[0][1] + p[1]*m[1][1] + p[2]*m[2][1]) * 1000),
		Z: int64((p[0]*m[0][2] + p[1]*m[1][2] + p[2]*m[2][2]) * 1000),
	}
}

// ParseMatrix parses nine comma-separated numbers in row order.
func ParseMatrix(s string) (Matrix, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 9 {
		return Matrix{}, fmt.Errorf("mesh: matrix needs 9 values, got %d", len(fields))
	}
	var m Matrix
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Matrix{}, fmt.Errorf("mesh: matrix value %d: %w", i, err)
		}
		m[i/3][i%3] = v
	}
	return m, nil
}

func (m Matrix) String() string {
	parts := make([]string, 0, 9)
	for _, row := range m {
		for _, v := range row {
			parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
		}
	}
	return strings.Join(parts, ",")
}
