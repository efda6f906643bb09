// Package polyio reads and writes polygon sets in the plain text clip
// format: a polygon count line, then for each polygon a vertex count line
// followed by one "x, y" line per vertex. Values are in file units and are
// scaled to micrometres on load.
package polyio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/chazu/strata/pkg/geom"
)

// ErrFormat is returned for input that does not follow the clip format.
var ErrFormat = errors.New("polyio: bad format")

// Transform maps file values to micrometres: round((v + offset) * Scale).
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Identity reads values as micrometres.
var Identity = Transform{Scale: 1}

type lineReader struct {
	s    *bufio.Scanner
	line int
}

func (r *lineReader) next() (string, error) {
	for r.s.Scan() {
		r.line++
		if text := strings.TrimSpace(r.s.Text()); text != "" {
			return text, nil
		}
	}
	if err := r.s.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: unexpected end of input after line %d", ErrFormat, r.line)
}

func (r *lineReader) count() (int, error) {
	text, err := r.next()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: line %d: bad count %q", ErrFormat, r.line, text)
	}
	return n, nil
}

func splitPair(text string) (string, string, bool) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return "", "", false
	}
	return fields[0], fields[1], true
}

// Read parses a polygon set from r.
func Read(r io.Reader, tr Transform) (geom.Polygons, error) {
	lr := &lineReader{s: bufio.NewScanner(r)}
	n, err := lr.count()
	if err != nil {
		return nil, err
	}
	out := make(geom.Polygons, 0, n)
	for i := 0; i < n; i++ {
		m, err := lr.count()
		if err != nil {
			return nil, err
		}
		poly := make(geom.Polygon, 0, m)
		for j := 0; j < m; j++ {
			text, err := lr.next()
			if err != nil {
				return nil, err
			}
			xs, ys, ok := splitPair(text)
			if !ok {
				return nil, fmt.Errorf("%w: line %d: want \"x, y\", got %q", ErrFormat, lr.line, text)
			}
			x, errX := strconv.ParseFloat(xs, 64)
			y, errY := strconv.ParseFloat(ys, 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("%w: line %d: bad vertex %q", ErrFormat, lr.line, text)
			}
			poly = append(poly, geom.Pt(
				int64(math.Round((x+tr.OffsetX)*tr.Scale)),
				int64(math.Round((y+tr.OffsetY)*tr.Scale)),
			))
		}
		out = append(out, poly)
	}
	return out, nil
}

// Load reads a polygon set from a file.
func Load(path string, tr Transform) (geom.Polygons, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("polyio: %w", err)
	}
	defer f.Close()
	ps, err := Read(f, tr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ps, nil
}

// Write stores ps in the clip format, dividing coordinates by scale.
func Write(w io.Writer, ps geom.Polygons, scale float64) error {
	if scale == 0 {
		scale = 1
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(ps))
	for _, p := range ps {
		fmt.Fprintf(bw, "%d\n", len(p))
		for _, pt := range p {
			fmt.Fprintf(bw, "%s, %s\n", formatValue(float64(pt.X)/scale), formatValue(float64(pt.Y)/scale))
		}
	}
	return bw.Flush()
}

// Save writes ps to a file.
func Save(path string, ps geom.Polygons, scale float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("polyio: %w", err)
	}
	if err := Write(f, ps, scale); err != nil {
		f.Close()
		return fmt.Errorf("polyio: %w", err)
	}
	return f.Close()
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
