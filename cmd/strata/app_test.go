package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/strata/pkg/config"
	"github.com/chazu/strata/pkg/geom"
	"github.com/chazu/strata/pkg/kernel"
	"github.com/chazu/strata/pkg/mesh"
	"github.com/chazu/strata/pkg/mesh/meshtest"
)

// writeBox writes a binary STL box of the given size in millimetres.
func writeBox(t *testing.T, dir string, x, y, z int64) string {
	t.Helper()
	c := meshtest.BoxCorners(geom.Point3{}, geom.Point3{X: x * 1000, Y: y * 1000, Z: z * 1000})
	soup := &kernel.Mesh{}
	for _, f := range meshtest.BoxFaces {
		var tri [3][3]float64
		for i, idx := range f {
			tri[i] = [3]float64{float64(c[idx].X) / 1000, float64(c[idx].Y) / 1000, float64(c[idx].Z) / 1000}
		}
		soup.AddTriangle(tri[0], tri[1], tri[2])
	}
	path := filepath.Join(dir, "box.stl")
	if err := mesh.SaveSTL(path, soup); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestE2EBoxFile runs the whole pipeline on an STL file: mesh load, slice,
// compose, fill and sequencing into one program.
func TestE2EBoxFile(t *testing.T) {
	path := writeBox(t, t.TempDir(), 20, 20, 2)
	app := NewApp(config.Default(), nil)

	var out bytes.Buffer
	sum, err := app.Run(context.Background(), &out, []string{path})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Printed != 1 || sum.Skipped != 0 {
		t.Fatalf("printed %d, skipped %d; want 1, 0", sum.Printed, sum.Skipped)
	}
	if sum.PrintTime <= 0 || sum.Filament <= 0 {
		t.Errorf("print time %f, filament %f; want both positive", sum.PrintTime, sum.Filament)
	}

	got := out.String()
	for _, want := range []string{
		";Generated with strata " + version + "\n",
		";JOB_ID:" + sum.JobID.String() + "\n",
		";total_layers=19\n",
		";LAYER:0\n",
		";LAYER:18\n",
		";TYPE:WALL-OUTER\n",
		";TYPE:WALL-INNER\n",
		";TYPE:FILL\n",
		";TYPE:SKIRT\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if !strings.HasSuffix(got, config.DefaultEndCode) {
		t.Errorf("output does not end with the end code")
	}
}

// TestE2EPrimitive prints a kernel primitive instead of a file.
func TestE2EPrimitive(t *testing.T) {
	app := NewApp(config.Default(), nil)
	var out bytes.Buffer
	sum, err := app.Run(context.Background(), &out, []string{"box:10x10x1"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Printed != 1 {
		t.Fatalf("printed %d, want 1", sum.Printed)
	}
	if !strings.Contains(out.String(), ";LAYER:0\n") {
		t.Errorf("no layers written")
	}
}

// TestE2EMissingModelSkipped ensures one bad file does not stop the run.
func TestE2EMissingModelSkipped(t *testing.T) {
	dir := t.TempDir()
	path := writeBox(t, dir, 10, 10, 1)
	app := NewApp(config.Default(), nil)

	var out bytes.Buffer
	sum, err := app.Run(context.Background(), &out, []string{filepath.Join(dir, "missing.stl"), path})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Printed != 1 || sum.Skipped != 1 {
		t.Fatalf("printed %d, skipped %d; want 1, 1", sum.Printed, sum.Skipped)
	}
	if n := strings.Count(out.String(), ";total_layers="); n != 1 {
		t.Errorf("got %d jobs in output, want 1", n)
	}
}

// TestE2ETwoModels checks the second job starts above the first.
func TestE2ETwoModels(t *testing.T) {
	path := writeBox(t, t.TempDir(), 10, 10, 1)
	app := NewApp(config.Default(), nil)

	var out bytes.Buffer
	if _, err := app.Run(context.Background(), &out, []string{path, path}); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := out.String()
	if n := strings.Count(got, ";total_layers="); n != 2 {
		t.Fatalf("got %d jobs, want 2", n)
	}
	if n := strings.Count(got, "M109 S210"); n != 1 {
		t.Errorf("start code written %d times, want 1", n)
	}
	if !strings.Contains(got, "X102.50 Y102.50 Z6.00\n") {
		t.Errorf("no travel above the first model")
	}
}

// TestE2EScriptParams applies script params to the settings.
func TestE2EScriptParams(t *testing.T) {
	cfg := config.Default()
	app := NewApp(cfg, nil)
	result := app.Evaluate(`
(param "layerThickness" 200)
(cutout :file "hole.txt" :from 0 :to 3)
`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if cfg.LayerThickness != 200 {
		t.Errorf("layerThickness = %d, want 200", cfg.LayerThickness)
	}
	if result.Cutouts != 1 {
		t.Errorf("cutouts = %d, want 1", result.Cutouts)
	}
}

// TestE2EScriptErrors covers syntax errors and unknown settings.
func TestE2EScriptErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"syntax", `(cutout :file "a"`, ""},
		{"unknown setting", `(param "noSuchSetting" 3)`, "noSuchSetting"},
		{"bad cutout", `(cutout :from 1)`, "exactly one"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			app := NewApp(cfg, nil)
			result := app.Evaluate(tt.source)
			if len(result.Errors) == 0 {
				t.Fatalf("expected errors for %q", tt.source)
			}
			if tt.want != "" && !strings.Contains(result.Errors[0].Message, tt.want) {
				t.Errorf("error %q does not mention %q", result.Errors[0].Message, tt.want)
			}
			if len(app.cutouts) != 0 {
				t.Errorf("cutouts applied despite errors")
			}
		})
	}
}

// TestE2EScriptFileCutout prints a box with a hole cut by a script.
func TestE2EScriptFileCutout(t *testing.T) {
	dir := t.TempDir()
	path := writeBox(t, dir, 20, 20, 1)
	hole := filepath.Join(dir, "hole.txt")
	if err := os.WriteFile(hole, []byte("1\n4\n-3, -3\n3, -3\n3, 3\n-3, 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	app := NewApp(config.Default(), nil)
	result := app.Evaluate(`(cutout :file "` + filepath.ToSlash(hole) + `" :scale 1000)`)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	var out bytes.Buffer
	if _, err := app.Run(context.Background(), &out, []string{path}); err != nil {
		t.Fatalf("run: %v", err)
	}
	// The hole's outer wall runs half a line width into the solid, 3.2 mm
	// left of the object position.
	if !strings.Contains(out.String(), "X99.30") {
		t.Errorf("no wall around the hole")
	}
}

func TestRunArgs(t *testing.T) {
	dir := t.TempDir()
	path := writeBox(t, dir, 10, 10, 1)
	output := filepath.Join(dir, "out.gcode")

	if code := run([]string{"-s", "lt=200", "-s", "bogus=1", path}); code != 1 {
		t.Errorf("missing -o: exit %d, want 1", code)
	}
	if code := run([]string{"-o", output, "-s", "lt=200", path}); code != 0 {
		t.Fatalf("exit %d, want 0", code)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	// 1 mm at 0.2 mm layers after a 0.15 mm first cut.
	if !strings.Contains(string(data), ";total_layers=5\n") {
		t.Errorf("layer thickness override not applied")
	}
	if code := run([]string{"-o", output, "-j", filepath.Join(dir, "none.lisp"), path}); code != 1 {
		t.Errorf("missing script: exit %d, want 1", code)
	}
}
