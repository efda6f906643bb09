// Package gcode turns planned moves into a G-code program. The Exporter
// owns the machine state (position, extrusion counter, retraction, fan,
// active extruder) and writes lines; the Planner collects one layer of
// paths, applies speed scaling and hands the result to the Exporter.
package gcode

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/chazu/strata/pkg/geom"
)

// MaxExtruders is the number of extruders whose offsets can be configured.
const MaxExtruders = 4

// Exporter writes G-code to an io.Writer. Write errors are sticky: after the
// first failure nothing more is written and Err reports it.
type Exporter struct {
	w   io.Writer
	err error

	pos  geom.Point3
	zPos int64

	extrusionAmount  float64
	extrusionPerMM   float64
	retractionAmount int
	retractionSpeed  int
	isRetracted      bool

	extruderNr     int
	extruderOffset [MaxExtruders]geom.Point
	currentSpeed   int
	fanSpeed       int

	totalFilament  float64
	totalPrintTime float64
}

// NewExporter returns an Exporter writing to w. The machine is assumed to
// sit at the origin with extruder 0 active and the fan off.
func NewExporter(w io.Writer) *Exporter {
	return &Exporter{w: w, fanSpeed: -1}
}

// Err returns the first write error, if any.
func (e *Exporter) Err() error {
	return e.err
}

func (e *Exporter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	if _, err := fmt.Fprintf(e.w, format, args...); err != nil {
		e.err = fmt.Errorf("gcode: write: %w", err)
	}
}

// SetExtruderOffset sets the nozzle offset of extruder id. Out of range ids
// are ignored.
func (e *Exporter) SetExtruderOffset(id int, p geom.Point) {
	if id < 0 || id >= MaxExtruders {
		return
	}
	e.extruderOffset[id] = p
}

// SetExtrusion sets the filament fed per millimetre of a unit-width line
// for the given layer thickness (µm), filament diameter (µm) and flow (%).
func (e *Exporter) SetExtrusion(layerThickness, filamentDiameter, flow int) {
	r := float64(filamentDiameter) / 1000 / 2
	area := math.Pi * r * r
	if area <= 0 {
		e.extrusionPerMM = 0
		return
	}
	e.extrusionPerMM = float64(layerThickness) / 1000 / area * float64(flow) / 100
}

// SetRetraction sets the retraction length (µm) and speed (mm/s).
func (e *Exporter) SetRetraction(amount, speed int) {
	e.retractionAmount = amount
	e.retractionSpeed = speed
}

// SetZ sets the height used by the next move.
func (e *Exporter) SetZ(z int64) {
	e.zPos = z
}

// Position returns the last written position.
func (e *Exporter) Position() geom.Point3 {
	return e.pos
}

// PositionXY returns the last written position without Z.
func (e *Exporter) PositionXY() geom.Point {
	return e.pos.XY()
}

// Z returns the height set for the next move.
func (e *Exporter) Z() int64 {
	return e.zPos
}

// ExtruderNr returns the active extruder.
func (e *Exporter) ExtruderNr() int {
	return e.extruderNr
}

// WriteComment writes a ";" comment line.
func (e *Exporter) WriteComment(format string, args ...any) {
	e.printf(";"+format+"\n", args...)
}

// WriteCode writes a block of user supplied G-code verbatim.
func (e *Exporter) WriteCode(code string) {
	if code == "" {
		return
	}
	if !strings.HasSuffix(code, "\n") {
		code += "\n"
	}
	e.printf("%s", code)
}

// WriteMove moves to p at speed (mm/s). A non-zero lineWidth (µm) extrudes
// along the way; a pending retraction is undone first.
func (e *Exporter) WriteMove(p geom.Point, speed int, lineWidth int) {
	if lineWidth != 0 {
		if e.isRetracted {
			e.printf("G1 F%d E%0.5f\n", e.retractionSpeed*60, e.extrusionAmount)
			e.currentSpeed = e.retractionSpeed
			e.isRetracted = false
		}
		dist := p.Sub(e.pos.XY()).SizeMM()
		e.extrusionAmount += e.extrusionPerMM * float64(lineWidth) / 1000 * dist
		e.printf("G1")
	} else {
		e.printf("G0")
	}
	if e.currentSpeed != speed {
		e.printf(" F%d", speed*60)
		e.currentSpeed = speed
	}
	off := e.extruderOffset[e.extruderNr]
	e.printf(" X%0.2f Y%0.2f", mm(p.X-off.X), mm(p.Y-off.Y))
	if e.zPos != e.pos.Z {
		e.printf(" Z%0.2f", mm(e.zPos))
	}
	if lineWidth != 0 {
		e.printf(" E%0.5f", e.extrusionAmount)
	}
	e.printf("\n")
	e.pos = geom.Point3{X: p.X, Y: p.Y, Z: e.zPos}
}

// WriteRetraction pulls the filament back unless it already is.
func (e *Exporter) WriteRetraction() {
	if e.retractionAmount <= 0 || e.isRetracted {
		return
	}
	e.printf("G1 F%d E%0.5f\n", e.retractionSpeed*60, e.extrusionAmount-mm(int64(e.retractionAmount)))
	e.currentSpeed = e.retractionSpeed
	e.isRetracted = true
}

// SwitchExtruder retracts, resets the extrusion counter and selects
// extruder n. Selecting the active extruder does nothing.
func (e *Exporter) SwitchExtruder(n int) {
	if n == e.extruderNr || n < 0 || n >= MaxExtruders {
		return
	}
	if e.retractionAmount > 0 && !e.isRetracted {
		e.printf("G1 F%d E%0.5f\n", e.retractionSpeed*60, e.extrusionAmount-mm(int64(e.retractionAmount)))
		e.currentSpeed = e.retractionSpeed
	}
	e.ResetExtrusionValue()
	e.isRetracted = e.retractionAmount > 0
	e.extruderNr = n
	e.printf("T%d\n", n)
}

// WriteFanCommand sets the fan to speed percent; 0 turns it off.
func (e *Exporter) WriteFanCommand(speed int) {
	if speed == e.fanSpeed {
		return
	}
	if speed > 0 {
		e.printf("M106 S%d\n", speed*255/100)
	} else {
		e.printf("M107\n")
	}
	e.fanSpeed = speed
}

// WriteDelay dwells for the given number of seconds.
func (e *Exporter) WriteDelay(seconds float64) {
	e.printf("G4 P%d\n", int(math.Round(seconds*1000)))
	e.totalPrintTime += seconds
}

// ResetExtrusionValue zeroes the extrusion counter, keeping the running
// filament total.
func (e *Exporter) ResetExtrusionValue() {
	if e.extrusionAmount == 0 {
		return
	}
	e.printf("G92 E0\n")
	e.totalFilament += e.extrusionAmount
	e.extrusionAmount = 0
}

// AddPrintTime adds an estimate of seconds spent moving.
func (e *Exporter) AddPrintTime(seconds float64) {
	e.totalPrintTime += seconds
}

// TotalPrintTime returns the estimated program duration in seconds.
func (e *Exporter) TotalPrintTime() float64 {
	return e.totalPrintTime
}

// TotalFilamentUsed returns the filament fed so far in millimetres.
func (e *Exporter) TotalFilamentUsed() float64 {
	return e.totalFilament + e.extrusionAmount
}

func mm(v int64) float64 {
	return float64(v) / 1000
}
