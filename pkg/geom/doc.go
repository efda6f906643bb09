// Package geom defines the fixed-point 2D and 3D geometry types shared by
// the slicer, the layer compositor and the toolpath sequencer.
// Coordinates are integer micrometres.
package geom
