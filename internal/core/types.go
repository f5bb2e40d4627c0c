package core

import "math"

// Vec is a point or displacement in canvas coordinates.
type Vec struct {
	X float64
	Y float64
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{X: v.X + o.X, Y: v.Y + o.Y} }

// Scale returns v multiplied by k on both axes.
func (v Vec) Scale(k float64) Vec { return Vec{X: v.X * k, Y: v.Y * k} }

// IsFinite reports whether both components are neither NaN nor infinite.
func (v Vec) IsFinite() bool { return Finite(v.X) && Finite(v.Y) }

// Size describes the dimensions of the virtual canvas.
type Size struct {
	W float64
	H float64
}

// Center returns the midpoint of the canvas.
func (s Size) Center() Vec { return Vec{X: s.W / 2, Y: s.H / 2} }

// Valid reports whether both dimensions are finite and strictly positive.
func (s Size) Valid() bool {
	return Finite(s.W) && Finite(s.H) && s.W > 0 && s.H > 0
}

// Finite reports whether f is neither NaN nor infinite.
func Finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
