// Package envelope computes conservative WGS84 bounding rectangles for
// feature geometries, handling antimeridian crossing and winding-order
// inversion introduced by reprojection.
package envelope

import "math"

// Envelope is an axis-aligned rectangle in WGS84 degrees: -180 <= W, E <=
// 180 and -90 <= S <= N <= 90. E < W indicates the rectangle wraps across
// the antimeridian (it covers everything east of W and west of E).
type Envelope struct {
	W, S, E, N float64
}

// Width returns the envelope's longitude extent, following the wrap
// convention: if the envelope crosses the antimeridian the width still
// comes out non-negative and at most 360 (the full band -180..180).
func (e Envelope) Width() float64 {
	w, eastEdge := unwrapLon(e.W, e.E)
	return eastEdge - w
}

// Height returns the envelope's latitude extent.
func (e Envelope) Height() float64 {
	return e.N - e.S
}

// Point reports whether the envelope is a single degenerate point (W == E
// and S == N). A zero-area line envelope is not a point.
func (e Envelope) Point() bool {
	return e.W == e.E && e.S == e.N
}

// unwrapLon converts a wrapped (w, e) pair, where w <= e unless the range
// crosses the antimeridian (in which case e < w), into an equivalent
// interval where w is unchanged and e >= w, possibly exceeding 180.
func unwrapLon(w, e float64) (float64, float64) {
	if w <= e {
		return w, e
	}
	return w, e + 360
}

// wrapLon puts a longitude into the half-open range [-180, 180).
func wrapLon(x float64) float64 {
	if x >= -180 && x < 180 {
		return x
	}
	m := math.Mod(x+180, 360)
	if m < 0 {
		m += 360
	}
	return m - 180
}

// wrapLonEnvelope wraps a longitude interval [w, e] (w <= e, possibly
// exceeding the [-180,180] range) back into the wrapped envelope
// convention, inferring whether the result crosses the antimeridian by
// comparing widths before and after wrapping.
func wrapLonEnvelope(w, e float64) (float64, float64) {
	wrappedW := wrapLon(w)
	wrappedE := wrapLon(e)

	minX := math.Min(wrappedW, wrappedE)
	maxX := math.Max(wrappedW, wrappedE)

	if math.Abs((maxX-minX)-(e-w)) < 1e-3 {
		return minX, maxX
	}
	return maxX, minX
}

// buffer expands all four sides of a (minX, minY, maxX, maxY) rectangle by
// the given amount, clamping latitude to +/-90.
func buffer(minX, minY, maxX, maxY, amount float64) (float64, float64, float64, float64) {
	return minX - amount, math.Max(minY-amount, -90), maxX + amount, math.Min(maxY+amount, 90)
}
