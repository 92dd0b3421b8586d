package envelope

import "sort"

// ring is a closed polygon boundary: ring[0] == ring[len(ring)-1].
type ring []point

type point struct{ X, Y float64 }

// anticlockwiseRing builds the closed ring tracing a minmax box
// anticlockwise starting at the south-west corner, with segmentsPerSide
// evenly spaced vertices per side (4*segmentsPerSide+1 points including the
// repeated closing point; one segment per side gives the five-point
// corner ring). This is the shape
// actually reprojected - reprojecting only the four corners is not
// conservative for most projections, since the true extent of a
// reprojected straight edge can bulge outside the quadrilateral formed by
// its reprojected endpoints.
func anticlockwiseRing(minX, minY, maxX, maxY float64, segmentsPerSide int) ring {
	if segmentsPerSide < 1 {
		segmentsPerSide = 1
	}
	corners := [4]point{
		{minX, minY},
		{maxX, minY},
		{maxX, maxY},
		{minX, maxY},
	}

	r := make(ring, 0, 4*segmentsPerSide+1)
	for i := 0; i < 4; i++ {
		from := corners[i]
		to := corners[(i+1)%4]
		for s := 0; s < segmentsPerSide; s++ {
			t := float64(s) / float64(segmentsPerSide)
			r = append(r, point{
				X: from.X + (to.X-from.X)*t,
				Y: from.Y + (to.Y-from.Y)*t,
			})
		}
	}
	r = append(r, r[0])
	return r
}

// signedArea computes twice the signed area of the ring via the shoelace
// formula. Positive means anticlockwise winding, negative means clockwise.
func (r ring) signedArea() float64 {
	var sum float64
	for i := 0; i < len(r)-1; i++ {
		a, b := r[i], r[i+1]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum
}

func (r ring) isClockwise() bool      { return r.signedArea() < 0 }
func (r ring) isAnticlockwise() bool  { return r.signedArea() > 0 }
func (r ring) bounds() (minX, minY, maxX, maxY float64) {
	minX, minY = r[0].X, r[0].Y
	maxX, maxY = r[0].X, r[0].Y
	for _, p := range r[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return
}

// fixWindingOrder repairs a ring that reprojection has turned clockwise by
// picking a split longitude and shifting every vertex west of it eastward
// by 360 degrees. A ring that crosses the antimeridian in its source CRS
// gets wrapped into [-180, 180] during reprojection in a way that can flip
// its apparent winding order; a contiguous anticlockwise interpretation
// still exists; it's just not the one the raw coordinates show. Candidate
// split longitudes are the midpoints between consecutive distinct X values,
// tried in order until one yields an anticlockwise ring.
//
// This is an O(n^2) search in the worst case - there are at most a
// handful of distinct X values per ring (segmentsPerSide is small), so
// this is not a performance concern.
//
// ok is false if the ring was already anticlockwise, or if no split
// longitude restores anticlockwise winding (which should not happen for a
// simple ring derived from a rectangle; callers fall back to treating the
// ring as still invalid rather than panicking). splitX is only meaningful
// when ok is true, and is reused by callers that re-segment the ring at a
// finer resolution to apply the same interpretation.
func fixWindingOrder(r ring) (fixed ring, splitX float64, ok bool) {
	if r.isAnticlockwise() {
		return r, 0, false
	}

	xs := uniqueSortedX(r)
	for i := 0; i < len(xs)-1; i++ {
		candidate := (xs[i] + xs[i+1]) / 2
		shifted := reinterpretToBeEastOf(candidate, r)
		if shifted.isAnticlockwise() {
			return shifted, candidate, true
		}
	}
	return r, 0, false
}

func uniqueSortedX(r ring) []float64 {
	seen := make(map[float64]bool, len(r))
	xs := make([]float64, 0, len(r))
	for _, p := range r {
		if !seen[p.X] {
			seen[p.X] = true
			xs = append(xs, p.X)
		}
	}
	sort.Float64s(xs)
	return xs
}

// reinterpretToBeEastOf shifts every point with X < splitX eastward by 360
// degrees. The shifted points occupy the same place on Earth, but this can
// change the ring's winding order and which edges appear to cross the
// antimeridian.
func reinterpretToBeEastOf(splitX float64, r ring) ring {
	out := make(ring, len(r))
	for i, p := range r {
		if p.X < splitX {
			out[i] = point{X: p.X + 360, Y: p.Y}
		} else {
			out[i] = p
		}
	}
	return out
}
