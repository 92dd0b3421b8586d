package envelope

import (
	"errors"
	"fmt"
	"math"
)

// Geometry is the minimal capability a feature geometry must offer to have
// an envelope computed for it: its own minmax bounding box in whatever CRS
// it was stored in. Callers own the concrete geometry representation
// (internal/feature decodes the wire format; this package never needs to
// know it); only the box matters here.
type Geometry interface {
	// MinMax2D returns the geometry's axis-aligned bounding box in its
	// source CRS. ok is false for an empty geometry (e.g. GEOMETRYCOLLECTION
	// EMPTY), which has no envelope.
	MinMax2D() (minX, minY, maxX, maxY float64, ok bool)
}

// Transform converts a point from a geometry's source CRS into WGS84
// longitude/latitude degrees. Implementations live in internal/crscache,
// which memoizes the underlying PROJ pipeline per source CRS.
type Transform interface {
	Forward(x, y float64) (lon, lat float64, err error)
	Name() string
}

// Skip explains why Build produced no envelope for a feature. It is a
// value, not an error: an empty geometry or an unsupported CRS is an
// expected outcome of indexing a real dataset, not a fault in the
// indexing run itself.
type Skip struct {
	Reason string
}

func (s Skip) Empty() bool { return s.Reason == "" }

func skip(format string, args ...any) Skip {
	return Skip{Reason: fmt.Sprintf(format, args...)}
}

// initialSegmentsPerSide controls how finely a source envelope's edges are
// resampled before the first reprojection pass. A straight edge in the
// source CRS is rarely straight once reprojected into WGS84; resampling
// each edge into several segments before transforming keeps the resulting
// envelope conservative without the cost of reprojecting the full original
// geometry.
const initialSegmentsPerSide = 8

// minCurvatureSegmentsPerSide is the floor on how many chords a side is
// split into once it's large enough that curvature needs closer bounding
// (see the biggest-dimension check in projectMinMaxEnvelope).
const minCurvatureSegmentsPerSide = 10

// curvatureThresholdDegrees marks the point below which line curvature is
// minimal enough that a proportional buffer - rather than resegmentation -
// is conservative enough.
const curvatureThresholdDegrees = 1.0

// curvatureBufferDegrees pads the resegmented reprojected envelope to
// absorb whatever curvature the finer resampling still misses.
const curvatureBufferDegrees = 0.1

// errAmbiguousWidth is returned when, even after attempting a winding-order
// fix, the reprojected ring's envelope is 180 degrees or wider. This
// usually means the original geometry crossed the antimeridian and was
// stored in a non-contiguous way (split into two halves near -180 and
// +180), so the min/max longitude values aren't useful for recovering the
// true west/east extent. Rather than guess, the feature is skipped.
var errAmbiguousWidth = errors.New("envelope width is ambiguous (>= 180 degrees) even after winding-order correction")

// Build computes the WGS84 envelope of geom by applying every candidate
// transform and unioning the results. A dataset's CRS can change across
// its history, so a feature is given one transform per CRS ever recorded
// for its dataset; unioning across all of them is what lets a query
// against the index find the feature regardless of which era's CRS was in
// effect when it was written. If any transform fails to reproject the
// geometry, the feature as a whole is skipped rather than indexed with a
// partial envelope - a partial union would silently miss whichever CRS
// era failed.
func Build(geom Geometry, transforms []Transform) (Envelope, Skip) {
	env, skip, _ := buildVerbose(geom, transforms)
	return env, skip
}

// Trace records one attempted transform during BuildVerbose, for the debug
// subcommand's per-transform tracing output.
type Trace struct {
	Transform string
	Envelope  Envelope
	Err       string
}

// BuildVerbose behaves like Build but also returns a Trace per attempted
// transform, in order, so the debug subcommand can show exactly why a
// feature landed where it did or why it was skipped.
func BuildVerbose(geom Geometry, transforms []Transform) (Envelope, Skip, []Trace) {
	return buildVerbose(geom, transforms)
}

func buildVerbose(geom Geometry, transforms []Transform) (Envelope, Skip, []Trace) {
	minX, minY, maxX, maxY, ok := geom.MinMax2D()
	if !ok {
		return Envelope{}, skip("geometry is empty"), nil
	}
	if len(transforms) == 0 {
		return Envelope{}, skip("no candidate CRS transform available"), nil
	}

	traces := make([]Trace, 0, len(transforms))
	var result *Envelope
	for _, tr := range transforms {
		env, err := projectMinMaxEnvelope(minX, minY, maxX, maxY, tr)
		if err != nil {
			traces = append(traces, Trace{Transform: tr.Name(), Err: err.Error()})
			return Envelope{}, skip("transform %s failed: %s", tr.Name(), err), traces
		}
		traces = append(traces, Trace{Transform: tr.Name(), Envelope: env})
		union := UnionOptional(result, env)
		result = &union
	}
	return *result, Skip{}, traces
}

// projectMinMaxEnvelope reprojects a source-CRS bounding box into a
// conservative WGS84 envelope.
//
// A degenerate (point) box is reprojected directly - there is no edge
// curvature to worry about. Otherwise the box is resampled into a ring and
// reprojected vertex by vertex. If the box straddles the antimeridian in
// the source CRS, reprojection can flip the ring clockwise once its
// longitudes wrap into [-180, 180]; fixWindingOrder looks for a split
// longitude that restores a contiguous anticlockwise interpretation. If the
// resulting envelope is still 180 degrees wide or more, the winding-order
// ambiguity couldn't be resolved and the feature is skipped outright
// (errAmbiguousWidth) rather than indexed with a near-full-width envelope.
//
// Otherwise the envelope is padded to absorb the curvature a straight-edge
// approximation misses: a proportional buffer for small geometries, or a
// finer resegmentation plus a fixed buffer once either side grows past one
// degree, so the padding never relies on an approximation coarser than the
// geometry itself warrants.
func projectMinMaxEnvelope(minX, minY, maxX, maxY float64, tr Transform) (Envelope, error) {
	if minX == maxX && minY == maxY {
		lon, lat, err := tr.Forward(minX, minY)
		if err != nil {
			return Envelope{}, err
		}
		w := wrapLon(lon)
		return Envelope{W: w, S: lat, E: w, N: lat}, nil
	}

	src := anticlockwiseRing(minX, minY, maxX, maxY, initialSegmentsPerSide)
	projected, err := projectRing(src, tr)
	if err != nil {
		return Envelope{}, err
	}

	rawMinX, rawMinY, rawMaxX, rawMaxY := projected.bounds()
	width, height := rawMaxX-rawMinX, rawMaxY-rawMinY

	var splitX float64
	var split bool
	if width >= 180 && projected.isClockwise() {
		projected, splitX, split = fixWindingOrder(projected)
		rawMinX, rawMinY, rawMaxX, rawMaxY = projected.bounds()
		width, height = rawMaxX-rawMinX, rawMaxY-rawMinY
	}

	if width >= 180 {
		return Envelope{}, errAmbiguousWidth
	}

	biggest := math.Max(width, height)

	var bMinX, bMinY, bMaxX, bMaxY float64
	if biggest < curvatureThresholdDegrees {
		bMinX, bMinY, bMaxX, bMaxY = buffer(rawMinX, rawMinY, rawMaxX, rawMaxY, 0.1*biggest)
	} else {
		segmentsPerSide := minCurvatureSegmentsPerSide
		if n := int(math.Ceil(biggest)); n > segmentsPerSide {
			segmentsPerSide = n
		}
		fine := anticlockwiseRing(minX, minY, maxX, maxY, segmentsPerSide)
		fineProjected, err := projectRing(fine, tr)
		if err != nil {
			return Envelope{}, err
		}
		if split {
			fineProjected = reinterpretToBeEastOf(splitX, fineProjected)
		}
		rawMinX, rawMinY, rawMaxX, rawMaxY = fineProjected.bounds()
		bMinX, bMinY, bMaxX, bMaxY = buffer(rawMinX, rawMinY, rawMaxX, rawMaxY, curvatureBufferDegrees)
	}

	w, e := wrapLonEnvelope(bMinX, bMaxX)
	return Envelope{W: w, S: bMinY, E: e, N: bMaxY}, nil
}

func projectRing(src ring, tr Transform) (ring, error) {
	projected := make(ring, len(src))
	for i, p := range src {
		lon, lat, err := tr.Forward(p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("projecting vertex %d: %w", i, err)
		}
		projected[i] = point{X: lon, Y: lat}
	}
	return projected, nil
}
