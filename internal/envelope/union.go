package envelope

import "math"

// Union returns the smallest wrapped envelope containing both a and b.
//
// Both envelopes are assumed to already be in wrapped form (longitudes in
// [-180, 180], W <= E unless the envelope crosses the antimeridian, in
// which case E < W). A zero-value Envelope is never passed in as "no
// envelope" here - callers use UnionOptional for that, matching the
// orchestrator's fold-as-you-go usage where the first envelope has nothing
// to union with yet.
func Union(a, b Envelope) Envelope {
	w1, e1 := unwrapLon(a.W, a.E)
	w2, e2 := unwrapLon(b.W, b.E)

	width := math.Inf(1)
	var resultW, resultE float64

	for _, shift := range [...]float64{-360, 0, 360} {
		shiftedW2 := w2 + shift
		shiftedE2 := e2 + shift
		potentialW := math.Min(w1, shiftedW2)
		potentialE := math.Max(e1, shiftedE2)
		potentialWidth := potentialE - potentialW

		if potentialWidth < width {
			width = potentialWidth
			resultW = potentialW
			resultE = potentialE
		}
	}

	resultS := math.Min(a.S, b.S)
	resultN := math.Max(a.N, b.N)

	if width >= 360 {
		return Envelope{W: -180, S: resultS, E: 180, N: resultN}
	}

	w, e := wrapLonEnvelope(resultW, resultE)
	return Envelope{W: w, S: resultS, E: e, N: resultN}
}

// UnionOptional folds b into an optional running union acc. A nil acc means
// "no envelope yet" and simply returns b.
func UnionOptional(acc *Envelope, b Envelope) Envelope {
	if acc == nil {
		return b
	}
	return Union(*acc, b)
}
