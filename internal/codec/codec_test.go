package codec

import (
	"math"
	"testing"
)

func TestRoundTripConservative(t *testing.T) {
	cases := []Envelope{
		{W: -180, S: -90, E: 180, N: 90},
		{W: 0, S: 0, E: 0, N: 0},
		{W: 174.7864, S: -41.2522, E: 174.7864, N: -41.2522},
		{W: 170, S: -10, E: -179.5, N: 10},
	}

	c := New(DefaultBits)
	for _, env := range cases {
		encoded := c.Encode(env)
		if len(encoded) != 10 {
			t.Fatalf("expected 10 byte encoding for B=20, got %d", len(encoded))
		}
		decoded := c.Decode(encoded)

		lonErr := 360.0 / float64(c.valueMax)
		latErr := 180.0 / float64(c.valueMax)

		if decoded.W > env.W+1e-9 {
			t.Errorf("decoded.W %g should be <= original %g", decoded.W, env.W)
		}
		if decoded.S > env.S+1e-9 {
			t.Errorf("decoded.S %g should be <= original %g", decoded.S, env.S)
		}
		if decoded.E < env.E-1e-9 {
			t.Errorf("decoded.E %g should be >= original %g", decoded.E, env.E)
		}
		if decoded.N < env.N-1e-9 {
			t.Errorf("decoded.N %g should be >= original %g", decoded.N, env.N)
		}
		if math.Abs(decoded.W-env.W) > lonErr+1e-9 {
			t.Errorf("W error %g exceeds bound %g", math.Abs(decoded.W-env.W), lonErr)
		}
		if math.Abs(decoded.S-env.S) > latErr+1e-9 {
			t.Errorf("S error %g exceeds bound %g", math.Abs(decoded.S-env.S), latErr)
		}
	}
}

func TestPointRoundTrip(t *testing.T) {
	c := New(DefaultBits)
	env := Envelope{W: 174.7864, S: -41.2522, E: 174.7864, N: -41.2522}
	decoded := c.Decode(c.Encode(env))

	if math.Abs(decoded.W-174.7864) >= 3.5e-4 {
		t.Errorf("W off by %g, want < 3.5e-4", math.Abs(decoded.W-174.7864))
	}
	if math.Abs(decoded.S+41.2522) >= 1.8e-4 {
		t.Errorf("S off by %g, want < 1.8e-4", math.Abs(decoded.S+41.2522))
	}
}

func TestInferBits(t *testing.T) {
	if got := InferBits(10); got != 20 {
		t.Errorf("InferBits(10) = %d, want 20", got)
	}
	if got := InferBits(12); got != 24 {
		t.Errorf("InferBits(12) = %d, want 24", got)
	}
}

func TestEncodePanicsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range coordinate")
		}
	}()
	c := New(DefaultBits)
	c.Encode(Envelope{W: -200, S: 0, E: 0, N: 0})
}

func TestNewPanicsOnOddBits(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for odd bits")
		}
	}()
	New(21)
}
