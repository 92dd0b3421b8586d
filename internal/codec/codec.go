// Package codec encodes and decodes geographic envelopes into fixed-width,
// bit-packed binary keys.
//
// An envelope is a tuple (w, s, e, n) in WGS84 degrees, where -180 <= w, e <=
// 180 and -90 <= s <= n <= 90. Crossing the antimeridian is represented by
// e < w. Encoding scales each coordinate to an unsigned integer of
// Bits() bits and concatenates the four integers big-endian into a byte
// string of length 4*Bits()/8.
//
// Rounding is asymmetric by design: the west/south corner always rounds
// down, the east/north corner always rounds up. This guarantees the decoded
// rectangle contains the original one - a conservative overapproximation,
// never a narrowing.
package codec

import (
	"fmt"
	"math/big"

	"github.com/kartspatial/geoindex/internal/envelope"
)

// DefaultBits is the number of bits used per coordinate when writing a fresh
// index. It must be even so that four values take up a whole number of
// bytes.
const DefaultBits = 20

// Envelope is an axis-aligned WGS84 rectangle. E < W indicates the rectangle
// wraps across the antimeridian.
type Envelope = envelope.Envelope

// Codec encodes and decodes envelopes at a fixed bit width per coordinate.
type Codec struct {
	bits     int
	valueMax uint64
}

// New returns a Codec using the given number of bits per coordinate. It
// panics if bits is not even and positive - this is a programming error,
// not a runtime condition callers should expect to recover from.
func New(bits int) Codec {
	if bits <= 0 || bits%2 != 0 {
		panic(fmt.Sprintf("codec: bits per value must be even and positive, got %d", bits))
	}
	return Codec{
		bits:     bits,
		valueMax: (uint64(1) << uint(bits)) - 1,
	}
}

// Bits returns the configured bits-per-coordinate.
func (c Codec) Bits() int { return c.bits }

// ByteLen returns the number of bytes a single encoded envelope occupies.
func (c Codec) ByteLen() int { return 4 * c.bits / 8 }

// InferBits derives the bits-per-coordinate from the length, in bytes, of a
// previously encoded envelope. Existing databases are opened at whatever
// width they were written with; only a brand new database uses
// DefaultBits.
func InferBits(byteLen int) int {
	return byteLen * 8 / 4
}

// Encode packs (w, s, e, n) into a big-endian byte string of length
// c.ByteLen(). It panics if any coordinate is outside its valid range -
// CodecError is a programming-error class per the indexing contract; the
// envelope builder never emits out-of-range values, so a panic here means
// an upstream bug.
//
// The four values are concatenated into a single 4*bits-bit integer before
// being written out. At the default 20 bits per coordinate that is 80 bits,
// wider than a uint64 can hold, so the concatenation is done with
// math/big rather than native shifts.
func (c Codec) Encode(env Envelope) []byte {
	iw := c.encodeValue(env.W, -180, 180, floorFn)
	is := c.encodeValue(env.S, -90, 90, floorFn)
	ie := c.encodeValue(env.E, -180, 180, ceilFn)
	in := c.encodeValue(env.N, -90, 90, ceilFn)

	bits := uint(c.bits)
	integer := new(big.Int).SetUint64(iw)
	integer.Lsh(integer, bits).Or(integer, new(big.Int).SetUint64(is))
	integer.Lsh(integer, bits).Or(integer, new(big.Int).SetUint64(ie))
	integer.Lsh(integer, bits).Or(integer, new(big.Int).SetUint64(in))

	out := make([]byte, c.ByteLen())
	integer.FillBytes(out)
	return out
}

// Decode is the inverse of Encode. It returns the conservative
// overapproximation described in the package doc: the decoded rectangle
// always contains the original.
func (c Codec) Decode(encoded []byte) Envelope {
	integer := new(big.Int).SetBytes(encoded)
	bits := uint(c.bits)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))

	next := func() uint64 {
		chunk := new(big.Int).And(integer, mask)
		integer.Rsh(integer, bits)
		return chunk.Uint64()
	}

	n := c.decodeValue(next(), -90, 90)
	e := c.decodeValue(next(), -180, 180)
	s := c.decodeValue(next(), -90, 90)
	w := c.decodeValue(next(), -180, 180)

	return Envelope{W: w, S: s, E: e, N: n}
}

type roundFn func(float64) uint64

func floorFn(x float64) uint64 { return uint64(x) }
func ceilFn(x float64) uint64 {
	i := uint64(x)
	if float64(i) < x {
		i++
	}
	return i
}

func (c Codec) encodeValue(value, min, max float64, round roundFn) uint64 {
	if value < min || value > max {
		panic(fmt.Sprintf("codec: value %g out of range [%g, %g]", value, min, max))
	}
	normalised := (value - min) / (max - min)
	encoded := round(normalised * float64(c.valueMax))
	if encoded > c.valueMax {
		encoded = c.valueMax
	}
	return encoded
}

func (c Codec) decodeValue(encoded uint64, min, max float64) float64 {
	normalised := float64(encoded) / float64(c.valueMax)
	return normalised*(max-min) + min
}
