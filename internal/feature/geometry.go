package feature

import (
	"encoding/binary"
	"math"

	"github.com/paulmach/orb/encoding/wkb"
)

// Geometry wraps a column value decoded from a feature blob that is
// expected to hold a GeoPackage binary geometry (GP header + WKB body). It
// satisfies envelope.Geometry.
type Geometry struct {
	oid string
	raw []byte
}

// NewGeometry wraps raw geometry column bytes for envelope computation.
// oid is the owning feature's object id, used only for error messages.
func NewGeometry(oid string, raw []byte) Geometry {
	return Geometry{oid: oid, raw: raw}
}

// gpkgEnvelopeSizes maps the GeoPackage header's envelope-contents
// indicator (flags bits 1-3) to how many float64 values the envelope
// occupies.
var gpkgEnvelopeSizes = [...]int{0, 4, 6, 6, 8}

// MinMax2D implements envelope.Geometry. It reads the envelope embedded in
// the GeoPackage header when present - the common case, and far cheaper
// than decoding the full WKB body - and falls back to decoding the body
// when the header carries no envelope.
func (g Geometry) MinMax2D() (minX, minY, maxX, maxY float64, ok bool) {
	if len(g.raw) == 0 {
		return 0, 0, 0, 0, false
	}
	if minX, minY, maxX, maxY, ok = g.headerEnvelope(); ok {
		return
	}
	return g.decodedEnvelope()
}

// headerEnvelope parses a GeoPackage geometry header: "GP" magic, a
// version byte, a flags byte, and (if the envelope indicator is nonzero)
// that many little/big-endian float64 pairs.
func (g Geometry) headerEnvelope() (minX, minY, maxX, maxY float64, ok bool) {
	if len(g.raw) < 8 || g.raw[0] != 'G' || g.raw[1] != 'P' {
		return 0, 0, 0, 0, false
	}
	flags := g.raw[3]
	isEmpty := flags&(1<<4) != 0
	if isEmpty {
		return 0, 0, 0, 0, false
	}

	envelopeIndicator := (flags >> 1) & 0x07
	if int(envelopeIndicator) >= len(gpkgEnvelopeSizes) {
		return 0, 0, 0, 0, false
	}
	n := gpkgEnvelopeSizes[envelopeIndicator]
	if n == 0 {
		return 0, 0, 0, 0, false
	}

	order := binary.ByteOrder(binary.BigEndian)
	if flags&0x01 == 1 {
		order = binary.LittleEndian
	}

	const headerLen = 8
	if len(g.raw) < headerLen+n*8 {
		return 0, 0, 0, 0, false
	}

	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := order.Uint64(g.raw[headerLen+i*8 : headerLen+(i+1)*8])
		vals[i] = math.Float64frombits(bits)
	}
	// Envelope layout is always (minX, maxX, minY, maxY, ...) regardless of
	// dimensionality - z/m ranges, when present, trail and are unused here.
	return vals[0], vals[2], vals[1], vals[3], true
}

// decodedEnvelope falls back to decoding the WKB body (the bytes after the
// variable-length GeoPackage header) when the header carries no envelope.
func (g Geometry) decodedEnvelope() (minX, minY, maxX, maxY float64, ok bool) {
	body := g.wkbBody()
	if body == nil {
		return 0, 0, 0, 0, false
	}
	geom, err := wkb.Unmarshal(body)
	if err != nil || geom == nil {
		return 0, 0, 0, 0, false
	}
	bound := geom.Bound()
	return bound.Min.X(), bound.Min.Y(), bound.Max.X(), bound.Max.Y(), true
}

func (g Geometry) wkbBody() []byte {
	if len(g.raw) < 8 || g.raw[0] != 'G' || g.raw[1] != 'P' {
		return g.raw
	}
	flags := g.raw[3]
	envelopeIndicator := (flags >> 1) & 0x07
	if int(envelopeIndicator) >= len(gpkgEnvelopeSizes) {
		return nil
	}
	n := gpkgEnvelopeSizes[envelopeIndicator]
	headerLen := 8 + n*8
	if len(g.raw) <= headerLen {
		return nil
	}
	return g.raw[headerLen:]
}
