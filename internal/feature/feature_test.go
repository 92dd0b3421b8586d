package feature

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func encodeBlob(t *testing.T, columns []string, fields []any) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeArrayLen(2); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(columns); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(fields); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeRoundTrip(t *testing.T) {
	raw := encodeBlob(t, []string{"fid", "geom", "name"}, []any{int64(1), []byte("geomdata"), "hello"})
	blob, err := Decode("oid1", raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(blob.Columns) != 3 || blob.Columns[1] != "geom" {
		t.Fatalf("unexpected columns: %v", blob.Columns)
	}
	if len(blob.Fields) != 3 {
		t.Fatalf("unexpected fields: %v", blob.Fields)
	}
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode("oid2", []byte{0x01})
	if err == nil {
		t.Fatal("expected error for malformed blob")
	}
}

func TestColumnIndexerCachesPerLegend(t *testing.T) {
	ci := NewColumnIndexer()
	blob := Blob{Legend: "a", Columns: []string{"fid", "geom"}, Fields: []any{1, []byte{}}}

	idx := ci.ColumnFor(blob, "geom")
	if idx != 1 {
		t.Fatalf("expected geometry column 1, got %d", idx)
	}

	// Same legend, different (malformed) column list - cached answer wins.
	blob2 := Blob{Legend: "a", Columns: []string{"fid"}, Fields: []any{1}}
	idx2 := ci.ColumnFor(blob2, "geom")
	if idx2 != 1 {
		t.Fatalf("expected cached geometry column 1, got %d", idx2)
	}
}

func TestColumnIndexerNoGeometryColumn(t *testing.T) {
	ci := NewColumnIndexer()
	blob := Blob{Legend: "b", Columns: []string{"fid", "name"}, Fields: []any{1, "x"}}
	if idx := ci.ColumnFor(blob, "geom"); idx != NoGeometryColumn {
		t.Fatalf("expected NoGeometryColumn, got %d", idx)
	}
}

func gpkgHeader(minX, minY, maxX, maxY float64) []byte {
	header := make([]byte, 8+4*8)
	header[0] = 'G'
	header[1] = 'P'
	header[2] = 0
	header[3] = 0x01 | (1 << 1) // little-endian, envelope type 1 (xy)
	binary.LittleEndian.PutUint64(header[8:16], math.Float64bits(minX))
	binary.LittleEndian.PutUint64(header[16:24], math.Float64bits(maxX))
	binary.LittleEndian.PutUint64(header[24:32], math.Float64bits(minY))
	binary.LittleEndian.PutUint64(header[32:40], math.Float64bits(maxY))
	return header
}

func TestGeometryMinMax2DFromHeaderEnvelope(t *testing.T) {
	raw := gpkgHeader(1, 2, 3, 4)
	g := NewGeometry("oid3", raw)
	minX, minY, maxX, maxY, ok := g.MinMax2D()
	if !ok {
		t.Fatal("expected ok=true")
	}
	if minX != 1 || minY != 2 || maxX != 3 || maxY != 4 {
		t.Errorf("unexpected envelope: %g %g %g %g", minX, minY, maxX, maxY)
	}
}

func TestGeometryMinMax2DEmpty(t *testing.T) {
	g := NewGeometry("oid4", nil)
	_, _, _, _, ok := g.MinMax2D()
	if ok {
		t.Fatal("expected ok=false for empty geometry bytes")
	}
}
