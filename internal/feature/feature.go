// Package feature decodes feature blobs - the content-addressed objects a
// dataset's feature tree points at - into their column values, and
// extracts whichever column holds the feature's geometry.
//
// A feature blob is a msgpack array of two elements: a legend and a list
// of field values. The legend names which schema column each field
// belongs to; decoding it is cheap relative to finding which of those
// columns holds the geometry, so the column index is memoized per legend
// the way a dataset with a million features but only one or two schema
// versions needs it to be.
package feature

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// Legend identifies the ordered list of column names a feature blob's
// fields correspond to. Two blobs with the same Legend share the same
// schema and therefore the same geometry column index.
type Legend string

// Blob is a feature object's decoded contents.
type Blob struct {
	Legend  Legend
	Columns []string
	Fields  []any
}

// Decode unpacks raw feature blob bytes. The wire format is
// [legend []string, fields []any] where a legend entry naming a geometry
// column has its corresponding field carry a GeoPackage binary geometry
// blob ([]byte).
func Decode(oid string, raw []byte) (Blob, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(raw))

	length, err := dec.DecodeArrayLen()
	if err != nil || length != 2 {
		return Blob{}, &ErrMalformedBlob{OID: oid, Reason: "expected a 2-element array"}
	}

	columns, err := dec.DecodeSlice()
	if err != nil {
		return Blob{}, &ErrMalformedBlob{OID: oid, Reason: "legend: " + err.Error()}
	}
	legend := make([]string, len(columns))
	for i, c := range columns {
		s, ok := c.(string)
		if !ok {
			return Blob{}, &ErrMalformedBlob{OID: oid, Reason: "legend entry is not a string"}
		}
		legend[i] = s
	}

	fields, err := dec.DecodeSlice()
	if err != nil {
		return Blob{}, &ErrMalformedBlob{OID: oid, Reason: "fields: " + err.Error()}
	}

	return Blob{Legend: Legend(legendKey(legend)), Columns: legend, Fields: fields}, nil
}

func legendKey(columns []string) string {
	var b bytes.Buffer
	for _, c := range columns {
		b.WriteString(c)
		b.WriteByte(0)
	}
	return b.String()
}

// ColumnIndexer resolves which field index within a Blob's Fields holds
// the feature's geometry, caching the answer per Legend so repeated
// lookups against the same schema are O(1).
type ColumnIndexer struct {
	cache map[Legend]int
}

// NoGeometryColumn is returned by ColumnFor when a schema has no geometry
// column at all - a valid, if unindexable, dataset state.
const NoGeometryColumn = -1

// NewColumnIndexer returns a ready-to-use indexer.
func NewColumnIndexer() *ColumnIndexer {
	return &ColumnIndexer{cache: make(map[Legend]int)}
}

// ColumnFor returns the geometry column index for blob's legend, deriving
// it from the legend's own column names on first sight and reusing the
// cached answer for every subsequent blob sharing that legend.
func (ci *ColumnIndexer) ColumnFor(blob Blob, geometryColumn string) int {
	if idx, ok := ci.cache[blob.Legend]; ok {
		return idx
	}

	idx := NoGeometryColumn
	for i, name := range blob.Columns {
		if name == geometryColumn && i < len(blob.Fields) {
			idx = i
			break
		}
	}
	ci.cache[blob.Legend] = idx
	return idx
}
