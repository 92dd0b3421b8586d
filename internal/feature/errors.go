package feature

import "fmt"

// ErrMalformedBlob indicates a feature blob did not decode as the expected
// [legend, fields] msgpack envelope.
type ErrMalformedBlob struct {
	OID    string
	Reason string
}

func (e *ErrMalformedBlob) Error() string {
	return fmt.Sprintf("malformed feature blob %s: %s", e.OID, e.Reason)
}

// ErrUnsupportedGeometryHeader indicates a geometry column's bytes did not
// start with a recognised GeoPackage binary header.
type ErrUnsupportedGeometryHeader struct {
	OID string
}

func (e *ErrUnsupportedGeometryHeader) Error() string {
	return fmt.Sprintf("feature %s: geometry column is not a GeoPackage binary blob", e.OID)
}
