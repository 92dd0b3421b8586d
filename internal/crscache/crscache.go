// Package crscache loads the coordinate reference systems recorded in a
// dataset's history and memoizes the WGS84 transform built from each one,
// so a dataset with a million features sharing one CRS definition pays
// the cost of building that transform exactly once.
package crscache

import (
	"context"
	"fmt"
	"sync"

	"github.com/ctessum/geom/proj"

	"github.com/kartspatial/geoindex/internal/envelope"
)

// TargetCRS is the fixed output CRS every transform reprojects into.
const TargetCRS = "EPSG:4326"

// BlobLoader loads raw CRS definition text (WKT or Proj4) by blob OID.
// internal/objectdb.Repo satisfies this; listing which OIDs to load is the
// job of an OidLister.
type BlobLoader interface {
	Blob(oid string) ([]byte, error)
}

// OidLister lists the CRS definition OIDs ever recorded for a dataset.
type OidLister func(ctx context.Context, dsPath string) ([]string, error)

// transform adapts a *proj.SR pair to envelope.Transform.
type transform struct {
	name string
	fwd  *proj.Transform
}

func (t transform) Name() string { return t.name }

func (t transform) Forward(x, y float64) (float64, float64, error) {
	lon, lat, err := t.fwd.Forward(x, y)
	if err != nil {
		return 0, 0, fmt.Errorf("transform %s: %w", t.name, err)
	}
	return lon, lat, nil
}

// Cache memoizes, per dataset path, the distinct CRS transforms recorded
// in that dataset's history. Distinct CRS definitions are deduplicated by
// their parsed representation, not merely by blob OID, since the same CRS
// is very often committed to history more than once (re-imports, minor
// WKT formatting differences from different tool versions).
type Cache struct {
	blobs   BlobLoader
	listOid OidLister
	target  *proj.SR

	mu          sync.Mutex
	byDataset   map[string][]envelope.Transform
	distinctSRs map[string][]*proj.SR // keyed by dataset path, for SameCRS dedup
}

// New returns a Cache that loads CRS definitions through blobs and
// discovers which OIDs to load through listOid.
func New(blobs BlobLoader, listOid OidLister) (*Cache, error) {
	target, err := proj.Parse(TargetCRS)
	if err != nil {
		return nil, fmt.Errorf("parsing target CRS %s: %w", TargetCRS, err)
	}
	return &Cache{
		blobs:       blobs,
		listOid:     listOid,
		target:      target,
		byDataset:   make(map[string][]envelope.Transform),
		distinctSRs: make(map[string][]*proj.SR),
	}, nil
}

// TransformsFor returns every distinct WGS84 transform a dataset's
// features might need, loading and parsing each recorded CRS definition
// on first sight and reusing the cached set afterwards. A CRS this method
// fails to load (malformed WKT, a projection PROJ doesn't support) is
// skipped with a warning left to the caller to log - it does not fail
// the whole dataset, since other CRS definitions recorded for the same
// dataset may still be usable.
func (c *Cache) TransformsFor(ctx context.Context, dsPath string) ([]envelope.Transform, []error) {
	c.mu.Lock()
	if cached, ok := c.byDataset[dsPath]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	oids, err := c.listOid(ctx, dsPath)
	if err != nil {
		return nil, []error{fmt.Errorf("listing CRS definitions for %s: %w", dsPath, err)}
	}

	var transforms []envelope.Transform
	var distinctSRs []*proj.SR
	var errs []error
	seen := make(map[string]bool)
	for _, oid := range oids {
		if seen[oid] {
			continue
		}
		seen[oid] = true

		raw, err := c.blobs.Blob(oid)
		if err != nil {
			errs = append(errs, fmt.Errorf("loading CRS blob %s: %w", oid, err))
			continue
		}
		sr, err := proj.Parse(string(raw))
		if err != nil {
			errs = append(errs, fmt.Errorf("parsing CRS blob %s: %w", oid, err))
			continue
		}
		if sameAsAny(sr, distinctSRs) {
			continue
		}
		distinctSRs = append(distinctSRs, sr)

		fwd, err := sr.NewTransform(c.target)
		if err != nil {
			errs = append(errs, fmt.Errorf("building transform for CRS blob %s: %w", oid, err))
			continue
		}
		transforms = append(transforms, transform{name: describeTransform(sr), fwd: fwd})
	}

	c.mu.Lock()
	c.byDataset[dsPath] = transforms
	c.distinctSRs[dsPath] = distinctSRs
	c.mu.Unlock()

	return transforms, errs
}

// sameAsAny reports whether sr is equal, by identity or by definition, to
// any SR already in the list, using SameCRS: pointer identity first, then
// a comparison of the parsed definitions' String() forms.
func sameAsAny(sr *proj.SR, others []*proj.SR) bool {
	for _, o := range others {
		if SameCRS(sr, o) {
			return true
		}
	}
	return false
}

// SameCRS reports whether two parsed CRS definitions describe the same
// coordinate reference system.
func SameCRS(a, b *proj.SR) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.String() == b.String()
}

func describeTransform(sr *proj.SR) string {
	return fmt.Sprintf("%s -> %s", sr.String(), TargetCRS)
}
