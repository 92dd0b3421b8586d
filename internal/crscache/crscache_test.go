package crscache

import (
	"context"
	"testing"

	"github.com/ctessum/geom/proj"
)

type fakeBlobs struct {
	data map[string][]byte
}

func (f fakeBlobs) Blob(oid string) ([]byte, error) { return f.data[oid], nil }

func TestSameCRSIdentity(t *testing.T) {
	sr, err := proj.Parse(TargetCRS)
	if err != nil {
		t.Skipf("proj.Parse unavailable in this environment: %v", err)
	}
	if !SameCRS(sr, sr) {
		t.Error("expected identical pointer to be SameCRS")
	}
	if SameCRS(sr, nil) {
		t.Error("expected nil to never be SameCRS")
	}
}

func TestTransformsForCachesPerDataset(t *testing.T) {
	sr4326, err := proj.Parse(TargetCRS)
	if err != nil {
		t.Skipf("proj.Parse unavailable in this environment: %v", err)
	}
	_ = sr4326

	blobs := fakeBlobs{data: map[string][]byte{
		"oid1": []byte(TargetCRS),
	}}
	calls := 0
	lister := func(_ context.Context, _ string) ([]string, error) {
		calls++
		return []string{"oid1"}, nil
	}

	cache, err := New(blobs, lister)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	transforms, errs := cache.TransformsFor(context.Background(), "nz_roads")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(transforms) != 1 {
		t.Fatalf("expected 1 transform, got %d", len(transforms))
	}

	if _, _ = cache.TransformsFor(context.Background(), "nz_roads"); calls != 1 {
		t.Errorf("expected oid lister to be called once due to caching, got %d calls", calls)
	}
}

func TestTransformsForDeduplicatesOids(t *testing.T) {
	blobs := fakeBlobs{data: map[string][]byte{
		"oid1": []byte(TargetCRS),
	}}
	lister := func(_ context.Context, _ string) ([]string, error) {
		return []string{"oid1", "oid1"}, nil
	}
	cache, err := New(blobs, lister)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	transforms, _ := cache.TransformsFor(context.Background(), "nz_roads")
	if len(transforms) != 1 {
		t.Fatalf("expected duplicate oid to be collapsed to 1 transform, got %d", len(transforms))
	}
}
