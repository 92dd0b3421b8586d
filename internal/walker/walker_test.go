package walker

import "testing"

func TestCRSPathPatternMatchesTableDataset(t *testing.T) {
	m := crsPathPattern.FindStringSubmatch("nz_roads/.table-dataset/meta/crs/EPSG4326")
	if m == nil {
		t.Fatal("expected match")
	}
	if m[1] != "nz_roads" {
		t.Errorf("unexpected dataset path %q", m[1])
	}
}

func TestCRSPathPatternIgnoresFeatureBlobs(t *testing.T) {
	m := crsPathPattern.FindStringSubmatch("nz_roads/.table-dataset/feature/ab/abcd1234")
	if m != nil {
		t.Fatal("expected no match for a feature blob path")
	}
}

func TestAllCRSPaths(t *testing.T) {
	paths := allCRSPaths("nz_roads")
	if paths[0] != "nz_roads/.sno-dataset/meta/crs/" {
		t.Errorf("unexpected v2 path %q", paths[0])
	}
	if paths[1] != "nz_roads/.table-dataset/meta/crs/" {
		t.Errorf("unexpected v3 path %q", paths[1])
	}
}
