package objectdb

import "testing"

func TestParseRevListLine(t *testing.T) {
	oid, path, ok := parseRevListLine("d08c3dd220eea08d8dfd6d4adb84f9936c541d7a points/.table-dataset/feature/abcd")
	if !ok {
		t.Fatal("expected parse to succeed")
	}
	if oid != "d08c3dd220eea08d8dfd6d4adb84f9936c541d7a" {
		t.Errorf("unexpected oid %q", oid)
	}
	if path != "points/.table-dataset/feature/abcd" {
		t.Errorf("unexpected path %q", path)
	}
}

func TestParseRevListLineRejectsLoneHash(t *testing.T) {
	_, _, ok := parseRevListLine("d08c3dd220eea08d8dfd6d4adb84f9936c541d7a")
	if ok {
		t.Fatal("expected parse to fail for a line with no path")
	}
}

func TestDatasetPathPatternMatchesFeatureBlob(t *testing.T) {
	m := datasetPathPattern.FindStringSubmatch("nz_roads/.table-dataset/feature/ab/cd/abcd1234")
	if m == nil {
		t.Fatal("expected match")
	}
	if m[1] != "nz_roads" {
		t.Errorf("unexpected dataset path %q", m[1])
	}
	if m[2] != "feature/ab/cd/abcd1234" {
		t.Errorf("unexpected relative path %q", m[2])
	}
}

func TestDatasetPathPatternCapturesNonFeatureRelativePath(t *testing.T) {
	m := datasetPathPattern.FindStringSubmatch("nz_roads/.table-dataset/meta/crs/EPSG4326")
	if m == nil {
		t.Fatal("expected the dataset regex itself to still match")
	}
	if m[2] == "" || m[2][:5] != "meta/" {
		t.Errorf("expected relative path to start with meta/, got %q", m[2])
	}
}

func TestSplitLinesTrimsBlankAndWhitespace(t *testing.T) {
	got := splitLines("  abc  \n\ndef\n  \n")
	if len(got) != 2 || got[0] != "abc" || got[1] != "def" {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestRevListArgsWithoutStopCommits(t *testing.T) {
	args := revListArgs("/repo", []string{"c1"}, nil)
	for _, a := range args {
		if a == "--not" {
			t.Fatal("did not expect --not with no stop commits")
		}
	}
}

func TestRevListArgsWithStopCommits(t *testing.T) {
	args := revListArgs("/repo", []string{"c1"}, []string{"c0"})
	found := false
	for i, a := range args {
		if a == "--not" && i+1 < len(args) && args[i+1] == "c0" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected --not c0 in args, got %v", args)
	}
}
