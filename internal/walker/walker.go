// Package walker provides dataset-aware object graph scans built on top of
// internal/objectdb's plumbing: lazily streaming feature blobs for the
// indexing run, and listing the CRS definitions ever recorded for a
// dataset, across its whole ref history, so the CRS cache can build every
// transform a dataset's features might need regardless of which commit
// introduced which CRS.
package walker

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"os/exec"
	"regexp"
	"strings"

	"github.com/kartspatial/geoindex/internal/objectdb"
)

// Features streams every feature blob reachable from startCommits but not
// from stopCommits. It is a thin pass-through to objectdb's revision-list
// scan; it exists as its own entry point so callers depend on the
// dataset-walking concept, not on objectdb's lower-level plumbing
// surface.
func Features(ctx context.Context, repoPath string, startCommits, stopCommits []string) (iter.Seq2[objectdb.FeatureBlob, error], error) {
	return objectdb.WalkFeatureBlobs(ctx, repoPath, startCommits, stopCommits)
}

var crsPathPattern = regexp.MustCompile(`^(.+)/\.(?:sno|table)-dataset/meta/crs/[^/]+$`)

// CRSOids returns the distinct set of CRS definition blob OIDs ever
// recorded for the dataset at dsPath, across every ref in the repository.
// A dataset's CRS can change across its history (an import re-run under a
// different source CRS, for instance), and every feature indexed so far
// needs a transform from whichever CRS was in effect when it was written.
func CRSOids(ctx context.Context, repoPath, dsPath string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", repoPath,
		"rev-list", "--objects", "--filter=object:type=blob", "--missing=allow-promisor",
		"--all", "--", allCRSPaths(dsPath)[0], allCRSPaths(dsPath)[1])
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git rev-list for CRS definitions: %w", err)
	}

	seen := make(map[string]bool)
	var oids []string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), " ", 2)
		if len(parts) != 2 {
			continue
		}
		oid, path := parts[0], parts[1]
		m := crsPathPattern.FindStringSubmatch(path)
		if m == nil || m[1] != dsPath {
			continue
		}
		if !seen[oid] {
			seen[oid] = true
			oids = append(oids, oid)
		}
	}
	return oids, nil
}

// allCRSPaths returns the two tree prefixes, old and current dataset
// layout, under which a dataset's CRS definitions can live.
func allCRSPaths(dsPath string) [2]string {
	return [2]string{
		dsPath + "/.sno-dataset/meta/crs/",
		dsPath + "/.table-dataset/meta/crs/",
	}
}
