// Package geoindex is the public API for building and updating a spatial
// index of the feature geometries stored in a Git-backed geospatial
// repository.
//
// Opening an Index and calling Update is the common path: it resolves
// which commits are new since the last run, walks their feature blobs,
// and writes conservative WGS84 envelopes for each one into an embedded
// SQLite database living alongside the repository.
package geoindex

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kartspatial/geoindex/internal/indexer"
	"github.com/kartspatial/geoindex/internal/objectdb"
	"github.com/kartspatial/geoindex/internal/store"
)

// Index is a handle on one repository's envelope index.
type Index struct {
	repo   *objectdb.Repo
	store  *store.Store
	idx    *indexer.Indexer
	logger *logrus.Logger
}

// Options configures Open.
type Options struct {
	// RepoPath is the path to the git working tree or bare repository.
	RepoPath string
	// IndexPath is where the SQLite database lives.
	IndexPath string
	// Logger receives warnings about individual features or CRS
	// definitions that could not be indexed. If nil, a logger that writes
	// only error-level messages is used.
	Logger *logrus.Logger
}

// Open opens a repository and its envelope index, creating the index
// database if it does not already exist.
func Open(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.ErrorLevel)
	}

	repo, err := objectdb.Open(opts.RepoPath)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(opts.IndexPath, logger)
	if err != nil {
		return nil, err
	}
	idx, err := indexer.New(repo, st, logger)
	if err != nil {
		return nil, err
	}

	return &Index{repo: repo, store: st, idx: idx, logger: logger}, nil
}

// Close releases the underlying database connection.
func (ix *Index) Close() error { return ix.store.Close() }

// UpdateOptions controls one Update call.
type UpdateOptions struct {
	// Commits is the set of commit-ish strings to index, ancestors
	// included. When empty, the commits of every ref in the repository
	// are used.
	Commits []string
	// ClearExisting drops the existing index before indexing.
	ClearExisting bool
	// DryRun reports what would happen without writing anything.
	DryRun bool
	// Workers bounds envelope-projection concurrency; 0 means
	// runtime.NumCPU().
	Workers int
	// Verbosity controls Progress call frequency.
	Verbosity int
	// Progress, if set, is called periodically while indexing.
	Progress func(indexed int, elapsed time.Duration)
}

// Update brings the index up to date with the given commits.
func (ix *Index) Update(ctx context.Context, opts UpdateOptions) (indexer.Summary, error) {
	commitish := opts.Commits
	var commits []string
	var err error
	if len(commitish) == 0 {
		commits, err = ix.repo.AllRefCommits()
	} else {
		commits, err = ix.repo.ResolveCommits(commitish)
	}
	if err != nil {
		return indexer.Summary{}, fmt.Errorf("resolving commits to index: %w", err)
	}

	return indexer.Run(ctx, ix.idx, commits, indexer.Options{
		ClearExisting: opts.ClearExisting,
		DryRun:        opts.DryRun,
		Workers:       opts.Workers,
		Verbosity:     opts.Verbosity,
		Progress:      opts.Progress,
	})
}

// Frontier returns the commit IDs currently recorded as fully indexed.
func (ix *Index) Frontier() ([]string, error) {
	return ix.store.Frontier()
}
