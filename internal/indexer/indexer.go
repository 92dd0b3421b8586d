// Package indexer orchestrates one indexing run: resolving which commits
// are new, streaming their feature blobs, projecting each one's geometry
// into a WGS84 envelope on a worker pool, and writing the results into the
// index store inside a single transaction.
package indexer

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kartspatial/geoindex/internal/codec"
	"github.com/kartspatial/geoindex/internal/crscache"
	"github.com/kartspatial/geoindex/internal/envelope"
	"github.com/kartspatial/geoindex/internal/feature"
	"github.com/kartspatial/geoindex/internal/frontier"
	"github.com/kartspatial/geoindex/internal/objectdb"
	"github.com/kartspatial/geoindex/internal/store"
	"github.com/kartspatial/geoindex/internal/walker"
)

// GeometryColumn is the schema column name holding a feature's geometry.
// The underlying data model allows this to vary per dataset; the feature
// blob decoder falls back to skipping features whose legend has no such
// column.
const GeometryColumn = "geom"

// Options controls one indexing run.
type Options struct {
	// ClearExisting drops the existing index and commit frontier before
	// indexing, re-walking every commit from scratch.
	ClearExisting bool
	// DryRun reports what would be indexed without writing anything.
	DryRun bool
	// Verbosity controls how often Progress is called; 0 disables
	// progress reporting entirely.
	Verbosity int
	// Workers is the number of goroutines computing envelopes
	// concurrently. Defaults to runtime.NumCPU() when <= 0.
	Workers int
	// Progress, if set, is called periodically during the walk.
	Progress func(indexed int, elapsed time.Duration)
}

// Summary reports what an indexing run did.
type Summary struct {
	FeaturesIndexed int
	FeaturesSkipped int
	Elapsed         time.Duration
	AncestorDesc    string
	CurrentDesc     string
	UpToDate        bool
}

// Indexer ties together the object database, CRS cache, and index store
// for one repository.
type Indexer struct {
	repo   *objectdb.Repo
	store  *store.Store
	crs    *crscache.Cache
	logger *logrus.Logger
}

// New builds an Indexer over an already-open repository and store.
func New(repo *objectdb.Repo, st *store.Store, logger *logrus.Logger) (*Indexer, error) {
	cache, err := crscache.New(repo, func(ctx context.Context, dsPath string) ([]string, error) {
		return walker.CRSOids(ctx, repo.Path(), dsPath)
	})
	if err != nil {
		return nil, fmt.Errorf("building CRS cache: %w", err)
	}
	return &Indexer{repo: repo, store: st, crs: cache, logger: logger}, nil
}

type projectionJob struct {
	ds  objectdb.FeatureBlob
	oid string
}

type projectionResult struct {
	oid     string
	env     envelope.Envelope
	skipped bool
	err     error
}

// Run resolves the commits to index, streams their feature blobs,
// projects geometries on a worker pool, and commits the results.
func Run(ctx context.Context, idx *Indexer, wantCommits []string, opts Options) (Summary, error) {
	if err := idx.store.EnsureSchema(); err != nil {
		return Summary{}, err
	}
	if opts.ClearExisting && !opts.DryRun {
		if err := idx.store.DropTables(); err != nil {
			return Summary{}, err
		}
		if err := idx.store.EnsureSchema(); err != nil {
			return Summary{}, err
		}
	}

	lastFrontier, err := idx.store.Frontier()
	if err != nil {
		return Summary{}, err
	}

	res, err := frontier.Resolve(ctx, idx.repo, wantCommits, lastFrontier, opts.ClearExisting)
	if err != nil {
		return Summary{}, fmt.Errorf("resolving commit frontier: %w", err)
	}
	summary := Summary{
		AncestorDesc: formatCommitSet(res.Stop),
		CurrentDesc:  formatCommitSet(res.Start),
	}
	if res.UpToDate() {
		summary.UpToDate = true
		return summary, nil
	}
	if opts.DryRun {
		return summary, nil
	}

	byteLen, err := idx.store.EnvelopeByteLen()
	if err != nil {
		return Summary{}, err
	}
	bits := codec.DefaultBits
	if byteLen > 0 {
		bits = codec.InferBits(byteLen)
	}
	enc := codec.New(bits)

	blobs, err := walker.Features(ctx, idx.repo.Path(), res.Start, res.Stop)
	if err != nil {
		return Summary{}, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	jobs := make(chan projectionJob, workers*4)
	results := make(chan projectionResult, workers*4)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go idx.worker(ctx, &wg, jobs, results)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	walkErrCh := make(chan error, 1)
	go func() {
		defer close(jobs)
		defer close(walkErrCh)
		for fb, err := range blobs {
			if err != nil {
				walkErrCh <- err
				return
			}
			select {
			case jobs <- projectionJob{ds: fb, oid: fb.OID}:
			case <-ctx.Done():
				walkErrCh <- ctx.Err()
				return
			}
		}
	}()

	tx, err := idx.store.Begin()
	if err != nil {
		return Summary{}, err
	}

	t0 := time.Now()
	progressEvery := progressEvery(opts.Verbosity)

	for r := range results {
		if r.err != nil {
			tx.Rollback()
			return Summary{}, r.err
		}
		if r.skipped {
			summary.FeaturesSkipped++
			continue
		}
		if err := tx.UpsertEnvelope(r.oid, enc.Encode(r.env)); err != nil {
			tx.Rollback()
			return Summary{}, fmt.Errorf("writing envelope for %s: %w", r.oid, err)
		}
		summary.FeaturesIndexed++

		total := summary.FeaturesIndexed + summary.FeaturesSkipped
		if progressEvery > 0 && total%progressEvery == 0 {
			if opts.Progress != nil {
				opts.Progress(total, time.Since(t0))
			}
		}
	}

	if err := <-walkErrCh; err != nil {
		tx.Rollback()
		return Summary{}, err
	}

	if err := tx.ReplaceFrontier(res.NewFrontier); err != nil {
		tx.Rollback()
		return Summary{}, err
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, err
	}

	summary.Elapsed = time.Since(t0)
	return summary, nil
}

func (idx *Indexer) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan projectionJob, results chan<- projectionResult) {
	defer wg.Done()
	indexer := feature.NewColumnIndexer()
	for job := range jobs {
		result := idx.project(ctx, indexer, job)
		select {
		case results <- result:
		case <-ctx.Done():
			return
		}
	}
}

func (idx *Indexer) project(ctx context.Context, columns *feature.ColumnIndexer, job projectionJob) projectionResult {
	transforms, errs := idx.crs.TransformsFor(ctx, job.ds.DatasetPath)
	for _, e := range errs {
		idx.logger.WithField("dataset", job.ds.DatasetPath).Warn(e)
	}
	if len(transforms) == 0 {
		return projectionResult{oid: job.oid, skipped: true}
	}

	raw, err := idx.repo.Blob(job.oid)
	if err != nil {
		return projectionResult{oid: job.oid, err: err}
	}
	blob, err := feature.Decode(job.oid, raw)
	if err != nil {
		idx.logger.WithField("oid", job.oid).Warn(err)
		return projectionResult{oid: job.oid, skipped: true}
	}

	col := columns.ColumnFor(blob, GeometryColumn)
	if col == feature.NoGeometryColumn {
		return projectionResult{oid: job.oid, skipped: true}
	}
	geomBytes, ok := blob.Fields[col].([]byte)
	if !ok {
		return projectionResult{oid: job.oid, skipped: true}
	}

	geom := feature.NewGeometry(job.oid, geomBytes)
	env, skip := envelope.Build(geom, transforms)
	if !skip.Empty() {
		if _, _, _, _, nonEmpty := geom.MinMax2D(); nonEmpty {
			idx.logger.WithField("oid", job.oid).Warn(skip.Reason)
		}
		return projectionResult{oid: job.oid, skipped: true}
	}
	return projectionResult{oid: job.oid, env: env}
}

// progressEvery returns how many features pass between progress reports:
// 0 (no reports) at verbosity 0 or below, every 100,000 features at
// verbosity 1, ten times as often for each further verbosity level, and
// never more often than every 100 features.
func progressEvery(verbosity int) int {
	if verbosity <= 0 {
		return 0
	}
	n := 100_000
	for i := 1; i < verbosity; i++ {
		n /= 10
	}
	if n < 100 {
		n = 100
	}
	return n
}

// formatCommitSet renders a set of commit IDs, each abbreviated to its
// first 10 characters, joined by spaces, so a status banner naming several
// commits at once stays readable. The abbreviation is not checked for
// ambiguity.
func formatCommitSet(commitIDs []string) string {
	if len(commitIDs) == 0 {
		return ""
	}
	const abbrevLen = 10
	out := ""
	for i, id := range commitIDs {
		if i > 0 {
			out += " "
		}
		if len(id) > abbrevLen {
			out += id[:abbrevLen]
		} else {
			out += id
		}
	}
	return out
}
