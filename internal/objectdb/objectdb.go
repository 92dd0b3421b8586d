// Package objectdb talks to the underlying Git object database: listing
// reachable blob objects under dataset feature trees, and computing the
// minimal set of commits that describes a commit frontier.
//
// Resolving commit-ish strings, listing refs, and reading blobs and trees
// go through go-git. Enumerating reachable feature blobs ("git rev-list
// --objects") and computing independent commits ("git merge-base
// --independent") are delegated to the git binary itself.
package objectdb

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"iter"
	"os/exec"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// datasetPathPattern matches a dataset's feature-tree blob paths, the same
// way the underlying revision-list scan does: the dataset path is
// whatever directory contains a .sno-dataset or .table-dataset marker
// directory, the relative path inside it selects the kind of blob.
var datasetPathPattern = regexp.MustCompile(`^(.+)/\.(?:sno|table)-dataset/(.+)$`)

// FeatureBlob identifies one reachable feature object and the dataset it
// belongs to.
type FeatureBlob struct {
	DatasetPath string
	OID         string
}

// Repo wraps a go-git repository for read-only plumbing access plus the
// subprocess escape hatch needed for commit-frontier computation.
type Repo struct {
	path string
	repo *git.Repository
}

// Open opens the git repository at path (a working tree or a bare
// repository).
func Open(path string) (*Repo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return &Repo{path: path, repo: r}, nil
}

// Path returns the working directory objectdb.Open was called with.
func (r *Repo) Path() string { return r.path }

// ResolveCommits resolves a list of commit-ish strings (branch names, tags,
// short or full hashes, "HEAD") to full commit hex IDs.
func (r *Repo) ResolveCommits(commitish []string) ([]string, error) {
	out := make([]string, 0, len(commitish))
	for _, c := range commitish {
		hash, err := r.repo.ResolveRevision(plumbing.Revision(c))
		if err != nil {
			return nil, fmt.Errorf("resolving %q: %w", c, err)
		}
		out = append(out, hash.String())
	}
	return out, nil
}

// AllRefCommits resolves every ref in the repository (branches and tags) to
// its commit hex ID, the set used when no explicit commit-ish is given.
func (r *Repo) AllRefCommits() ([]string, error) {
	refs, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("listing refs: %w", err)
	}
	defer refs.Close()

	var out []string
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		commit, err := r.repo.CommitObject(ref.Hash())
		if err != nil {
			tag, tagErr := r.repo.TagObject(ref.Hash())
			if tagErr != nil {
				return nil // neither a commit nor an annotated tag; skip
			}
			commit, err = tag.Commit()
			if err != nil {
				return nil // a tag pointing at something other than a commit; skip
			}
		}
		out = append(out, commit.Hash.String())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Independent runs "git merge-base --independent" over the given commit
// IDs and returns the minimal subset with the same set of ancestors -
// every commit in commits that isn't itself an ancestor of another commit
// in the set. There is no go-git plumbing equivalent of this operation, so
// it is delegated to the git binary, same as the indexer this package is
// modeled on does.
func (r *Repo) Independent(ctx context.Context, commits []string) ([]string, error) {
	if len(commits) == 0 {
		return nil, nil
	}
	args := append([]string{"-C", r.path, "merge-base", "--independent"}, commits...)
	cmd := exec.CommandContext(ctx, "git", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git merge-base --independent: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return splitLines(stdout.String()), nil
}

// WalkFeatureBlobs lists every blob reachable from startCommits but not
// from stopCommits whose path sits under a dataset's feature tree. It
// shells out to "git rev-list --objects" for the same reason Independent
// does: streaming millions of object paths through go-git's in-process
// object walk is dramatically slower than letting git's own C
// implementation do it and parsing the output.
func WalkFeatureBlobs(ctx context.Context, repoPath string, startCommits, stopCommits []string) (iter.Seq2[FeatureBlob, error], error) {
	if len(startCommits) == 0 {
		return func(yield func(FeatureBlob, error) bool) {}, nil
	}

	args := revListArgs(repoPath, startCommits, stopCommits)
	cmd := exec.CommandContext(ctx, "git", args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("git rev-list: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting git rev-list: %w", err)
	}

	return func(yield func(FeatureBlob, error) bool) {
		defer cmd.Wait()
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			oid, path, ok := parseRevListLine(scanner.Text())
			if !ok {
				continue
			}
			m := datasetPathPattern.FindStringSubmatch(path)
			if m == nil || !strings.HasPrefix(m[2], "feature/") {
				continue
			}
			if !yield(FeatureBlob{DatasetPath: m[1], OID: oid}, nil) {
				cmd.Process.Kill()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(FeatureBlob{}, fmt.Errorf("reading git rev-list output: %w", err))
			return
		}
		if err := cmd.Wait(); err != nil {
			yield(FeatureBlob{}, fmt.Errorf("git rev-list: %w (%s)", err, strings.TrimSpace(stderr.String())))
		}
	}, nil
}

func revListArgs(repoPath string, startCommits, stopCommits []string) []string {
	args := []string{"-C", repoPath, "rev-list", "--objects", "--filter=object:type=blob", "--missing=allow-promisor"}
	args = append(args, startCommits...)
	if len(stopCommits) > 0 {
		args = append(args, "--not")
		args = append(args, stopCommits...)
	}
	return args
}

func parseRevListLine(line string) (oid, path string, ok bool) {
	parts := strings.SplitN(line, " ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Blob returns the raw contents of a blob object by hex OID.
func (r *Repo) Blob(oid string) ([]byte, error) {
	hash := plumbing.NewHash(oid)
	blob, err := r.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("loading blob %s: %w", oid, err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", oid, err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", oid, err)
	}
	return buf.Bytes(), nil
}

// TreeEntryBlobs lists the blob OIDs directly under a tree path within a
// single commit (for example a dataset's meta/crs/ entries) without a full
// object-graph walk.
func (r *Repo) TreeEntryBlobs(commitOID, treePath string) ([]string, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(commitOID))
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", commitOID, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading tree for commit %s: %w", commitOID, err)
	}
	sub, err := tree.Tree(treePath)
	if err != nil {
		if err == object.ErrDirectoryNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("loading tree %s: %w", treePath, err)
	}

	var out []string
	for _, entry := range sub.Entries {
		if entry.Mode.IsFile() {
			out = append(out, entry.Hash.String())
		}
	}
	return out, nil
}
