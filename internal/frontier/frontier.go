// Package frontier computes which commits an indexing run needs to walk,
// building on whatever was indexed last time instead of re-walking the
// whole history on every run.
//
// A commit is considered indexed only once all of its ancestors are also
// indexed, so the set of "already indexed" commits can always be
// described by a small antichain: the independent tips of that indexed
// history. Resolve takes the commits the caller wants indexed now, adds
// in the previously recorded antichain, and reduces the union back down
// to its own minimal antichain - the new frontier to persist once this
// run finishes.
package frontier

import "context"

// IndependentResolver reduces a set of commits to the minimal subset with
// the same reachable history - every commit that isn't itself an ancestor
// of another commit in the set. internal/objectdb's Repo.Independent
// satisfies this by shelling out to "git merge-base --independent".
type IndependentResolver interface {
	Independent(ctx context.Context, commits []string) ([]string, error)
}

// Result describes the work one indexing run needs to do.
type Result struct {
	// Start is the set of commits to walk from - newly introduced history.
	Start []string
	// Stop is the previously indexed frontier; the walk excludes anything
	// reachable from these commits.
	Stop []string
	// NewFrontier is the minimal antichain describing everything that will
	// have been indexed once this run completes (Start union Stop,
	// reduced). Persist this as the new indexed-commits record.
	NewFrontier []string
}

// Resolve computes the Result for indexing wantCommits on top of whatever
// commits were already recorded as indexed (lastFrontier). When
// clearExisting is true, lastFrontier is ignored and every ancestor of
// wantCommits is walked from scratch.
func Resolve(ctx context.Context, resolver IndependentResolver, wantCommits, lastFrontier []string, clearExisting bool) (Result, error) {
	stop := []string{}
	if !clearExisting {
		stop = lastFrontier
	}

	union := dedupUnion(wantCommits, stop)
	allIndependent, err := resolver.Independent(ctx, union)
	if err != nil {
		return Result{}, err
	}

	stopSet := toSet(stop)
	start := make([]string, 0, len(allIndependent))
	for _, c := range allIndependent {
		if !stopSet[c] {
			start = append(start, c)
		}
	}

	return Result{Start: start, Stop: stop, NewFrontier: allIndependent}, nil
}

// UpToDate reports whether a Result represents no work: every commit the
// caller wanted was already covered by the previous frontier.
func (r Result) UpToDate() bool { return len(r.Start) == 0 }

func dedupUnion(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, s := range items {
		set[s] = true
	}
	return set
}
