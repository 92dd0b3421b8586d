package frontier

import (
	"context"
	"reflect"
	"sort"
	"testing"
)

type fakeResolver struct {
	// ancestors maps a commit to its ancestor commits,
	// enough to simulate "git merge-base --independent" by filtering out
	// any commit reachable from another commit in the input set.
	ancestors map[string][]string
}

func (f fakeResolver) Independent(_ context.Context, commits []string) ([]string, error) {
	reachableFromOther := make(map[string]bool)
	for _, c := range commits {
		for _, other := range commits {
			if other == c {
				continue
			}
			for _, anc := range f.ancestors[other] {
				if anc == c {
					reachableFromOther[c] = true
				}
			}
		}
	}
	var out []string
	for _, c := range commits {
		if !reachableFromOther[c] {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out, nil
}

func TestResolveFromScratch(t *testing.T) {
	resolver := fakeResolver{ancestors: map[string][]string{
		"c2": {"c1"},
	}}
	res, err := Resolve(context.Background(), resolver, []string{"c2"}, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Start, []string{"c2"}) {
		t.Errorf("unexpected start %v", res.Start)
	}
	if len(res.Stop) != 0 {
		t.Errorf("expected no stop commits, got %v", res.Stop)
	}
}

func TestResolveBuildsOnPreviousFrontier(t *testing.T) {
	// c1 was already indexed. c2 is a descendant of c1. Walking should
	// start at c2 and stop at c1 - not re-walk c1's own history.
	resolver := fakeResolver{ancestors: map[string][]string{
		"c2": {"c1"},
	}}
	res, err := Resolve(context.Background(), resolver, []string{"c2"}, []string{"c1"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(res.Start, []string{"c2"}) {
		t.Errorf("unexpected start %v", res.Start)
	}
	if !reflect.DeepEqual(res.Stop, []string{"c1"}) {
		t.Errorf("unexpected stop %v", res.Stop)
	}
}

func TestResolveUpToDate(t *testing.T) {
	resolver := fakeResolver{}
	res, err := Resolve(context.Background(), resolver, []string{"c1"}, []string{"c1"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if !res.UpToDate() {
		t.Errorf("expected up to date, got start=%v", res.Start)
	}
}

func TestResolveClearExistingIgnoresPreviousFrontier(t *testing.T) {
	resolver := fakeResolver{ancestors: map[string][]string{
		"c2": {"c1"},
	}}
	res, err := Resolve(context.Background(), resolver, []string{"c2"}, []string{"c1"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Stop) != 0 {
		t.Errorf("expected clearExisting to discard previous frontier, got stop=%v", res.Stop)
	}
	if !reflect.DeepEqual(res.Start, []string{"c2"}) {
		t.Errorf("unexpected start %v", res.Start)
	}
}
