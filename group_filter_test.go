package netmatch

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestRemoveDeadEnds(t *testing.T) {
	f := newCrossingFixture(t)
	g := f.group(t, []int{1, 3}, []int{1, 2, 4})

	removed := g.RemoveDeadEnds()
	if removed != 1 {
		t.Errorf("Number of removed arcs must be %d, but got %d", 1, removed)
	}
	require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
	require.Equal(t, []NodeID{f.c[1], f.c[2]}, g.Nodes())

	// Nothing changes on the second run
	removed = g.RemoveDeadEnds()
	if removed != 0 {
		t.Errorf("Number of removed arcs must be %d, but got %d", 0, removed)
	}
	require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
}

func TestRemoveUnmatchedDeadEnds(t *testing.T) {
	f := newCrossingFixture(t)
	links := f.linkSet(t, f.defaultLinks())
	g := f.group(t, []int{1, 3}, []int{1, 2, 4})

	// k1 is a dead end of the group at c2 too, but k2 at c2 corresponds to r2
	removed := g.RemoveUnmatchedDeadEnds(links)
	if removed != 1 {
		t.Errorf("Number of removed arcs must be %d, but got %d", 1, removed)
	}
	require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
	require.Equal(t, []NodeID{f.c[1], f.c[2]}, g.Nodes())
}

func TestRemoveAllMatchedDeadEnds(t *testing.T) {
	f := newCrossingFixture(t)
	links := f.linkSet(t, f.defaultLinks(Link{Ref: ArcRef(f.r1), Comp: ArcRef(f.k[1]), Relevant: true}))
	g := f.group(t, []int{0, 1}, []int{0, 1, 2})

	// k0 is alone at c0; at c2 k1 (r1) and k2 (r2) share nothing
	removed := g.RemoveAllMatchedDeadEnds(links)
	if removed != 1 {
		t.Errorf("Number of removed arcs must be %d, but got %d", 1, removed)
	}
	require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
	require.Equal(t, []NodeID{f.c[1], f.c[2]}, g.Nodes())
}

func TestRemoveCompletePreservingDeadEnd(t *testing.T) {
	f := newCrossingFixture(t)
	links := f.linkSet(t, f.defaultLinks())

	g := f.group(t, []int{0, 1}, []int{0, 1, 2})
	removed := g.RemoveCompletePreservingDeadEnd(f.R, links)
	if removed != 1 {
		t.Errorf("Number of removed arcs must be %d, but got %d", 1, removed)
	}
	require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
	require.Equal(t, []NodeID{f.c[1], f.c[2]}, g.Nodes())

	// Removing k1 first breaks communication, so it is restored and k2 goes instead
	g = f.group(t, []int{1, 2}, []int{1, 2, 3})
	removed = g.RemoveCompletePreservingDeadEnd(f.R, links)
	if removed != 1 {
		t.Errorf("Number of removed arcs must be %d, but got %d", 1, removed)
	}
	require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
	require.Equal(t, []NodeID{f.c[1], f.c[2]}, g.Nodes())
	require.Equal(t, COMMUNICATION_COMPLETE, g.Communication(f.R, links))
}

func TestReduceToShortestPaths(t *testing.T) {
	f := newCrossingFixture(t)
	links := f.linkSet(t, f.defaultLinks())
	g := f.group(t, []int{1, 3}, []int{1, 2, 4})

	removed, err := g.ReduceToShortestPaths(f.R, links)
	require.NoError(t, err)
	if removed != 1 {
		t.Errorf("Number of removed arcs must be %d, but got %d", 1, removed)
	}
	require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
	require.Equal(t, []NodeID{f.c[1], f.c[2]}, g.Nodes())
}

func TestReduceToShortestPathsSingleArc(t *testing.T) {
	f := newCrossingFixture(t)

	// c1 is the only entry and the only exit, so the spur k3 lies on no path
	g := f.group(t, []int{3}, []int{1, 4})
	removed, err := g.ReduceToShortestPaths(f.R, f.linkSet(t, f.defaultLinks()))
	require.NoError(t, err)
	if removed != 1 {
		t.Errorf("Number of removed arcs must be %d, but got %d", 1, removed)
	}
	require.Empty(t, g.Arcs())
	require.Equal(t, []NodeID{f.c[1]}, g.Nodes())

	// Neither entries nor exits: every member goes away
	nodeLinks := f.defaultLinks()[2:]
	g = f.group(t, []int{3}, []int{1, 4})
	_, err = g.ReduceToShortestPaths(f.R, f.linkSet(t, nodeLinks))
	require.NoError(t, err)
	require.True(t, g.IsEmpty())

	// Filter skips the pass for such groups
	g = f.group(t, []int{3}, []int{1, 4})
	_, err = g.FilterForReferenceNode(f.R, f.linkSet(t, nodeLinks))
	require.NoError(t, err)
	require.Equal(t, []ArcID{f.k[3]}, g.Arcs())
}

func TestUntilStableSingleArc(t *testing.T) {
	f := newCrossingFixture(t)
	g := f.group(t, []int{3}, []int{1, 4})

	calls := 0
	removed := untilStable(g, func() int {
		calls++
		return g.RemoveDeadEnds()
	})
	if removed != 0 || calls != 0 {
		t.Errorf("Single arc group must not be filtered, but got %d removed arcs in %d calls", removed, calls)
	}
	require.Equal(t, []ArcID{f.k[3]}, g.Arcs())
}

func TestGroupFilterSteps(t *testing.T) {
	f := newCrossingFixture(t)
	links := f.linkSet(t, f.defaultLinks())
	g := f.group(t, []int{1, 3}, []int{1, 2, 4})

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	filter := NewGroupFilter(g, f.R, links, WithFilterLogger(logger))
	require.Equal(t, FILTER_UNFILTERED, filter.State())

	expected := []FilterState{
		FILTER_DEAD_ENDS_REMOVED,
		FILTER_UNMATCHED_DEAD_ENDS_REMOVED,
		FILTER_COMPLETE,
		FILTER_SHORTEST_PATH_APPLIED,
		FILTER_STABLE,
	}
	arcs, nodes := g.NumArcs(), g.NumNodes()
	for _, want := range expected {
		state, err := filter.Step()
		require.NoError(t, err)
		if state != want {
			t.Errorf("State must be %s, but got %s", want, state)
		}
		if g.NumArcs() > arcs || g.NumNodes() > nodes {
			t.Errorf("Group must never grow, but got %d arcs and %d nodes after %s", g.NumArcs(), g.NumNodes(), state)
		}
		arcs, nodes = g.NumArcs(), g.NumNodes()
	}
	require.True(t, filter.IsComplete())
	require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
	require.Equal(t, []NodeID{f.c[1], f.c[2]}, g.Nodes())
	require.Len(t, hook.AllEntries(), len(expected))

	// Stable filter stays where it is
	state, err := filter.Step()
	require.NoError(t, err)
	require.Equal(t, FILTER_STABLE, state)
}

func TestFilterForReferenceNode(t *testing.T) {
	f := newCrossingFixture(t)

	tests := []struct {
		name      string
		links     []Link
		arcs      []int
		nodes     []int
		complete  bool
		wantArcs  []int
		wantNodes []int
	}{
		{"spur and junction", f.defaultLinks(), []int{1, 3}, []int{1, 2, 4}, true, []int{1}, []int{1, 2}},
		{"whole network", f.defaultLinks(), []int{0, 1, 2, 3}, []int{0, 1, 2, 3, 4}, false, []int{1}, []int{1, 2}},
		{"single arc", f.defaultLinks(), []int{3}, []int{1, 4}, false, []int{3}, []int{1, 4}},
	}
	for _, tc := range tests {
		links := f.linkSet(t, tc.links)
		g := f.group(t, tc.arcs, tc.nodes)
		complete, err := g.FilterForReferenceNode(f.R, links)
		require.NoError(t, err)
		if complete != tc.complete {
			t.Errorf("%s: completeness must be %t, but got %t", tc.name, tc.complete, complete)
		}
		wantArcs := make([]ArcID, 0, len(tc.wantArcs))
		for _, i := range tc.wantArcs {
			wantArcs = append(wantArcs, f.k[i])
		}
		wantNodes := make([]NodeID, 0, len(tc.wantNodes))
		for _, i := range tc.wantNodes {
			wantNodes = append(wantNodes, f.c[i])
		}
		require.Equal(t, wantArcs, g.Arcs(), tc.name)
		require.Equal(t, wantNodes, g.Nodes(), tc.name)

		// Filtering of a stable group changes nothing
		_, err = g.FilterForReferenceNode(f.R, links)
		require.NoError(t, err)
		require.Equal(t, wantArcs, g.Arcs(), tc.name)
	}
}
