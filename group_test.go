package netmatch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupMembership(t *testing.T) {
	f := newCrossingFixture(t)
	g := f.comp.NewGroup()

	require.True(t, g.IsEmpty())
	require.NoError(t, g.AddArc(f.k[1]))
	require.NoError(t, g.AddArc(f.k[1]))
	require.NoError(t, g.AddNode(f.c[1]))
	require.ErrorIs(t, g.AddArc(ArcID(42)), ErrArcNotFound)
	require.ErrorIs(t, g.AddNode(NodeID(42)), ErrNodeNotFound)

	if g.NumArcs() != 1 {
		t.Errorf("Number of arcs must be %d, but got %d", 1, g.NumArcs())
	}
	// Endpoints of an added arc are not added implicitly
	if g.HasNode(f.c[2]) {
		t.Errorf("Node c2 must not be a member")
	}
	if g.Length() != 10 {
		t.Errorf("Length of group must be %f, but got %f", 10.0, g.Length())
	}

	clone := g.Clone()
	require.True(t, g.RemoveArc(f.k[1]))
	require.False(t, g.RemoveArc(f.k[1]))
	require.True(t, clone.HasArc(f.k[1]))
	require.Equal(t, 1, clone.NumNodes())
}

func TestGroupDropsRemovedArcs(t *testing.T) {
	// Each accessor must see the removal as the very first call on the group
	tests := []struct {
		name  string
		check func(t *testing.T, f *crossingFixture, g *Group)
	}{
		{"Arcs", func(t *testing.T, f *crossingFixture, g *Group) {
			require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
		}},
		{"HasArc", func(t *testing.T, f *crossingFixture, g *Group) {
			require.False(t, g.HasArc(f.k[3]))
		}},
		{"RemoveArc", func(t *testing.T, f *crossingFixture, g *Group) {
			require.False(t, g.RemoveArc(f.k[3]))
			require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
		}},
		{"RemoveNode", func(t *testing.T, f *crossingFixture, g *Group) {
			require.True(t, g.RemoveNode(f.c[4]))
			require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
		}},
		{"Length", func(t *testing.T, f *crossingFixture, g *Group) {
			require.Equal(t, 10.0, g.Length())
		}},
		{"detach", func(t *testing.T, f *crossingFixture, g *Group) {
			removal := g.detach(f.k[1], f.c[2])
			require.Empty(t, g.Arcs())
			g.restore(removal)
			require.Equal(t, []ArcID{f.k[1]}, g.Arcs())
			require.Equal(t, []NodeID{f.c[1], f.c[2], f.c[4]}, g.Nodes())
		}},
	}
	for _, tc := range tests {
		f := newCrossingFixture(t)
		g := f.group(t, []int{3, 1}, []int{1, 2, 4})
		require.NoError(t, f.comp.RemoveArc(f.k[3]))
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, f, g)
		})
	}
}

func TestGroupDetachRestore(t *testing.T) {
	f := newCrossingFixture(t)
	g := f.group(t, []int{0, 1, 2}, []int{0, 1, 2, 3})

	removal := g.detach(f.k[1], f.c[1])
	require.Equal(t, []ArcID{f.k[0], f.k[2]}, g.Arcs())
	require.Equal(t, []NodeID{f.c[0], f.c[2], f.c[3]}, g.Nodes())

	g.restore(removal)
	require.Equal(t, []ArcID{f.k[0], f.k[1], f.k[2]}, g.Arcs())
	require.Equal(t, []NodeID{f.c[0], f.c[1], f.c[2], f.c[3]}, g.Nodes())
}

func TestGroupDeadEnds(t *testing.T) {
	f := newCrossingFixture(t)
	g := f.group(t, []int{1, 3}, []int{1, 2, 4})

	tests := []struct {
		arc             ArcID
		restrictToGroup bool
		atStart         bool
		atEnd           bool
	}{
		{f.k[1], false, false, false},
		{f.k[3], false, false, true},
		{f.k[1], true, false, true},
		{f.k[3], true, false, true},
	}
	for i, tc := range tests {
		if got := g.IsDeadEndAtStart(tc.arc, tc.restrictToGroup); got != tc.atStart {
			t.Errorf("Case #%d: dead end at start must be %t, but got %t", i, tc.atStart, got)
		}
		if got := g.IsDeadEndAtEnd(tc.arc, tc.restrictToGroup); got != tc.atEnd {
			t.Errorf("Case #%d: dead end at end must be %t, but got %t", i, tc.atEnd, got)
		}
	}
}

func TestGroupEntryExitNodes(t *testing.T) {
	f := newCrossingFixture(t)
	links := f.linkSet(t, f.defaultLinks())
	g := f.group(t, []int{1, 3}, []int{1, 2, 4})

	require.Equal(t, []NodeID{f.c[1]}, g.EntryNodes(f.R, links))
	require.Equal(t, []NodeID{f.c[2]}, g.ExitNodes(f.R, links))

	// W has no oriented incoming reference arcs
	require.Empty(t, g.EntryNodes(f.W, links))
}

func TestGroupCommunication(t *testing.T) {
	f := newCrossingFixture(t)
	full := f.defaultLinks()

	tests := []struct {
		links []Link
		arcs  []int
		nodes []int
		want  Communication
	}{
		{full, []int{1}, []int{1, 2}, COMMUNICATION_COMPLETE},
		{full[1:], []int{1}, []int{1, 2}, COMMUNICATION_INCOMPLETE},
		{full[2:], []int{1}, []int{1, 2}, COMMUNICATION_NONE},
		// k0 is inside of the group, so r1 has no boundary counterpart
		{full, []int{0, 1}, []int{0, 1, 2}, COMMUNICATION_INCOMPLETE},
		{full, []int{0, 1, 2}, []int{0, 1, 2, 3}, COMMUNICATION_NONE},
	}
	for i, tc := range tests {
		links := f.linkSet(t, tc.links)
		g := f.group(t, tc.arcs, tc.nodes)
		if got := g.Communication(f.R, links); got != tc.want {
			t.Errorf("Case #%d: communication must be %s, but got %s", i, tc.want, got)
		}
	}
}

func TestGroupSetResultGlobal(t *testing.T) {
	f := newCrossingFixture(t)
	g := f.group(t, []int{1}, []int{1, 2})
	g.SetResultGlobal(RESULT_UNCERTAIN)

	require.Equal(t, RESULT_UNCERTAIN, g.Result())
	arc, _ := f.comp.Arc(f.k[1])
	require.Equal(t, RESULT_UNCERTAIN, arc.Result())
	node, _ := f.comp.Node(f.c[2])
	require.Equal(t, RESULT_UNCERTAIN, node.Result())
	node, _ = f.comp.Node(f.c[0])
	require.Equal(t, RESULT_UNKNOWN, node.Result())
}
