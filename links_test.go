package netmatch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLinkSet(t *testing.T) {
	f := newCrossingFixture(t)
	links := f.defaultLinks(
		Link{Ref: NodeRef(f.R), Comp: ArcRef(f.k[1]), Relevant: true},
		Link{Ref: ArcRef(f.r1), Comp: NodeRef(f.c[0]), Relevant: true},
		Link{Ref: ArcRef(f.r1), Comp: ArcRef(f.k[3]), Relevant: false, Tag: "spur"},
		Link{Ref: ArcRef(f.r1), Comp: ArcRef(f.k[0]), Relevant: true},
	)
	ls := f.linkSet(t, links)

	require.Len(t, ls.Links(), 8)
	require.Len(t, ls.Relevant(), 7)
	// Duplicates are indexed once, non-relevant links are not indexed at all
	require.Equal(t, []ArcID{f.k[0]}, ls.CompArcsOfRefArc(f.r1))
	require.Equal(t, []ArcID{f.r2}, ls.RefArcsOfCompArc(f.k[2]))
	require.Equal(t, []NodeID{f.c[1], f.c[2]}, ls.CompNodesOfRefNode(f.R))
	require.Equal(t, []ArcID{f.k[1]}, ls.CompArcsOfRefNode(f.R))
	require.Equal(t, []NodeID{f.c[0]}, ls.CompNodesOfRefArc(f.r1))
	require.True(t, ls.HasCorrespondent(f.k[0]))
	require.False(t, ls.HasCorrespondent(f.k[3]))
	require.Empty(t, ls.CompNodesOfRefNode(f.W))
}

func TestNewLinkSetDangling(t *testing.T) {
	f := newCrossingFixture(t)

	_, err := NewLinkSet(f.ref, f.comp, f.defaultLinks(Link{Ref: ArcRef(ArcID(99)), Comp: ArcRef(f.k[0]), Relevant: true}))
	require.ErrorIs(t, err, ErrDanglingLink)

	// Non-relevant links are validated too
	_, err = NewLinkSet(f.ref, f.comp, f.defaultLinks(Link{Ref: NodeRef(f.R), Comp: NodeRef(NodeID(99))}))
	require.ErrorIs(t, err, ErrDanglingLink)

	_, err = NewLinkSet(f.ref, f.comp, []Link{{Ref: ElementRef{ID: int(f.r1)}, Comp: ArcRef(f.k[0])}})
	require.ErrorIs(t, err, ErrDanglingLink)
}

func TestReadLinksCSV(t *testing.T) {
	f := newCrossingFixture(t)
	data := `ref_type;ref_id;comp_type;comp_id;relevant;tag
arc;r1;arc;k0;true;
arc;r2;arc;k2;1;main
node;R;node;c1;;
NODE;R;arc;k3;false;spur
`
	ls, err := ReadLinksCSV(strings.NewReader(data), f.ref, f.comp)
	require.NoError(t, err)
	require.Len(t, ls.Links(), 4)
	require.Len(t, ls.Relevant(), 3)
	require.Equal(t, "main", ls.Links()[1].Tag)
	require.Equal(t, []ArcID{f.k[0]}, ls.CompArcsOfRefArc(f.r1))
	require.Equal(t, []NodeID{f.c[1]}, ls.CompNodesOfRefNode(f.R))
	require.Empty(t, ls.CompArcsOfRefNode(f.R))

	// Columns may come in any order, relevant is optional
	data = `comp_id;comp_type;ref_id;ref_type
k0;arc;r1;arc
`
	ls, err = ReadLinksCSV(strings.NewReader(data), f.ref, f.comp)
	require.NoError(t, err)
	require.Len(t, ls.Relevant(), 1)
}

func TestReadLinksCSVErrors(t *testing.T) {
	f := newCrossingFixture(t)
	tests := []struct {
		name     string
		data     string
		dangling bool
	}{
		{"missing column", "ref_type;ref_id;comp_type\narc;r1;arc\n", false},
		{"unknown element", "ref_type;ref_id;comp_type;comp_id\nway;r1;arc;k0\n", false},
		{"bad relevance", "ref_type;ref_id;comp_type;comp_id;relevant\narc;r1;arc;k0;maybe\n", false},
		{"unknown arc", "ref_type;ref_id;comp_type;comp_id\narc;r9;arc;k0\n", true},
		{"unknown node", "ref_type;ref_id;comp_type;comp_id\nnode;R;node;c9\n", true},
	}
	for _, tc := range tests {
		_, err := ReadLinksCSV(strings.NewReader(tc.data), f.ref, f.comp)
		require.Error(t, err, tc.name)
		if tc.dangling {
			require.ErrorIs(t, err, ErrDanglingLink, tc.name)
		}
	}
}
