package netmatch

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

var ErrEmptyGroup = errors.New("group is empty")

// CompileToPolyline chains member arcs end to end and orients the result along the reference arc.
//
// Chain starts from a free end when there is one. Group without arcs gives degenerate
// polyline [p, p] at its first node. Nil reference arc skips orientation
func (g *Group) CompileToPolyline(refArc *Arc) (orb.LineString, error) {
	g.sync()
	if len(g.arcs) == 0 {
		if len(g.nodes) == 0 {
			return nil, ErrEmptyGroup
		}
		pt := g.net.nodes[g.nodes[0]].geom
		return orb.LineString{pt, pt}, nil
	}

	chain := g.chainArcs()
	if refArc == nil {
		return chain, nil
	}
	direct, reversed := endpointsDistances(g.net.metric, chain, refArc.geom)
	if direct < reversed {
		return chain, nil
	}
	return reverseLine(chain), nil
}

// chainArcs concatenates member arcs walking through shared nodes
func (g *Group) chainArcs() orb.LineString {
	incidence := make(map[NodeID][]ArcID)
	for _, arcID := range g.arcs {
		arc := g.net.arcs[arcID]
		incidence[arc.sourceNodeID] = append(incidence[arc.sourceNodeID], arcID)
		incidence[arc.targetNodeID] = append(incidence[arc.targetNodeID], arcID)
	}
	used := make(map[ArcID]struct{}, len(g.arcs))

	// Free end of the first arc which has one, otherwise source of the first unused arc
	startNode := func() NodeID {
		for _, arcID := range g.arcs {
			if _, ok := used[arcID]; ok {
				continue
			}
			arc := g.net.arcs[arcID]
			if len(incidence[arc.sourceNodeID]) == 1 {
				return arc.sourceNodeID
			}
			if len(incidence[arc.targetNodeID]) == 1 {
				return arc.targetNodeID
			}
		}
		for _, arcID := range g.arcs {
			if _, ok := used[arcID]; !ok {
				return g.net.arcs[arcID].sourceNodeID
			}
		}
		return -1
	}
	nextArc := func(nodeID NodeID) (ArcID, bool) {
		for _, arcID := range incidence[nodeID] {
			if _, ok := used[arcID]; !ok {
				return arcID, true
			}
		}
		return -1, false
	}

	line := make(orb.LineString, 0)
	current := startNode()
	for len(used) < len(g.arcs) {
		arcID, ok := nextArc(current)
		if !ok {
			current = startNode()
			continue
		}
		used[arcID] = struct{}{}
		arc := g.net.arcs[arcID]
		if arc.sourceNodeID == current {
			line = appendLine(line, arc.geom)
			current = arc.targetNodeID
		} else {
			line = appendLine(line, reverseLine(arc.geom))
			current = arc.sourceNodeID
		}
	}
	return line
}
