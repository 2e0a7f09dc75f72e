package netmatch

import (
	"github.com/LdDl/ch"
	"github.com/pkg/errors"
)

// pathFinder searches minimum length paths inside a group. Only member arcs
// with both endpoints being member nodes are traversable
type pathFinder struct {
	group *Group
	graph *ch.Graph
	// Best arc for each oriented pair of nodes
	arcs    map[[2]NodeID]ArcID
	lengths map[[2]NodeID]float64
}

// groupPath is a path found by pathFinder. Nodes include both ends of the path
type groupPath struct {
	arcs   []ArcID
	nodes  []NodeID
	length float64
}

func newPathFinder(g *Group) (*pathFinder, error) {
	g.sync()
	finder := &pathFinder{
		group:   g,
		graph:   &ch.Graph{},
		arcs:    make(map[[2]NodeID]ArcID),
		lengths: make(map[[2]NodeID]float64),
	}
	for _, nodeID := range g.nodes {
		err := finder.graph.CreateVertex(int64(nodeID))
		if err != nil {
			return nil, errors.Wrapf(err, "Can't create vertex for node %d", nodeID)
		}
	}
	pairs := make([][2]NodeID, 0, len(g.arcs))
	register := func(arc *Arc, from, to NodeID) {
		pair := [2]NodeID{from, to}
		length, ok := finder.lengths[pair]
		if !ok {
			pairs = append(pairs, pair)
		} else if length <= arc.length {
			return
		}
		finder.lengths[pair] = arc.length
		finder.arcs[pair] = arc.ID
	}
	for _, arcID := range g.arcs {
		arc := g.net.arcs[arcID]
		if arc.IsLoop() || !g.HasNode(arc.sourceNodeID) || !g.HasNode(arc.targetNodeID) {
			continue
		}
		if arc.orientation.allowsForward() {
			register(arc, arc.sourceNodeID, arc.targetNodeID)
		}
		if arc.orientation.allowsBackward() {
			register(arc, arc.targetNodeID, arc.sourceNodeID)
		}
	}
	for _, pair := range pairs {
		err := finder.graph.AddEdge(int64(pair[0]), int64(pair[1]), finder.lengths[pair])
		if err != nil {
			return nil, errors.Wrapf(err, "Can't add edge %d->%d", pair[0], pair[1])
		}
	}
	return finder, nil
}

// find returns minimum length path between two member nodes. maxLength <= 0 means no cutoff
func (finder *pathFinder) find(from, to NodeID, maxLength float64) (groupPath, bool) {
	if !finder.group.HasNode(from) || !finder.group.HasNode(to) {
		return groupPath{}, false
	}
	if from == to {
		return groupPath{arcs: []ArcID{}, nodes: []NodeID{from}}, true
	}
	cost, vertices := finder.graph.VanillaShortestPath(int64(from), int64(to))
	if cost < 0 || len(vertices) < 2 {
		return groupPath{}, false
	}
	path := groupPath{
		arcs:  make([]ArcID, 0, len(vertices)-1),
		nodes: make([]NodeID, 0, len(vertices)),
	}
	for i, vertex := range vertices {
		nodeID := NodeID(vertex)
		path.nodes = append(path.nodes, nodeID)
		if i == 0 {
			continue
		}
		pair := [2]NodeID{NodeID(vertices[i-1]), nodeID}
		arcID, ok := finder.arcs[pair]
		if !ok {
			return groupPath{}, false
		}
		path.arcs = append(path.arcs, arcID)
		path.length += finder.lengths[pair]
	}
	if maxLength > 0 && path.length > maxLength {
		return groupPath{}, false
	}
	return path, true
}

// shortestPath returns the shortest of paths between every pair of given nodes.
// On equal lengths the first pair (in fromNodes x toNodes order) wins
func (finder *pathFinder) shortestPath(fromNodes, toNodes []NodeID, maxLength float64) (groupPath, bool) {
	best := groupPath{}
	found := false
	for _, from := range fromNodes {
		for _, to := range toNodes {
			path, ok := finder.find(from, to, maxLength)
			if !ok {
				continue
			}
			if !found || path.length < best.length {
				best = path
				found = true
			}
		}
	}
	return best, found
}

// ShortestPath returns minimum length path inside the group linking one of fromNodes to one of toNodes.
// Returned group holds arcs of the path and its interior nodes only. Returns nil if there is no path
// or every path is longer than maxLength (maxLength <= 0 means no cutoff)
func (g *Group) ShortestPath(fromNodes, toNodes []NodeID, maxLength float64) (*Group, error) {
	finder, err := newPathFinder(g)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare graph of the group")
	}
	path, ok := finder.shortestPath(fromNodes, toNodes, maxLength)
	if !ok {
		return nil, nil
	}
	result := g.net.NewGroup()
	for _, arcID := range path.arcs {
		result.insertArc(arcID, len(result.arcs))
	}
	if len(path.nodes) > 2 {
		for _, nodeID := range path.nodes[1 : len(path.nodes)-1] {
			result.insertNode(nodeID, len(result.nodes))
		}
	}
	return result, nil
}
