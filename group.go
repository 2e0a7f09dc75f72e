package netmatch

import (
	"github.com/pkg/errors"
)

// Group is a working subset of arcs and nodes of one network.
// Group stores identifiers only: removing a member never touches the network itself
type Group struct {
	net      *Network
	revision int

	arcs     []ArcID
	arcsIdx  map[ArcID]struct{}
	nodes    []NodeID
	nodesIdx map[NodeID]struct{}

	result MatchResult
}

// NewGroup returns empty group of the network
func (net *Network) NewGroup() *Group {
	return &Group{
		net:      net,
		revision: net.revision,
		arcs:     make([]ArcID, 0),
		arcsIdx:  make(map[ArcID]struct{}),
		nodes:    make([]NodeID, 0),
		nodesIdx: make(map[NodeID]struct{}),
		result:   RESULT_UNKNOWN,
	}
}

func (g *Group) Network() *Network {
	return g.net
}

// sync drops arcs which have been removed from the network since last call.
// Every exported accessor and mutator calls it first
func (g *Group) sync() {
	if g.revision == g.net.revision {
		return
	}
	g.revision = g.net.revision
	stale := make([]ArcID, 0)
	for _, arcID := range g.arcs {
		if _, ok := g.net.arcs[arcID]; !ok {
			stale = append(stale, arcID)
		}
	}
	for _, arcID := range stale {
		g.removeArc(arcID)
	}
}

// AddArc adds arc to the group. Its endpoints are not added
func (g *Group) AddArc(arcID ArcID) error {
	g.sync()
	if _, ok := g.net.arcs[arcID]; !ok {
		return errors.Wrapf(ErrArcNotFound, "Can't add arc %d to group", arcID)
	}
	g.insertArc(arcID, len(g.arcs))
	return nil
}

// AddNode adds node to the group
func (g *Group) AddNode(nodeID NodeID) error {
	g.sync()
	if _, ok := g.net.nodes[nodeID]; !ok {
		return errors.Wrapf(ErrNodeNotFound, "Can't add node %d to group", nodeID)
	}
	g.insertNode(nodeID, len(g.nodes))
	return nil
}

// RemoveArc removes arc from the group. Endpoints stay in the group. Returns false if arc is not a member
func (g *Group) RemoveArc(arcID ArcID) bool {
	g.sync()
	return g.removeArc(arcID)
}

func (g *Group) removeArc(arcID ArcID) bool {
	pos := g.arcPosition(arcID)
	if pos < 0 {
		return false
	}
	g.arcs = append(g.arcs[:pos], g.arcs[pos+1:]...)
	delete(g.arcsIdx, arcID)
	return true
}

// RemoveNode removes node from the group only. Returns false if node is not a member
func (g *Group) RemoveNode(nodeID NodeID) bool {
	g.sync()
	return g.removeNode(nodeID)
}

func (g *Group) removeNode(nodeID NodeID) bool {
	pos := g.nodePosition(nodeID)
	if pos < 0 {
		return false
	}
	g.nodes = append(g.nodes[:pos], g.nodes[pos+1:]...)
	delete(g.nodesIdx, nodeID)
	return true
}

// groupRemoval remembers positions of removed members, so removal could be rolled back
type groupRemoval struct {
	arcID   ArcID
	nodeID  NodeID
	arcPos  int
	nodePos int
}

// detach removes arc and one of its endpoints in a single step
func (g *Group) detach(arcID ArcID, nodeID NodeID) groupRemoval {
	g.sync()
	removal := groupRemoval{
		arcID:   arcID,
		nodeID:  nodeID,
		arcPos:  g.arcPosition(arcID),
		nodePos: g.nodePosition(nodeID),
	}
	if removal.arcPos >= 0 {
		g.removeArc(arcID)
	}
	if removal.nodePos >= 0 {
		g.removeNode(nodeID)
	}
	return removal
}

// restore puts back members removed by detach on their former positions
func (g *Group) restore(removal groupRemoval) {
	g.sync()
	if removal.arcPos >= 0 {
		g.insertArc(removal.arcID, removal.arcPos)
	}
	if removal.nodePos >= 0 {
		g.insertNode(removal.nodeID, removal.nodePos)
	}
}

func (g *Group) insertArc(arcID ArcID, pos int) {
	if _, ok := g.arcsIdx[arcID]; ok {
		return
	}
	if pos > len(g.arcs) {
		pos = len(g.arcs)
	}
	g.arcs = append(g.arcs, 0)
	copy(g.arcs[pos+1:], g.arcs[pos:])
	g.arcs[pos] = arcID
	g.arcsIdx[arcID] = struct{}{}
}

func (g *Group) insertNode(nodeID NodeID, pos int) {
	if _, ok := g.nodesIdx[nodeID]; ok {
		return
	}
	if pos > len(g.nodes) {
		pos = len(g.nodes)
	}
	g.nodes = append(g.nodes, 0)
	copy(g.nodes[pos+1:], g.nodes[pos:])
	g.nodes[pos] = nodeID
	g.nodesIdx[nodeID] = struct{}{}
}

func (g *Group) arcPosition(arcID ArcID) int {
	if _, ok := g.arcsIdx[arcID]; !ok {
		return -1
	}
	for i, id := range g.arcs {
		if id == arcID {
			return i
		}
	}
	return -1
}

func (g *Group) nodePosition(nodeID NodeID) int {
	if _, ok := g.nodesIdx[nodeID]; !ok {
		return -1
	}
	for i, id := range g.nodes {
		if id == nodeID {
			return i
		}
	}
	return -1
}

func (g *Group) HasArc(arcID ArcID) bool {
	g.sync()
	_, ok := g.arcsIdx[arcID]
	return ok
}

func (g *Group) HasNode(nodeID NodeID) bool {
	g.sync()
	_, ok := g.nodesIdx[nodeID]
	return ok
}

// Arcs returns copy of member arcs in group order
func (g *Group) Arcs() []ArcID {
	g.sync()
	arcs := make([]ArcID, len(g.arcs))
	copy(arcs, g.arcs)
	return arcs
}

// Nodes returns copy of member nodes in group order
func (g *Group) Nodes() []NodeID {
	g.sync()
	nodes := make([]NodeID, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

func (g *Group) NumArcs() int {
	g.sync()
	return len(g.arcs)
}

func (g *Group) NumNodes() int {
	g.sync()
	return len(g.nodes)
}

// IsEmpty returns true if group has neither arcs nor nodes
func (g *Group) IsEmpty() bool {
	return g.NumArcs() == 0 && len(g.nodes) == 0
}

// Clone returns independent copy of the group
func (g *Group) Clone() *Group {
	g.sync()
	clone := g.net.NewGroup()
	for _, arcID := range g.arcs {
		clone.insertArc(arcID, len(clone.arcs))
	}
	for _, nodeID := range g.nodes {
		clone.insertNode(nodeID, len(clone.nodes))
	}
	clone.result = g.result
	return clone
}

// Length returns summed length of member arcs
func (g *Group) Length() float64 {
	g.sync()
	total := 0.0
	for _, arcID := range g.arcs {
		total += g.net.arcs[arcID].length
	}
	return total
}

func (g *Group) Result() MatchResult {
	return g.result
}

func (g *Group) SetResult(result MatchResult) {
	g.result = result
}

// SetResultGlobal sets match result on the group and on every member arc and node
func (g *Group) SetResultGlobal(result MatchResult) {
	g.sync()
	g.result = result
	for _, arcID := range g.arcs {
		g.net.arcs[arcID].result = result
	}
	for _, nodeID := range g.nodes {
		g.net.nodes[nodeID].result = result
	}
}

// IsDeadEndAtStart returns true if no other arc shares the source node of the arc.
// When restrictToGroup is set only member arcs are considered
func (g *Group) IsDeadEndAtStart(arcID ArcID, restrictToGroup bool) bool {
	arc, ok := g.net.arcs[arcID]
	if !ok {
		return false
	}
	return g.isDeadEndAt(arc.sourceNodeID, restrictToGroup)
}

// IsDeadEndAtEnd returns true if no other arc shares the target node of the arc.
// When restrictToGroup is set only member arcs are considered
func (g *Group) IsDeadEndAtEnd(arcID ArcID, restrictToGroup bool) bool {
	arc, ok := g.net.arcs[arcID]
	if !ok {
		return false
	}
	return g.isDeadEndAt(arc.targetNodeID, restrictToGroup)
}

// isDeadEndAt counts arcs incident to the node; loops are counted twice so they never make a dead end
func (g *Group) isDeadEndAt(nodeID NodeID, restrictToGroup bool) bool {
	g.sync()
	count := 0
	for _, arcID := range g.net.IncidentArcs(nodeID) {
		if restrictToGroup {
			if _, ok := g.arcsIdx[arcID]; !ok {
				continue
			}
		}
		count++
		if count > 1 {
			return false
		}
	}
	return count == 1
}

// EntryNodes returns group nodes having an oriented incoming arc outside of the group
// which corresponds to one of the oriented incoming arcs of the reference node
func (g *Group) EntryNodes(refNodeID NodeID, links *LinkSet) []NodeID {
	refArcs := links.reference.IncomingOriented(refNodeID)
	return g.communicatingNodes(refArcs, links, g.net.IncomingOriented)
}

// ExitNodes returns group nodes having an oriented outcoming arc outside of the group
// which corresponds to one of the oriented outcoming arcs of the reference node
func (g *Group) ExitNodes(refNodeID NodeID, links *LinkSet) []NodeID {
	refArcs := links.reference.OutcomingOriented(refNodeID)
	return g.communicatingNodes(refArcs, links, g.net.OutcomingOriented)
}

func (g *Group) communicatingNodes(refArcs []ArcID, links *LinkSet, oriented func(NodeID) []ArcID) []NodeID {
	g.sync()
	nodes := make([]NodeID, 0)
	if len(refArcs) == 0 {
		return nodes
	}
	refSet := arcSet(refArcs)
	for _, nodeID := range g.nodes {
		for _, arcID := range oriented(nodeID) {
			if _, ok := g.arcsIdx[arcID]; ok {
				continue
			}
			if intersects(links.RefArcsOfCompArc(arcID), refSet) {
				nodes = append(nodes, nodeID)
				break
			}
		}
	}
	return nodes
}

// boundaryArcs returns oriented arcs outside of the group incident to group nodes
func (g *Group) boundaryArcs(oriented func(NodeID) []ArcID) map[ArcID]struct{} {
	g.sync()
	boundary := make(map[ArcID]struct{})
	for _, nodeID := range g.nodes {
		for _, arcID := range oriented(nodeID) {
			if _, ok := g.arcsIdx[arcID]; ok {
				continue
			}
			boundary[arcID] = struct{}{}
		}
	}
	return boundary
}

// Communication classifies the reference node against the group:
// complete when each oriented incoming (outcoming) reference arc of the node corresponds
// to an incoming (outcoming) boundary arc of the group, incomplete when only some do, none otherwise
func (g *Group) Communication(refNodeID NodeID, links *LinkSet) Communication {
	refIn := links.reference.IncomingOriented(refNodeID)
	refOut := links.reference.OutcomingOriented(refNodeID)
	if len(refIn) == 0 && len(refOut) == 0 {
		return COMMUNICATION_NONE
	}
	compIn := g.boundaryArcs(g.net.IncomingOriented)
	compOut := g.boundaryArcs(g.net.OutcomingOriented)

	total, communicating := 0, 0
	for _, refArcID := range refIn {
		total++
		if intersects(links.CompArcsOfRefArc(refArcID), compIn) {
			communicating++
		}
	}
	for _, refArcID := range refOut {
		total++
		if intersects(links.CompArcsOfRefArc(refArcID), compOut) {
			communicating++
		}
	}
	switch {
	case communicating == total:
		return COMMUNICATION_COMPLETE
	case communicating > 0:
		return COMMUNICATION_INCOMPLETE
	default:
		return COMMUNICATION_NONE
	}
}

func arcSet(arcs []ArcID) map[ArcID]struct{} {
	set := make(map[ArcID]struct{}, len(arcs))
	for _, arcID := range arcs {
		set[arcID] = struct{}{}
	}
	return set
}

func intersects(arcs []ArcID, set map[ArcID]struct{}) bool {
	for _, arcID := range arcs {
		if _, ok := set[arcID]; ok {
			return true
		}
	}
	return false
}

// commonArcs returns arcs of a which are in b too, keeping order of a
func commonArcs(a, b []ArcID) []ArcID {
	set := arcSet(b)
	out := make([]ArcID, 0, len(a))
	for _, arcID := range a {
		if _, ok := set[arcID]; ok {
			out = append(out, arcID)
		}
	}
	return out
}
