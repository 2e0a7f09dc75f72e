package netmatch

import (
	"github.com/paulmach/orb"
)

/* Nodes stuff */

type NodeID int

type Node struct {
	incomingArcs  []ArcID
	outcomingArcs []ArcID
	externalID    string
	ID            NodeID
	result        MatchResult
	geom          orb.Point
}

func newNode(id NodeID, externalID string, pt orb.Point) *Node {
	node := Node{
		incomingArcs:  make([]ArcID, 0),
		outcomingArcs: make([]ArcID, 0),
		externalID:    externalID,
		ID:            id,
		result:        RESULT_UNKNOWN,
		geom:          pt,
	}
	return &node
}

// Point returns location of the node
func (node *Node) Point() orb.Point {
	return node.geom
}

// ExternalID returns identifier of the node in input data
func (node *Node) ExternalID() string {
	return node.externalID
}

// Result returns match result tag of the node
func (node *Node) Result() MatchResult {
	return node.result
}

// Degree returns number of arcs incident to the node (loops are counted twice)
func (node *Node) Degree() int {
	return len(node.incomingArcs) + len(node.outcomingArcs)
}

func (node *Node) detachArc(arcID ArcID) {
	node.incomingArcs = removeArcID(node.incomingArcs, arcID)
	node.outcomingArcs = removeArcID(node.outcomingArcs, arcID)
}

func removeArcID(ids []ArcID, arcID ArcID) []ArcID {
	out := ids[:0]
	for _, id := range ids {
		if id != arcID {
			out = append(out, id)
		}
	}
	return out
}
