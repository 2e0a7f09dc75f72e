package netmatch

import (
	"github.com/paulmach/orb"
)

/* Arcs stuff */

type ArcID int

type Arc struct {
	geom         orb.LineString
	length       float64
	externalID   string
	ID           ArcID
	sourceNodeID NodeID
	targetNodeID NodeID
	orientation  Orientation
	result       MatchResult
}

func newArc(id ArcID, externalID string, sourceNodeID, targetNodeID NodeID, geom orb.LineString, orientation Orientation, metric Metric) *Arc {
	arc := Arc{
		geom:         copyLine(geom),
		externalID:   externalID,
		ID:           id,
		sourceNodeID: sourceNodeID,
		targetNodeID: targetNodeID,
		orientation:  orientation,
		result:       RESULT_UNKNOWN,
	}
	arc.length = metric.Length(arc.geom)
	return &arc
}

// Geom returns polyline of the arc (from source node to target node)
func (arc *Arc) Geom() orb.LineString {
	return arc.geom
}

// Length returns length of the arc evaluated by network's metric
func (arc *Arc) Length() float64 {
	return arc.length
}

// Source returns identifier of the first node of the arc
func (arc *Arc) Source() NodeID {
	return arc.sourceNodeID
}

// Target returns identifier of the last node of the arc
func (arc *Arc) Target() NodeID {
	return arc.targetNodeID
}

func (arc *Arc) Orientation() Orientation {
	return arc.orientation
}

// ExternalID returns identifier of the arc in input data
func (arc *Arc) ExternalID() string {
	return arc.externalID
}

// Result returns match result tag of the arc
func (arc *Arc) Result() MatchResult {
	return arc.result
}

// IsLoop returns true if arc starts and ends in the same node
func (arc *Arc) IsLoop() bool {
	return arc.sourceNodeID == arc.targetNodeID
}

// otherEnd returns opposite endpoint of the arc
func (arc *Arc) otherEnd(nodeID NodeID) NodeID {
	if arc.sourceNodeID == nodeID {
		return arc.targetNodeID
	}
	return arc.sourceNodeID
}
