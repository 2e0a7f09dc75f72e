package netmatch

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// NetworkBuilder turns polylines into topological network.
// Line endpoints closer than tolerance to an existing node are merged into it.
// Tolerance is in coordinate units for planar networks and in Web Mercator meters for geographic ones
type NetworkBuilder struct {
	net       *Network
	tolerance float64
	project   func(orb.Point) orb.Point
	grid      map[[2]int64][]NodeID
}

func NewNetworkBuilder(name string, metric Metric, tolerance float64) *NetworkBuilder {
	net := NewNetwork(name, metric)
	return &NetworkBuilder{
		net:       net,
		tolerance: tolerance,
		project:   projectionFor(net.metric),
		grid:      make(map[[2]int64][]NodeID),
	}
}

// AddNode returns node at given position: existing one within tolerance or a new one.
// When existing node is returned, non-empty externalID becomes its alias
func (builder *NetworkBuilder) AddNode(externalID string, pt orb.Point) (*Node, error) {
	if node, ok := builder.nearestNode(pt); ok {
		if externalID == "" {
			return node, nil
		}
		if err := builder.net.AddNodeAlias(externalID, node.ID); err != nil {
			return nil, err
		}
		return node, nil
	}
	node, err := builder.net.AddNodeWithExternalID(externalID, pt)
	if err != nil {
		return nil, err
	}
	key := snapKey(builder.project(pt), builder.tolerance)
	builder.grid[key] = append(builder.grid[key], node.ID)
	return node, nil
}

// AddLine adds arc following the line. Endpoints are snapped to nodes
func (builder *NetworkBuilder) AddLine(externalID string, line orb.LineString, orientation Orientation) (*Arc, error) {
	if len(line) < 2 {
		return nil, fmt.Errorf("Line '%s' has %d points, at least 2 expected", externalID, len(line))
	}
	source, err := builder.AddNode("", line[0])
	if err != nil {
		return nil, err
	}
	target, err := builder.AddNode("", line[len(line)-1])
	if err != nil {
		return nil, err
	}
	return builder.net.AddArcWithExternalID(externalID, source.ID, target.ID, line, orientation)
}

func (builder *NetworkBuilder) Network() *Network {
	return builder.net
}

func (builder *NetworkBuilder) nearestNode(pt orb.Point) (*Node, bool) {
	projected := builder.project(pt)
	key := snapKey(projected, builder.tolerance)
	if builder.tolerance <= 0 {
		nodes := builder.grid[key]
		if len(nodes) == 0 {
			return nil, false
		}
		return builder.net.nodes[nodes[0]], true
	}
	var nearest *Node
	minDist := builder.tolerance
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for _, nodeID := range builder.grid[[2]int64{key[0] + dx, key[1] + dy}] {
				node := builder.net.nodes[nodeID]
				dist := planar.Distance(builder.project(node.geom), projected)
				if dist <= minDist && (nearest == nil || dist < minDist) {
					nearest = node
					minDist = dist
				}
			}
		}
	}
	return nearest, nearest != nil
}
