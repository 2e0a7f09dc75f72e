package netmatch

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
)

var (
	ErrNodeNotFound        = errors.New("node not found")
	ErrArcNotFound         = errors.New("arc not found")
	ErrDuplicateExternalID = errors.New("duplicate external identifier")
	ErrReservedExternalID  = errors.New("reserved external identifier")
)

// Identifiers generated for elements without one in input data start with this prefix.
// Input identifiers with the prefix are rejected, so generated ones never collide with them
const generatedIDPrefix = "~"

func generatedID(id int) string {
	return generatedIDPrefix + strconv.Itoa(id)
}

// checkExternalID validates identifier coming from input data. Taken is true when the identifier is already in use
func checkExternalID(externalID string, taken bool) error {
	if strings.HasPrefix(externalID, generatedIDPrefix) {
		return errors.Wrapf(ErrReservedExternalID, "'%s' starts with '%s'", externalID, generatedIDPrefix)
	}
	if taken {
		return errors.Wrapf(ErrDuplicateExternalID, "'%s'", externalID)
	}
	return nil
}

// Network is topological graph of one road (or river) network.
// Network owns its nodes and arcs; groups only reference them by identifiers
type Network struct {
	name      string
	metric    Metric
	nodes     map[NodeID]*Node
	arcs      map[ArcID]*Arc
	nodesList []NodeID
	arcsList  []ArcID

	nodesExternal map[string]NodeID
	arcsExternal  map[string]ArcID

	maxNodeID NodeID
	maxArcID  ArcID
	// Incremented each time an arc is removed, so groups could prune stale members
	revision int
}

// NewNetwork returns empty network. Nil metric means PlanarMetric
func NewNetwork(name string, metric Metric) *Network {
	if metric == nil {
		metric = PlanarMetric
	}
	return &Network{
		name:          name,
		metric:        metric,
		nodes:         make(map[NodeID]*Node),
		arcs:          make(map[ArcID]*Arc),
		nodesExternal: make(map[string]NodeID),
		arcsExternal:  make(map[string]ArcID),
	}
}

func (net *Network) Name() string {
	return net.name
}

func (net *Network) Metric() Metric {
	return net.metric
}

// AddNode creates node at given position. External identifier is generated from the node ID, e.g. '~3'
func (net *Network) AddNode(pt orb.Point) *Node {
	id := net.maxNodeID
	net.maxNodeID++
	return net.insertNode(id, generatedID(int(id)), pt)
}

// AddNodeWithExternalID creates node at given position with identifier from input data.
// Empty externalID means generated one (see AddNode). Identifier already used by another node is an error
func (net *Network) AddNodeWithExternalID(externalID string, pt orb.Point) (*Node, error) {
	if externalID == "" {
		return net.AddNode(pt), nil
	}
	_, taken := net.nodesExternal[externalID]
	if err := checkExternalID(externalID, taken); err != nil {
		return nil, errors.Wrap(err, "Can't add node")
	}
	id := net.maxNodeID
	net.maxNodeID++
	return net.insertNode(id, externalID, pt), nil
}

func (net *Network) insertNode(id NodeID, externalID string, pt orb.Point) *Node {
	node := newNode(id, externalID, pt)
	net.nodes[id] = node
	net.nodesList = append(net.nodesList, id)
	net.nodesExternal[externalID] = id
	return node
}

// AddNodeAlias makes node reachable through one more identifier from input data.
// Node keeps its own external identifier
func (net *Network) AddNodeAlias(externalID string, nodeID NodeID) error {
	if _, ok := net.nodes[nodeID]; !ok {
		return errors.Wrapf(ErrNodeNotFound, "Can't add alias '%s': node %d", externalID, nodeID)
	}
	if current, ok := net.nodesExternal[externalID]; ok && current == nodeID {
		return nil
	}
	_, taken := net.nodesExternal[externalID]
	if err := checkExternalID(externalID, taken); err != nil {
		return errors.Wrap(err, "Can't add alias")
	}
	net.nodesExternal[externalID] = nodeID
	return nil
}

// AddArc connects two existing nodes. Empty geometry is replaced by the straight segment between nodes
func (net *Network) AddArc(sourceNodeID, targetNodeID NodeID, geom orb.LineString, orientation Orientation) (*Arc, error) {
	return net.AddArcWithExternalID("", sourceNodeID, targetNodeID, geom, orientation)
}

// AddArcWithExternalID is the same as AddArc but with identifier from input data.
// Empty externalID means generated one. Identifier already used by another arc is an error
func (net *Network) AddArcWithExternalID(externalID string, sourceNodeID, targetNodeID NodeID, geom orb.LineString, orientation Orientation) (*Arc, error) {
	if externalID != "" {
		_, taken := net.arcsExternal[externalID]
		if err := checkExternalID(externalID, taken); err != nil {
			return nil, errors.Wrap(err, "Can't add arc")
		}
	}
	source, ok := net.nodes[sourceNodeID]
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "Can't add arc: source node %d", sourceNodeID)
	}
	target, ok := net.nodes[targetNodeID]
	if !ok {
		return nil, errors.Wrapf(ErrNodeNotFound, "Can't add arc: target node %d", targetNodeID)
	}
	if len(geom) == 0 {
		geom = orb.LineString{source.geom, target.geom}
	}
	if orientation == 0 {
		orientation = ORIENTATION_BOTH
	}
	id := net.maxArcID
	net.maxArcID++
	if externalID == "" {
		externalID = generatedID(int(id))
	}
	arc := newArc(id, externalID, sourceNodeID, targetNodeID, geom, orientation, net.metric)
	net.arcs[id] = arc
	net.arcsList = append(net.arcsList, id)
	net.arcsExternal[externalID] = id
	source.outcomingArcs = append(source.outcomingArcs, id)
	target.incomingArcs = append(target.incomingArcs, id)
	return arc, nil
}

// RemoveArc detaches arc from its nodes and from every group of the network. Nodes are kept
func (net *Network) RemoveArc(arcID ArcID) error {
	arc, ok := net.arcs[arcID]
	if !ok {
		return errors.Wrapf(ErrArcNotFound, "Can't remove arc %d", arcID)
	}
	net.nodes[arc.sourceNodeID].detachArc(arcID)
	if !arc.IsLoop() {
		net.nodes[arc.targetNodeID].detachArc(arcID)
	}
	delete(net.arcs, arcID)
	delete(net.arcsExternal, arc.externalID)
	for i, id := range net.arcsList {
		if id == arcID {
			net.arcsList = append(net.arcsList[:i], net.arcsList[i+1:]...)
			break
		}
	}
	net.revision++
	return nil
}

func (net *Network) Node(id NodeID) (*Node, bool) {
	node, ok := net.nodes[id]
	return node, ok
}

func (net *Network) Arc(id ArcID) (*Arc, bool) {
	arc, ok := net.arcs[id]
	return arc, ok
}

func (net *Network) NodeByExternalID(externalID string) (*Node, bool) {
	id, ok := net.nodesExternal[externalID]
	if !ok {
		return nil, false
	}
	return net.nodes[id], true
}

func (net *Network) ArcByExternalID(externalID string) (*Arc, bool) {
	id, ok := net.arcsExternal[externalID]
	if !ok {
		return nil, false
	}
	return net.arcs[id], true
}

// Nodes returns nodes in order of creation
func (net *Network) Nodes() []*Node {
	nodes := make([]*Node, 0, len(net.nodesList))
	for _, id := range net.nodesList {
		nodes = append(nodes, net.nodes[id])
	}
	return nodes
}

// Arcs returns arcs in order of creation
func (net *Network) Arcs() []*Arc {
	arcs := make([]*Arc, 0, len(net.arcsList))
	for _, id := range net.arcsList {
		arcs = append(arcs, net.arcs[id])
	}
	return arcs
}

func (net *Network) NumNodes() int {
	return len(net.nodes)
}

func (net *Network) NumArcs() int {
	return len(net.arcs)
}

// ArcsOf returns arcs ending in the node and arcs starting from the node
func (net *Network) ArcsOf(nodeID NodeID) (incoming, outcoming []ArcID) {
	node, ok := net.nodes[nodeID]
	if !ok {
		return nil, nil
	}
	return node.incomingArcs, node.outcomingArcs
}

// IncidentArcs returns incoming arcs followed by outcoming arcs of the node. Loops appear twice
func (net *Network) IncidentArcs(nodeID NodeID) []ArcID {
	incoming, outcoming := net.ArcsOf(nodeID)
	arcs := make([]ArcID, 0, len(incoming)+len(outcoming))
	arcs = append(arcs, incoming...)
	arcs = append(arcs, outcoming...)
	return arcs
}

// IncomingOriented returns arcs through which the node can be reached according to arcs orientation
func (net *Network) IncomingOriented(nodeID NodeID) []ArcID {
	incoming, outcoming := net.ArcsOf(nodeID)
	arcs := make([]ArcID, 0, len(incoming)+len(outcoming))
	for _, arcID := range incoming {
		if net.arcs[arcID].orientation.allowsForward() {
			arcs = append(arcs, arcID)
		}
	}
	for _, arcID := range outcoming {
		if net.arcs[arcID].orientation.allowsBackward() {
			arcs = append(arcs, arcID)
		}
	}
	return arcs
}

// OutcomingOriented returns arcs through which the node can be left according to arcs orientation
func (net *Network) OutcomingOriented(nodeID NodeID) []ArcID {
	incoming, outcoming := net.ArcsOf(nodeID)
	arcs := make([]ArcID, 0, len(incoming)+len(outcoming))
	for _, arcID := range outcoming {
		if net.arcs[arcID].orientation.allowsForward() {
			arcs = append(arcs, arcID)
		}
	}
	for _, arcID := range incoming {
		if net.arcs[arcID].orientation.allowsBackward() {
			arcs = append(arcs, arcID)
		}
	}
	return arcs
}

// ExportToCSV writes nodes and arcs of the network (with match results) to '<fname>_nodes.csv' and '<fname>_arcs.csv'
func (net *Network) ExportToCSV(fname string) error {

	fnameParts := strings.Split(fname, ".csv")
	fnameNodes := fnameParts[0] + "_nodes.csv"
	fnameArcs := fnameParts[0] + "_arcs.csv"

	err := net.exportNodesToCSV(fnameNodes)
	if err != nil {
		return errors.Wrap(err, "Can't export nodes")
	}

	err = net.exportArcsToCSV(fnameArcs)
	if err != nil {
		return errors.Wrap(err, "Can't export arcs")
	}
	return nil
}

func (net *Network) exportArcsToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"id", "external_id", "source_node", "target_node", "orientation", "length", "result", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	for _, arc := range net.Arcs() {
		err = writer.Write([]string{
			fmt.Sprintf("%d", arc.ID),
			arc.externalID,
			fmt.Sprintf("%d", arc.sourceNodeID),
			fmt.Sprintf("%d", arc.targetNodeID),
			arc.orientation.String(),
			fmt.Sprintf("%f", arc.length),
			arc.result.String(),
			wkt.MarshalString(arc.geom),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write arc")
		}
	}
	return nil
}

func (net *Network) exportNodesToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()
	writer.Comma = ';'

	err = writer.Write([]string{"id", "external_id", "in_arcs", "out_arcs", "result", "longitude", "latitude"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}

	for _, node := range net.Nodes() {
		err = writer.Write([]string{
			fmt.Sprintf("%d", node.ID),
			node.externalID,
			fmt.Sprintf("%d", len(node.incomingArcs)),
			fmt.Sprintf("%d", len(node.outcomingArcs)),
			node.result.String(),
			fmt.Sprintf("%f", node.geom[0]),
			fmt.Sprintf("%f", node.geom[1]),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write node")
		}
	}
	return nil
}
