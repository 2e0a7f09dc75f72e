package netmatch

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// NodeMatch is the outcome of matching of one reference node
type NodeMatch struct {
	RefNode       NodeID
	Result        MatchResult
	Communication Communication
	// Classification of the group before filtering
	Complete  bool
	CompNodes []NodeID
	CompArcs  []ArcID
	group     *Group
}

// ArcMatch is the outcome of matching of one reference arc
type ArcMatch struct {
	RefArc   ArcID
	Result   MatchResult
	CompArcs []ArcID
	Length   float64
	// Chain of matched comparison arcs oriented along the reference arc. Empty when unmatched
	Geom  orb.LineString
	group *Group
}

// MatchingStats counts match results
type MatchingStats struct {
	NodesMatched   int
	NodesUncertain int
	NodesUnmatched int
	ArcsMatched    int
	ArcsUncertain  int
	ArcsUnmatched  int
}

// MatchingResult holds outcomes of both matching phases in order of reference elements
type MatchingResult struct {
	Nodes []NodeMatch
	Arcs  []ArcMatch
	links *LinkSet
}

func (result *MatchingResult) Links() *LinkSet {
	return result.links
}

func (result *MatchingResult) Stats() MatchingStats {
	stats := MatchingStats{}
	for _, match := range result.Nodes {
		switch match.Result {
		case RESULT_MATCHED:
			stats.NodesMatched++
		case RESULT_UNCERTAIN:
			stats.NodesUncertain++
		default:
			stats.NodesUnmatched++
		}
	}
	for _, match := range result.Arcs {
		switch match.Result {
		case RESULT_MATCHED:
			stats.ArcsMatched++
		case RESULT_UNCERTAIN:
			stats.ArcsUncertain++
		default:
			stats.ArcsUnmatched++
		}
	}
	return stats
}

// Matcher matches reference network to comparison network using precomputed links
type Matcher struct {
	links  *LinkSet
	params *Parameters
	logger logrus.FieldLogger
}

func NewMatcher(links *LinkSet, options ...func(*Matcher)) *Matcher {
	matcher := &Matcher{
		links:  links,
		params: NewParameters(),
		logger: logrus.StandardLogger(),
	}
	for _, option := range options {
		option(matcher)
	}
	return matcher
}

func WithParameters(params *Parameters) func(*Matcher) {
	return func(matcher *Matcher) {
		if params != nil {
			matcher.params = params
		}
	}
}

func WithLogger(logger logrus.FieldLogger) func(*Matcher) {
	return func(matcher *Matcher) {
		if logger != nil {
			matcher.logger = logger
		}
	}
}

// Run matches reference nodes first, then reference arcs. Match results are stored
// on elements of both networks as well
func (matcher *Matcher) Run(ctx context.Context) (*MatchingResult, error) {
	result := &MatchingResult{
		links: matcher.links,
	}

	st := time.Now()
	nodes, err := matcher.matchNodes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Can't match nodes")
	}
	result.Nodes = nodes
	matcher.tagNodes(result.Nodes)
	matcher.logger.WithFields(logrus.Fields{"nodes": len(result.Nodes), "elapsed": time.Since(st)}).Info("Nodes have been matched")

	st = time.Now()
	arcs, err := matcher.matchArcs(ctx, result.Nodes)
	if err != nil {
		return nil, errors.Wrap(err, "Can't match arcs")
	}
	result.Arcs = arcs
	matcher.tagArcs(result.Arcs)
	matcher.logger.WithFields(logrus.Fields{"arcs": len(result.Arcs), "elapsed": time.Since(st)}).Info("Arcs have been matched")

	return result, nil
}

func (matcher *Matcher) workers() int {
	if matcher.params.Workers <= 0 {
		return 1
	}
	return matcher.params.Workers
}

// matchNodes builds and filters a comparison group for every reference node having links
func (matcher *Matcher) matchNodes(ctx context.Context) ([]NodeMatch, error) {
	refNodes := make([]NodeID, 0)
	for _, node := range matcher.links.reference.Nodes() {
		if len(matcher.links.CompNodesOfRefNode(node.ID)) == 0 && len(matcher.links.CompArcsOfRefNode(node.ID)) == 0 {
			continue
		}
		refNodes = append(refNodes, node.ID)
	}

	matches := make([]NodeMatch, len(refNodes))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(matcher.workers())
	for i := range refNodes {
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			match, err := matcher.matchNode(refNodes[i])
			if err != nil {
				return err
			}
			matches[i] = match
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

// nodeGroup collects comparison elements linked to the reference node: linked nodes,
// linked arcs with their endpoints and arcs joining two linked nodes
func (matcher *Matcher) nodeGroup(refNodeID NodeID) (*Group, error) {
	comparison := matcher.links.comparison
	group := comparison.NewGroup()
	linkedNodes := matcher.links.CompNodesOfRefNode(refNodeID)
	for _, nodeID := range linkedNodes {
		if err := group.AddNode(nodeID); err != nil {
			return nil, err
		}
	}
	for _, arcID := range matcher.links.CompArcsOfRefNode(refNodeID) {
		arc, ok := comparison.Arc(arcID)
		if !ok {
			return nil, errors.Wrapf(ErrArcNotFound, "Comparison arc %d", arcID)
		}
		if err := group.AddArc(arcID); err != nil {
			return nil, err
		}
		if err := group.AddNode(arc.sourceNodeID); err != nil {
			return nil, err
		}
		if err := group.AddNode(arc.targetNodeID); err != nil {
			return nil, err
		}
	}
	linked := make(map[NodeID]struct{}, len(linkedNodes))
	for _, nodeID := range linkedNodes {
		linked[nodeID] = struct{}{}
	}
	for _, nodeID := range linkedNodes {
		for _, arcID := range comparison.IncidentArcs(nodeID) {
			if _, ok := linked[comparison.arcs[arcID].otherEnd(nodeID)]; !ok {
				continue
			}
			if err := group.AddArc(arcID); err != nil {
				return nil, err
			}
		}
	}
	return group, nil
}

func (matcher *Matcher) matchNode(refNodeID NodeID) (NodeMatch, error) {
	match := NodeMatch{
		RefNode: refNodeID,
		Result:  RESULT_UNMATCHED,
	}
	group, err := matcher.nodeGroup(refNodeID)
	if err != nil {
		return match, errors.Wrapf(err, "Can't build group of reference node %d", refNodeID)
	}
	if group.NumArcs() > 0 {
		complete, err := group.FilterForReferenceNode(refNodeID, matcher.links, WithFilterLogger(matcher.logger))
		if err != nil {
			return match, err
		}
		match.Complete = complete
	}
	match.group = group
	match.CompNodes = group.Nodes()
	match.CompArcs = group.Arcs()
	if group.IsEmpty() {
		match.Communication = COMMUNICATION_NONE
	} else {
		match.Communication = group.Communication(refNodeID, matcher.links)
	}
	match.Result = resultByCommunication(match.Communication)
	matcher.logger.WithFields(logrus.Fields{
		"ref_node":      refNodeID,
		"result":        match.Result,
		"communication": match.Communication,
		"arcs":          len(match.CompArcs),
		"nodes":         len(match.CompNodes),
	}).Debug("Reference node has been matched")
	return match, nil
}

// tagNodes stores node results on both networks. Must not run concurrently with matching
func (matcher *Matcher) tagNodes(matches []NodeMatch) {
	for _, match := range matches {
		if match.group != nil {
			match.group.SetResultGlobal(match.Result)
		}
		if refNode, ok := matcher.links.reference.Node(match.RefNode); ok {
			refNode.result = match.Result
		}
	}
}

// matchArcs searches path between groups of endpoints of every reference arc
func (matcher *Matcher) matchArcs(ctx context.Context, nodeMatches []NodeMatch) ([]ArcMatch, error) {
	groupsByRefNode := make(map[NodeID]*Group, len(nodeMatches))
	for _, match := range nodeMatches {
		if match.group != nil && !match.group.IsEmpty() {
			groupsByRefNode[match.RefNode] = match.group
		}
	}
	refArcs := matcher.links.reference.Arcs()
	matches := make([]ArcMatch, len(refArcs))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(matcher.workers())
	for i := range refArcs {
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			match, err := matcher.matchArc(refArcs[i], groupsByRefNode)
			if err != nil {
				return err
			}
			matches[i] = match
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (matcher *Matcher) matchArc(refArc *Arc, groupsByRefNode map[NodeID]*Group) (ArcMatch, error) {
	match := ArcMatch{
		RefArc:   refArc.ID,
		Result:   RESULT_UNMATCHED,
		CompArcs: []ArcID{},
	}
	comparison := matcher.links.comparison
	candidate := comparison.NewGroup()
	for _, arcID := range matcher.links.CompArcsOfRefArc(refArc.ID) {
		arc := comparison.arcs[arcID]
		candidate.insertArc(arcID, len(candidate.arcs))
		candidate.insertNode(arc.sourceNodeID, len(candidate.nodes))
		candidate.insertNode(arc.targetNodeID, len(candidate.nodes))
	}
	for _, nodeID := range matcher.links.CompNodesOfRefArc(refArc.ID) {
		candidate.insertNode(nodeID, len(candidate.nodes))
	}
	sourceGroup := groupsByRefNode[refArc.sourceNodeID]
	targetGroup := groupsByRefNode[refArc.targetNodeID]
	for _, group := range []*Group{sourceGroup, targetGroup} {
		if group == nil {
			continue
		}
		for _, arcID := range group.Arcs() {
			candidate.insertArc(arcID, len(candidate.arcs))
		}
		for _, nodeID := range group.Nodes() {
			candidate.insertNode(nodeID, len(candidate.nodes))
		}
	}
	if candidate.IsEmpty() {
		return match, nil
	}

	refStart, refEnd := refArc.geom[0], refArc.geom[len(refArc.geom)-1]
	fromNodes := matcher.sideNodes(candidate, sourceGroup, refStart)
	toNodes := matcher.sideNodes(candidate, targetGroup, refEnd)
	finder, err := newPathFinder(candidate)
	if err != nil {
		return match, errors.Wrapf(err, "Can't prepare graph for reference arc %d", refArc.ID)
	}
	path, ok := finder.shortestPath(fromNodes, toNodes, matcher.params.MaxPathLength)
	if !ok && refArc.orientation.allowsBackward() {
		path, ok = finder.shortestPath(toNodes, fromNodes, matcher.params.MaxPathLength)
	}
	if !ok {
		return match, nil
	}

	pathGroup := comparison.NewGroup()
	for _, arcID := range path.arcs {
		pathGroup.insertArc(arcID, len(pathGroup.arcs))
	}
	for _, nodeID := range path.nodes {
		pathGroup.insertNode(nodeID, len(pathGroup.nodes))
	}
	geom, err := pathGroup.CompileToPolyline(refArc)
	if err != nil {
		return match, errors.Wrapf(err, "Can't compile path of reference arc %d", refArc.ID)
	}
	// Path ends and nodes of endpoint groups keep results of node matching
	pathGroup.removeNode(path.nodes[0])
	pathGroup.removeNode(path.nodes[len(path.nodes)-1])
	for _, group := range []*Group{sourceGroup, targetGroup} {
		if group == nil {
			continue
		}
		for _, nodeID := range group.Nodes() {
			pathGroup.removeNode(nodeID)
		}
	}
	match.group = pathGroup
	match.CompArcs = pathGroup.Arcs()
	match.Length = path.length
	match.Geom = geom
	match.Result = RESULT_MATCHED
	metric := comparison.metric
	if metric.Distance(geom[0], refStart) > matcher.params.DistanceNodesMax || metric.Distance(geom[len(geom)-1], refEnd) > matcher.params.DistanceNodesMax {
		match.Result = RESULT_UNCERTAIN
	}
	return match, nil
}

// sideNodes returns nodes of the endpoint group. Without such group it falls back
// to candidate nodes close enough to the reference endpoint
func (matcher *Matcher) sideNodes(candidate, endpointGroup *Group, refPoint orb.Point) []NodeID {
	if endpointGroup != nil && endpointGroup.NumNodes() > 0 {
		return endpointGroup.Nodes()
	}
	comparison := matcher.links.comparison
	nodes := make([]NodeID, 0)
	for _, nodeID := range candidate.nodes {
		if comparison.metric.Distance(comparison.nodes[nodeID].geom, refPoint) <= matcher.params.DistanceNodesMax {
			nodes = append(nodes, nodeID)
		}
	}
	return nodes
}

// tagArcs stores arc results on both networks. Comparison nodes are tagged only when they are
// interior nodes of a path outside of node groups. Must not run concurrently with matching
func (matcher *Matcher) tagArcs(matches []ArcMatch) {
	for _, match := range matches {
		if match.group != nil {
			match.group.SetResultGlobal(match.Result)
		}
		if refArc, ok := matcher.links.reference.Arc(match.RefArc); ok {
			refArc.result = match.Result
		}
	}
}
