package netmatch

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FilterState is a stage of group filtering
type FilterState uint16

const (
	FILTER_UNFILTERED = FilterState(iota + 1)
	FILTER_DEAD_ENDS_REMOVED
	FILTER_UNMATCHED_DEAD_ENDS_REMOVED
	FILTER_COMPLETE
	FILTER_INCOMPLETE
	FILTER_SHORTEST_PATH_APPLIED
	FILTER_STABLE
)

func (iotaIdx FilterState) String() string {
	return [...]string{"unfiltered", "dead_ends_removed", "unmatched_dead_ends_removed", "complete", "incomplete", "shortest_path_applied", "stable"}[iotaIdx-1]
}

// GroupFilter shrinks a group of comparison network matched to a reference node.
// Filter owns the group while running: nobody else should mutate it
type GroupFilter struct {
	group     *Group
	refNodeID NodeID
	links     *LinkSet
	state     FilterState
	complete  bool
	logger    logrus.FieldLogger
}

// NewGroupFilter prepares filter of the comparison group for given reference node
func NewGroupFilter(group *Group, refNodeID NodeID, links *LinkSet, options ...func(*GroupFilter)) *GroupFilter {
	filter := &GroupFilter{
		group:     group,
		refNodeID: refNodeID,
		links:     links,
		state:     FILTER_UNFILTERED,
		logger:    logrus.StandardLogger(),
	}
	for _, option := range options {
		option(filter)
	}
	return filter
}

func WithFilterLogger(logger logrus.FieldLogger) func(*GroupFilter) {
	return func(filter *GroupFilter) {
		if logger != nil {
			filter.logger = logger
		}
	}
}

func (filter *GroupFilter) State() FilterState {
	return filter.state
}

// IsComplete returns classification made on the unfiltered group. Meaningless before first Step
func (filter *GroupFilter) IsComplete() bool {
	return filter.complete
}

func (filter *GroupFilter) Group() *Group {
	return filter.group
}

// Step runs passes of the current stage and moves filter to the next one
func (filter *GroupFilter) Step() (FilterState, error) {
	g := filter.group
	before := g.NumArcs()
	switch filter.state {
	case FILTER_UNFILTERED:
		filter.complete = g.Communication(filter.refNodeID, filter.links) == COMMUNICATION_COMPLETE
		untilStable(g, g.RemoveDeadEnds)
		filter.state = FILTER_DEAD_ENDS_REMOVED
	case FILTER_DEAD_ENDS_REMOVED:
		untilStable(g, func() int {
			return g.RemoveUnmatchedDeadEnds(filter.links)
		})
		filter.state = FILTER_UNMATCHED_DEAD_ENDS_REMOVED
	case FILTER_UNMATCHED_DEAD_ENDS_REMOVED:
		filter.runBranch()
		if filter.complete {
			filter.state = FILTER_COMPLETE
		} else {
			filter.state = FILTER_INCOMPLETE
		}
	case FILTER_COMPLETE, FILTER_INCOMPLETE:
		if g.NumArcs() != 1 {
			_, err := g.ReduceToShortestPaths(filter.refNodeID, filter.links)
			if err != nil {
				return filter.state, errors.Wrapf(err, "Can't reduce group of reference node %d", filter.refNodeID)
			}
		}
		filter.state = FILTER_SHORTEST_PATH_APPLIED
	case FILTER_SHORTEST_PATH_APPLIED:
		filter.runBranch()
		filter.state = FILTER_STABLE
	default:
		return filter.state, nil
	}
	filter.logger.WithFields(logrus.Fields{
		"ref_node": filter.refNodeID,
		"state":    filter.state,
		"arcs":     g.NumArcs(),
		"removed":  before - g.NumArcs(),
		"complete": filter.complete,
	}).Debug("Group filtering step")
	return filter.state, nil
}

func (filter *GroupFilter) runBranch() {
	g := filter.group
	if filter.complete {
		untilStable(g, func() int {
			return g.RemoveCompletePreservingDeadEnd(filter.refNodeID, filter.links)
		})
		return
	}
	untilStable(g, func() int {
		return g.RemoveAllMatchedDeadEnds(filter.links)
	})
}

// Run steps filter until the group is stable
func (filter *GroupFilter) Run() (*Group, error) {
	for filter.state != FILTER_STABLE {
		_, err := filter.Step()
		if err != nil {
			return filter.group, err
		}
	}
	return filter.group, nil
}

// FilterForReferenceNode runs the whole filtering pipeline on the group.
// Returns true if the group has been classified as complete
func (g *Group) FilterForReferenceNode(refNodeID NodeID, links *LinkSet, options ...func(*GroupFilter)) (bool, error) {
	filter := NewGroupFilter(g, refNodeID, links, options...)
	_, err := filter.Run()
	return filter.complete, err
}

// untilStable repeats the pass while it removes arcs and more than one arc is left.
// Returns total number of removed arcs
func untilStable(g *Group, pass func() int) int {
	removed := 0
	for {
		nbArcs := g.NumArcs()
		if nbArcs == 1 {
			break
		}
		pass()
		left := g.NumArcs()
		if left == nbArcs {
			break
		}
		removed += nbArcs - left
	}
	return removed
}

// deadEndRemoval is an arc to remove together with its outward endpoint
type deadEndRemoval struct {
	arcID  ArcID
	nodeID NodeID
}

func (g *Group) applyRemovals(removals []deadEndRemoval) int {
	before := len(g.arcs)
	for _, removal := range removals {
		g.detach(removal.arcID, removal.nodeID)
	}
	return before - len(g.arcs)
}

// RemoveDeadEnds removes every member arc which is a dead end in the whole network, with its free endpoint.
// Returns number of removed arcs
func (g *Group) RemoveDeadEnds() int {
	g.sync()
	removals := make([]deadEndRemoval, 0)
	atEnd := make([]deadEndRemoval, 0)
	for _, arcID := range g.arcs {
		arc := g.net.arcs[arcID]
		if g.IsDeadEndAtStart(arcID, false) {
			removals = append(removals, deadEndRemoval{arcID, arc.sourceNodeID})
		}
		if g.IsDeadEndAtEnd(arcID, false) {
			atEnd = append(atEnd, deadEndRemoval{arcID, arc.targetNodeID})
		}
	}
	return g.applyRemovals(append(removals, atEnd...))
}

// RemoveUnmatchedDeadEnds removes group dead ends when no other arc at their outward endpoint corresponds
// to a reference arc. Returns number of removed arcs
func (g *Group) RemoveUnmatchedDeadEnds(links *LinkSet) int {
	g.sync()
	matchedAround := func(arcID ArcID, nodeID NodeID) bool {
		for _, adjacentID := range g.net.IncidentArcs(nodeID) {
			if adjacentID == arcID {
				continue
			}
			if links.HasCorrespondent(adjacentID) {
				return true
			}
		}
		return false
	}
	removals := make([]deadEndRemoval, 0)
	atEnd := make([]deadEndRemoval, 0)
	for _, arcID := range g.arcs {
		arc := g.net.arcs[arcID]
		if g.IsDeadEndAtStart(arcID, true) && !matchedAround(arcID, arc.sourceNodeID) {
			removals = append(removals, deadEndRemoval{arcID, arc.sourceNodeID})
		}
		if g.IsDeadEndAtEnd(arcID, true) && !matchedAround(arcID, arc.targetNodeID) {
			atEnd = append(atEnd, deadEndRemoval{arcID, arc.targetNodeID})
		}
	}
	return g.applyRemovals(append(removals, atEnd...))
}

// RemoveAllMatchedDeadEnds removes group dead ends when every matched arc at their outward endpoint
// shares a common reference arc with the dead end. Returns number of removed arcs
func (g *Group) RemoveAllMatchedDeadEnds(links *LinkSet) int {
	g.sync()
	sharesReference := func(arcID ArcID, nodeID NodeID) bool {
		common := append([]ArcID{}, links.RefArcsOfCompArc(arcID)...)
		for _, adjacentID := range g.net.IncidentArcs(nodeID) {
			refArcs := links.RefArcsOfCompArc(adjacentID)
			if len(refArcs) == 0 {
				continue
			}
			common = commonArcs(common, refArcs)
			if len(common) == 0 {
				return false
			}
		}
		return true
	}
	removals := make([]deadEndRemoval, 0)
	atEnd := make([]deadEndRemoval, 0)
	for _, arcID := range g.arcs {
		arc := g.net.arcs[arcID]
		if g.IsDeadEndAtStart(arcID, true) && sharesReference(arcID, arc.sourceNodeID) {
			removals = append(removals, deadEndRemoval{arcID, arc.sourceNodeID})
		}
		if g.IsDeadEndAtEnd(arcID, true) && sharesReference(arcID, arc.targetNodeID) {
			atEnd = append(atEnd, deadEndRemoval{arcID, arc.targetNodeID})
		}
	}
	return g.applyRemovals(append(removals, atEnd...))
}

// RemoveCompletePreservingDeadEnd removes the first group dead end whose removal keeps
// communication of the reference node complete. Returns number of removed arcs (0 or 1)
func (g *Group) RemoveCompletePreservingDeadEnd(refNodeID NodeID, links *LinkSet) int {
	g.sync()
	for _, arcID := range g.Arcs() {
		arc := g.net.arcs[arcID]
		if g.IsDeadEndAtStart(arcID, true) {
			removal := g.detach(arcID, arc.sourceNodeID)
			if g.Communication(refNodeID, links) == COMMUNICATION_COMPLETE {
				return 1
			}
			g.restore(removal)
		}
		if g.IsDeadEndAtEnd(arcID, true) {
			removal := g.detach(arcID, arc.targetNodeID)
			if g.Communication(refNodeID, links) == COMMUNICATION_COMPLETE {
				return 1
			}
			g.restore(removal)
		}
	}
	return 0
}

// ReduceToShortestPaths keeps only arcs and nodes lying on shortest paths between entry and exit nodes
// of the group. When one side is empty the other one is used for both. Returns number of removed arcs.
//
// Group without entry and exit nodes becomes empty, and a single arc which lies on no path is removed.
// GroupFilter never applies this pass to a group of exactly one arc; direct callers have to check NumArcs themselves
func (g *Group) ReduceToShortestPaths(refNodeID NodeID, links *LinkSet) (int, error) {
	g.sync()
	entries := g.EntryNodes(refNodeID, links)
	exits := g.ExitNodes(refNodeID, links)
	if len(entries) == 0 {
		entries = append(entries, exits...)
	}
	if len(exits) == 0 {
		exits = append(exits, entries...)
	}

	keepArcs := make(map[ArcID]struct{})
	keepNodes := make(map[NodeID]struct{})
	finder, err := newPathFinder(g)
	if err != nil {
		return 0, err
	}
	for _, entry := range entries {
		for _, exit := range exits {
			path, ok := finder.find(entry, exit, 0)
			if !ok {
				continue
			}
			for _, arcID := range path.arcs {
				keepArcs[arcID] = struct{}{}
			}
			for _, nodeID := range path.nodes {
				keepNodes[nodeID] = struct{}{}
			}
		}
	}

	before := len(g.arcs)
	for _, nodeID := range g.Nodes() {
		if _, ok := keepNodes[nodeID]; !ok {
			g.RemoveNode(nodeID)
		}
	}
	for _, arcID := range g.Arcs() {
		if _, ok := keepArcs[arcID]; !ok {
			g.RemoveArc(arcID)
		}
	}
	return before - len(g.arcs), nil
}
