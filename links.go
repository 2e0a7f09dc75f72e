package netmatch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var ErrDanglingLink = errors.New("link references element which does not exist")

// ElementKind is a kind of network element referenced by a link
type ElementKind uint16

const (
	ELEMENT_ARC = ElementKind(iota + 1)
	ELEMENT_NODE
)

func (iotaIdx ElementKind) String() string {
	return [...]string{"arc", "node"}[iotaIdx-1]
}

func elementKindFromString(str string) (ElementKind, error) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "arc":
		return ELEMENT_ARC, nil
	case "node":
		return ELEMENT_NODE, nil
	default:
		return 0, fmt.Errorf("Unknown element type '%s'", str)
	}
}

// ElementRef references an arc or a node of a network
type ElementRef struct {
	Kind ElementKind
	ID   int
}

func ArcRef(id ArcID) ElementRef {
	return ElementRef{Kind: ELEMENT_ARC, ID: int(id)}
}

func NodeRef(id NodeID) ElementRef {
	return ElementRef{Kind: ELEMENT_NODE, ID: int(id)}
}

func (ref ElementRef) String() string {
	if ref.Kind == 0 {
		return fmt.Sprintf("undefined:%d", ref.ID)
	}
	return fmt.Sprintf("%s:%d", ref.Kind, ref.ID)
}

// Link is a precomputed candidate correspondence between reference and comparison elements
type Link struct {
	Ref      ElementRef
	Comp     ElementRef
	Relevant bool
	Tag      string
}

func (link Link) String() string {
	return fmt.Sprintf("%s -> %s (relevant: %t, tag: '%s')", link.Ref, link.Comp, link.Relevant, link.Tag)
}

// LinkSet is immutable set of correspondences between reference and comparison networks.
// Only relevant links are indexed for matching
type LinkSet struct {
	reference  *Network
	comparison *Network
	links      []Link

	compArcsByRefArc   map[ArcID][]ArcID
	refArcsByCompArc   map[ArcID][]ArcID
	compNodesByRefNode map[NodeID][]NodeID
	compArcsByRefNode  map[NodeID][]ArcID
	compNodesByRefArc  map[ArcID][]NodeID
}

// NewLinkSet validates links against both networks and indexes relevant ones
func NewLinkSet(reference, comparison *Network, links []Link) (*LinkSet, error) {
	ls := LinkSet{
		reference:          reference,
		comparison:         comparison,
		links:              make([]Link, len(links)),
		compArcsByRefArc:   make(map[ArcID][]ArcID),
		refArcsByCompArc:   make(map[ArcID][]ArcID),
		compNodesByRefNode: make(map[NodeID][]NodeID),
		compArcsByRefNode:  make(map[NodeID][]ArcID),
		compNodesByRefArc:  make(map[ArcID][]NodeID),
	}
	copy(ls.links, links)
	for i, link := range ls.links {
		if !elementExists(reference, link.Ref) {
			return nil, errors.Wrapf(ErrDanglingLink, "Link #%d reference element %s", i, link.Ref)
		}
		if !elementExists(comparison, link.Comp) {
			return nil, errors.Wrapf(ErrDanglingLink, "Link #%d comparison element %s", i, link.Comp)
		}
		if !link.Relevant {
			continue
		}
		ls.index(link)
	}
	return &ls, nil
}

func elementExists(net *Network, ref ElementRef) bool {
	switch ref.Kind {
	case ELEMENT_ARC:
		_, ok := net.Arc(ArcID(ref.ID))
		return ok
	case ELEMENT_NODE:
		_, ok := net.Node(NodeID(ref.ID))
		return ok
	default:
		return false
	}
}

func (ls *LinkSet) index(link Link) {
	switch {
	case link.Ref.Kind == ELEMENT_ARC && link.Comp.Kind == ELEMENT_ARC:
		refID, compID := ArcID(link.Ref.ID), ArcID(link.Comp.ID)
		ls.compArcsByRefArc[refID] = appendArcUnique(ls.compArcsByRefArc[refID], compID)
		ls.refArcsByCompArc[compID] = appendArcUnique(ls.refArcsByCompArc[compID], refID)
	case link.Ref.Kind == ELEMENT_NODE && link.Comp.Kind == ELEMENT_NODE:
		refID, compID := NodeID(link.Ref.ID), NodeID(link.Comp.ID)
		ls.compNodesByRefNode[refID] = appendNodeUnique(ls.compNodesByRefNode[refID], compID)
	case link.Ref.Kind == ELEMENT_NODE && link.Comp.Kind == ELEMENT_ARC:
		refID, compID := NodeID(link.Ref.ID), ArcID(link.Comp.ID)
		ls.compArcsByRefNode[refID] = appendArcUnique(ls.compArcsByRefNode[refID], compID)
	case link.Ref.Kind == ELEMENT_ARC && link.Comp.Kind == ELEMENT_NODE:
		refID, compID := ArcID(link.Ref.ID), NodeID(link.Comp.ID)
		ls.compNodesByRefArc[refID] = appendNodeUnique(ls.compNodesByRefArc[refID], compID)
	}
}

func appendArcUnique(arcs []ArcID, arcID ArcID) []ArcID {
	for _, id := range arcs {
		if id == arcID {
			return arcs
		}
	}
	return append(arcs, arcID)
}

func appendNodeUnique(nodes []NodeID, nodeID NodeID) []NodeID {
	for _, id := range nodes {
		if id == nodeID {
			return nodes
		}
	}
	return append(nodes, nodeID)
}

func (ls *LinkSet) Reference() *Network {
	return ls.reference
}

func (ls *LinkSet) Comparison() *Network {
	return ls.comparison
}

// Links returns all links including non-relevant ones
func (ls *LinkSet) Links() []Link {
	links := make([]Link, len(ls.links))
	copy(links, ls.links)
	return links
}

// Relevant returns links participating in matching
func (ls *LinkSet) Relevant() []Link {
	links := make([]Link, 0, len(ls.links))
	for _, link := range ls.links {
		if link.Relevant {
			links = append(links, link)
		}
	}
	return links
}

// CompArcsOfRefArc returns comparison arcs corresponding to the reference arc
func (ls *LinkSet) CompArcsOfRefArc(refArcID ArcID) []ArcID {
	return ls.compArcsByRefArc[refArcID]
}

// RefArcsOfCompArc returns reference arcs corresponding to the comparison arc
func (ls *LinkSet) RefArcsOfCompArc(compArcID ArcID) []ArcID {
	return ls.refArcsByCompArc[compArcID]
}

// CompNodesOfRefNode returns comparison nodes corresponding to the reference node
func (ls *LinkSet) CompNodesOfRefNode(refNodeID NodeID) []NodeID {
	return ls.compNodesByRefNode[refNodeID]
}

// CompArcsOfRefNode returns comparison arcs corresponding to the reference node
func (ls *LinkSet) CompArcsOfRefNode(refNodeID NodeID) []ArcID {
	return ls.compArcsByRefNode[refNodeID]
}

// CompNodesOfRefArc returns comparison nodes corresponding to the reference arc
func (ls *LinkSet) CompNodesOfRefArc(refArcID ArcID) []NodeID {
	return ls.compNodesByRefArc[refArcID]
}

// HasCorrespondent returns true if the comparison arc corresponds to at least one reference arc
func (ls *LinkSet) HasCorrespondent(compArcID ArcID) bool {
	return len(ls.refArcsByCompArc[compArcID]) > 0
}

// ReadLinksCSV reads links from ';' separated file with header 'ref_type;ref_id;comp_type;comp_id;relevant;tag'.
// Identifiers are external identifiers of elements (as in input data)
func ReadLinksCSV(r io.Reader, reference, comparison *Network) (*LinkSet, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "Can't read header")
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"ref_type", "ref_id", "comp_type", "comp_id"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("Column '%s' is missing", required)
		}
	}

	links := []Link{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "Can't read line %d", line)
		}
		link := Link{Relevant: true}
		link.Ref, err = parseElementRef(reference, field(record, columns, "ref_type"), field(record, columns, "ref_id"))
		if err != nil {
			return nil, errors.Wrapf(err, "Line %d: reference element", line)
		}
		link.Comp, err = parseElementRef(comparison, field(record, columns, "comp_type"), field(record, columns, "comp_id"))
		if err != nil {
			return nil, errors.Wrapf(err, "Line %d: comparison element", line)
		}
		if relevantText := field(record, columns, "relevant"); relevantText != "" {
			link.Relevant, err = strconv.ParseBool(relevantText)
			if err != nil {
				return nil, errors.Wrapf(err, "Line %d: can't parse 'relevant'", line)
			}
		}
		link.Tag = field(record, columns, "tag")
		links = append(links, link)
	}
	return NewLinkSet(reference, comparison, links)
}

func field(record []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseElementRef(net *Network, kindText, externalID string) (ElementRef, error) {
	kind, err := elementKindFromString(kindText)
	if err != nil {
		return ElementRef{}, err
	}
	switch kind {
	case ELEMENT_ARC:
		arc, ok := net.ArcByExternalID(externalID)
		if !ok {
			return ElementRef{}, errors.Wrapf(ErrDanglingLink, "arc '%s' in network '%s'", externalID, net.name)
		}
		return ArcRef(arc.ID), nil
	default:
		node, ok := net.NodeByExternalID(externalID)
		if !ok {
			return ElementRef{}, errors.Wrapf(ErrDanglingLink, "node '%s' in network '%s'", externalID, net.name)
		}
		return NodeRef(node.ID), nil
	}
}
