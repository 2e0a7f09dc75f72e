package netmatch

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// ExportToCSV writes matching results to '<fname>_node_matches.csv' and '<fname>_arc_matches.csv'.
// Elements are referenced by their external identifiers
func (result *MatchingResult) ExportToCSV(fname string, params *Parameters) error {
	if params == nil {
		params = NewParameters()
	}
	fnameParts := strings.Split(fname, ".csv")
	fnameNodes := fnameParts[0] + "_node_matches.csv"
	fnameArcs := fnameParts[0] + "_arc_matches.csv"

	err := result.exportNodeMatchesToCSV(fnameNodes)
	if err != nil {
		return errors.Wrap(err, "Can't export node matches")
	}
	err = result.exportArcMatchesToCSV(fnameArcs, params)
	if err != nil {
		return errors.Wrap(err, "Can't export arc matches")
	}
	return nil
}

func (result *MatchingResult) exportNodeMatchesToCSV(fname string) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()
	return result.writeNodeMatches(file)
}

func (result *MatchingResult) writeNodeMatches(w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	err := writer.Write([]string{"ref_node", "result", "communication", "comp_nodes", "comp_arcs", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	reference, comparison := result.links.reference, result.links.comparison
	for _, match := range result.Nodes {
		refNode, ok := reference.Node(match.RefNode)
		if !ok {
			return errors.Wrapf(ErrNodeNotFound, "Reference node %d", match.RefNode)
		}
		err = writer.Write([]string{
			refNode.externalID,
			match.Result.String(),
			match.Communication.String(),
			strings.Join(nodesExternalIDs(comparison, match.CompNodes), ","),
			strings.Join(arcsExternalIDs(comparison, match.CompArcs), ","),
			PrepareWKTPoint(refNode.geom),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write node match")
		}
	}
	writer.Flush()
	return writer.Error()
}

func (result *MatchingResult) exportArcMatchesToCSV(fname string, params *Parameters) error {
	file, err := os.Create(fname)
	if err != nil {
		return errors.Wrap(err, "Can't create file")
	}
	defer file.Close()
	return result.writeArcMatches(file, params)
}

func (result *MatchingResult) writeArcMatches(w io.Writer, params *Parameters) error {
	writer := csv.NewWriter(w)
	writer.Comma = ';'

	err := writer.Write([]string{"ref_arc", "result", "comp_arcs", "length", "geom"})
	if err != nil {
		return errors.Wrap(err, "Can't write header")
	}
	reference, comparison := result.links.reference, result.links.comparison
	for _, match := range result.Arcs {
		refArc, ok := reference.Arc(match.RefArc)
		if !ok {
			return errors.Wrapf(ErrArcNotFound, "Reference arc %d", match.RefArc)
		}
		err = writer.Write([]string{
			refArc.externalID,
			match.Result.String(),
			strings.Join(arcsExternalIDs(comparison, match.CompArcs), ","),
			fmt.Sprintf("%f", match.Length),
			PrepareWKTLinestring(simplifyLine(match.Geom, params.SimplifyTolerance)),
		})
		if err != nil {
			return errors.Wrap(err, "Can't write arc match")
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportGeoJSON writes FeatureCollection of compiled polylines of matched reference arcs
func (result *MatchingResult) ExportGeoJSON(w io.Writer, params *Parameters) error {
	if params == nil {
		params = NewParameters()
	}
	reference, comparison := result.links.reference, result.links.comparison
	fc := geojson.NewFeatureCollection()
	for _, match := range result.Arcs {
		if len(match.Geom) == 0 {
			continue
		}
		refArc, ok := reference.Arc(match.RefArc)
		if !ok {
			return errors.Wrapf(ErrArcNotFound, "Reference arc %d", match.RefArc)
		}
		feature := geojson.NewLineStringFeature(coordinatesFromLine(simplifyLine(match.Geom, params.SimplifyTolerance)))
		feature.SetProperty("ref_arc", refArc.externalID)
		feature.SetProperty("result", match.Result.String())
		feature.SetProperty("comp_arcs", arcsExternalIDs(comparison, match.CompArcs))
		feature.SetProperty("length", match.Length)
		fc.AddFeature(feature)
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Can't marshal FeatureCollection")
	}
	_, err = w.Write(b)
	if err != nil {
		return errors.Wrap(err, "Can't write FeatureCollection")
	}
	return nil
}

func nodesExternalIDs(net *Network, nodes []NodeID) []string {
	ids := make([]string, 0, len(nodes))
	for _, nodeID := range nodes {
		if node, ok := net.Node(nodeID); ok {
			ids = append(ids, node.externalID)
		}
	}
	return ids
}

func arcsExternalIDs(net *Network, arcs []ArcID) []string {
	ids := make([]string, 0, len(arcs))
	for _, arcID := range arcs {
		if arc, ok := net.Arc(arcID); ok {
			ids = append(ids, arc.externalID)
		}
	}
	return ids
}
