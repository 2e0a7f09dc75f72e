package netmatch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// OSMFormat is an encoding of OSM file
type OSMFormat uint16

const (
	OSM_FORMAT_XML = OSMFormat(iota + 1)
	OSM_FORMAT_PBF
)

func (iotaIdx OSMFormat) String() string {
	return [...]string{"xml", "pbf"}[iotaIdx-1]
}

// osmFormatByFilename guesses encoding by file extension
func osmFormatByFilename(filename string) (OSMFormat, error) {
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return OSM_FORMAT_XML, nil
	case ".pbf":
		return OSM_FORMAT_PBF, nil
	default:
		return 0, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

func newOSMScanner(ctx context.Context, r io.Reader, format OSMFormat) OSMScanner {
	if format == OSM_FORMAT_PBF {
		return osmpbf.New(ctx, r, 4)
	}
	return osmxml.New(ctx, r)
}

// osmWay is a way accepted by configuration
type osmWay struct {
	ID          osm.WayID
	Nodes       []osm.NodeID
	orientation Orientation
}

// ReadOSMNetwork builds network from OSM file (*.osm, *.xml or *.osm.pbf).
// Ways are split into arcs at nodes shared with other ways
func ReadOSMNetwork(filename string, cfg *OsmConfiguration, logger logrus.FieldLogger) (*Network, error) {
	format, err := osmFormatByFilename(filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "File open")
	}
	defer file.Close()
	return DecodeOSMNetwork(context.Background(), file, format, filepath.Base(filename), cfg, logger)
}

// DecodeOSMNetwork builds network from OSM data. Reader is scanned twice: for ways and for nodes
func DecodeOSMNetwork(ctx context.Context, rs io.ReadSeeker, format OSMFormat, name string, cfg *OsmConfiguration, logger logrus.FieldLogger) (*Network, error) {
	if cfg == nil {
		cfg = DefaultOsmConfiguration()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithFields(logrus.Fields{"network": name, "format": format})

	/* Process ways */
	st := time.Now()
	ways := []osmWay{}
	// Endpoints are counted twice, so any node used more than once splits ways
	useCount := make(map[osm.NodeID]int)
	{
		scannerWays := newOSMScanner(ctx, rs, format)
		for scannerWays.Scan() {
			obj := scannerWays.Object()
			if obj.ObjectID().Type() != "way" {
				continue
			}
			way := obj.(*osm.Way)
			if !cfg.Accepts(way.Tags) {
				continue
			}
			if len(way.Nodes) < 2 {
				logger.WithField("way", way.ID).Warnf("Way with %d nodes met", len(way.Nodes))
				continue
			}
			preparedWay := osmWay{
				ID:          way.ID,
				Nodes:       make([]osm.NodeID, 0, len(way.Nodes)),
				orientation: wayOrientation(way, logger),
			}
			for i, node := range way.Nodes {
				preparedWay.Nodes = append(preparedWay.Nodes, node.ID)
				if i == 0 || i == len(way.Nodes)-1 {
					useCount[node.ID] += 2
				} else {
					useCount[node.ID]++
				}
			}
			ways = append(ways, preparedWay)
		}
		err := scannerWays.Err()
		scannerWays.Close()
		if err != nil {
			return nil, errors.Wrap(err, "Scanner error on Ways")
		}
	}
	logger.WithFields(logrus.Fields{"ways": len(ways), "elapsed": time.Since(st)}).Info("Ways have been processed")

	// Seek file to start
	_, err := rs.Seek(0, io.SeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking after ways scanning")
	}

	/* Process nodes */
	st = time.Now()
	coordinates := make(map[osm.NodeID]orb.Point, len(useCount))
	{
		scannerNodes := newOSMScanner(ctx, rs, format)
		for scannerNodes.Scan() {
			obj := scannerNodes.Object()
			if obj.ObjectID().Type() != "node" {
				continue
			}
			node := obj.(*osm.Node)
			if _, ok := useCount[node.ID]; ok {
				coordinates[node.ID] = node.Point()
			}
		}
		err := scannerNodes.Err()
		scannerNodes.Close()
		if err != nil {
			return nil, errors.Wrap(err, "Scanner error on Nodes")
		}
	}
	logger.WithFields(logrus.Fields{"nodes": len(coordinates), "elapsed": time.Since(st)}).Info("Nodes have been processed")

	st = time.Now()
	net, err := buildOSMNetwork(name, ways, coordinates, useCount)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"nodes": net.NumNodes(), "arcs": net.NumArcs(), "elapsed": time.Since(st)}).Info("Network has been prepared")
	return net, nil
}

// wayOrientation parses `oneway` and `junction` tags of the way
func wayOrientation(way *osm.Way, logger logrus.FieldLogger) Orientation {
	onewayText := strings.TrimSpace(way.Tags.Find("oneway"))
	if onewayText == "" {
		if _, ok := junctionTypes[way.Tags.Find("junction")]; ok {
			return ORIENTATION_FORWARD
		}
		return ORIENTATION_BOTH
	}
	switch onewayText {
	case "yes", "1", "true", "-1", "reverse":
		return orientationFromOneway(onewayText)
	case "no", "0", "false":
		return ORIENTATION_BOTH
	}
	// Reversible or alternating ways depend on time conditions
	if _, found := onewayReversible[onewayText]; !found {
		logger.WithField("way", way.ID).Warnf("Unhandled `oneway` tag value has been met: '%s'", onewayText)
	}
	return ORIENTATION_BOTH
}

// buildOSMNetwork splits ways at nodes used more than once and converts segments into arcs
func buildOSMNetwork(name string, ways []osmWay, coordinates map[osm.NodeID]orb.Point, useCount map[osm.NodeID]int) (*Network, error) {
	net := NewNetwork(name, HaversineMetric)
	nodes := make(map[osm.NodeID]NodeID)
	nodeOf := func(osmNodeID osm.NodeID) (NodeID, error) {
		if nodeID, ok := nodes[osmNodeID]; ok {
			return nodeID, nil
		}
		node, err := net.AddNodeWithExternalID(fmt.Sprintf("%d", osmNodeID), coordinates[osmNodeID])
		if err != nil {
			return 0, err
		}
		nodes[osmNodeID] = node.ID
		return node.ID, nil
	}
	for _, way := range ways {
		for _, osmNodeID := range way.Nodes {
			if _, ok := coordinates[osmNodeID]; !ok {
				return nil, fmt.Errorf("No such node '%d'. Way ID: '%d'", osmNodeID, way.ID)
			}
		}
		segment := 0
		source := way.Nodes[0]
		geom := orb.LineString{coordinates[source]}
		for i := 1; i < len(way.Nodes); i++ {
			osmNodeID := way.Nodes[i]
			geom = append(geom, coordinates[osmNodeID])
			if useCount[osmNodeID] < 2 && i != len(way.Nodes)-1 {
				continue
			}
			sourceNodeID, err := nodeOf(source)
			if err != nil {
				return nil, errors.Wrapf(err, "Way %d", way.ID)
			}
			targetNodeID, err := nodeOf(osmNodeID)
			if err != nil {
				return nil, errors.Wrapf(err, "Way %d", way.ID)
			}
			externalID := fmt.Sprintf("%d_%d", way.ID, segment)
			_, err = net.AddArcWithExternalID(externalID, sourceNodeID, targetNodeID, geom, way.orientation)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't add segment %d of way %d", segment, way.ID)
			}
			segment++
			source = osmNodeID
			geom = orb.LineString{coordinates[osmNodeID]}
		}
	}
	return net, nil
}
