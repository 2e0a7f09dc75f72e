package netmatch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ReadNetworkFile builds network from GeoJSON (*.geojson, *.json) or OSM (*.osm, *.xml, *.pbf) file
func ReadNetworkFile(filename string, params *Parameters, cfg *OsmConfiguration, logger logrus.FieldLogger) (*Network, error) {
	if params == nil {
		params = NewParameters()
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".geojson", ".json":
		file, err := os.Open(filename)
		if err != nil {
			return nil, errors.Wrap(err, "File open")
		}
		defer file.Close()
		net, err := ReadGeoJSONNetwork(file, filepath.Base(filename), params)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't read network from '%s'", filename)
		}
		logger.WithFields(logrus.Fields{"network": net.Name(), "nodes": net.NumNodes(), "arcs": net.NumArcs()}).Info("Network has been prepared")
		return net, nil
	default:
		net, err := ReadOSMNetwork(filename, cfg, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't read network from '%s'", filename)
		}
		return net, nil
	}
}
