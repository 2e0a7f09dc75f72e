package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/LdDl/netmatch"
	"github.com/sirupsen/logrus"
)

var (
	refFileName   = flag.String("ref", "reference.geojson", "Filename of reference network: GeoJSON (*.geojson, *.json) or OSM (*.osm, *.xml, *.osm.pbf)")
	compFileName  = flag.String("comp", "comparison.geojson", "Filename of comparison network: GeoJSON (*.geojson, *.json) or OSM (*.osm, *.xml, *.osm.pbf)")
	linksFileName = flag.String("links", "links.csv", "Filename of pre-matching links (';' separated). Header: ref_type;ref_id;comp_type;comp_id;relevant;tag")
	configName    = flag.String("config", "", "Path to TOML file with matching parameters. Flags set explicitly override it")
	out           = flag.String("out", "matching.csv", "Filename of 'Comma-Separated Values' (CSV) formatted file. E.g.: if file name is 'map.csv' then 2 files will be produced: 'map_node_matches.csv', 'map_arc_matches.csv'")
	geojsonOut    = flag.String("geojson", "", "Optional filename for GeoJSON FeatureCollection of matched arcs")
	exportNets    = flag.Bool("export-networks", false, "Export both networks with match results as well")
	entityName    = flag.String("entity", "highway", "OSM tag which ways must have")
	tagStr        = flag.String("tags", "motorway,motorway_link,trunk,trunk_link,primary,primary_link,secondary,secondary_link,tertiary,tertiary_link,residential,unclassified,road,living_street,service", "Set of needed values of OSM tag (separated by commas). Empty means any value")
	geographic    = flag.Bool("geographic", false, "Coordinates of GeoJSON networks are WGS84 longitude/latitude")
	workers       = flag.Int("workers", 0, "Number of workers. Zero means number of CPUs")
	maxPathLength = flag.Float64("max-path", 0, "Cutoff for shortest paths of arc matching. Zero means no cutoff")
	distNodesMax  = flag.Float64("dist-nodes", 50, "Maximum distance between ends of matched path and reference arc")
	mergeTol      = flag.Float64("merge", 0.1, "Line endpoints closer than that are merged into one node")
	simplifyTol   = flag.Float64("simplify", 0, "Douglas-Peucker tolerance for exported polylines. Zero disables simplification")
	verbose       = flag.Bool("verbose", false, "Log each matched element")
)

func init() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableSorting:  true,
	})
}

func main() {
	flag.Parse()
	logger := logrus.StandardLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	params, err := prepareParameters()
	if err != nil {
		logger.WithError(err).Fatal("Can't prepare parameters")
	}
	logger.Info(params)

	cfg := &netmatch.OsmConfiguration{
		EntityName: *entityName,
		Tags:       []string{},
	}
	if *tagStr != "" {
		cfg.Tags = strings.Split(*tagStr, ",")
	}

	reference, err := netmatch.ReadNetworkFile(*refFileName, params, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Can't read reference network")
	}
	comparison, err := netmatch.ReadNetworkFile(*compFileName, params, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Can't read comparison network")
	}

	linksFile, err := os.Open(*linksFileName)
	if err != nil {
		logger.WithError(err).Fatal("Can't open links file")
	}
	links, err := netmatch.ReadLinksCSV(linksFile, reference, comparison)
	linksFile.Close()
	if err != nil {
		logger.WithError(err).Fatal("Can't read links")
	}
	logger.WithFields(logrus.Fields{"links": len(links.Links()), "relevant": len(links.Relevant())}).Info("Links have been loaded")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	matcher := netmatch.NewMatcher(links, netmatch.WithParameters(params), netmatch.WithLogger(logger))
	result, err := matcher.Run(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Can't match networks")
	}
	stats := result.Stats()
	logger.WithFields(logrus.Fields{
		"nodes_matched":   stats.NodesMatched,
		"nodes_uncertain": stats.NodesUncertain,
		"nodes_unmatched": stats.NodesUnmatched,
		"arcs_matched":    stats.ArcsMatched,
		"arcs_uncertain":  stats.ArcsUncertain,
		"arcs_unmatched":  stats.ArcsUnmatched,
	}).Info("Networks have been matched")

	err = result.ExportToCSV(*out, params)
	if err != nil {
		logger.WithError(err).Fatal("Can't export matching result")
	}
	if *geojsonOut != "" {
		file, err := os.Create(*geojsonOut)
		if err != nil {
			logger.WithError(err).Fatal("Can't create GeoJSON file")
		}
		err = result.ExportGeoJSON(file, params)
		file.Close()
		if err != nil {
			logger.WithError(err).Fatal("Can't export GeoJSON")
		}
	}
	if *exportNets {
		fnamePart := strings.Split(*out, ".csv")
		err = reference.ExportToCSV(fnamePart[0] + "_reference.csv")
		if err != nil {
			logger.WithError(err).Fatal("Can't export reference network")
		}
		err = comparison.ExportToCSV(fnamePart[0] + "_comparison.csv")
		if err != nil {
			logger.WithError(err).Fatal("Can't export comparison network")
		}
	}
	logger.Info("Done")
}

// prepareParameters reads TOML file when given and applies flags which have been set explicitly
func prepareParameters() (*netmatch.Parameters, error) {
	params := netmatch.NewParameters()
	if *configName != "" {
		var err error
		params, err = netmatch.ReadParametersFile(os.ExpandEnv(*configName))
		if err != nil {
			return nil, err
		}
	}
	options := []func(*netmatch.Parameters){}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "geographic":
			options = append(options, netmatch.WithGeographic(*geographic))
		case "workers":
			options = append(options, netmatch.WithWorkers(*workers))
		case "max-path":
			options = append(options, netmatch.WithMaxPathLength(*maxPathLength))
		case "dist-nodes":
			options = append(options, netmatch.WithDistanceNodesMax(*distNodesMax))
		case "merge":
			options = append(options, netmatch.WithNodeMergeTolerance(*mergeTol))
		case "simplify":
			options = append(options, netmatch.WithSimplifyTolerance(*simplifyTol))
		}
	})
	for _, option := range options {
		option(params)
	}
	return params, params.Validate()
}
