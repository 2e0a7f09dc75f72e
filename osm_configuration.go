package netmatch

import (
	"strings"

	"github.com/paulmach/osm"
)

// OsmConfiguration Allows to filter ways by certain tags from OSM data
type OsmConfiguration struct {
	EntityName string // E.g. 'highway' or 'waterway'
	Tags       []string
}

// DefaultOsmConfiguration returns configuration for drivable roads
func DefaultOsmConfiguration() *OsmConfiguration {
	return &OsmConfiguration{
		EntityName: "highway",
		Tags:       []string{"motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link", "secondary", "secondary_link", "tertiary", "tertiary_link", "residential", "unclassified", "road", "living_street", "service"},
	}
}

// CheckTag Checks if incoming tag is represented in configuration. Empty set of tags accepts any value
func (cfg *OsmConfiguration) CheckTag(tag string) bool {
	if len(cfg.Tags) == 0 {
		return true
	}
	for i := range cfg.Tags {
		if cfg.Tags[i] == tag {
			return true
		}
	}
	return false
}

// Accepts returns true if way should become a part of network
func (cfg *OsmConfiguration) Accepts(tags osm.Tags) bool {
	entityName := cfg.EntityName
	if entityName == "" {
		entityName = "highway"
	}
	tag := tags.Find(entityName)
	if tag == "" {
		return false
	}
	// Areas are not linear features
	if area := tags.Find("area"); area != "" && area != "no" {
		return false
	}
	tag = strings.TrimSpace(tag)
	if len(cfg.Tags) == 0 && entityName == "highway" {
		if _, ok := negligibleHighwayTags[tag]; ok {
			return false
		}
	}
	return cfg.CheckTag(tag)
}
