package netmatch

var (
	junctionTypes = map[string]struct{}{
		"circular":   {},
		"roundabout": {},
	}

	// Highway values which never form a part of road network
	negligibleHighwayTags = map[string]struct{}{
		"path":         {},
		"construction": {},
		"proposed":     {},
		"raceway":      {},
		"bridleway":    {},
		"rest_area":    {},
		"abandoned":    {},
		"planned":      {},
		"trailhead":    {},
		"stairs":       {},
		"dismantled":   {},
		"disused":      {},
		"razed":        {},
		"corridor":     {},
		"stop":         {},
		"bus_stop":     {},
		"platform":     {},
	}

	// See ref.: https://wiki.openstreetmap.org/wiki/Tag:oneway%3Dreversible
	onewayReversible = map[string]struct{}{
		"reversible":  {},
		"alternating": {},
	}
)
