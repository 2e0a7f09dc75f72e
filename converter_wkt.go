package netmatch

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/simplify"
)

// PrepareWKTLinestring returns WKT representation of LineString. Empty line gives empty string
func PrepareWKTLinestring(line orb.LineString) string {
	if len(line) == 0 {
		return ""
	}
	return wkt.MarshalString(line)
}

// PrepareWKTPoint returns WKT representation of Point
func PrepareWKTPoint(pt orb.Point) string {
	return wkt.MarshalString(pt)
}

// simplifyLine applies Douglas-Peucker simplification. Non-positive threshold keeps the line as is
func simplifyLine(line orb.LineString, threshold float64) orb.LineString {
	if threshold <= 0 || len(line) < 3 {
		return line
	}
	simplified, ok := simplify.DouglasPeucker(threshold).Simplify(line.Clone()).(orb.LineString)
	if !ok {
		return line
	}
	return simplified
}
