package netmatch

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// Metric is the geometry capability consumed by networks and groups
type Metric interface {
	// Distance returns distance between two points
	Distance(p, q orb.Point) float64
	// Length returns length of given polyline
	Length(line orb.LineString) float64
}

type planarMetric struct{}

func (planarMetric) Distance(p, q orb.Point) float64 {
	return planar.Distance(p, q)
}

func (planarMetric) Length(line orb.LineString) float64 {
	return planar.Length(line)
}

type haversineMetric struct{}

// Distance returns great circle distance in meters
func (haversineMetric) Distance(p, q orb.Point) float64 {
	return geo.DistanceHaversine(p, q)
}

// Length returns great circle length in meters
func (haversineMetric) Length(line orb.LineString) float64 {
	return geo.LengthHaversign(line)
}

var (
	// PlanarMetric assumes points are Euclidean: Lon == X, Lat == Y
	PlanarMetric Metric = planarMetric{}
	// HaversineMetric assumes points are WGS84 longitude/latitude pairs
	HaversineMetric Metric = haversineMetric{}
)

// metricFor picks metric for given coordinates kind
func metricFor(geographic bool) Metric {
	if geographic {
		return HaversineMetric
	}
	return PlanarMetric
}

// reverseLine reverses order of points in given line. Returns new slice
func reverseLine(pts orb.LineString) orb.LineString {
	inputLen := len(pts)
	output := make(orb.LineString, inputLen)
	for i, n := range pts {
		j := inputLen - i - 1
		output[j] = n
	}
	return output
}

// copyLine returns copy of given line
func copyLine(pts orb.LineString) orb.LineString {
	output := make(orb.LineString, len(pts))
	copy(output, pts)
	return output
}

// appendLine appends points of tail to head skipping the junction point when it is duplicated
func appendLine(head, tail orb.LineString) orb.LineString {
	if len(head) > 0 && len(tail) > 0 && head[len(head)-1].Equal(tail[0]) {
		tail = tail[1:]
	}
	return append(head, tail...)
}

// endpointsDistances returns summed distances between endpoints of two lines:
// direct is for the same direction, reversed is for opposite directions
func endpointsDistances(metric Metric, line, ref orb.LineString) (direct, reversed float64) {
	if len(line) == 0 || len(ref) == 0 {
		return math.Inf(1), math.Inf(1)
	}
	start, end := line[0], line[len(line)-1]
	refStart, refEnd := ref[0], ref[len(ref)-1]
	direct = metric.Distance(start, refStart) + metric.Distance(end, refEnd)
	reversed = metric.Distance(start, refEnd) + metric.Distance(end, refStart)
	return direct, reversed
}

// snapKey returns cell of the snapping grid for given point
func snapKey(pt orb.Point, tolerance float64) [2]int64 {
	if tolerance <= 0 {
		return [2]int64{int64(math.Float64bits(pt[0])), int64(math.Float64bits(pt[1]))}
	}
	return [2]int64{int64(math.Floor(pt[0] / tolerance)), int64(math.Floor(pt[1] / tolerance))}
}
