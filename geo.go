package netmatch

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	earthR = 20037508.34
)

func epsg4326To3857(lon, lat float64) (float64, float64) {
	x := lon * earthR / 180
	y := math.Log(math.Tan((90+lat)*math.Pi/360)) / (math.Pi / 180)
	y = y * earthR / 180
	return x, y
}

// pointToEuclidean projects WGS84 point to Web Mercator (meters)
func pointToEuclidean(pt orb.Point) orb.Point {
	euclideanX, euclideanY := epsg4326To3857(pt.Lon(), pt.Lat())
	return orb.Point{euclideanX, euclideanY}
}

// projectionFor returns function which maps coordinates of a network to plane where snapping tolerance is measured
func projectionFor(metric Metric) func(orb.Point) orb.Point {
	if metric == HaversineMetric {
		return pointToEuclidean
	}
	return func(pt orb.Point) orb.Point {
		return pt
	}
}
