package netmatch

import (
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// ReadGeoJSONNetwork builds network from GeoJSON FeatureCollection.
// Point features become explicit nodes, LineString and MultiLineString features become arcs.
// Arc orientation is taken from 'oneway' property
func ReadGeoJSONNetwork(r io.Reader, name string, params *Parameters) (*Network, error) {
	if params == nil {
		params = NewParameters()
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "Can't read GeoJSON")
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, errors.Wrap(err, "Can't unmarshal FeatureCollection")
	}
	builder := NewNetworkBuilder(name, params.Metric(), params.NodeMergeTolerance)

	// Explicit nodes go first, so line endpoints snap to them
	for i, feature := range fc.Features {
		if feature.Geometry == nil || !feature.Geometry.IsPoint() {
			continue
		}
		pt, err := pointFromCoordinates(feature.Geometry.Point)
		if err != nil {
			return nil, errors.Wrapf(err, "Feature #%d", i)
		}
		_, err = builder.AddNode(featureID(feature), pt)
		if err != nil {
			return nil, errors.Wrapf(err, "Feature #%d", i)
		}
	}

	for i, feature := range fc.Features {
		if feature.Geometry == nil {
			continue
		}
		id := featureID(feature)
		orientation := orientationFromOneway(propertyString(feature, "oneway"))
		switch {
		case feature.Geometry.IsLineString():
			_, err = builder.AddLine(id, lineFromCoordinates(feature.Geometry.LineString), orientation)
			if err != nil {
				return nil, errors.Wrapf(err, "Feature #%d", i)
			}
		case feature.Geometry.IsMultiLineString():
			for part, coordinates := range feature.Geometry.MultiLineString {
				partID := ""
				if id != "" {
					partID = fmt.Sprintf("%s_%d", id, part)
				}
				_, err = builder.AddLine(partID, lineFromCoordinates(coordinates), orientation)
				if err != nil {
					return nil, errors.Wrapf(err, "Feature #%d, part %d", i, part)
				}
			}
		}
	}
	return builder.Network(), nil
}

// featureID returns identifier of feature or its 'id' property. Empty string if there is neither
func featureID(feature *geojson.Feature) string {
	if feature.ID != nil {
		return strings.TrimSpace(fmt.Sprint(feature.ID))
	}
	return propertyString(feature, "id")
}

func propertyString(feature *geojson.Feature, name string) string {
	value, ok := feature.Properties[name]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(value))
}

func pointFromCoordinates(coordinates []float64) (orb.Point, error) {
	if len(coordinates) < 2 {
		return orb.Point{}, fmt.Errorf("Point has %d coordinates, at least 2 expected", len(coordinates))
	}
	return orb.Point{coordinates[0], coordinates[1]}, nil
}

func lineFromCoordinates(coordinates [][]float64) orb.LineString {
	line := make(orb.LineString, 0, len(coordinates))
	for _, pt := range coordinates {
		if len(pt) < 2 {
			continue
		}
		line = append(line, orb.Point{pt[0], pt[1]})
	}
	return line
}

func coordinatesFromLine(line orb.LineString) [][]float64 {
	coordinates := make([][]float64, len(line))
	for i := range line {
		coordinates[i] = []float64{line[i][0], line[i][1]}
	}
	return coordinates
}

// PrepareGeoJSONLinestring returns GeoJSON representation of LineString
func PrepareGeoJSONLinestring(line orb.LineString) (string, error) {
	b, err := geojson.NewLineStringGeometry(coordinatesFromLine(line)).MarshalJSON()
	if err != nil {
		return "", errors.Wrap(err, "Can't convert geometry to geojson format")
	}
	return string(b), nil
}
