package netmatch

import (
	"errors"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

const testNetworkGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "id": "n1", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {}},
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [10, 0]]}, "properties": {"id": "a1", "oneway": "yes"}},
		{"type": "Feature", "id": 7, "geometry": {"type": "LineString", "coordinates": [[10, 0], [10, 10]]}, "properties": {"oneway": -1}},
		{"type": "Feature", "id": "m", "geometry": {"type": "MultiLineString", "coordinates": [[[10, 10], [20, 10]], [[20, 10], [20, 20]]]}, "properties": null},
		{"type": "Feature", "id": "p", "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}, "properties": {}}
	]
}`

func TestReadGeoJSONNetwork(t *testing.T) {
	net, err := ReadGeoJSONNetwork(strings.NewReader(testNetworkGeoJSON), "test", NewParameters())
	require.NoError(t, err)

	if net.NumNodes() != 5 {
		t.Errorf("Number of nodes must be %d, but got %d", 5, net.NumNodes())
	}
	if net.NumArcs() != 4 {
		t.Errorf("Number of arcs must be %d, but got %d", 4, net.NumArcs())
	}

	node, ok := net.NodeByExternalID("n1")
	require.True(t, ok)

	tests := []struct {
		id          string
		orientation Orientation
		length      float64
	}{
		{"a1", ORIENTATION_FORWARD, 10},
		{"7", ORIENTATION_BACKWARD, 10},
		{"m_0", ORIENTATION_BOTH, 10},
		{"m_1", ORIENTATION_BOTH, 10},
	}
	for _, tc := range tests {
		arc, ok := net.ArcByExternalID(tc.id)
		require.True(t, ok, tc.id)
		if arc.Orientation() != tc.orientation {
			t.Errorf("Orientation of arc '%s' must be %s, but got %s", tc.id, tc.orientation, arc.Orientation())
		}
		if arc.Length() != tc.length {
			t.Errorf("Length of arc '%s' must be %f, but got %f", tc.id, tc.length, arc.Length())
		}
	}

	a1, _ := net.ArcByExternalID("a1")
	require.Equal(t, node.ID, a1.Source())
	m0, _ := net.ArcByExternalID("m_0")
	m1, _ := net.ArcByExternalID("m_1")
	require.Equal(t, m0.Target(), m1.Source())
}

func TestReadGeoJSONNetworkErrors(t *testing.T) {
	_, err := ReadGeoJSONNetwork(strings.NewReader(`{"type": "FeatureCollection", "features": [`), "broken", nil)
	require.Error(t, err)

	_, err = ReadGeoJSONNetwork(strings.NewReader(`{"type": "FeatureCollection", "features": [
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0]]}, "properties": {}}
	]}`), "short", nil)
	require.Error(t, err)
}

func TestReadGeoJSONNetworkIdentifiers(t *testing.T) {
	// Numeric identifiers next to features without identifier
	data := `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "id": "2", "geometry": {"type": "Point", "coordinates": [50, 50]}, "properties": {}},
		{"type": "Feature", "id": "p", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {}},
		{"type": "Feature", "id": "q", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {}},
		{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [10, 0]]}, "properties": {}},
		{"type": "Feature", "id": "0", "geometry": {"type": "LineString", "coordinates": [[10, 0], [20, 0]]}, "properties": {}}
	]}`
	net, err := ReadGeoJSONNetwork(strings.NewReader(data), "numeric", NewParameters())
	require.NoError(t, err)
	require.Equal(t, 4, net.NumNodes())
	require.Equal(t, 2, net.NumArcs())

	explicit, ok := net.NodeByExternalID("2")
	require.True(t, ok)
	require.Equal(t, orb.Point{50, 50}, explicit.Point())

	// Second point at the same position is an alias of the first one
	p, ok := net.NodeByExternalID("p")
	require.True(t, ok)
	q, ok := net.NodeByExternalID("q")
	require.True(t, ok)
	require.Equal(t, p.ID, q.ID)
	require.Equal(t, "p", q.ExternalID())

	named, ok := net.ArcByExternalID("0")
	require.True(t, ok)
	require.Equal(t, orb.LineString{{10, 0}, {20, 0}}, named.Geom())
	for _, arc := range net.Arcs() {
		found, ok := net.ArcByExternalID(arc.ExternalID())
		if !ok || found.ID != arc.ID {
			t.Errorf("Arc %d must be found by its external identifier '%s'", arc.ID, arc.ExternalID())
		}
		if arc.ID != named.ID && !strings.HasPrefix(arc.ExternalID(), "~") {
			t.Errorf("Arc without identifier must get generated one, but got '%s'", arc.ExternalID())
		}
	}
	for _, node := range net.Nodes() {
		found, ok := net.NodeByExternalID(node.ExternalID())
		if !ok || found.ID != node.ID {
			t.Errorf("Node %d must be found by its external identifier '%s'", node.ID, node.ExternalID())
		}
	}

	unnamed, _ := net.Arc(0)
	require.Equal(t, p.ID, unnamed.Source())
	require.Equal(t, unnamed.Target(), named.Source())
}

func TestReadGeoJSONNetworkDuplicateIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		data string
		err  error
	}{
		{
			"same line identifier",
			`{"type": "FeatureCollection", "features": [
				{"type": "Feature", "id": 5, "geometry": {"type": "LineString", "coordinates": [[0, 0], [10, 0]]}, "properties": {}},
				{"type": "Feature", "id": "5", "geometry": {"type": "LineString", "coordinates": [[10, 0], [20, 0]]}, "properties": {}}
			]}`,
			ErrDuplicateExternalID,
		},
		{
			"same point identifier",
			`{"type": "FeatureCollection", "features": [
				{"type": "Feature", "id": "n", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {}},
				{"type": "Feature", "id": "n", "geometry": {"type": "Point", "coordinates": [10, 0]}, "properties": {}}
			]}`,
			ErrDuplicateExternalID,
		},
		{
			"alias taken by another node",
			`{"type": "FeatureCollection", "features": [
				{"type": "Feature", "id": "a", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {}},
				{"type": "Feature", "id": "b", "geometry": {"type": "Point", "coordinates": [10, 0]}, "properties": {}},
				{"type": "Feature", "id": "b", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {}}
			]}`,
			ErrDuplicateExternalID,
		},
		{
			"generated identifier form",
			`{"type": "FeatureCollection", "features": [
				{"type": "Feature", "id": "~0", "geometry": {"type": "LineString", "coordinates": [[0, 0], [10, 0]]}, "properties": {}}
			]}`,
			ErrReservedExternalID,
		},
	}
	for _, tc := range tests {
		_, err := ReadGeoJSONNetwork(strings.NewReader(tc.data), tc.name, nil)
		if !errors.Is(err, tc.err) {
			t.Errorf("%s: error must be '%v', but got '%v'", tc.name, tc.err, err)
		}
	}
}

func TestPrepareGeoJSONLinestring(t *testing.T) {
	str, err := PrepareGeoJSONLinestring(orb.LineString{{1, 2}, {3, 4}})
	require.NoError(t, err)
	require.JSONEq(t, `{"type": "LineString", "coordinates": [[1, 2], [3, 4]]}`, str)
}
