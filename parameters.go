package netmatch

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Parameters of network matching
type Parameters struct {
	// Thresholds of the pre-matching stage. Only DistanceNodesMax is used by the matcher itself
	DistanceNodesMax float64 `toml:"distance_nodes_max"`
	DistanceArcsMin  float64 `toml:"distance_arcs_min"`
	DistanceArcsMax  float64 `toml:"distance_arcs_max"`
	// Cutoff for shortest paths of the arc matching phase. Zero means no cutoff
	MaxPathLength float64 `toml:"max_path_length"`
	// Line endpoints closer than that are merged into one node
	NodeMergeTolerance float64 `toml:"node_merge_tolerance"`
	// Coordinates are WGS84 longitude/latitude
	Geographic        bool    `toml:"geographic"`
	Workers           int     `toml:"workers"`
	SimplifyTolerance float64 `toml:"simplify_tolerance"`
}

func (params *Parameters) String() string {
	return fmt.Sprintf(`
Matching parameters:
	distance_nodes_max: %f
	distance_arcs_min: %f
	distance_arcs_max: %f
	max_path_length: %f
	node_merge_tolerance: %f
	geographic: %t
	workers: %d
	simplify_tolerance: %f
	`,
		params.DistanceNodesMax,
		params.DistanceArcsMin,
		params.DistanceArcsMax,
		params.MaxPathLength,
		params.NodeMergeTolerance,
		params.Geographic,
		params.Workers,
		params.SimplifyTolerance,
	)
}

// NewParameters returns default parameters modified by given options
func NewParameters(options ...func(*Parameters)) *Parameters {
	params := &Parameters{
		DistanceNodesMax:   50,
		DistanceArcsMin:    10,
		DistanceArcsMax:    25,
		MaxPathLength:      0,
		NodeMergeTolerance: 0.1,
		Geographic:         false,
		Workers:            runtime.NumCPU(),
		SimplifyTolerance:  0,
	}
	for _, option := range options {
		option(params)
	}
	return params
}

func WithDistanceNodesMax(distance float64) func(*Parameters) {
	return func(params *Parameters) {
		params.DistanceNodesMax = distance
	}
}

func WithDistanceArcs(min, max float64) func(*Parameters) {
	return func(params *Parameters) {
		params.DistanceArcsMin = min
		params.DistanceArcsMax = max
	}
}

func WithMaxPathLength(maxLength float64) func(*Parameters) {
	return func(params *Parameters) {
		params.MaxPathLength = maxLength
	}
}

func WithNodeMergeTolerance(tolerance float64) func(*Parameters) {
	return func(params *Parameters) {
		params.NodeMergeTolerance = tolerance
	}
}

func WithGeographic(geographic bool) func(*Parameters) {
	return func(params *Parameters) {
		params.Geographic = geographic
	}
}

// WithWorkers sets size of worker pool. Non-positive value means number of CPUs
func WithWorkers(workers int) func(*Parameters) {
	return func(params *Parameters) {
		if workers <= 0 {
			workers = runtime.NumCPU()
		}
		params.Workers = workers
	}
}

func WithSimplifyTolerance(tolerance float64) func(*Parameters) {
	return func(params *Parameters) {
		params.SimplifyTolerance = tolerance
	}
}

// Metric returns geometry capability matching kind of coordinates
func (params *Parameters) Metric() Metric {
	return metricFor(params.Geographic)
}

// Validate checks that thresholds make sense
func (params *Parameters) Validate() error {
	if params.DistanceNodesMax < 0 {
		return fmt.Errorf("distance_nodes_max must be non-negative, but got %f", params.DistanceNodesMax)
	}
	if params.DistanceArcsMin < 0 || params.DistanceArcsMax < params.DistanceArcsMin {
		return fmt.Errorf("distance_arcs_min and distance_arcs_max must satisfy 0 <= min <= max, but got %f and %f", params.DistanceArcsMin, params.DistanceArcsMax)
	}
	if params.NodeMergeTolerance < 0 {
		return fmt.Errorf("node_merge_tolerance must be non-negative, but got %f", params.NodeMergeTolerance)
	}
	if params.SimplifyTolerance < 0 {
		return fmt.Errorf("simplify_tolerance must be non-negative, but got %f", params.SimplifyTolerance)
	}
	return nil
}

// ReadParameters decodes TOML document on top of default parameters
func ReadParameters(r io.Reader) (*Parameters, error) {
	params := NewParameters()
	_, err := toml.NewDecoder(r).Decode(params)
	if err != nil {
		return nil, errors.Wrap(err, "Can't decode parameters")
	}
	if params.Workers <= 0 {
		params.Workers = runtime.NumCPU()
	}
	err = params.Validate()
	if err != nil {
		return nil, errors.Wrap(err, "Bad parameters")
	}
	return params, nil
}

// ReadParametersFile is ReadParameters for a file on disk
func ReadParametersFile(fname string) (*Parameters, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open parameters file")
	}
	defer file.Close()
	return ReadParameters(file)
}
