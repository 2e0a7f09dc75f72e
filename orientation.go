package netmatch

import "strings"

// Orientation defines in which direction an arc can be traversed
type Orientation uint16

const (
	ORIENTATION_BOTH = Orientation(iota + 1)
	ORIENTATION_FORWARD
	ORIENTATION_BACKWARD
)

func (iotaIdx Orientation) String() string {
	return [...]string{"both", "forward", "backward"}[iotaIdx-1]
}

// allowsForward returns true if arc can be traversed from its source node to its target node
func (iotaIdx Orientation) allowsForward() bool {
	return iotaIdx == ORIENTATION_BOTH || iotaIdx == ORIENTATION_FORWARD
}

// allowsBackward returns true if arc can be traversed from its target node to its source node
func (iotaIdx Orientation) allowsBackward() bool {
	return iotaIdx == ORIENTATION_BOTH || iotaIdx == ORIENTATION_BACKWARD
}

// orientationFromOneway parses value of `oneway` tag (or property)
func orientationFromOneway(onewayText string) Orientation {
	switch strings.ToLower(strings.TrimSpace(onewayText)) {
	case "yes", "1", "true":
		return ORIENTATION_FORWARD
	case "-1", "reverse":
		return ORIENTATION_BACKWARD
	default:
		return ORIENTATION_BOTH
	}
}
