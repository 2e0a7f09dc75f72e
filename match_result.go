package netmatch

// MatchResult is the tag stored on arcs, nodes and groups at the end of matching
type MatchResult uint16

const (
	RESULT_UNKNOWN = MatchResult(iota)
	RESULT_MATCHED
	RESULT_UNCERTAIN
	RESULT_UNMATCHED
)

func (iotaIdx MatchResult) String() string {
	return [...]string{"unknown", "matched", "uncertain", "unmatched"}[iotaIdx]
}

// Communication is the classification of a reference node against a group of comparison network
type Communication int8

const (
	COMMUNICATION_NONE       = Communication(-1)
	COMMUNICATION_INCOMPLETE = Communication(0)
	COMMUNICATION_COMPLETE   = Communication(1)
)

func (iotaIdx Communication) String() string {
	return [...]string{"none", "incomplete", "complete"}[iotaIdx+1]
}

// resultByCommunication converts classification of a filtered group into match result
func resultByCommunication(communication Communication) MatchResult {
	switch communication {
	case COMMUNICATION_COMPLETE:
		return RESULT_MATCHED
	case COMMUNICATION_INCOMPLETE:
		return RESULT_UNCERTAIN
	default:
		return RESULT_UNMATCHED
	}
}
