package orchestrator

// State is the run lifecycle. A run only moves forward; FAILED is terminal
// and a failed run is restarted with a new Orchestrator.
type State int

const (
	StateInit State = iota
	StateValidating
	StateExtracting
	StateFinalizing
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateInit:       "INIT",
	StateValidating: "VALIDATING",
	StateExtracting: "EXTRACTING",
	StateFinalizing: "FINALIZING",
	StateDone:       "DONE",
	StateFailed:     "FAILED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// next lists the legal transitions.
var next = map[State][]State{
	StateInit:       {StateValidating},
	StateValidating: {StateExtracting, StateFailed},
	StateExtracting: {StateFinalizing, StateFailed},
	StateFinalizing: {StateDone, StateFailed},
}

func (s State) canMoveTo(to State) bool {
	for _, n := range next[s] {
		if n == to {
			return true
		}
	}
	return false
}
