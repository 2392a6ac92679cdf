package collector

// State is a step in the lifecycle of one collection run.
type State int

const (
	StateNotStarted State = iota
	StateGridGenerated
	StateRunning
	StateCheckpointed
	StateCompleted
	StateInterrupted
)

var stateNames = map[State]string{
	StateNotStarted:    "not_started",
	StateGridGenerated: "grid_generated",
	StateRunning:       "running",
	StateCheckpointed:  "checkpointed",
	StateCompleted:     "completed",
	StateInterrupted:   "interrupted",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// MarshalText renders the state by name in JSON output.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the run has exited.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateInterrupted
}
