package supervisor

// State is the lifecycle state of a run session.
type State string

// Run session states.
const (
	StateStopped State = "stopped"
	StateRunning State = "running"
	StatePaused  State = "paused"
)

var transitions = map[State][]State{
	StateStopped: {StateRunning},
	StateRunning: {StatePaused, StateStopped},
	StatePaused:  {StateRunning, StateStopped},
}

// CanTransition reports whether a session may move from s to next.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Active reports whether a process belongs to the session.
func (s State) Active() bool {
	return s == StateRunning || s == StatePaused
}

func (s State) String() string {
	return string(s)
}
