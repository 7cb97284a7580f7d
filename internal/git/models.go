package git

// State is the lifecycle state of a cache directory.
type State string

const (
	StateAbsent   State = "absent"
	StateCloning  State = "cloning"
	StatePresent  State = "present"
	StateFetching State = "fetching"
	StateFailed   State = "failed"
)

// Transition returns the in-flight state entered when syncing from s.
func (s State) Transition() State {
	if s == StatePresent {
		return StateFetching
	}
	return StateCloning
}

// InFlight reports whether s is a state a finished run never leaves behind.
func (s State) InFlight() bool {
	return s == StateCloning || s == StateFetching
}
