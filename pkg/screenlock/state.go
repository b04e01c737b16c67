package screenlock

// State is what the lock windows show.
type State int

const (
	// Init is shown before any input.
	Init State = iota
	// Input is shown while the password buffer is not empty.
	Input
	// Failed is shown with an empty buffer after a wrong password, or after any clear when
	// configured to do so.
	Failed

	NumStates
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Input:
		return "input"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// ComputeState derives the State from the buffer length, whether a submission failed
// before, and the fail-on-clear setting.
func ComputeState(bufferLen int, failure bool, failOnClear bool) State {
	switch {
	case bufferLen > 0:
		return Input
	case failure || failOnClear:
		return Failed
	default:
		return Init
	}
}
