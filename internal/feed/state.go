package feed

// State is the tri-state progress signal returned by each Read step. It
// drives the caller's poll loop: keep polling on StateReading, stop on either
// terminal state.
type State uint8

const (
	// StateReading means more data may become available; poll again.
	StateReading State = iota
	// StateFinished means the source is exhausted. Terminal: no further
	// call produces data until the next Start.
	StateFinished
	// StateFailed means an unrecoverable error occurred. Terminal: any
	// network resources are already released when this is observed.
	StateFailed
)

// String returns the state name for logs and metrics labels.
func (s State) String() string {
	switch s {
	case StateReading:
		return "reading"
	case StateFinished:
		return "finished"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
