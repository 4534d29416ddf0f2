package runner

// State is the position of one device in a download cycle.
type State string

const (
	StatePending   State = "PENDING"
	StateFetching  State = "FETCHING"
	StateResolving State = "RESOLVING"
	StateStoring   State = "STORING"
	StateOK        State = "OK"
	StateFailed    State = "FAILED"
)

// Terminal reports whether no further transition can follow s.
func (s State) Terminal() bool {
	return s == StateOK || s == StateFailed
}
