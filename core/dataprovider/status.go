package dataprovider

// Status is the pass state of a provider.
type Status int

const (
	StatusReady Status = iota
	StatusRefreshing
	StatusSyncing
	StatusDoneOK
	StatusDoneError
	StatusDoneConflict
	StatusDoneSkipped
	StatusDoneCancelled
	StatusNotConfigured
)

var statusNames = map[Status]string{
	StatusReady:         "ready",
	StatusRefreshing:    "refreshing",
	StatusSyncing:       "syncing",
	StatusDoneOK:        "done-ok",
	StatusDoneError:     "done-error",
	StatusDoneConflict:  "done-conflict",
	StatusDoneSkipped:   "done-skipped",
	StatusDoneCancelled: "done-cancelled",
	StatusNotConfigured: "not-configured",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalText lets statuses render as names in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsDone reports whether s is one of the terminal Done-* states.
func (s Status) IsDone() bool {
	switch s {
	case StatusDoneOK, StatusDoneError, StatusDoneConflict, StatusDoneSkipped, StatusDoneCancelled:
		return true
	}
	return false
}

// FinishStatus maps the outcome flags passed to Finish onto a terminal state.
func FinishStatus(aborted, errored, conflicted bool) Status {
	switch {
	case aborted && errored:
		return StatusDoneError
	case aborted:
		return StatusDoneCancelled
	case errored:
		return StatusDoneError
	case conflicted:
		return StatusDoneConflict
	default:
		return StatusDoneOK
	}
}

// canTransition encodes the pass state machine.
func canTransition(from, to Status) bool {
	switch to {
	case StatusReady:
		return from == StatusReady || from.IsDone() || from == StatusNotConfigured
	case StatusRefreshing:
		return from == StatusReady || from == StatusRefreshing
	case StatusSyncing:
		return from == StatusRefreshing || from == StatusSyncing
	case StatusNotConfigured:
		return true
	}
	if to.IsDone() {
		return from == StatusReady || from == StatusRefreshing || from == StatusSyncing
	}
	return false
}
