package domain

import "fmt"

// MonitorState is the state of a chain monitor watching one reference.
// POLLING is the only initial state; every other state is terminal and
// reachable only from POLLING.
type MonitorState string

const (
	MonitorPolling   MonitorState = "POLLING"
	MonitorConfirmed MonitorState = "CONFIRMED"
	MonitorFailed    MonitorState = "FAILED"
	MonitorTimedOut  MonitorState = "TIMED_OUT"
	MonitorAborted   MonitorState = "ABORTED"
)

func (s MonitorState) IsTerminal() bool {
	return s != MonitorPolling
}

// AttemptStatus maps a terminal monitor state onto the persisted attempt status.
func (s MonitorState) AttemptStatus() AttemptStatus {
	switch s {
	case MonitorConfirmed:
		return AttemptStatusConfirmed
	case MonitorFailed:
		return AttemptStatusFailed
	case MonitorTimedOut:
		return AttemptStatusTimedOut
	case MonitorAborted:
		return AttemptStatusAborted
	default:
		return AttemptStatusPending
	}
}

// MonitorEvent is the outcome of one poll tick, or an external signal.
type MonitorEvent string

const (
	EventNotFound        MonitorEvent = "NOT_FOUND"        // no transaction references the key yet
	EventMatched         MonitorEvent = "MATCHED"          // found and validated
	EventRejected        MonitorEvent = "REJECTED"         // found but recipient/amount/mint mismatch
	EventLookupFailed    MonitorEvent = "LOOKUP_FAILED"    // ledger error other than not-found
	EventBudgetExhausted MonitorEvent = "BUDGET_EXHAUSTED" // attempt budget used up
	EventAborted         MonitorEvent = "ABORTED"          // caller cancelled
)

// ErrMonitorTerminal is returned when an event arrives after a terminal state.
var ErrMonitorTerminal = fmt.Errorf("monitor already in a terminal state")

// NextMonitorState is the monitor transition function.
func NextMonitorState(s MonitorState, e MonitorEvent) (MonitorState, error) {
	if s.IsTerminal() {
		return s, fmt.Errorf("%w: %s on %s", ErrMonitorTerminal, e, s)
	}
	switch e {
	case EventNotFound:
		return MonitorPolling, nil
	case EventMatched:
		return MonitorConfirmed, nil
	case EventRejected, EventLookupFailed:
		return MonitorFailed, nil
	case EventBudgetExhausted:
		return MonitorTimedOut, nil
	case EventAborted:
		return MonitorAborted, nil
	default:
		return s, fmt.Errorf("unknown monitor event %q", e)
	}
}
