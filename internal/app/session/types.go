// Package session provides the call session lifecycle controller.
package session

// Phase represents the session lifecycle phase.
type Phase int

const (
	PhaseIdle         Phase = iota // No session, form not shown
	PhaseAwaitingName              // Waiting for the user to submit a name
	PhaseConnecting                // Join request outstanding at the gateway
	PhaseActive                    // In the call
	PhaseEnding                    // Teardown in progress
	PhaseErrored                   // Failed, waiting for user retry
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingName:
		return "awaiting_name"
	case PhaseConnecting:
		return "connecting"
	case PhaseActive:
		return "active"
	case PhaseEnding:
		return "ending"
	case PhaseErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only copy of the session state for rendering.
type Snapshot struct {
	Phase           Phase
	ParticipantName string // Non-empty while connecting, active or ending
	LastError       error  // Non-nil exactly while errored
	AudioEnabled    bool
	Attempt         string // Current join attempt token, empty outside a session
}
