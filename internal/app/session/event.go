package session

// EventType represents a session event type.
type EventType int

const (
	EventPhaseChanged EventType = iota // Session moved to a new phase
	EventAudioEnabled                  // Audio output was armed by the user
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventPhaseChanged:
		return "phase_changed"
	case EventAudioEnabled:
		return "audio_enabled"
	default:
		return "unknown"
	}
}

// Event notifies observers of a session change.
type Event struct {
	Type  EventType
	Phase Phase // Phase after the change
	Err   error // Set when the change entered the errored phase
}
