package session

import "github.com/mkymd/voiceroom/internal/app/notification"

// Gateway joins and leaves the call room. Join and Leave must return
// promptly: outcomes are delivered through GatewayHandler callbacks.
// Leave is safe to call when no room is held.
type Gateway interface {
	Join(name, attempt string)
	Leave()
}

// GatewayHandler receives asynchronous gateway outcomes. The attempt
// token correlates a callback with the join attempt that caused it;
// callbacks carrying a token the controller no longer holds are
// discarded.
type GatewayHandler interface {
	HandleConnected(attempt string)
	HandleError(attempt, reason string)
	HandleDisconnected(attempt string)
}

// Notifier is the user-visible notification surface. Pushes are
// fire-and-forget.
type Notifier interface {
	Push(message string, severity notification.Severity)
}

// AudioGate arms audio output after an explicit user gesture and
// releases it on teardown.
type AudioGate interface {
	Enable() error
	Release()
}
