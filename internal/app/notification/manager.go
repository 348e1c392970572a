// Package notification provides the user-facing notification surface.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a notice for rendering.
type Severity int

const (
	SeverityInfo  Severity = iota // Informational message
	SeverityWarn                  // Degraded but recoverable
	SeverityError                 // Failure requiring user action
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Notice is a single user-visible message.
type Notice struct {
	SequenceNo uint64
	Message    string
	Severity   Severity
	At         time.Time
}

// Sink receives notices. Implementations must tolerate concurrent calls.
type Sink interface {
	Send(Notice) error
}

// sendTimeout bounds how long a slow sink can hold up a push.
const sendTimeout = 500 * time.Millisecond

// Manager fans notices out to subscribed sinks. Pushes are
// fire-and-forget: send errors are ignored and slow sinks are skipped.
type Manager struct {
	mu    sync.RWMutex
	sinks map[string]Sink

	seqMu sync.Mutex
	seq   uint64
}

// NewManager creates an empty notification manager.
func NewManager() *Manager {
	return &Manager{
		sinks: make(map[string]Sink),
	}
}

// Subscribe registers a sink and returns its subscription ID.
func (m *Manager) Subscribe(sink Sink) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.sinks[id] = sink
	return id
}

// Unsubscribe removes a sink. Unknown IDs are ignored.
func (m *Manager) Unsubscribe(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sinks, id)
}

// SubscriberCount returns the number of registered sinks.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sinks)
}

// Push delivers a message to every sink. It assigns the notice a
// monotonically increasing sequence number and never blocks the caller
// beyond the per-sink timeout.
func (m *Manager) Push(message string, severity Severity) {
	m.seqMu.Lock()
	m.seq++
	notice := Notice{
		SequenceNo: m.seq,
		Message:    message,
		Severity:   severity,
		At:         time.Now(),
	}
	m.seqMu.Unlock()

	m.mu.RLock()
	sinks := make([]Sink, 0, len(m.sinks))
	for _, s := range m.sinks {
		sinks = append(sinks, s)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sink := range sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
			defer cancel()

			done := make(chan struct{})
			go func() {
				_ = s.Send(notice)
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				// Slow sink, skip it this round.
			}
		}(sink)
	}
	wg.Wait()
}

// Close drops all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = make(map[string]Sink)
}
