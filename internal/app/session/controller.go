package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/mkymd/voiceroom/internal/app/notification"
	"github.com/mkymd/voiceroom/internal/domain/identity"
)

// Config holds controller configuration.
type Config struct {
	ConnectFailedMessage string // Shown when a join attempt fails
	SessionLostMessage   string // Shown when an active call fails
}

const (
	defaultConnectFailedMessage = "Could not join the call"
	defaultSessionLostMessage   = "The call ended unexpectedly"
)

// Controller owns the session state machine. It is the single writer of
// the session state; user actions and gateway callbacks are serialized
// through its mutex. It implements GatewayHandler.
type Controller struct {
	mu sync.Mutex

	phase           Phase
	participantName string
	lastError       error
	audioEnabled    bool
	attempt         string

	gateway  Gateway
	notifier Notifier
	gate     AudioGate

	config Config

	eventCh chan Event
	closed  bool
	ctx     context.Context
	cancel  context.CancelFunc
}

var _ GatewayHandler = (*Controller)(nil)

// NewController creates a controller in the idle phase. SetGateway must
// be called before any session is started.
func NewController(cfg Config, notifier Notifier, gate AudioGate) *Controller {
	if cfg.ConnectFailedMessage == "" {
		cfg.ConnectFailedMessage = defaultConnectFailedMessage
	}
	if cfg.SessionLostMessage == "" {
		cfg.SessionLostMessage = defaultSessionLostMessage
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		phase:    PhaseIdle,
		notifier: notifier,
		gate:     gate,
		config:   cfg,
		eventCh:  make(chan Event, 10),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetGateway injects the gateway after construction to resolve the
// circular dependency (Controller needs Gateway, Gateway needs
// GatewayHandler).
func (c *Controller) SetGateway(gw Gateway) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gateway = gw
}

// Events returns the observer event channel.
func (c *Controller) Events() <-chan Event {
	return c.eventCh
}

// Snapshot returns a read-only copy of the session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Phase:           c.phase,
		ParticipantName: c.participantName,
		LastError:       c.lastError,
		AudioEnabled:    c.audioEnabled,
		Attempt:         c.attempt,
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// AwaitName presents the identity form. No-op if the form is already
// shown.
func (c *Controller) AwaitName() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase == PhaseAwaitingName {
		return nil
	}
	if c.phase != PhaseIdle {
		return ErrSessionInProgress
	}
	c.setPhaseLocked(PhaseAwaitingName)
	return nil
}

// Begin starts a session with the given display name. The name is
// trimmed; an empty result is rejected without any transition or
// gateway call. On success the controller moves to connecting and asks
// the gateway to join the room under a fresh attempt token.
func (c *Controller) Begin(name string) error {
	trimmed := strings.TrimSpace(name)

	c.mu.Lock()
	if c.phase != PhaseIdle && c.phase != PhaseAwaitingName {
		c.mu.Unlock()
		return errors.Wrapf(ErrSessionInProgress, "phase %s", c.phase)
	}
	if trimmed == "" {
		c.mu.Unlock()
		return identity.ErrEmptyName
	}
	if c.gateway == nil {
		c.mu.Unlock()
		return ErrNoGateway
	}

	attempt := uuid.NewString()
	c.participantName = trimmed
	c.attempt = attempt
	c.setPhaseLocked(PhaseConnecting)
	gw := c.gateway
	c.mu.Unlock()

	zlog.Info().Msgf("session: joining as %q (attempt %s)", trimmed, attempt)
	gw.Join(trimmed, attempt)
	return nil
}

// HandleConnected moves the session to active. Stale callbacks (wrong
// attempt token or the controller already left connecting) are ignored.
func (c *Controller) HandleConnected(attempt string) {
	c.mu.Lock()
	if c.phase != PhaseConnecting || attempt != c.attempt {
		c.mu.Unlock()
		zlog.Debug().Msgf("session: ignoring stale connected callback (attempt %s)", attempt)
		return
	}
	name := c.participantName
	c.setPhaseLocked(PhaseActive)
	c.mu.Unlock()

	zlog.Info().Msgf("session: %q is in the call", name)
}

// HandleError moves the session to errored and surfaces the failure on
// the notification surface. When the failure hits an active call, the
// room is also released so no connection dangles.
func (c *Controller) HandleError(attempt, reason string) {
	c.mu.Lock()
	if (c.phase != PhaseConnecting && c.phase != PhaseActive) || attempt != c.attempt {
		c.mu.Unlock()
		zlog.Debug().Msgf("session: ignoring stale error callback (attempt %s): %s", attempt, reason)
		return
	}

	wasActive := c.phase == PhaseActive
	if wasActive {
		c.gate.Release()
		c.audioEnabled = false
	}
	c.lastError = errors.New(reason)
	c.setPhaseLocked(PhaseErrored)
	gw := c.gateway
	c.mu.Unlock()

	message := c.config.ConnectFailedMessage
	if wasActive {
		message = c.config.SessionLostMessage
	}
	zlog.Warn().Msgf("session: gateway error (attempt %s): %s", attempt, reason)
	c.notifier.Push(fmt.Sprintf("%s: %s", message, reason), notification.SeverityError)

	if wasActive {
		gw.Leave()
	}
}

// HandleDisconnected handles a clean remote end of the session. The
// controller passes through ending while audio and the room are
// released, then returns to idle with the name cleared.
func (c *Controller) HandleDisconnected(attempt string) {
	c.mu.Lock()
	if (c.phase != PhaseConnecting && c.phase != PhaseActive) || attempt != c.attempt {
		c.mu.Unlock()
		zlog.Debug().Msgf("session: ignoring stale disconnected callback (attempt %s)", attempt)
		return
	}
	c.attempt = ""
	c.setPhaseLocked(PhaseEnding)
	c.mu.Unlock()

	zlog.Info().Msg("session: remote side ended the call")
	c.teardown()
}

// Hangup ends the session at the user's request.
func (c *Controller) Hangup() error {
	c.mu.Lock()
	if c.phase != PhaseConnecting && c.phase != PhaseActive {
		c.mu.Unlock()
		return ErrNotInCall
	}
	c.attempt = ""
	c.setPhaseLocked(PhaseEnding)
	c.mu.Unlock()

	zlog.Info().Msg("session: hanging up")
	c.teardown()
	return nil
}

// Retry acknowledges an error and returns to the identity form. The
// previous name is not replayed: the error may have been caused by it.
func (c *Controller) Retry() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseErrored {
		return ErrNotErrored
	}
	c.lastError = nil
	c.participantName = ""
	c.audioEnabled = false
	c.attempt = ""
	c.setPhaseLocked(PhaseAwaitingName)
	return nil
}

// EnableAudio processes the audio-unlock user gesture. Only valid while
// active; repeated gestures are no-ops.
func (c *Controller) EnableAudio() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phase != PhaseActive {
		return ErrNotActive
	}
	if c.audioEnabled {
		return nil
	}
	if err := c.gate.Enable(); err != nil {
		return errors.Wrap(err, "audio gate")
	}
	c.audioEnabled = true
	c.sendEventLocked(Event{Type: EventAudioEnabled, Phase: c.phase})
	return nil
}

// Close releases the controller. The session state is discarded, not
// persisted. Callbacks landing afterwards are absorbed silently.
func (c *Controller) Close() {
	c.cancel()
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
}

// teardown releases audio and the room, then settles in idle. The
// phase guard covers a Begin racing in between.
func (c *Controller) teardown() {
	c.gate.Release()

	c.mu.Lock()
	gw := c.gateway
	c.mu.Unlock()
	gw.Leave()

	c.mu.Lock()
	if c.phase == PhaseEnding {
		c.participantName = ""
		c.audioEnabled = false
		c.setPhaseLocked(PhaseIdle)
	}
	c.mu.Unlock()
}

// setPhaseLocked updates the phase and emits a change event.
// Must be called with c.mu held.
func (c *Controller) setPhaseLocked(p Phase) {
	if c.phase == p {
		return
	}
	zlog.Debug().Msgf("session: phase %s -> %s", c.phase, p)
	c.phase = p
	c.sendEventLocked(Event{Type: EventPhaseChanged, Phase: p, Err: c.lastError})
}

// sendEventLocked sends an event without blocking.
// Must be called with c.mu held.
func (c *Controller) sendEventLocked(e Event) {
	if c.closed {
		return
	}
	select {
	case c.eventCh <- e:
	case <-c.ctx.Done():
	default:
		// Channel full, drop event.
	}
}
