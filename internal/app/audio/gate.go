// Package audio provides the playback enablement gate.
//
// Browser-style sandboxes refuse to start audio output until an explicit
// user gesture arrives. The gate turns that gesture into a one-shot
// arming of the underlying player; everything before it stays silent.
package audio

import (
	"sync"

	"github.com/cockroachdb/errors"
)

// Player starts and stops the actual audio output. The transport and
// codec behind it are out of scope here.
type Player interface {
	Start() error
	Stop()
}

// Gate arms a Player exactly once per session.
type Gate struct {
	mu      sync.Mutex
	player  Player
	enabled bool
}

// NewGate creates a gate over the given player.
func NewGate(player Player) *Gate {
	return &Gate{player: player}
}

// Enable arms the player. Calling it again while armed is a no-op.
func (g *Gate) Enable() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.enabled {
		return nil
	}
	if err := g.player.Start(); err != nil {
		return errors.Wrap(err, "failed to start audio output")
	}
	g.enabled = true
	return nil
}

// Enabled reports whether the player is armed.
func (g *Gate) Enabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.enabled
}

// Release stops the player and disarms the gate. Safe to call when
// the gate was never armed.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.enabled {
		return
	}
	g.player.Stop()
	g.enabled = false
}
