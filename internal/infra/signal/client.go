// Package signal provides the websocket room connection gateway.
package signal

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/mkymd/voiceroom/internal/app/session"
)

// envelope is the generic JSON message for the room signaling protocol.
type envelope struct {
	Method   string `json:"method"`
	Token    string `json:"token,omitempty"`
	Room     string `json:"room,omitempty"`
	Name     string `json:"name,omitempty"`
	Attempt  string `json:"attempt,omitempty"`
	Code     *int   `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
	ClientID string `json:"clientId,omitempty"`
}

// Config represents the websocket gateway configuration.
type Config struct {
	URL          string
	Token        string
	Room         string
	PingInterval time.Duration
	DialTimeout  time.Duration
}

// Client speaks the JSON room signaling protocol over a websocket.
// It implements session.Gateway; outcomes flow back through the
// session.GatewayHandler.
type Client struct {
	cfg     Config
	handler session.GatewayHandler

	mu      sync.Mutex // guards conn, attempt, closed
	conn    *websocket.Conn
	attempt string
	closed  chan struct{}

	writeMu sync.Mutex
}

var _ session.Gateway = (*Client)(nil)

// NewClient creates a gateway client. No connection is made until Join.
func NewClient(cfg Config, handler session.GatewayHandler) *Client {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 20 * time.Second
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	return &Client{cfg: cfg, handler: handler}
}

// Join dials the signaling server and requests room entry under the
// given attempt token. It returns immediately; the outcome arrives as a
// handler callback carrying the token.
func (c *Client) Join(name, attempt string) {
	go c.join(name, attempt)
}

func (c *Client) join(name, attempt string) {
	c.mu.Lock()
	if c.conn != nil {
		// A previous connection is still up; drop it before rejoining.
		c.closeLocked()
	}
	c.attempt = attempt
	c.mu.Unlock()

	zlog.Debug().Msgf("signal: dialing %s (attempt %s)", c.cfg.URL, attempt)
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.DialTimeout}
	conn, _, err := dialer.Dial(c.cfg.URL, nil)
	if err != nil {
		c.handler.HandleError(attempt, fmt.Sprintf("dial %s: %v", c.cfg.URL, err))
		return
	}

	c.mu.Lock()
	if c.attempt != attempt {
		// Superseded while dialing.
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.conn = conn
	c.closed = make(chan struct{})
	closed := c.closed
	c.mu.Unlock()

	go c.readLoop(conn, closed, attempt)
	go c.pingLoop(conn, closed)

	if c.cfg.Token != "" {
		if err := c.send(conn, envelope{Method: "AUTH", Token: c.cfg.Token}); err != nil {
			c.fail(attempt, "auth send: "+err.Error())
			return
		}
	}
	if err := c.send(conn, envelope{
		Method:  "JOIN",
		Room:    c.cfg.Room,
		Name:    name,
		Attempt: attempt,
	}); err != nil {
		c.fail(attempt, "join send: "+err.Error())
	}
}

// Leave releases the room. Safe to call when not connected. A join
// still dialing is abandoned: its handshake completes into the
// superseded branch and the connection is dropped unused.
func (c *Client) Leave() {
	c.mu.Lock()
	c.attempt = ""
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return
	}
	if c.closed != nil {
		select {
		case <-c.closed:
		default:
			close(c.closed)
		}
	}
	c.conn = nil
	c.mu.Unlock()

	// Best effort: the server treats a closed socket as a leave anyway.
	c.writeMu.Lock()
	_ = conn.WriteMessage(websocket.TextMessage, mustMarshal(envelope{Method: "LEAVE"}))
	c.writeMu.Unlock()
	conn.Close()
}

// closeLocked marks the current connection as intentionally closed.
// Must be called with c.mu held.
func (c *Client) closeLocked() {
	if c.closed != nil {
		select {
		case <-c.closed:
		default:
			close(c.closed)
		}
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
}

func (c *Client) fail(attempt, reason string) {
	c.mu.Lock()
	c.closeLocked()
	c.mu.Unlock()
	c.handler.HandleError(attempt, reason)
}

func (c *Client) send(conn *websocket.Conn, msg envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	zlog.Debug().Msgf("signal: >>> %s", string(data))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) readLoop(conn *websocket.Conn, closed chan struct{}, attempt string) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-closed:
				return
			default:
			}
			zlog.Warn().Msgf("signal: read error: %v", err)
			c.fail(attempt, "connection lost: "+err.Error())
			return
		}

		zlog.Debug().Msgf("signal: <<< %s", string(data))

		var msg envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			zlog.Warn().Msgf("signal: unmarshal error: %v", err)
			continue
		}

		c.dispatch(msg, attempt)
	}
}

func (c *Client) dispatch(msg envelope, attempt string) {
	// Responses may carry their own attempt token; unsolicited events
	// are correlated with the attempt this connection was opened for.
	a := msg.Attempt
	if a == "" {
		a = attempt
	}

	switch msg.Method {
	case "JOIN_RESPONSE":
		if msg.Code == nil || *msg.Code == 0 {
			c.handler.HandleConnected(a)
		} else {
			reason := msg.Message
			if reason == "" {
				reason = fmt.Sprintf("join rejected (code %d)", *msg.Code)
			}
			c.handler.HandleError(a, reason)
		}

	case "ROOM_CLOSED":
		zlog.Info().Msg("signal: room closed by remote")
		c.handler.HandleDisconnected(a)

	case "PEER_IN":
		zlog.Debug().Msgf("signal: peer in: clientId=%s", msg.ClientID)

	case "PEER_OUT":
		zlog.Debug().Msgf("signal: peer out: clientId=%s", msg.ClientID)

	case "LEAVE_RESPONSE":
		// no-op

	default:
		zlog.Debug().Msgf("signal: unhandled method: %s", msg.Method)
	}
}

func (c *Client) pingLoop(conn *websocket.Conn, closed chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := conn.WriteControl(
				websocket.PingMessage,
				[]byte{},
				time.Now().Add(5*time.Second),
			)
			c.writeMu.Unlock()
			if err != nil {
				// Read loop surfaces the failure.
				return
			}
		}
	}
}

func mustMarshal(msg envelope) []byte {
	data, _ := json.Marshal(msg)
	return data
}
