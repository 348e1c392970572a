// Package roomapi fetches room access tickets over HTTP.
package roomapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// Ticket carries the credentials needed to reach the signaling server.
type Ticket struct {
	SignalURL       string `json:"signalUrl"`
	Token           string `json:"token"`
	Room            string `json:"room"`
	PingIntervalSec int    `json:"pingIntervalSec"`
}

// Config represents ticket API configuration.
type Config struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration
}

// Client fetches tickets from the room API.
type Client struct {
	baseURL   string
	authToken string
	http      *http.Client
}

// New creates a ticket API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:   cfg.BaseURL,
		authToken: cfg.AuthToken,
		http:      &http.Client{Timeout: timeout},
	}
}

type ticketRequest struct {
	Room        string `json:"room"`
	Participant string `json:"participant"`
	RequestID   string `json:"requestId"`
}

type ticketResponse struct {
	Result int    `json:"result"`
	Msg    string `json:"msg"`
	Data   Ticket `json:"data"`
}

// FetchTicket obtains signaling credentials for the given room and
// participant.
func (c *Client) FetchTicket(ctx context.Context, room, participant string) (*Ticket, error) {
	body, err := json.Marshal(ticketRequest{
		Room:        room,
		Participant: participant,
		RequestID:   uuid.NewString(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal ticket request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/tickets", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create http request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "http request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("http %d: %s", resp.StatusCode, string(respBody))
	}

	var ticketResp ticketResponse
	if err := json.Unmarshal(respBody, &ticketResp); err != nil {
		return nil, errors.Wrap(err, "unmarshal response")
	}

	if ticketResp.Result != 0 {
		return nil, errors.Newf("api error (result=%d): %s", ticketResp.Result, ticketResp.Msg)
	}
	if ticketResp.Data.SignalURL == "" {
		return nil, errors.New("ticket is missing the signal url")
	}

	return &ticketResp.Data, nil
}
